package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhatsAppAddress(t *testing.T) {
	assert.Equal(t, "whatsapp:+5511999990000", WhatsAppAddress("+5511999990000"))
	assert.Equal(t, "whatsapp:+5511999990000", WhatsAppAddress("whatsapp:+5511999990000"))
}

func TestNoopSender(t *testing.T) {
	sender := NewNoopSender()
	assert.NoError(t, sender.Send(context.Background(), "+5511999990000", "olá"))
}
