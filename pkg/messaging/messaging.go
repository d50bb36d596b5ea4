// Package messaging delivers outbound WhatsApp messages.
package messaging

import (
	"context"
	"strings"
)

// Sender delivers one message to a phone number. Implementations prefix the
// whatsapp: channel scheme when the number lacks one.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// WhatsAppAddress normalizes a phone number into Twilio's whatsapp: address
// form. Numbers already carrying the scheme pass through unchanged.
func WhatsAppAddress(phone string) string {
	if strings.HasPrefix(phone, "whatsapp:") {
		return phone
	}
	return "whatsapp:" + phone
}
