// Package twilio implements WhatsApp delivery through the Twilio REST API.
package twilio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/messaging"
)

// Config configures the Twilio sender.
type Config struct {
	// AccountSID and AuthToken authenticate against the Twilio API.
	AccountSID string
	AuthToken  string

	// From is the sending WhatsApp number, e.g. "whatsapp:+14155238886".
	From string
}

// Sender delivers WhatsApp messages via Twilio.
type Sender struct {
	client *twilio.RestClient
	from   string
	logger *slog.Logger
}

// New creates a sender. All three config fields are required.
func New(cfg Config) (*Sender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, fmt.Errorf("twilio sender requires account sid, auth token and from number")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &Sender{
		client: client,
		from:   messaging.WhatsAppAddress(cfg.From),
		logger: slog.Default().With("component", "messaging"),
	}, nil
}

// Send delivers body to the phone number over WhatsApp.
func (s *Sender) Send(_ context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(messaging.WhatsAppAddress(to))
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("sending whatsapp message: %w", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	s.logger.Info("whatsapp message sent", "to", messaging.WhatsAppAddress(to), "sid", sid)
	return nil
}

// Verify interface compliance.
var _ messaging.Sender = (*Sender)(nil)
