package messaging

import (
	"context"
	"log/slog"
)

// NoopSender logs messages instead of delivering them. Used in local
// development and tests where no Twilio credentials exist.
type NoopSender struct {
	logger *slog.Logger
}

// NewNoopSender creates a logging-only sender.
func NewNoopSender() *NoopSender {
	return &NoopSender{logger: slog.Default().With("component", "messaging")}
}

// Send logs the message and succeeds.
func (s *NoopSender) Send(_ context.Context, to, body string) error {
	s.logger.Info("message send skipped", "to", WhatsAppAddress(to), "length", len(body))
	return nil
}

// Verify interface compliance.
var _ Sender = (*NoopSender)(nil)
