package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/classify"
)

// inboundMessage is one message received from the Twilio WhatsApp webhook.
type inboundMessage struct {
	Phone       string
	Body        string
	ProfileName string
}

// parseInbound extracts the Twilio form fields. From carries a
// "whatsapp:" scheme prefix which is stripped to the bare phone number.
func parseInbound(r *http.Request) (inboundMessage, bool) {
	if err := r.ParseForm(); err != nil {
		return inboundMessage{}, false
	}
	from := strings.TrimPrefix(r.PostFormValue("From"), "whatsapp:")
	if from == "" {
		return inboundMessage{}, false
	}
	return inboundMessage{
		Phone:       from,
		Body:        r.PostFormValue("Body"),
		ProfileName: r.PostFormValue("ProfileName"),
	}, true
}

// handleWebhook acknowledges the gateway immediately and processes the
// message in the background; the reply goes out through the sender, not the
// webhook response.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	msg, ok := parseInbound(r)
	if !ok {
		http.Error(w, "missing sender", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(msg.Body) == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.process(msg)
	}()

	w.WriteHeader(http.StatusNoContent)
}

// process runs the pipeline for one message and delivers the reply. Errors
// degrade to a fixed apology so the sender always hears back.
func (s *Server) process(msg inboundMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	reply, err := s.pipeline.HandleMessage(ctx, msg.Phone, msg.Body, msg.ProfileName)
	if err != nil {
		s.logger.Error("message pipeline failed", "phone", msg.Phone, "error", err)
		reply = classify.MsgFailed
	}
	if reply == "" {
		return
	}

	if err := s.sender.Send(ctx, msg.Phone, reply); err != nil {
		s.logger.Error("reply delivery failed", "phone", msg.Phone, "error", err)
	}
}
