// Package server hosts the WhatsApp webhook and drives the message pipeline.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/health"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/messaging"
)

// Version is set at build time.
var Version = "dev"

// Config configures the HTTP server.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// PipelineTimeout bounds the background processing of one inbound
	// message, covering model retries and query execution.
	PipelineTimeout time.Duration
}

// Server receives inbound WhatsApp webhooks and replies through the
// messaging sender. Webhook processing runs in the background so the
// gateway gets an immediate acknowledgment.
type Server struct {
	httpServer *http.Server
	pipeline   *Pipeline
	sender     messaging.Sender
	checker    *health.Checker
	timeout    time.Duration
	logger     *slog.Logger

	// inflight tracks background message handlers for drain on shutdown.
	inflight sync.WaitGroup
}

// New creates the server and registers its routes.
func New(cfg Config, pipeline *Pipeline, sender messaging.Sender, checker *health.Checker) *Server {
	if cfg.PipelineTimeout == 0 {
		cfg.PipelineTimeout = 2 * time.Minute
	}
	s := &Server{
		pipeline: pipeline,
		sender:   sender,
		checker:  checker,
		timeout:  cfg.PipelineTimeout,
		logger:   slog.Default().With("component", "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/whatsapp", methodOnly(http.MethodPost, s.handleWebhook))
	mux.HandleFunc("/healthz", methodOnly(http.MethodGet, checker.LivenessHandler()))
	mux.HandleFunc("/readyz", methodOnly(http.MethodGet, checker.ReadinessHandler()))

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// methodOnly restricts a route to one HTTP method, matching the behavior
// of Go 1.22+ ServeMux method patterns on older toolchains.
func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.checker.SetReady()
	s.logger.Info("server listening", "address", s.httpServer.Addr, "version", Version)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

// Shutdown drains the listener and waits for in-flight message handlers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.checker.SetDraining()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining message handlers: %w", ctx.Err())
	}
}
