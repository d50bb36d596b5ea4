// Package main provides the entry point for the meudashboard assistant.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/AlexandrePreito/meudashboard-sub003/internal/server"
	catalogpg "github.com/AlexandrePreito/meudashboard-sub003/pkg/catalog/postgres"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/config"
	connectionpg "github.com/AlexandrePreito/meudashboard-sub003/pkg/connection/postgres"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/database/migrate"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/health"
	learningpg "github.com/AlexandrePreito/meudashboard-sub003/pkg/learning/postgres"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/messaging"
	twiliosender "github.com/AlexandrePreito/meudashboard-sub003/pkg/messaging/twilio"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/model"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/model/anthropic"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/query"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/query/powerbi"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/response"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/session"
	sessionpg "github.com/AlexandrePreito/meudashboard-sub003/pkg/session/postgres"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	showVersion bool
}

func parseFlags() options {
	opts := options{}
	flag.StringVar(&opts.configPath, "config", "config.yaml", "Path to configuration file")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flag.Parse()
	return opts
}

func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}

func run() error {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("meudashboard version %s\n", server.Version)
		return nil
	}

	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	srv, cleanup, err := buildServer(cfg, db)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := setupSignalHandler()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := migrate.Run(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

func buildServer(cfg *config.Config, db *sql.DB) (*server.Server, func(), error) {
	sessions := sessionpg.New(db, sessionpg.Config{TTL: cfg.Session.TTL})
	sessions.StartCleanupRoutine(cfg.Session.CleanupInterval)
	resolver := session.NewResolver(sessions, catalogpg.New(db), cfg.Session.TTL)

	connections := connectionpg.New(db)
	tokens := token.NewCache(token.NewOAuthProvider(token.OAuthConfig{}), token.CacheConfig{})
	backend := powerbi.New(powerbi.Config{BaseURL: cfg.PowerBI.BaseURL})
	engine := query.NewEngine(connections, tokens, backend, query.EngineConfig{Timeout: cfg.Query.Timeout})

	provider, err := anthropic.New(anthropic.Config{
		APIKey:  cfg.Anthropic.APIKey,
		BaseURL: cfg.Anthropic.BaseURL,
	})
	if err != nil {
		return nil, nil, err
	}
	invoker := model.NewInvoker(provider, model.InvokerConfig{
		MaxRetries:     cfg.Model.MaxRetries,
		AttemptTimeout: cfg.Model.AttemptTimeout,
		Model:          cfg.Anthropic.Model,
		MaxTokens:      cfg.Anthropic.MaxTokens,
	})

	sender, err := buildSender(cfg)
	if err != nil {
		return nil, nil, err
	}

	pipeline := server.NewPipeline(
		resolver, invoker, engine,
		learningpg.New(db),
		response.NewClassifier(cfg.Indicators()),
		cfg.Learning.WorkingLimit,
	)

	srv := server.New(server.Config{
		Address:         cfg.Server.Address,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		PipelineTimeout: cfg.Server.PipelineTimeout,
	}, pipeline, sender, health.NewChecker(db))

	cleanup := func() { _ = sessions.Close() }
	return srv, cleanup, nil
}

func buildSender(cfg *config.Config) (messaging.Sender, error) {
	if cfg.Twilio.AccountSID == "" {
		slog.Warn("twilio not configured, replies will only be logged")
		return messaging.NewNoopSender(), nil
	}
	return twiliosender.New(twiliosender.Config{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		From:       cfg.Twilio.From,
	})
}
