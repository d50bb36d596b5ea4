// Package config loads the service configuration from YAML with ${VAR}
// environment expansion.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/response"
)

// Config holds the complete service configuration.
type Config struct {
	Server    ServerConfig         `yaml:"server"`
	Database  DatabaseConfig       `yaml:"database"`
	Anthropic AnthropicConfig      `yaml:"anthropic"`
	Twilio    TwilioConfig         `yaml:"twilio"`
	PowerBI   PowerBIConfig        `yaml:"powerbi"`
	Session   SessionConfig        `yaml:"session"`
	Model     ModelConfig          `yaml:"model"`
	Query     QueryConfig          `yaml:"query"`
	Learning  LearningConfig       `yaml:"learning"`
	Response  *response.Indicators `yaml:"response_indicators,omitempty"`
}

// ServerConfig configures the webhook HTTP server.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	PipelineTimeout time.Duration `yaml:"pipeline_timeout"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// AnthropicConfig configures the model provider.
type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// TwilioConfig configures outbound WhatsApp delivery. When AccountSID is
// empty the service falls back to a logging-only sender.
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	From       string `yaml:"from"`
}

// PowerBIConfig configures the analytical query backend.
type PowerBIConfig struct {
	BaseURL string `yaml:"base_url"`
}

// SessionConfig configures dataset session lifecycle.
type SessionConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// ModelConfig configures the invocation retry loop.
type ModelConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
}

// QueryConfig configures query execution.
type QueryConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LearningConfig configures the query learning store.
type LearningConfig struct {
	WorkingLimit int `yaml:"working_limit"`
}

// Load loads configuration from a YAML file.
// Environment variables in the format ${VAR} are expanded before parsing.
func Load(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Server.PipelineTimeout == 0 {
		cfg.Server.PipelineTimeout = 2 * time.Minute
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Session.CleanupInterval == 0 {
		cfg.Session.CleanupInterval = time.Hour
	}
	if cfg.Model.MaxRetries == 0 {
		cfg.Model.MaxRetries = 4
	}
	if cfg.Model.AttemptTimeout == 0 {
		cfg.Model.AttemptTimeout = 45 * time.Second
	}
	if cfg.Query.Timeout == 0 {
		cfg.Query.Timeout = 20 * time.Second
	}
	if cfg.Learning.WorkingLimit == 0 {
		cfg.Learning.WorkingLimit = 3
	}
}

// Indicators returns the failure-response phrase lists, falling back to the
// built-in Portuguese defaults when the config omits them.
func (c *Config) Indicators() *response.Indicators {
	if c.Response != nil {
		return c.Response
	}
	return response.DefaultIndicators()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.DSN == "" {
		errs = append(errs, "database.dsn is required")
	}
	if c.Anthropic.APIKey == "" {
		errs = append(errs, "anthropic.api_key is required")
	}
	if c.Twilio.AccountSID != "" {
		if c.Twilio.AuthToken == "" {
			errs = append(errs, "twilio.auth_token is required when twilio.account_sid is set")
		}
		if c.Twilio.From == "" {
			errs = append(errs, "twilio.from is required when twilio.account_sid is set")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
