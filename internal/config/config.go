// Package config provides configuration loading for taskmaster.
//
// Values come from built-in defaults, then an optional YAML file, then
// environment variables. See LoadWithFile.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds the complete taskmaster configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	LLM       LLMConfig       `koanf:"llm"`
	Router    RouterConfig    `koanf:"router"`
	Events    EventsConfig    `koanf:"events"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Secrets   SecretsConfig   `koanf:"secrets"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"http_host"`
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSEnabled     bool          `koanf:"cors_enabled"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LLMConfig configures the upstream model used by the intent router.
type LLMConfig struct {
	Provider    string        `koanf:"provider"` // openai or anthropic
	Model       string        `koanf:"model"`
	Temperature float64       `koanf:"temperature"`
	APIKey      Secret        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxTokens   int           `koanf:"max_tokens"`
	RateLimit   float64       `koanf:"rate_limit"` // requests per second
	Burst       int           `koanf:"burst"`
}

// RouterConfig configures intent routing.
type RouterConfig struct {
	ScrubInput bool `koanf:"scrub_input"`
}

// EventsConfig configures task change publishing.
type EventsConfig struct {
	Enabled       bool   `koanf:"enabled"`
	NATSURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// LoggingConfig holds the user-facing logging knobs.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled        bool    `koanf:"enabled"`
	Endpoint       string  `koanf:"endpoint"`
	Protocol       string  `koanf:"protocol"` // grpc or http/protobuf
	Insecure       bool    `koanf:"insecure"`
	TLSSkipVerify  bool    `koanf:"tls_skip_verify"`
	SampleRate     float64 `koanf:"sample_rate"`
	ServiceName    string  `koanf:"service_name"`
	ServiceVersion string  `koanf:"service_version"`
}

// SecretsConfig toggles secret scrubbing.
type SecretsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0,
			Timeout:     30 * time.Second,
			MaxTokens:   256,
			RateLimit:   5,
			Burst:       5,
		},
		Router: RouterConfig{
			ScrubInput: true,
		},
		Events: EventsConfig{
			Enabled:       false,
			NATSURL:       "nats://localhost:4222",
			SubjectPrefix: "taskmaster.tasks",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			Endpoint:       "localhost:4317",
			Protocol:       "grpc",
			Insecure:       true,
			SampleRate:     1,
			ServiceName:    "taskmaster",
			ServiceVersion: "0.1.0",
		},
		Secrets: SecretsConfig{
			Enabled: true,
		},
	}
}

// Validate validates the configuration.
//
// A missing LLM API key is not an error: the server still serves the plain
// task API and routing fails on first use.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm provider: %q (must be openai or anthropic)", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be between 0 and 2, got %g", c.LLM.Temperature)
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("llm timeout must be positive")
	}
	if c.LLM.MaxTokens <= 0 {
		return errors.New("llm max_tokens must be positive")
	}
	if c.LLM.RateLimit < 0 {
		return errors.New("llm rate_limit cannot be negative")
	}
	if c.LLM.BaseURL != "" {
		if err := validateHTTPURL(c.LLM.BaseURL); err != nil {
			return fmt.Errorf("llm base_url: %w", err)
		}
	}

	if c.Events.Enabled {
		u, err := url.Parse(c.Events.NATSURL)
		if err != nil || (u.Scheme != "nats" && u.Scheme != "tls") || u.Host == "" {
			return fmt.Errorf("invalid events nats_url: %q", c.Events.NATSURL)
		}
		if c.Events.SubjectPrefix == "" {
			return errors.New("events subject_prefix required when events are enabled")
		}
	}

	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host required")
	}
	return nil
}
