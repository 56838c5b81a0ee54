package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the watchdog.
// It is immutable after creation via LoadConfig().
type Config struct {
	// BotToken authenticates against the Telegram Bot API.
	// Only loadable from the environment, never from the config file.
	BotToken string `yaml:"-"`

	// DBPath is where the roster/settings database lives.
	// Relative paths are resolved from the config directory.
	DBPath string `yaml:"db_path"`

	// AlertDelay is how long a non-team message may go unanswered
	// before it escalates (duration string, e.g. "180s").
	// A value stored in the roster database takes precedence.
	AlertDelay string `yaml:"alert_delay"`

	// PollTimeout is the long-poll timeout for fetching updates
	PollTimeout string `yaml:"poll_timeout"`

	// Escalation configures where fired alerts are delivered
	Escalation EscalationConfig `yaml:"escalation"`

	// LogLevel controls log verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
}

// EscalationConfig selects escalation backends.
type EscalationConfig struct {
	// Backends lists enabled backends: "telegram", "terminal", "webhook".
	// Telegram is the production path; the others exist for ops testing.
	Backends []string `yaml:"backends"`

	// WebhookURL is required when the webhook backend is enabled
	WebhookURL string `yaml:"webhook_url"`
}

// AlertDelayDuration parses the alert delay as a Duration.
func (c *Config) AlertDelayDuration() (time.Duration, error) {
	return time.ParseDuration(c.AlertDelay)
}

// PollTimeoutDuration parses the poll timeout as a Duration.
func (c *Config) PollTimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(c.PollTimeout)
}

// LoadConfig loads configuration from the given directory.
// It applies defaults, then file values, then environment overrides,
// then validates.
//
// Parameters:
//   - dir: directory containing the optional .vigil.yaml file
//
// Returns the validated Config or an error if validation fails.
func LoadConfig(dir string) (*Config, error) {
	cfg := DefaultConfig()

	// Try to load config file (optional)
	configPath := filepath.Join(dir, ".vigil.yaml")
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	// Note: missing config file is not an error (use defaults)

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Resolve relative paths
	if !filepath.IsAbs(cfg.DBPath) {
		cfg.DBPath = filepath.Join(dir, cfg.DBPath)
	}

	// Validate
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
