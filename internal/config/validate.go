package config

import "fmt"

// validBackends are the recognized escalation backend names.
var validBackends = map[string]bool{
	"telegram": true,
	"terminal": true,
	"webhook":  true,
}

// validLogLevels are the recognized log level names.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validateConfig checks the config for invalid or inconsistent values.
func validateConfig(cfg *Config) error {
	delay, err := cfg.AlertDelayDuration()
	if err != nil {
		return fmt.Errorf("invalid alert_delay: %w", err)
	}
	if delay <= 0 {
		return fmt.Errorf("alert_delay must be positive, got %s", cfg.AlertDelay)
	}

	timeout, err := cfg.PollTimeoutDuration()
	if err != nil {
		return fmt.Errorf("invalid poll_timeout: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("poll_timeout must be positive, got %s", cfg.PollTimeout)
	}

	if len(cfg.Escalation.Backends) == 0 {
		return fmt.Errorf("at least one escalation backend is required")
	}

	for _, backend := range cfg.Escalation.Backends {
		if !validBackends[backend] {
			return fmt.Errorf("unknown escalation backend: %q", backend)
		}
		if backend == "webhook" && cfg.Escalation.WebhookURL == "" {
			return fmt.Errorf("webhook backend requires webhook_url")
		}
	}

	if cfg.LogLevel != "" && !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %q", cfg.LogLevel)
	}

	return nil
}
