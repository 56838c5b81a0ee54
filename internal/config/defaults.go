package config

const (
	DefaultDBPath      = ".vigil/vigil.db"
	DefaultAlertDelay  = "180s"
	DefaultPollTimeout = "30s"
	DefaultLogLevel    = "info"
	DefaultBackend     = "telegram"
)

// DefaultConfig returns a Config with all default values applied.
func DefaultConfig() *Config {
	return &Config{
		DBPath:      DefaultDBPath,
		AlertDelay:  DefaultAlertDelay,
		PollTimeout: DefaultPollTimeout,
		Escalation: EscalationConfig{
			Backends: []string{DefaultBackend},
		},
		LogLevel: DefaultLogLevel,
	}
}
