package config

import "os"

// envOverrides maps environment variables to config field setters.
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{
		envVar: "VIGIL_BOT_TOKEN",
		apply: func(c *Config, v string) {
			c.BotToken = v
		},
	},
	{
		envVar: "VIGIL_DB_PATH",
		apply: func(c *Config, v string) {
			c.DBPath = v
		},
	},
	{
		envVar: "VIGIL_ALERT_DELAY",
		apply: func(c *Config, v string) {
			c.AlertDelay = v
		},
	},
	{
		envVar: "VIGIL_WEBHOOK_URL",
		apply: func(c *Config, v string) {
			c.Escalation.WebhookURL = v
		},
	},
	{
		envVar: "VIGIL_LOG_LEVEL",
		apply: func(c *Config, v string) {
			c.LogLevel = v
		},
	},
}

// applyEnvOverrides modifies config in place with environment variable values.
func applyEnvOverrides(cfg *Config) {
	for _, override := range envOverrides {
		if val := os.Getenv(override.envVar); val != "" {
			override.apply(cfg, val)
		}
	}
}
