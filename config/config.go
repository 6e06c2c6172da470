// Package config holds the courier service configuration, loaded from TOML
// files and COURIER_* environment variables via Viper.
package config

// Config represents the core courier configuration
type Config struct {
	Database  DatabaseConfig    `mapstructure:"database"`
	Copilot   CopilotConfig     `mapstructure:"copilot"`
	Pulse     PulseConfig       `mapstructure:"pulse"`
	FollowUps map[string]string `mapstructure:"follow_ups"`
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CopilotConfig gates the AI copilot integration. When disabled, the event
// adapter registers no listeners and every inbound event is ignored.
type CopilotConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// PulseConfig configures the async job worker pool
type PulseConfig struct {
	Workers             int `mapstructure:"workers"`                // Number of concurrent job workers (default: 1)
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`  // How often workers check for queued jobs (default: 5)
	RatePerMinute       int `mapstructure:"rate_per_minute"`        // Max jobs started per minute; 0 = unlimited
}

// FollowUpTools returns the configured follow-up tool map
// (tool name -> synthesized instruction text).
func (c *Config) FollowUpTools() map[string]string {
	return c.FollowUps
}
