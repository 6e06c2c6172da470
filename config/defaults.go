package config

import (
	"github.com/spf13/viper"
)

// Default follow-up tools. These are configuration, not logic: deployments
// override or extend the map under [follow_ups] in config.toml.
const (
	DefaultFollowUpSummarize = "Summarize the above"
	DefaultFollowUpDrillDown = "Break this down further"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "courier.db")

	// Copilot defaults
	v.SetDefault("copilot.enabled", true)

	// Pulse (async job infrastructure) defaults
	v.SetDefault("pulse.workers", 1)
	v.SetDefault("pulse.poll_interval_seconds", 5)
	v.SetDefault("pulse.rate_per_minute", 0)

	// Follow-up tool defaults
	v.SetDefault("follow_ups", map[string]string{
		"summarize":  DefaultFollowUpSummarize,
		"drill_down": DefaultFollowUpDrillDown,
	})
}
