package config

import "github.com/nerida-ai/courier/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Pulse workers: 0 = no background workers, negative = invalid
	if c.Pulse.Workers < 0 {
		return errors.Newf("pulse.workers must be >= 0, got %d", c.Pulse.Workers)
	}

	if c.Pulse.PollIntervalSeconds < 0 {
		return errors.Newf("pulse.poll_interval_seconds must be >= 0, got %d", c.Pulse.PollIntervalSeconds)
	}

	// Rate limit: 0 = unlimited, negative = invalid
	if c.Pulse.RatePerMinute < 0 {
		return errors.Newf("pulse.rate_per_minute must be >= 0, got %d", c.Pulse.RatePerMinute)
	}

	// Follow-up tools must have non-empty instruction text; an empty
	// synthesized prompt would be stored and dispatched as-is
	for tool, text := range c.FollowUps {
		if tool == "" {
			return errors.New("follow_ups contains an empty tool name")
		}
		if text == "" {
			return errors.Newf("follow_ups.%s has empty instruction text", tool)
		}
	}

	return nil
}
