package cooldown

import "time"

// Config holds cooldown durations per action
type Config struct {
	// Cooldowns maps action names to their durations.
	// Actions not listed use DefaultCooldownDuration.
	Cooldowns map[string]time.Duration
}

// GetCooldownDuration returns the cooldown duration for an action
func (c *Config) GetCooldownDuration(action string) time.Duration {
	if duration, ok := c.Cooldowns[action]; ok {
		return duration
	}
	return DefaultCooldownDuration
}
