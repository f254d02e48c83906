package cooldown

import "time"

const (
	// DefaultCooldownDuration is the fallback cooldown when no specific duration is configured
	DefaultCooldownDuration = 24 * time.Hour
)

// Error formats
const (
	ErrFmtCooldownWithHours   = "action '%s' on cooldown: %dh %dm remaining"
	ErrFmtCooldownWithMinutes = "action '%s' on cooldown: %dm %ds remaining"
	ErrFmtCooldownSecondsOnly = "action '%s' on cooldown: %ds remaining"
)
