// Package cooldown holds cooldown arithmetic shared by rate-limited actions.
package cooldown

import (
	"fmt"
	"time"

	"github.com/osse101/chunkward/internal/domain"
)

// ErrOnCooldown is returned when action is still on cooldown
type ErrOnCooldown struct {
	Action    string
	Remaining time.Duration
}

func (e ErrOnCooldown) Error() string {
	hours := int(e.Remaining.Hours())
	minutes := int(e.Remaining.Minutes()) % 60
	seconds := int(e.Remaining.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf(ErrFmtCooldownWithHours, e.Action, hours, minutes)
	case minutes > 0:
		return fmt.Sprintf(ErrFmtCooldownWithMinutes, e.Action, minutes, seconds)
	default:
		return fmt.Sprintf(ErrFmtCooldownSecondsOnly, e.Action, seconds)
	}
}

// Is allows errors.Is() to match any ErrOnCooldown
func (e ErrOnCooldown) Is(target error) bool {
	_, ok := target.(ErrOnCooldown)
	return ok
}

// Unwrap exposes the taxonomy kind
func (e ErrOnCooldown) Unwrap() error {
	return domain.ErrOnCooldown
}

// Check reports whether an action last performed at lastUsed is still cooling down at now.
// A nil lastUsed was never performed. The cooldown has ended once exactly d has elapsed.
func Check(lastUsed *time.Time, d time.Duration, now time.Time) (bool, time.Duration) {
	if lastUsed == nil || d <= 0 {
		return false, 0
	}
	elapsed := now.Sub(*lastUsed)
	if elapsed >= d {
		return false, 0
	}
	return true, d - elapsed
}

// Enforce returns ErrOnCooldown when the action may not run yet
func Enforce(action string, lastUsed *time.Time, d time.Duration, now time.Time) error {
	if onCooldown, remaining := Check(lastUsed, d, now); onCooldown {
		return ErrOnCooldown{Action: action, Remaining: remaining}
	}
	return nil
}
