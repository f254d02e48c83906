package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	ErrMsgConflict           = "conflict"
	ErrMsgNotFound           = "not found"
	ErrMsgUnauthorized       = "unauthorized"
	ErrMsgLimitExceeded      = "limit exceeded"
	ErrMsgPersistenceFailure = "persistence failure"
	ErrMsgInvalidInput       = "invalid input"
	ErrMsgOnCooldown         = "action on cooldown"
)

// Error taxonomy shared by every component.
// Specific errors wrap one of these with fmt.Errorf("%w: ...", domain.ErrXxx) so callers can
// branch on the kind with errors.Is without knowing the component.
var (
	ErrConflict           = errors.New(ErrMsgConflict)
	ErrNotFound           = errors.New(ErrMsgNotFound)
	ErrUnauthorized       = errors.New(ErrMsgUnauthorized)
	ErrLimitExceeded      = errors.New(ErrMsgLimitExceeded)
	ErrPersistenceFailure = errors.New(ErrMsgPersistenceFailure)
	ErrInvalidInput       = errors.New(ErrMsgInvalidInput)
	ErrOnCooldown         = errors.New(ErrMsgOnCooldown)
)

// Kind returns the taxonomy sentinel err belongs to, or nil when it is not a domain error.
func Kind(err error) error {
	for _, kind := range []error{
		ErrConflict,
		ErrNotFound,
		ErrUnauthorized,
		ErrLimitExceeded,
		ErrPersistenceFailure,
		ErrInvalidInput,
		ErrOnCooldown,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
