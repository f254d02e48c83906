package noob

import (
	"fmt"
	"time"

	"github.com/osse101/chunkward/internal/domain"
)

// ErrNotMarked is returned when clearing an identity without a record
var ErrNotMarked = fmt.Errorf("%w: %s", domain.ErrNotFound, ErrMsgNotMarked)

// ErrAlreadyMarked is returned by Mark while an unexpired record exists
type ErrAlreadyMarked struct {
	Remaining time.Duration
}

func (e ErrAlreadyMarked) Error() string {
	return fmt.Sprintf(ErrMsgAlreadyMarkedFmt, e.Remaining.Round(time.Second))
}

// Is allows errors.Is() to match any ErrAlreadyMarked
func (e ErrAlreadyMarked) Is(target error) bool {
	_, ok := target.(ErrAlreadyMarked)
	return ok
}

// Unwrap exposes the taxonomy kind
func (e ErrAlreadyMarked) Unwrap() error {
	return domain.ErrConflict
}
