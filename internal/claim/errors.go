package claim

import (
	"errors"
	"fmt"

	"github.com/osse101/chunkward/internal/domain"
)

var (
	ErrAlreadyClaimed = fmt.Errorf("%w: %s", domain.ErrConflict, ErrMsgAlreadyClaimed)
	ErrAlreadyOwner   = fmt.Errorf("%w: %s", domain.ErrConflict, ErrMsgAlreadyOwner)
	ErrNotClaimed     = fmt.Errorf("%w: %s", domain.ErrNotFound, ErrMsgNotClaimed)
	ErrNotInvited     = fmt.Errorf("%w: %s", domain.ErrNotFound, ErrMsgNotInvited)
	ErrNotOwner       = fmt.Errorf("%w: %s", domain.ErrUnauthorized, ErrMsgNotOwner)
	ErrCannotDelegate = fmt.Errorf("%w: %s", domain.ErrUnauthorized, ErrMsgCannotDelegate)
	ErrInvalidTarget  = fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgInvalidTarget)
	ErrInvalidAmount  = fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgInvalidAmount)
	ErrNilIdentity    = fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgNilIdentity)
)

// LimitError is returned when a claim would exceed the owner's limit
type LimitError struct {
	Used  int
	Limit int
}

func (e LimitError) Error() string {
	return ErrMsgLimitExceeded + ": " + fmt.Sprintf(ErrMsgLimitDetailsFmt, e.Used, e.Limit)
}

// Is matches any LimitError
func (e LimitError) Is(target error) bool {
	_, ok := target.(LimitError)
	return ok
}

// Unwrap exposes the taxonomy kind
func (e LimitError) Unwrap() error {
	return domain.ErrLimitExceeded
}

// ErrLimitExceeded matches every LimitError through errors.Is
var ErrLimitExceeded error = LimitError{}

// IsLimitExceeded reports whether err is a LimitError
func IsLimitExceeded(err error) bool {
	var le LimitError
	return errors.As(err, &le)
}
