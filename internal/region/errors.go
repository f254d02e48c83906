package region

import (
	"fmt"

	"github.com/osse101/chunkward/internal/domain"
)

var (
	ErrNameTaken           = fmt.Errorf("%w: %s", domain.ErrConflict, ErrMsgNameTaken)
	ErrSelectionComplete   = fmt.Errorf("%w: %s", domain.ErrConflict, ErrMsgSelectionComplete)
	ErrIncompleteSelection = fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgIncompleteSelection)
	ErrWorldMismatch       = fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgWorldMismatch)
	ErrInvalidName         = fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgInvalidName)
	ErrNoSelection         = fmt.Errorf("%w: %s", domain.ErrNotFound, ErrMsgNoSelection)
	ErrRegionNotFound      = fmt.Errorf("%w: %s", domain.ErrNotFound, ErrMsgRegionNotFound)
)
