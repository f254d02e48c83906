package region

// Error messages
const (
	ErrMsgNameTaken           = "region name already taken"
	ErrMsgIncompleteSelection = "selection needs two corners"
	ErrMsgSelectionComplete   = "selection already has two corners"
	ErrMsgNoSelection         = "no selection in progress"
	ErrMsgWorldMismatch       = "selection corners are in different worlds"
	ErrMsgRegionNotFound      = "region not found"
	ErrMsgInvalidName         = "invalid region name"
	ErrMsgLoadFailed          = "failed to load regions"
)

// Log messages
const (
	LogMsgSelectionStarted   = "Region selection started"
	LogMsgSelectionCancelled = "Region selection cancelled"
	LogMsgRegionCreated      = "PvP region created"
	LogMsgRegionDeleted      = "PvP region deleted"
	LogMsgRegionsLoaded      = "PvP regions loaded"
)
