package mode

// ActionModeChange names the cooldown guarding voluntary mode changes
const ActionModeChange = "mode_change"

// Error messages
const (
	ErrMsgModeUnchanged = "identity is already in that mode"
	ErrMsgInvalidMode   = "mode must be PEACEFUL or NORMAL"
	ErrMsgLoadFailed    = "failed to load identity modes"
)

// Log messages
const (
	LogMsgFirstContact = "Identity seen for the first time"
	LogMsgModeChanged  = "Identity mode changed"
	LogMsgModeForced   = "Identity mode forced by admin"
	LogMsgModesLoaded  = "Identity modes loaded"
)
