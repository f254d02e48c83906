package noob

import "time"

// DefaultWindow is how long both protection sources last
const DefaultWindow = 30 * time.Minute

// Error messages
const (
	ErrMsgAlreadyMarkedFmt = "identity already marked as noob: %s remaining"
	ErrMsgNotMarked        = "identity has no noob status record"
	ErrMsgLoadFailed       = "failed to load noob statuses"
)

// Log messages
const (
	LogMsgMarked  = "Identity marked as noob"
	LogMsgCleared = "Noob status cleared"
	LogMsgSwept   = "Expired noob statuses swept"
	LogMsgLoaded  = "Noob statuses loaded"
)
