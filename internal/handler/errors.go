package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details.
const (
	ErrMsgInvalidIdentity   = "Invalid identity"
	ErrMsgInvalidChunkCoord = "Chunk coordinates must be integers"
	ErrMsgInvalidBlockCoord = "Block coordinates must be integers"
	ErrMsgMissingWorld      = "World is required"
	ErrMsgStoreUnavailable  = "store connection failed"
	ErrMsgEncodeFailed      = "Failed to encode JSON response"
	ErrMsgWriteFailed       = "Failed to write response buffer"
	ErrMsgReadinessFailed   = "Readiness check failed"
)

// User-facing messages derived from the domain error taxonomy
const (
	ErrMsgGenericServerError = "Something went wrong"
	ErrMsgUnknownError       = "Unknown error"
	ErrMsgConflictError      = "That conflicts with the current state"
	ErrMsgNotFoundError      = "Resource not found"
	ErrMsgUnauthorizedError  = "You are not allowed to do that"
	ErrMsgLimitError         = "Limit reached"
	ErrMsgInvalidInputError  = "Invalid request. Please check your inputs."
	ErrMsgOnCooldownError    = "Action is on cooldown. Try again later"
	ErrMsgUnavailableError   = "Server is temporarily unavailable. Please try again later."
)

// Health statuses
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
)
