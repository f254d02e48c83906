package claim

import "time"

// Defaults
const (
	// DefaultBaseLimit applies when an identity belongs to no configured group
	DefaultBaseLimit = 8

	// NegativeCacheSize bounds the number of remembered absent keys during cold read-through
	NegativeCacheSize = 4096

	// NegativeCacheTTL is how long an absent key is trusted before persistence is asked again
	NegativeCacheTTL = 30 * time.Second
)

// invitationKeySeparator joins claim key and invited identity into the persistence key
const invitationKeySeparator = "|"

// Error messages
const (
	ErrMsgAlreadyClaimed  = "chunk already claimed"
	ErrMsgNotClaimed      = "chunk not claimed"
	ErrMsgNotOwner        = "not the owner of this chunk"
	ErrMsgLimitExceeded   = "claim limit reached"
	ErrMsgNotInvited      = "identity is not invited to this chunk"
	ErrMsgCannotDelegate  = "only the owner may grant invitation management"
	ErrMsgInvalidTarget   = "owner cannot be invited to their own chunk"
	ErrMsgInvalidAmount   = "amount must be positive"
	ErrMsgNilIdentity     = "identity must not be empty"
	ErrMsgLoadFailed      = "failed to load claim state"
	ErrMsgReadThrough     = "failed to read claim"
	ErrMsgAlreadyOwner    = "identity already owns this chunk"
	ErrMsgLimitDetailsFmt = "%d of %d claims used"
)

// Log messages
const (
	LogMsgClaimed          = "Chunk claimed"
	LogMsgUnclaimed        = "Chunk unclaimed"
	LogMsgClaimRemoved     = "Chunk claim removed by admin"
	LogMsgClaimTransferred = "Chunk claim transferred"
	LogMsgInvited          = "Identity invited to chunk"
	LogMsgUninvited        = "Identity uninvited from chunk"
	LogMsgSlotsPurchased   = "Claim slots purchased"
	LogMsgBonusGranted     = "Claim bonus granted"
	LogMsgStateLoaded      = "Claim state loaded"
	LogMsgReadThroughHit   = "Claim read through from persistence"
)
