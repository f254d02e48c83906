package reputation

// Reputation bounds, inclusive
const (
	MinReputation = -15
	MaxReputation = 15
)

// PvpPenalty is the adjustment applied for an unprovoked kill
const PvpPenalty = -1

// playtimeEpsilon absorbs float drift when many small playtime ticks add up to a whole hour
const playtimeEpsilon = 1e-9

// Error messages
const (
	ErrMsgInvalidHours = "playtime hours must be a finite non-negative number"
	ErrMsgLoadFailed   = "failed to load reputations"
)

// Log messages
const (
	LogMsgAdjusted         = "Reputation adjusted"
	LogMsgSet              = "Reputation set by admin"
	LogMsgPenaltyApplied   = "PvP penalty applied"
	LogMsgPenaltySkipped   = "PvP penalty skipped"
	LogMsgPlaytimeAccrued  = "Playtime accrued"
	LogMsgPlaytimeTickDone = "Playtime tick finished"
	LogMsgLoaded           = "Reputations loaded"
)
