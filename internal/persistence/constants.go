package persistence

import "time"

// Table names one logical table of the keyed store.
type Table string

// Logical tables. Every table has the same physical shape: a text key, a JSON document and
// an update timestamp.
const (
	TableClaims           Table = "claims"
	TableClaimInvitations Table = "claim_invitations"
	TableClaimAllowances  Table = "claim_allowances"
	TablePvPRegions       Table = "pvp_regions"
	TableIdentityModes    Table = "identity_modes"
	TableReputations      Table = "reputations"
	TableNoobStatuses     Table = "noob_statuses"
)

// AllTables lists every table the schema creates.
var AllTables = []Table{
	TableClaims,
	TableClaimInvitations,
	TableClaimAllowances,
	TablePvPRegions,
	TableIdentityModes,
	TableReputations,
	TableNoobStatuses,
}

// Valid reports whether t is one of the known tables. Table names are interpolated into SQL,
// so backends must reject anything else.
func (t Table) Valid() bool {
	for _, known := range AllTables {
		if t == known {
			return true
		}
	}
	return false
}

// Operation names, used for logs and metric labels
const (
	OpUpsert = "upsert"
	OpGet    = "get"
	OpDelete = "delete"
	OpQuery  = "query"
	OpFlush  = "flush"
)

// Gateway defaults
const (
	DefaultWorkers    = 4
	DefaultQueueSize  = 1024
	DefaultOpTimeout  = 5 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 250 * time.Millisecond
)

// SQLite connection settings
const (
	SQLiteDriverName  = "sqlite"
	SQLiteBusyTimeout = 5000
)

// Dead letter file configuration
const (
	// DeadLetterSchemaVersion is the current version of the dead-letter log format
	DeadLetterSchemaVersion = "1.0"

	// DeadLetterFilePermissions is the file permission mode for dead-letter files
	DeadLetterFilePermissions = 0o644
)

// Error messages
const (
	ErrMsgGatewayClosed  = "persistence gateway closed"
	ErrMsgUnknownTable   = "unknown table"
	ErrMsgMigrateFailed  = "failed to apply schema migrations"
	ErrMsgOpenSQLite     = "failed to open sqlite database"
	ErrMsgEncodeRecord   = "failed to encode record"
	ErrMsgDecodeRecord   = "failed to decode record"
	ErrMsgOperationFmt   = "%s %s/%s"
	ErrMsgStoreClosed    = "store closed"
	ErrMsgCloseTimedOut  = "timed out draining persistence shards"
	ErrMsgDeadLetterOpen = "failed to open dead letter file"
)

// Log messages
const (
	LogMsgSchemaReady           = "Persistence schema ready"
	LogMsgGatewayStarted        = "Persistence gateway started"
	LogMsgGatewayStopped        = "Persistence gateway stopped"
	LogMsgOperationFailed       = "Persistence operation failed"
	LogMsgWriteRetry            = "Persistence write failed, retrying"
	LogMsgWriteRetrySucceeded   = "Persistence write succeeded after retry"
	LogMsgWriteAbandoned        = "Persistence write abandoned after retries"
	LogMsgDeadLettered          = "Persistence write dead-lettered"
	LogMsgDeadLetterWriteFailed = "Failed to write to dead letter"
	LogMsgMigrationApplied      = "Applied schema migration"
)

// CalculateRetryDelay calculates the exponential backoff delay for retry attempts.
// Formula: baseDelay * 2^(attempt-1)
func CalculateRetryDelay(baseDelay time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return baseDelay * time.Duration(1<<(attempt-1))
}
