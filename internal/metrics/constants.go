package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Persistence metric names
const (
	MetricNamePersistenceOps         = "persistence_operations_total"
	MetricNamePersistenceOpDuration  = "persistence_operation_duration_seconds"
	MetricNamePersistenceRetries     = "persistence_retries_total"
	MetricNamePersistenceDeadLetters = "persistence_dead_letters_total"
	MetricNamePersistenceQueueDepth  = "persistence_queue_depth"
)

// Domain metric names
const (
	MetricNameClaimsActive          = "claims_active"
	MetricNameClaimDecisions        = "claim_decisions_total"
	MetricNameReputationAdjustments = "reputation_adjustments_total"
	MetricNameModeChanges           = "mode_changes_total"
	MetricNameNoobRecordsSwept      = "noob_records_swept_total"
	MetricNameRegionsActive         = "pvp_regions_active"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Persistence metric help text
const (
	HelpTextPersistenceOps         = "Persistence gateway operations by table, operation and result"
	HelpTextPersistenceOpDuration  = "Persistence gateway operation latency in seconds"
	HelpTextPersistenceRetries     = "Write retries issued by the persistence gateway"
	HelpTextPersistenceDeadLetters = "Writes abandoned after exhausting retries"
	HelpTextPersistenceQueueDepth  = "Operations queued on persistence shards"
)

// Domain metric help text
const (
	HelpTextClaimsActive          = "Number of claimed chunks held in memory"
	HelpTextClaimDecisions        = "Claim attempts by outcome"
	HelpTextReputationAdjustments = "Applied reputation adjustments by direction"
	HelpTextModeChanges           = "Mode transitions by target mode and origin"
	HelpTextNoobRecordsSwept      = "Expired noob status records removed by the sweeper"
	HelpTextRegionsActive         = "Number of PvP regions defined"
)

// ============================================================================
// Label Names
// ============================================================================

const (
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
	LabelTable     = "table"
	LabelOperation = "operation"
	LabelResult    = "result"
	LabelDirection = "direction"
	LabelMode      = "mode"
	LabelOrigin    = "origin"
)

// ============================================================================
// Label Values
// ============================================================================

const (
	ResultOK    = "ok"
	ResultError = "error"

	DirectionUp   = "up"
	DirectionDown = "down"

	OriginPlayer = "player"
	OriginAdmin  = "admin"

	DecisionClaimed        = "claimed"
	DecisionAlreadyClaimed = "already_claimed"
	DecisionLimitExceeded  = "limit_exceeded"
)

// ============================================================================
// Buckets
// ============================================================================

var (
	// HTTPLatencyBuckets covers fast read-only operator queries
	HTTPLatencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

	// PersistenceLatencyBuckets covers local sqlite writes through remote postgres round trips
	PersistenceLatencyBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1, 5}
)
