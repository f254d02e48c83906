package bootstrap

// File system permissions
const (
	DirPermission     = 0o755
	LogFilePermission = 0o644
)

// Log file rotation
const (
	LogFileTimestampFormat = "2006-01-02_15-04-05"
	LogFileNamePattern     = "session_%s.log"
	LogFileExtension       = ".log"
	LogFileRetentionCount  = 9
)

// Scheduled job names
const (
	JobNameNoobSweep    = "noob_sweep"
	JobNamePlaytimeTick = "playtime_tick"
)

// Background queue size for scheduled jobs
const BackgroundQueueSize = 16

// Log messages
const (
	LogMsgLoggingInitialized   = "Logging initialized"
	LogMsgStarting             = "Starting chunkward"
	LogMsgConfigurationLoaded  = "Configuration loaded"
	LogMsgFailedDeleteOldLog   = "Failed to delete old log file"
	LogMsgStoreOpened          = "Store opened"
	LogMsgClaimLimitsDefault   = "Claim limits file not found, using defaults"
	LogMsgClaimLimitsLoaded    = "Claim limits loaded"
	LogMsgStateLoaded          = "State loaded"
	LogMsgShuttingDown         = "Shutting down"
	LogMsgServerForcedShutdown = "Server forced to shutdown"
	LogMsgGatewayCloseFailed   = "Persistence gateway did not drain cleanly"
	LogMsgStopped              = "Stopped"
	LogMsgServerFailed         = "Server failed"
)

// Error messages
const (
	ErrMsgUnknownStoreDriver = "unknown store driver"
	ErrMsgOpenStore          = "failed to open store"
	ErrMsgOpenGateway        = "failed to open persistence gateway"
	ErrMsgLoadClaimLimits    = "failed to load claim limits"
	ErrMsgLoadState          = "failed to load state"
	ErrMsgCreateLogsDir      = "failed to create logs directory"
	ErrMsgOpenLogFile        = "failed to open log file"
)
