package config

import "time"

// Store drivers
const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Defaults
const (
	DefaultPort              = 8080
	DefaultSQLitePath        = "data/chunkward.db"
	DefaultClaimLimitsPath   = "configs/claim_limits.yaml"
	DefaultModeCooldownHours = 24
	DefaultNoobWindow        = 30 * time.Minute
	DefaultSweepInterval     = time.Minute
	DefaultPlaytimeTick      = 5 * time.Minute
	DefaultDBMaxConns        = 20
	DefaultDBMaxConnIdleTime = 5 * time.Minute
	DefaultDBMaxConnLifetime = 30 * time.Minute
	DefaultGatewayWorkers    = 4
	DefaultGatewayQueueSize  = 1024
	DefaultGatewayOpTimeout  = 5 * time.Second
	DefaultGatewayMaxRetries = 3
	DefaultGatewayRetryDelay = 100 * time.Millisecond
	DefaultShutdownTimeout   = 15 * time.Second
	DefaultBackgroundWorkers = 2
)

// Error messages
const (
	ErrMsgInvalidPort       = "invalid PORT value"
	ErrMsgAPIKeyMissing     = "API_KEY environment variable must be set for security"
	ErrMsgInvalidConfig     = "invalid configuration"
	ErrMsgReadClaimLimits   = "failed to read claim limits file"
	ErrMsgParseClaimLimits  = "failed to parse claim limits file"
	ErrMsgInvalidClaimLimit = "invalid claim limits"
)
