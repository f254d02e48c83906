package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/osse101/chunkward/internal/database"
	"github.com/osse101/chunkward/internal/logger"
	"github.com/osse101/chunkward/internal/persistence"
	"github.com/osse101/chunkward/internal/validation"
)

// ServiceName is reported in every log line
const ServiceName = "chunkward"

// Config holds the application configuration
type Config struct {
	Port           int    `validate:"gte=0,lte=65535"`
	APIKey         string `validate:"required"`
	TrustedProxies []string

	LogLevel    string `validate:"oneof=debug info warn error"`
	LogFormat   string `validate:"oneof=json text"`
	Environment string `validate:"required"`
	Version     string
	LogDir      string

	StoreDriver string `validate:"oneof=sqlite postgres memory"`
	SQLitePath  string `validate:"required_if=StoreDriver sqlite"`

	DBUser            string
	DBPassword        string
	DBHost            string        `validate:"required_if=StoreDriver postgres"`
	DBPort            string        `validate:"required_if=StoreDriver postgres"`
	DBName            string        `validate:"required_if=StoreDriver postgres"`
	DBSSLMode         string        `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	DBMaxConns        int           `validate:"gt=0"`
	DBMaxConnIdleTime time.Duration `validate:"gt=0"`
	DBMaxConnLifetime time.Duration `validate:"gt=0"`

	GatewayWorkers    int           `validate:"gt=0"`
	GatewayQueueSize  int           `validate:"gt=0"`
	GatewayOpTimeout  time.Duration `validate:"gt=0"`
	GatewayMaxRetries int           `validate:"gte=0"`
	GatewayRetryDelay time.Duration `validate:"gte=0"`
	DeadLetterPath    string

	ModeCooldownHours int           `validate:"gte=0"`
	NoobWindow        time.Duration `validate:"gt=0"`
	SweepInterval     time.Duration `validate:"gt=0"`
	PlaytimeTick      time.Duration `validate:"gt=0"`
	BackgroundWorkers int           `validate:"gt=0"`
	ShutdownTimeout   time.Duration `validate:"gt=0"`

	ClaimLimitsPath string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:         getEnv("API_KEY", ""),
		TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),

		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "text")),
		Environment: getEnv("ENVIRONMENT", "dev"),
		Version:     getEnv("VERSION", "dev"),
		LogDir:      getEnv("LOG_DIR", ""),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverSQLite)),
		SQLitePath:  getEnv("SQLITE_PATH", DefaultSQLitePath),

		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBName:            getEnv("DB_NAME", "chunkward"),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		DBMaxConns:        getEnvAsInt("DB_MAX_CONNS", DefaultDBMaxConns),
		DBMaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", DefaultDBMaxConnIdleTime),
		DBMaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", DefaultDBMaxConnLifetime),

		GatewayWorkers:    getEnvAsInt("GATEWAY_WORKERS", DefaultGatewayWorkers),
		GatewayQueueSize:  getEnvAsInt("GATEWAY_QUEUE_SIZE", DefaultGatewayQueueSize),
		GatewayOpTimeout:  getEnvAsDuration("GATEWAY_OP_TIMEOUT", DefaultGatewayOpTimeout),
		GatewayMaxRetries: getEnvAsInt("GATEWAY_MAX_RETRIES", DefaultGatewayMaxRetries),
		GatewayRetryDelay: getEnvAsDuration("GATEWAY_RETRY_DELAY", DefaultGatewayRetryDelay),
		DeadLetterPath:    getEnv("DEAD_LETTER_PATH", ""),

		ModeCooldownHours: getEnvAsInt("MODE_COOLDOWN_HOURS", DefaultModeCooldownHours),
		NoobWindow:        getEnvAsDuration("NOOB_WINDOW", DefaultNoobWindow),
		SweepInterval:     getEnvAsDuration("NOOB_SWEEP_INTERVAL", DefaultSweepInterval),
		PlaytimeTick:      getEnvAsDuration("PLAYTIME_TICK", DefaultPlaytimeTick),
		BackgroundWorkers: getEnvAsInt("BACKGROUND_WORKERS", DefaultBackgroundWorkers),
		ShutdownTimeout:   getEnvAsDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout),

		ClaimLimitsPath: getEnv("CLAIM_LIMITS_PATH", DefaultClaimLimitsPath),
	}

	portStr := getEnv("PORT", strconv.Itoa(DefaultPort))
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgInvalidPort, err)
	}
	cfg.Port = port

	// Validate API key is set
	if cfg.APIKey == "" {
		return nil, errors.New(ErrMsgAPIKeyMissing)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the struct tags of the configuration
func (c *Config) Validate() error {
	if err := validation.Get().Struct(c); err != nil {
		return fmt.Errorf("%s: %s", ErrMsgInvalidConfig, validation.Describe(err))
	}
	return nil
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return database.ConnString(c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// PoolConfig returns the pgx pool sizing
func (c *Config) PoolConfig() database.PoolConfig {
	return database.PoolConfig{
		MaxConns:        c.DBMaxConns,
		MaxConnIdleTime: c.DBMaxConnIdleTime,
		MaxConnLifetime: c.DBMaxConnLifetime,
	}
}

// GatewayConfig returns the persistence gateway settings
func (c *Config) GatewayConfig() persistence.Config {
	return persistence.Config{
		Workers:        c.GatewayWorkers,
		QueueSize:      c.GatewayQueueSize,
		OpTimeout:      c.GatewayOpTimeout,
		MaxRetries:     c.GatewayMaxRetries,
		RetryDelay:     c.GatewayRetryDelay,
		DeadLetterPath: c.DeadLetterPath,
	}
}

// LoggerConfig returns the slog settings
func (c *Config) LoggerConfig() logger.Config {
	return logger.NewConfig(c.LogLevel, c.LogFormat, ServiceName, c.Version, c.Environment, c.Environment == logger.EnvironmentDev)
}

// ModeCooldown is the minimum time between two voluntary mode changes
func (c *Config) ModeCooldown() time.Duration {
	return time.Duration(c.ModeCooldownHours) * time.Hour
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt parses an integer variable, falling back to the default when unset or malformed
func getEnvAsInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvAsDuration parses a time.Duration variable, falling back to the default when unset or malformed
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// getEnvAsList splits a comma separated variable, dropping empty entries
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
