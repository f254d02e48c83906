package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/osse101/chunkward/internal/config"
	"github.com/osse101/chunkward/internal/logger"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogger installs the default slog logger. When cfg.LogDir is set, output is
// duplicated into a timestamped session file there and old session files are pruned.
// The returned closer releases the file.
func SetupLogger(cfg *config.Config, stdout io.Writer) (io.Closer, error) {
	w := stdout
	var closer io.Closer = nopCloser{}

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, DirPermission); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgCreateLogsDir, err)
		}
		cleanupLogs(cfg.LogDir, LogFileRetentionCount)

		name := filepath.Join(cfg.LogDir, fmt.Sprintf(LogFileNamePattern, time.Now().Format(LogFileTimestampFormat)))
		f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermission)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgOpenLogFile, err)
		}
		w = io.MultiWriter(stdout, f)
		closer = f
	}

	logger.InitLoggerWithWriter(cfg.LoggerConfig(), w)

	slog.Info(LogMsgLoggingInitialized, "level", cfg.LogLevel, "format", cfg.LogFormat, "log_dir", cfg.LogDir)
	slog.Info(LogMsgStarting,
		"environment", cfg.Environment,
		"version", cfg.Version,
		"store", cfg.StoreDriver)
	slog.Debug(LogMsgConfigurationLoaded,
		"port", cfg.Port,
		"sqlite_path", cfg.SQLitePath,
		"db_host", cfg.DBHost,
		"db_name", cfg.DBName,
		"gateway_workers", cfg.GatewayWorkers,
		"mode_cooldown", cfg.ModeCooldown(),
		"noob_window", cfg.NoobWindow)

	return closer, nil
}

// cleanupLogs keeps the newest keep session files so that a new one can be added
func cleanupLogs(logDir string, keep int) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	var logFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), LogFileExtension) {
			logFiles = append(logFiles, entry.Name())
		}
	}
	// Timestamped names sort chronologically
	sort.Strings(logFiles)

	for len(logFiles) > keep {
		if err := os.Remove(filepath.Join(logDir, logFiles[0])); err != nil {
			slog.Warn(LogMsgFailedDeleteOldLog, "file", logFiles[0], "error", err)
		}
		logFiles = logFiles[1:]
	}
}
