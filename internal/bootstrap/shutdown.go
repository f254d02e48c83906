package bootstrap

import (
	"context"

	"github.com/osse101/chunkward/internal/logger"
	"github.com/osse101/chunkward/internal/persistence"
	"github.com/osse101/chunkward/internal/scheduler"
	"github.com/osse101/chunkward/internal/server"
	"github.com/osse101/chunkward/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown. Nil fields are skipped.
type ShutdownComponents struct {
	Server    *server.Server
	Scheduler *scheduler.Scheduler
	Pool      *worker.Pool
	Gateway   *persistence.Gateway
}

// GracefulShutdown stops components in dependency order:
// 1. HTTP server (stop accepting queries)
// 2. Scheduler and worker pool (no new mutations from periodic jobs)
// 3. Persistence gateway (drain every queued write, then close the store)
//
// Errors are logged and do not stop the sequence.
func GracefulShutdown(ctx context.Context, c ShutdownComponents) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgShuttingDown)

	if c.Server != nil {
		if err := c.Server.Stop(ctx); err != nil {
			log.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.Pool != nil {
		c.Pool.Stop()
	}

	if c.Gateway != nil {
		if err := c.Gateway.Close(ctx); err != nil {
			log.Error(LogMsgGatewayCloseFailed, "error", err, "pending", c.Gateway.Pending())
		}
	}

	log.Info(LogMsgStopped)
}
