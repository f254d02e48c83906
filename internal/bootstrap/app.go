package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/osse101/chunkward/internal/claim"
	"github.com/osse101/chunkward/internal/config"
	"github.com/osse101/chunkward/internal/logger"
	"github.com/osse101/chunkward/internal/mode"
	"github.com/osse101/chunkward/internal/noob"
	"github.com/osse101/chunkward/internal/persistence"
	"github.com/osse101/chunkward/internal/region"
	"github.com/osse101/chunkward/internal/reputation"
	"github.com/osse101/chunkward/internal/scheduler"
	"github.com/osse101/chunkward/internal/server"
	"github.com/osse101/chunkward/internal/session"
	"github.com/osse101/chunkward/internal/worker"
)

// App is the wired process: one gateway, the five domain services and the operator surface.
// Hosts drive the domain services directly and report connections through Sessions.
type App struct {
	Config     *config.Config
	Gateway    *persistence.Gateway
	Claims     claim.Service
	Regions    region.Service
	Modes      mode.Service
	Reputation reputation.Service
	Noob       noob.Service
	Sessions   *session.Tracker
	Server     *server.Server

	pool         *worker.Pool
	scheduler    *scheduler.Scheduler
	shutdownOnce sync.Once
}

// New opens the store, migrates it, builds every service and loads persisted state.
// Background jobs and the HTTP server start in Run.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	g, err := persistence.Open(ctx, store, cfg.GatewayConfig())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgOpenGateway, err)
	}

	limits, groups, err := LoadClaimLimits(ctx, cfg)
	if err != nil {
		_ = g.Close(ctx)
		return nil, err
	}

	a := &App{Config: cfg, Gateway: g}
	a.Claims = claim.NewService(g, claim.WithLimits(limits), claim.WithGroupResolver(groups))
	a.Regions = region.NewService(g)
	a.Modes = mode.NewService(g, mode.WithCooldown(cfg.ModeCooldown()))
	a.Reputation = reputation.NewService(g, a.Modes, a.Regions)
	a.Noob = noob.NewService(g, a.Modes, noob.WithWindow(cfg.NoobWindow))
	a.Sessions = session.NewTracker(a.Modes, a.Regions)

	loaders := []struct {
		name string
		load func(context.Context) error
	}{
		{"claims", a.Claims.Load},
		{"regions", a.Regions.Load},
		{"modes", a.Modes.Load},
		{"reputation", a.Reputation.Load},
		{"noob", a.Noob.Load},
	}
	for _, l := range loaders {
		if err := l.load(ctx); err != nil {
			_ = g.Close(ctx)
			return nil, fmt.Errorf("%s %s: %w", ErrMsgLoadState, l.name, err)
		}
	}
	logger.FromContext(ctx).Info(LogMsgStateLoaded,
		"regions", len(a.Regions.List()))

	a.Server = server.NewServer(
		server.Options{Port: cfg.Port, APIKey: cfg.APIKey, TrustedProxies: cfg.TrustedProxies},
		server.Services{
			Store:      g,
			Claims:     a.Claims,
			Regions:    a.Regions,
			Modes:      a.Modes,
			Reputation: a.Reputation,
			Noob:       a.Noob,
		},
	)

	a.pool = worker.NewPool(cfg.BackgroundWorkers, BackgroundQueueSize)
	a.scheduler = scheduler.New(a.pool)
	return a, nil
}

// Run starts the periodic jobs and the HTTP server, blocks until ctx is canceled or the
// server fails, then shuts everything down within cfg.ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	a.pool.Start()
	a.scheduler.Schedule(JobNameNoobSweep, a.Config.SweepInterval, &noob.SweepJob{Tracker: a.Noob})
	a.scheduler.Schedule(JobNamePlaytimeTick, a.Config.PlaytimeTick, &reputation.PlaytimeJob{
		Ledger: a.Reputation,
		Online: a.Sessions,
		Tick:   a.Config.PlaytimeTick,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := a.Server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serverErr:
		log.Error(LogMsgServerFailed, "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.ShutdownTimeout)
	defer cancel()
	a.Shutdown(shutdownCtx)
	return runErr
}

// Shutdown stops everything New and Run started; it is safe to call more than once
func (a *App) Shutdown(ctx context.Context) {
	a.shutdownOnce.Do(func() {
		GracefulShutdown(ctx, ShutdownComponents{
			Server:    a.Server,
			Scheduler: a.scheduler,
			Pool:      a.pool,
			Gateway:   a.Gateway,
		})
	})
}
