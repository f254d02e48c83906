package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/osse101/chunkward/internal/claim"
	"github.com/osse101/chunkward/internal/config"
	"github.com/osse101/chunkward/internal/database"
	"github.com/osse101/chunkward/internal/logger"
	"github.com/osse101/chunkward/internal/persistence"
)

// OpenStore opens the backend named by cfg.StoreDriver. The gateway owns it afterwards.
func OpenStore(ctx context.Context, cfg *config.Config) (persistence.Store, error) {
	var (
		store persistence.Store
		err   error
	)

	switch cfg.StoreDriver {
	case config.StoreDriverSQLite:
		store, err = persistence.OpenSQLite(cfg.SQLitePath)
	case config.StoreDriverPostgres:
		pool, poolErr := database.NewPool(ctx, cfg.GetDBConnString(), cfg.PoolConfig())
		if poolErr == nil {
			store = persistence.NewPostgresStore(pool)
		}
		err = poolErr
	case config.StoreDriverMemory:
		store = persistence.NewMemoryStore()
	default:
		return nil, fmt.Errorf("%s %q", ErrMsgUnknownStoreDriver, cfg.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgOpenStore, err)
	}

	logger.FromContext(ctx).Info(LogMsgStoreOpened, "driver", cfg.StoreDriver)
	return store, nil
}

// LoadClaimLimits reads the configured limits file. A missing file at the default location
// falls back to the built-in limits; a missing file anywhere else is an error.
func LoadClaimLimits(ctx context.Context, cfg *config.Config) (claim.Limits, claim.GroupResolver, error) {
	log := logger.FromContext(ctx)
	if cfg.ClaimLimitsPath == "" {
		return claim.DefaultLimits(), claim.NoGroups{}, nil
	}

	limits, members, err := config.LoadClaimLimits(cfg.ClaimLimitsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && cfg.ClaimLimitsPath == config.DefaultClaimLimitsPath {
			log.Warn(LogMsgClaimLimitsDefault, "path", cfg.ClaimLimitsPath)
			return claim.DefaultLimits(), claim.NoGroups{}, nil
		}
		return claim.Limits{}, nil, fmt.Errorf("%s: %w", ErrMsgLoadClaimLimits, err)
	}

	log.Info(LogMsgClaimLimitsLoaded,
		"path", cfg.ClaimLimitsPath,
		"default", limits.Default,
		"groups", len(limits.Groups),
		"members", len(members))
	return limits, members, nil
}
