package reputation

import (
	"context"
	"time"

	"github.com/osse101/chunkward/internal/domain"
	"github.com/osse101/chunkward/internal/logger"
)

// OnlineSource lists identities currently online. The host's session layer implements it.
type OnlineSource interface {
	Online() []domain.Identity
}

// PlaytimeJob credits one tick of playtime to every online identity. It is meant to be
// scheduled every Tick.
type PlaytimeJob struct {
	Ledger Service
	Online OnlineSource
	Tick   time.Duration
}

// Process implements worker.Job
func (j *PlaytimeJob) Process(ctx context.Context) error {
	hours := j.Tick.Hours()
	credited, regenerated := 0, 0
	for _, id := range j.Online.Online() {
		if err := ctx.Err(); err != nil {
			return err
		}
		applied, _, err := j.Ledger.AccruePlaytime(ctx, id, hours)
		if err != nil {
			return err
		}
		credited++
		regenerated += applied
	}

	logger.FromContext(ctx).Debug(LogMsgPlaytimeTickDone, "identities", credited, "regenerated", regenerated)
	return nil
}
