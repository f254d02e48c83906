// Package scheduler enqueues periodic jobs onto a worker pool.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/osse101/chunkward/internal/logger"
	"github.com/osse101/chunkward/internal/worker"
)

// Log messages
const (
	LogMsgJobScheduled = "Job scheduled"
	LogMsgJobSkipped   = "Scheduled job dropped, worker pool stopped"
	LogMsgJobAbandoned = "Scheduled job dropped, scheduler stopped while queue was full"
	LogMsgStopped      = "Scheduler stopped"
)

// Scheduler manages scheduled jobs
type Scheduler struct {
	workerPool *worker.Pool
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	stopOnce   sync.Once
}

// New creates a new scheduler
func New(pool *worker.Pool) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		workerPool: pool,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Schedule enqueues job on the worker pool every interval until Stop. Ticks that arrive while
// the pool queue is full wait until there is room or Stop is called; a slow job never runs concurrently with itself unless the pool
// has more than one worker.
func (s *Scheduler) Schedule(name string, interval time.Duration, job worker.Job) {
	log := logger.FromContext(context.Background())
	log.Info(LogMsgJobScheduled, "job", name, "interval", interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if !s.workerPool.EnqueueContext(s.ctx, job) {
					if s.ctx.Err() != nil {
						log.Debug(LogMsgJobAbandoned, "job", name)
					} else {
						log.Warn(LogMsgJobSkipped, "job", name)
					}
					return
				}
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

// Stop stops all scheduled jobs; it is safe to call more than once
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
		logger.FromContext(context.Background()).Info(LogMsgStopped)
	})
}
