package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/chunkward/internal/domain"
	"github.com/osse101/chunkward/internal/logger"
	"github.com/osse101/chunkward/internal/metrics"
	"github.com/osse101/chunkward/internal/worker"
)

// ErrGatewayClosed is returned by futures submitted after Close
var ErrGatewayClosed = errors.New(ErrMsgGatewayClosed)

// Config configures the Gateway
type Config struct {
	Workers        int
	// QueueSize is the initial capacity of each worker's queue. Queues grow past it, so
	// submission never blocks a caller holding a domain lock.
	QueueSize      int
	OpTimeout      time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	DeadLetterPath string // empty disables dead-lettering
}

// DefaultConfig returns the gateway defaults
func DefaultConfig() Config {
	return Config{
		Workers:    DefaultWorkers,
		QueueSize:  DefaultQueueSize,
		OpTimeout:  DefaultOpTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// Gateway is the only component that touches the Store. Every operation is executed on a
// background shard and reported through a Future; operations on the same table/key pair run
// in submission order.
type Gateway struct {
	store       Store
	cfg         Config
	pool        *worker.KeyedPool
	deadLetters *DeadLetterWriter
	sleep       func(time.Duration)

	closeOnce sync.Once
	closeErr  error
}

// Open migrates the schema and then starts the gateway shards. No operation is accepted
// before the schema exists.
func Open(ctx context.Context, store Store, cfg Config) (*Gateway, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultOpTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	log := logger.FromContext(ctx)

	migrateCtx, cancel := context.WithTimeout(ctx, cfg.OpTimeout*time.Duration(len(AllTables)+1))
	defer cancel()
	if err := store.Migrate(migrateCtx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgMigrateFailed, err)
	}
	log.Info(LogMsgSchemaReady, "tables", len(AllTables))

	g := &Gateway{
		store: store,
		cfg:   cfg,
		pool:  worker.NewKeyedPool(cfg.Workers, cfg.QueueSize),
		sleep: time.Sleep,
	}

	if cfg.DeadLetterPath != "" {
		dlw, err := NewDeadLetterWriter(cfg.DeadLetterPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgDeadLetterOpen, err)
		}
		g.deadLetters = dlw
	}

	g.pool.Start()
	log.Info(LogMsgGatewayStarted, "workers", cfg.Workers, "queue_size", cfg.QueueSize)
	return g, nil
}

// Upsert inserts or replaces the document stored under key
func (g *Gateway) Upsert(table Table, key string, data []byte) *Future[struct{}] {
	return g.write(table, key, OpUpsert, data, func(ctx context.Context) error {
		return g.store.Upsert(ctx, table, key, data)
	})
}

// Delete removes the document stored under key; deleting an absent key succeeds
func (g *Gateway) Delete(table Table, key string) *Future[struct{}] {
	return g.write(table, key, OpDelete, nil, func(ctx context.Context) error {
		return g.store.Delete(ctx, table, key)
	})
}

// Get fetches the document stored under key; the future resolves to nil when absent
func (g *Gateway) Get(table Table, key string) *Future[[]byte] {
	return submit(g, table, shardKey(table, key), OpGet, func(ctx context.Context) ([]byte, error) {
		return readOnce(ctx, g, table, key, OpGet, func(ctx context.Context) ([]byte, error) {
			return g.store.Get(ctx, table, key)
		})
	})
}

// Query returns every row of table accepted by pred; a nil pred accepts all rows
func (g *Gateway) Query(table Table, pred func(Row) bool) *Future[[]Row] {
	return submit(g, table, string(table), OpQuery, func(ctx context.Context) ([]Row, error) {
		rows, err := readOnce(ctx, g, table, "*", OpQuery, func(ctx context.Context) ([]Row, error) {
			return g.store.Scan(ctx, table)
		})
		if err != nil || pred == nil {
			return rows, err
		}
		matched := rows[:0]
		for _, r := range rows {
			if pred(r) {
				matched = append(matched, r)
			}
		}
		return matched, nil
	})
}

// Flush waits until every operation submitted before the call has completed
func (g *Gateway) Flush(ctx context.Context) error {
	barriers := make([]*Future[struct{}], 0, g.pool.Shards())
	for i := 0; i < g.pool.Shards(); i++ {
		f := newFuture[struct{}]()
		err := g.pool.SubmitToShard(i, worker.JobFunc(func(context.Context) error {
			f.complete(struct{}{}, nil)
			return nil
		}))
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, ErrGatewayClosed)
		}
		barriers = append(barriers, f)
	}
	for _, f := range barriers {
		if _, err := f.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks the store is reachable
func (g *Gateway) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.OpTimeout)
	defer cancel()
	return g.store.Ping(ctx)
}

// Pending returns the number of queued operations
func (g *Gateway) Pending() int {
	return g.pool.Depth()
}

// Close stops accepting operations, drains queued ones and closes the store.
// If ctx ends before the shards drain, the store is left open and ctx.Err() is returned.
func (g *Gateway) Close(ctx context.Context) error {
	g.closeOnce.Do(func() {
		drained := make(chan struct{})
		go func() {
			g.pool.Stop()
			close(drained)
		}()

		select {
		case <-drained:
		case <-ctx.Done():
			g.closeErr = fmt.Errorf("%s: %w", ErrMsgCloseTimedOut, ctx.Err())
			return
		}

		var errs []error
		if g.deadLetters != nil {
			errs = append(errs, g.deadLetters.Close())
		}
		errs = append(errs, g.store.Close())
		g.closeErr = errors.Join(errs...)
		logger.FromContext(ctx).Info(LogMsgGatewayStopped)
	})
	return g.closeErr
}

// write applies fn with retries and exponential backoff, dead-lettering the payload when
// every attempt fails. Retries run on the key's shard, so later writes to the same key wait.
func (g *Gateway) write(table Table, key, op string, data []byte, fn func(ctx context.Context) error) *Future[struct{}] {
	return submit(g, table, shardKey(table, key), op, func(ctx context.Context) (struct{}, error) {
		log := logger.FromContext(ctx)

		var err error
		for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
			if attempt > 0 {
				metrics.PersistenceRetries.WithLabelValues(string(table)).Inc()
				log.Warn(LogMsgWriteRetry, "table", table, "key", key, "operation", op, "attempt", attempt, "error", err)
				g.sleep(CalculateRetryDelay(g.cfg.RetryDelay, attempt))
			}

			err = g.withTimeout(ctx, fn)
			if err == nil {
				if attempt > 0 {
					log.Info(LogMsgWriteRetrySucceeded, "table", table, "key", key, "operation", op, "attempt", attempt)
				}
				return struct{}{}, nil
			}
		}

		attempts := g.cfg.MaxRetries + 1
		log.Error(LogMsgWriteAbandoned, "table", table, "key", key, "operation", op, "attempts", attempts, "error", err)
		if g.deadLetters != nil {
			metrics.PersistenceDeadLetters.WithLabelValues(string(table)).Inc()
			if dlErr := g.deadLetters.Write(table, key, op, data, attempts, err); dlErr != nil {
				log.Error(LogMsgDeadLetterWriteFailed, "table", table, "key", key, "error", dlErr)
			}
		}
		return struct{}{}, opError(op, table, key, err)
	})
}

// readOnce runs a single read attempt under the op timeout; reads are not retried
func readOnce[T any](ctx context.Context, g *Gateway, table Table, key, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.OpTimeout)
	defer cancel()

	v, err := fn(ctx)
	if err != nil {
		logger.FromContext(ctx).Error(LogMsgOperationFailed, "table", table, "key", key, "operation", op, "error", err)
		var zero T
		return zero, opError(op, table, key, err)
	}
	return v, nil
}

func (g *Gateway) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.OpTimeout)
	defer cancel()
	return fn(ctx)
}

func submit[T any](g *Gateway, table Table, key, op string, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()

	job := worker.JobFunc(func(ctx context.Context) error {
		start := time.Now()
		v, err := fn(ctx)
		metrics.PersistenceOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

		result := metrics.ResultOK
		if err != nil {
			result = metrics.ResultError
		}
		metrics.PersistenceOps.WithLabelValues(string(table), op, result).Inc()
		metrics.PersistenceQueueDepth.Set(float64(g.pool.Depth()))

		f.complete(v, err)
		return err
	})

	if err := g.pool.Submit(key, job); err != nil {
		var zero T
		f.complete(zero, fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, ErrGatewayClosed))
	}
	return f
}

func shardKey(table Table, key string) string {
	return string(table) + "/" + key
}

func opError(op string, table Table, key string, err error) error {
	return fmt.Errorf("%w: "+ErrMsgOperationFmt+": %w", domain.ErrPersistenceFailure, op, table, key, err)
}
