package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osse101/chunkward/internal/testing/leaktest"
	"github.com/osse101/chunkward/internal/worker"
)

// MockJob is a simple job for testing
type MockJob struct {
	RunCount atomic.Int32
	Done     chan struct{}
}

func (m *MockJob) Process(ctx context.Context) error {
	m.RunCount.Add(1)
	select {
	case m.Done <- struct{}{}:
	default:
	}
	return nil
}

func TestScheduler(t *testing.T) {
	pool := worker.NewPool(1, 10)
	pool.Start()
	defer pool.Stop()

	sched := New(pool)
	defer sched.Stop()

	job := &MockJob{Done: make(chan struct{}, 10)}
	sched.Schedule("mock", 10*time.Millisecond, job)

	timeout := time.After(time.Second)
	runCount := 0
	for runCount < 2 {
		select {
		case <-job.Done:
			runCount++
		case <-timeout:
			t.Fatal("Timeout waiting for job execution")
		}
	}

	assert.GreaterOrEqual(t, int(job.RunCount.Load()), 2)
}

func TestScheduler_StopIsIdempotentAndLeavesNoGoroutines(t *testing.T) {
	leaktest.CheckNoGoroutineLeak(t, func() {
		pool := worker.NewPool(1, 1)
		pool.Start()

		sched := New(pool)
		sched.Schedule("a", time.Hour, &MockJob{Done: make(chan struct{}, 1)})
		sched.Schedule("b", time.Hour, &MockJob{Done: make(chan struct{}, 1)})

		sched.Stop()
		sched.Stop()
		pool.Stop()
	})
}

func TestScheduler_ExitsWhenPoolStops(t *testing.T) {
	pool := worker.NewPool(1, 1)
	pool.Start()
	pool.Stop()

	sched := New(pool)
	job := &MockJob{Done: make(chan struct{}, 1)}
	sched.Schedule("orphan", 5*time.Millisecond, job)

	// The ticker goroutine notices the stopped pool and returns on its own
	done := make(chan struct{})
	go func() {
		sched.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler goroutine did not exit after pool stop")
	}
	sched.Stop()
	assert.Zero(t, job.RunCount.Load())
}

func TestScheduler_StopDoesNotWaitOnFullQueue(t *testing.T) {
	// Never started, so the single queue slot fills on the first tick and later ticks block
	pool := worker.NewPool(1, 1)
	defer pool.Stop()

	sched := New(pool)
	sched.Schedule("stuck", time.Millisecond, &MockJob{Done: make(chan struct{}, 1)})
	time.Sleep(50 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		sched.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a full worker queue")
	}
}
