package worker

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/osse101/chunkward/internal/logger"
)

// ErrPoolClosed is returned when submitting to a stopped KeyedPool
var ErrPoolClosed = errors.New(ErrMsgPoolClosed)

// KeyedPool runs jobs on a fixed set of single-goroutine shards.
// Jobs submitted with the same key always land on the same shard, so they run in
// submission order. Jobs with different keys have no ordering relative to each other.
// Submission never blocks: each shard queue grows as needed.
type KeyedPool struct {
	shards []*shard
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// shard is an unbounded FIFO drained by one goroutine
type shard struct {
	mu     sync.Mutex
	jobs   []Job
	head   int
	closed bool
	wake   chan struct{}
}

// NewKeyedPool creates a pool with the given number of shards. queueSize is the initial
// capacity of each shard queue, not a bound.
func NewKeyedPool(shards, queueSize int) *KeyedPool {
	if shards < 1 {
		shards = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	p := &KeyedPool{shards: make([]*shard, shards)}
	for i := range p.shards {
		p.shards[i] = &shard{
			jobs: make([]Job, 0, queueSize),
			wake: make(chan struct{}, 1),
		}
	}
	return p
}

// Start launches one goroutine per shard
func (p *KeyedPool) Start() {
	for _, s := range p.shards {
		p.wg.Add(1)
		go p.run(s)
	}
}

func (p *KeyedPool) run(s *shard) {
	defer p.wg.Done()
	ctx := context.Background()
	for {
		job, ok := s.next()
		if !ok {
			return
		}
		if err := job.Process(ctx); err != nil {
			logger.FromContext(ctx).Debug(LogMsgWorkerJobFailed, "error", err)
		}
	}
}

// next blocks until a job is queued; it reports false once the shard is closed and empty
func (s *shard) next() (Job, bool) {
	s.mu.Lock()
	for s.head == len(s.jobs) {
		if s.closed {
			s.mu.Unlock()
			return nil, false
		}
		s.mu.Unlock()
		<-s.wake
		s.mu.Lock()
	}

	job := s.jobs[s.head]
	s.jobs[s.head] = nil
	s.head++
	if s.head == len(s.jobs) {
		s.jobs = s.jobs[:0]
		s.head = 0
	}
	s.mu.Unlock()
	return job, true
}

func (s *shard) push(job Job) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrPoolClosed
	}
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	s.signal()
	return nil
}

func (s *shard) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
}

func (s *shard) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *shard) depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs) - s.head
}

// ShardFor returns the shard index serving key
func (p *KeyedPool) ShardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(p.shards)))
}

// Shards returns the number of shards
func (p *KeyedPool) Shards() int {
	return len(p.shards)
}

// Submit queues job on the shard owning key
func (p *KeyedPool) Submit(key string, job Job) error {
	return p.SubmitToShard(p.ShardFor(key), job)
}

// SubmitToShard queues job on shard i
func (p *KeyedPool) SubmitToShard(i int, job Job) error {
	return p.shards[i%len(p.shards)].push(job)
}

// Depth returns the number of queued jobs across all shards
func (p *KeyedPool) Depth() int {
	n := 0
	for _, s := range p.shards {
		n += s.depth()
	}
	return n
}

// Stop refuses new jobs, lets every shard drain what is already queued and waits for them
func (p *KeyedPool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	for _, s := range p.shards {
		s.close()
	}
	p.wg.Wait()
}
