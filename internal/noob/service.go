// Package noob tracks the temporary protection flag of new or manually marked identities.
// An identity is a noob while it is inside its first window since first contact, or while a
// manual record has not expired. Expiry is wall-clock based so it survives restarts.
package noob

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/chunkward/internal/domain"
	"github.com/osse101/chunkward/internal/logger"
	"github.com/osse101/chunkward/internal/metrics"
	"github.com/osse101/chunkward/internal/persistence"
)

// Record is a manual noob mark
type Record struct {
	Identity  domain.Identity `json:"identity_id"`
	ExpiresAt time.Time       `json:"expires_at"`
	CreatedAt time.Time       `json:"created_at"`
}

// FirstSeenSource reports when an identity was first seen. The mode service implements it.
type FirstSeenSource interface {
	FirstSeen(id domain.Identity) (time.Time, bool)
}

// Service defines the noob tracker operations
type Service interface {
	Load(ctx context.Context) error

	// IsNoob checks both sources; a zero firstSeenAt disables the first-contact source.
	IsNoob(id domain.Identity, firstSeenAt time.Time) bool
	// IsNoobIdentity is IsNoob with firstSeenAt looked up from the FirstSeenSource.
	IsNoobIdentity(id domain.Identity) bool
	// Remaining is how long the identity stays a noob, across both sources.
	Remaining(id domain.Identity) time.Duration
	Record(id domain.Identity) (Record, bool)

	Mark(ctx context.Context, id domain.Identity) (Record, error)
	Clear(ctx context.Context, id domain.Identity) error
	// SweepExpired deletes records with expiresAt <= now and returns how many went.
	SweepExpired(ctx context.Context) int
}

// Option configures the service
type Option func(*service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithWindow sets the protection duration of both sources
func WithWindow(d time.Duration) Option {
	return func(s *service) { s.window = d }
}

type service struct {
	records   *persistence.Collection[Record]
	firstSeen FirstSeenSource
	window    time.Duration
	now       func() time.Time

	mu    sync.RWMutex
	marks map[domain.Identity]Record
}

// NewService creates a new tracker backed by g
func NewService(g *persistence.Gateway, firstSeen FirstSeenSource, opts ...Option) Service {
	s := &service{
		records:   persistence.NewCollection[Record](g, persistence.TableNoobStatuses),
		firstSeen: firstSeen,
		window:    DefaultWindow,
		now:       time.Now,
		marks:     make(map[domain.Identity]Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Load(ctx context.Context) error {
	all, err := s.records.All().Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgLoadFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks = make(map[domain.Identity]Record, len(all))
	for _, r := range all {
		s.marks[r.Identity] = r
	}

	logger.FromContext(ctx).Info(LogMsgLoaded, "records", len(all))
	return nil
}

func (s *service) IsNoob(id domain.Identity, firstSeenAt time.Time) bool {
	return s.remaining(id, firstSeenAt, s.now()) > 0
}

func (s *service) IsNoobIdentity(id domain.Identity) bool {
	return s.Remaining(id) > 0
}

func (s *service) Remaining(id domain.Identity) time.Duration {
	var firstSeenAt time.Time
	if s.firstSeen != nil {
		firstSeenAt, _ = s.firstSeen.FirstSeen(id)
	}
	return s.remaining(id, firstSeenAt, s.now())
}

func (s *service) Record(id domain.Identity) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.marks[id]
	return r, ok
}

func (s *service) Mark(ctx context.Context, id domain.Identity) (Record, error) {
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.marks[id]; ok && now.Before(existing.ExpiresAt) {
		return existing, ErrAlreadyMarked{Remaining: existing.ExpiresAt.Sub(now)}
	}

	r := Record{Identity: id, ExpiresAt: now.Add(s.window), CreatedAt: now}
	s.marks[id] = r
	s.records.Upsert(id.String(), r)

	logger.FromContext(ctx).Info(LogMsgMarked, "identity", id, "expires_at", r.ExpiresAt)
	return r, nil
}

func (s *service) Clear(ctx context.Context, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.marks[id]; !ok {
		return ErrNotMarked
	}
	delete(s.marks, id)
	s.records.Delete(id.String())

	logger.FromContext(ctx).Info(LogMsgCleared, "identity", id)
	return nil
}

func (s *service) SweepExpired(ctx context.Context) int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	swept := 0
	for id, r := range s.marks {
		if r.ExpiresAt.After(now) {
			continue
		}
		delete(s.marks, id)
		s.records.Delete(id.String())
		swept++
	}

	if swept > 0 {
		metrics.NoobRecordsSwept.Add(float64(swept))
		logger.FromContext(ctx).Info(LogMsgSwept, "count", swept, "remaining", len(s.marks))
	}
	return swept
}

// remaining is the larger of the two sources' time left, never negative
func (s *service) remaining(id domain.Identity, firstSeenAt, now time.Time) time.Duration {
	var left time.Duration
	if !firstSeenAt.IsZero() {
		left = firstSeenAt.Add(s.window).Sub(now)
	}

	s.mu.RLock()
	r, ok := s.marks[id]
	s.mu.RUnlock()
	if ok {
		left = max(left, r.ExpiresAt.Sub(now))
	}
	return max(left, 0)
}
