// Package reputation is the bounded per-identity reputation ledger: playtime regenerates it
// and unprovoked kills outside PvP areas reduce it.
package reputation

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/osse101/chunkward/internal/domain"
	"github.com/osse101/chunkward/internal/logger"
	"github.com/osse101/chunkward/internal/metrics"
	"github.com/osse101/chunkward/internal/persistence"
)

// ErrInvalidHours is returned for negative, NaN or infinite playtime
var ErrInvalidHours = fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgInvalidHours)

// Record is the persisted ledger entry of one identity
type Record struct {
	Identity             domain.Identity `json:"identity_id"`
	Reputation           int             `json:"reputation"`
	TotalPlaytimeHours   float64         `json:"total_playtime_hours"`
	LastPlaytimeUpdateAt *time.Time      `json:"last_playtime_update_at,omitempty"`
}

// Status is the band of the record's reputation
func (r Record) Status() Status {
	return StatusOf(r.Reputation)
}

// ModeReader exposes the mode of an identity
type ModeReader interface {
	Mode(id domain.Identity) domain.Mode
}

// RegionLocator reports whether a position lies inside any PvP area
type RegionLocator interface {
	InRegion(p domain.BlockPos) bool
}

// SkipReason explains why a PvP penalty was not applied
type SkipReason string

const (
	SkipNone            SkipReason = ""
	SkipSelfKill        SkipReason = "self_kill"
	SkipKillerNotNormal SkipReason = "killer_not_normal"
	SkipVictimNotNormal SkipReason = "victim_not_normal"
	SkipInPvpRegion     SkipReason = "inside_pvp_region"
)

// PenaltyResult reports the outcome of ApplyPvpPenalty. Applied can be true with a zero
// Delta when the killer is already at the minimum.
type PenaltyResult struct {
	Applied    bool       `json:"applied"`
	Delta      int        `json:"delta"`
	Reputation int        `json:"reputation"`
	Skipped    SkipReason `json:"skipped,omitempty"`
}

// Service defines the reputation ledger operations
type Service interface {
	Load(ctx context.Context) error

	// Get returns the record, creating it with reputation 0 on first query.
	Get(ctx context.Context, id domain.Identity) Record
	// Peek is a read-only lookup that never creates a record.
	Peek(id domain.Identity) (Record, bool)
	Status(ctx context.Context, id domain.Identity) Status

	// Adjust adds delta clamped to the bounds and returns the portion actually applied.
	Adjust(ctx context.Context, id domain.Identity, delta int) (int, Record)
	// Set is the administrative override; value is clamped.
	Set(ctx context.Context, id domain.Identity, value int) Record
	// AccruePlaytime adds hours and grants +1 for every whole hour boundary crossed.
	// It returns the reputation actually applied.
	AccruePlaytime(ctx context.Context, id domain.Identity, hours float64) (int, Record, error)
	ApplyPvpPenalty(ctx context.Context, killer, victim domain.Identity, at domain.BlockPos) PenaltyResult
}

// Option configures the service
type Option func(*service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	records *persistence.Collection[Record]
	modes   ModeReader
	regions RegionLocator
	now     func() time.Time

	// mu serializes every read-modify-clamp-write, so playtime ticks and penalties on the
	// same identity cannot interleave.
	mu     sync.RWMutex
	ledger map[domain.Identity]Record
}

// NewService creates a new ledger backed by g. modes and regions decide penalty eligibility.
func NewService(g *persistence.Gateway, modes ModeReader, regions RegionLocator, opts ...Option) Service {
	s := &service{
		records: persistence.NewCollection[Record](g, persistence.TableReputations),
		modes:   modes,
		regions: regions,
		now:     time.Now,
		ledger:  make(map[domain.Identity]Record),
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
	s.ledger = make(map[domain.Identity]Record, len(all))
	for _, r := range all {
		r.Reputation = Clamp(r.Reputation)
		s.ledger[r.Identity] = r
	}

	logger.FromContext(ctx).Info(LogMsgLoaded, "identities", len(all))
	return nil
}

func (s *service) Get(ctx context.Context, id domain.Identity) Record {
	s.mu.RLock()
	r, ok := s.ledger[id]
	s.mu.RUnlock()
	if ok {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *service) Peek(id domain.Identity) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ledger[id]
	return r, ok
}

func (s *service) Status(ctx context.Context, id domain.Identity) Status {
	return s.Get(ctx, id).Status()
}

func (s *service) Adjust(ctx context.Context, id domain.Identity, delta int) (int, Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied, r := s.adjustLocked(id, delta)
	logger.FromContext(ctx).Debug(LogMsgAdjusted, "identity", id, "requested", delta, "applied", applied, "reputation", r.Reputation)
	return applied, r
}

func (s *service) Set(ctx context.Context, id domain.Identity, value int) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.getLocked(id)
	r.Reputation = Clamp(value)
	s.putLocked(r)

	logger.FromContext(ctx).Info(LogMsgSet, "identity", id, "reputation", r.Reputation)
	return r
}

func (s *service) AccruePlaytime(ctx context.Context, id domain.Identity, hours float64) (int, Record, error) {
	if hours < 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return 0, Record{}, ErrInvalidHours
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.getLocked(id)
	before := wholeHours(r.TotalPlaytimeHours)
	r.TotalPlaytimeHours += hours
	crossed := wholeHours(r.TotalPlaytimeHours) - before
	now := s.now().UTC()
	r.LastPlaytimeUpdateAt = &now
	s.putLocked(r)

	applied := 0
	if crossed > 0 {
		applied, r = s.adjustLocked(id, int(crossed))
	}

	logger.FromContext(ctx).Debug(LogMsgPlaytimeAccrued,
		"identity", id, "hours", hours, "total_hours", r.TotalPlaytimeHours, "applied", applied)
	return applied, r, nil
}

func (s *service) ApplyPvpPenalty(ctx context.Context, killer, victim domain.Identity, at domain.BlockPos) PenaltyResult {
	log := logger.FromContext(ctx)

	skip := SkipNone
	switch {
	case killer == victim:
		skip = SkipSelfKill
	case s.modes.Mode(killer) != domain.ModeNormal:
		skip = SkipKillerNotNormal
	case s.modes.Mode(victim) != domain.ModeNormal:
		skip = SkipVictimNotNormal
	case s.regions.InRegion(at):
		skip = SkipInPvpRegion
	}
	if skip != SkipNone {
		log.Debug(LogMsgPenaltySkipped, "killer", killer, "victim", victim, "reason", skip)
		return PenaltyResult{Reputation: s.Get(ctx, killer).Reputation, Skipped: skip}
	}

	s.mu.Lock()
	applied, r := s.adjustLocked(killer, PvpPenalty)
	s.mu.Unlock()

	log.Debug(LogMsgPenaltyApplied, "killer", killer, "victim", victim, "applied", applied, "reputation", r.Reputation)
	return PenaltyResult{Applied: true, Delta: applied, Reputation: r.Reputation}
}

func (s *service) adjustLocked(id domain.Identity, delta int) (int, Record) {
	r := s.getLocked(id)
	// Bound delta first so the sum cannot overflow
	span := MaxReputation - MinReputation
	next := Clamp(r.Reputation + min(max(delta, -span), span))
	applied := next - r.Reputation
	if applied == 0 {
		return 0, r
	}

	r.Reputation = next
	s.putLocked(r)

	direction := metrics.DirectionUp
	if applied < 0 {
		direction = metrics.DirectionDown
	}
	metrics.ReputationAdjustments.WithLabelValues(direction).Inc()
	return applied, r
}

func (s *service) getLocked(id domain.Identity) Record {
	if r, ok := s.ledger[id]; ok {
		return r
	}
	r := Record{Identity: id}
	s.putLocked(r)
	return r
}

func (s *service) putLocked(r Record) {
	s.ledger[r.Identity] = r
	s.records.Upsert(r.Identity.String(), r)
}

func wholeHours(h float64) int64 {
	return int64(math.Floor(h + playtimeEpsilon))
}
