// Package mode tracks each identity's behavioral mode and the cooldown between voluntary changes.
package mode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/chunkward/internal/cooldown"
	"github.com/osse101/chunkward/internal/domain"
	"github.com/osse101/chunkward/internal/logger"
	"github.com/osse101/chunkward/internal/metrics"
	"github.com/osse101/chunkward/internal/persistence"
)

var (
	ErrModeUnchanged = fmt.Errorf("%w: %s", domain.ErrConflict, ErrMsgModeUnchanged)
	ErrInvalidMode   = fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgInvalidMode)
)

// Record is the persisted mode state of one identity
type Record struct {
	Identity         domain.Identity `json:"identity_id"`
	Mode             domain.Mode     `json:"mode"`
	FirstSeenAt      time.Time       `json:"first_seen_at"`
	LastModeChangeAt *time.Time      `json:"last_mode_change_at,omitempty"`
}

// Service defines the mode state machine operations
type Service interface {
	Load(ctx context.Context) error

	// Touch records first contact; later calls return the existing record unchanged.
	Touch(ctx context.Context, id domain.Identity) Record
	Mode(id domain.Identity) domain.Mode
	Record(id domain.Identity) (Record, bool)
	FirstSeen(id domain.Identity) (time.Time, bool)
	CooldownRemaining(id domain.Identity) time.Duration

	// SetMode is the player-initiated transition, guarded by the cooldown once any
	// change has been stamped. A forced reset to UNSET does not clear the guard.
	SetMode(ctx context.Context, id domain.Identity, m domain.Mode) (Record, error)
	// ForceMode bypasses the guard but still stamps the change time, so the cooldown
	// applies to the player's next voluntary change.
	ForceMode(ctx context.Context, id domain.Identity, m domain.Mode) (Record, error)
}

// Option configures the service
type Option func(*service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithCooldown sets the minimum time between voluntary mode changes
func WithCooldown(d time.Duration) Option {
	return func(s *service) {
		s.cooldowns.Cooldowns = map[string]time.Duration{ActionModeChange: d}
	}
}

type service struct {
	records   *persistence.Collection[Record]
	cooldowns cooldown.Config
	now       func() time.Time

	mu    sync.RWMutex
	modes map[domain.Identity]Record
}

// NewService creates a new mode state machine backed by g
func NewService(g *persistence.Gateway, opts ...Option) Service {
	s := &service{
		records: persistence.NewCollection[Record](g, persistence.TableIdentityModes),
		now:     time.Now,
		modes:   make(map[domain.Identity]Record),
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
	s.modes = make(map[domain.Identity]Record, len(all))
	for _, r := range all {
		s.modes[r.Identity] = r
	}

	logger.FromContext(ctx).Info(LogMsgModesLoaded, "identities", len(all))
	return nil
}

func (s *service) Touch(ctx context.Context, id domain.Identity) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchLocked(ctx, id)
}

func (s *service) Mode(id domain.Identity) domain.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.modes[id]; ok {
		return r.Mode
	}
	return domain.ModeUnset
}

func (s *service) Record(id domain.Identity) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.modes[id]
	return r, ok
}

func (s *service) FirstSeen(id domain.Identity) (time.Time, bool) {
	r, ok := s.Record(id)
	return r.FirstSeenAt, ok
}

func (s *service) CooldownRemaining(id domain.Identity) time.Duration {
	r, ok := s.Record(id)
	if !ok {
		return 0
	}
	_, remaining := cooldown.Check(r.LastModeChangeAt, s.cooldownDuration(), s.now())
	return remaining
}

func (s *service) SetMode(ctx context.Context, id domain.Identity, m domain.Mode) (Record, error) {
	if m != domain.ModePeaceful && m != domain.ModeNormal {
		return Record{}, ErrInvalidMode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.touchLocked(ctx, id)
	if r.Mode == m {
		return r, ErrModeUnchanged
	}

	// Only a record that never changed mode leaves UNSET without the guard
	now := s.now().UTC()
	if err := cooldown.Enforce(ActionModeChange, r.LastModeChangeAt, s.cooldownDuration(), now); err != nil {
		return r, err
	}

	r = s.applyLocked(r, m, now)
	metrics.ModeChanges.WithLabelValues(string(m), metrics.OriginPlayer).Inc()
	logger.FromContext(ctx).Debug(LogMsgModeChanged, "identity", id, "mode", m)
	return r, nil
}

func (s *service) ForceMode(ctx context.Context, id domain.Identity, m domain.Mode) (Record, error) {
	if _, err := domain.ParseMode(string(m)); err != nil {
		return Record{}, ErrInvalidMode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.touchLocked(ctx, id)
	r = s.applyLocked(r, m, s.now().UTC())
	metrics.ModeChanges.WithLabelValues(string(m), metrics.OriginAdmin).Inc()
	logger.FromContext(ctx).Info(LogMsgModeForced, "identity", id, "mode", m)
	return r, nil
}

func (s *service) touchLocked(ctx context.Context, id domain.Identity) Record {
	if r, ok := s.modes[id]; ok {
		return r
	}
	r := Record{Identity: id, Mode: domain.ModeUnset, FirstSeenAt: s.now().UTC()}
	s.modes[id] = r
	s.records.Upsert(id.String(), r)
	logger.FromContext(ctx).Debug(LogMsgFirstContact, "identity", id)
	return r
}

func (s *service) applyLocked(r Record, m domain.Mode, now time.Time) Record {
	r.Mode = m
	r.LastModeChangeAt = &now
	s.modes[r.Identity] = r
	s.records.Upsert(r.Identity.String(), r)
	return r
}

func (s *service) cooldownDuration() time.Duration {
	return s.cooldowns.GetCooldownDuration(ActionModeChange)
}
