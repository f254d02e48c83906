// Package claim is the chunk claim registry: who owns which chunk, who else may act inside
// it, and how many chunks each identity may hold.
package claim

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osse101/chunkward/internal/concurrency"
	"github.com/osse101/chunkward/internal/domain"
	"github.com/osse101/chunkward/internal/logger"
	"github.com/osse101/chunkward/internal/metrics"
	"github.com/osse101/chunkward/internal/persistence"
)

// Service defines the claim registry operations
type Service interface {
	// Load replaces in-memory state with the persisted claims, invitations and allowances.
	Load(ctx context.Context) error

	Claim(ctx context.Context, id domain.Identity, key domain.ChunkKey) (Claim, error)
	Unclaim(ctx context.Context, id domain.Identity, key domain.ChunkKey) error
	// ClaimInfo answers from memory; before Load it reads through to persistence.
	ClaimInfo(ctx context.Context, key domain.ChunkKey) (*Claim, error)
	ChunkAt(world string, blockX, blockZ int) *Claim
	ClaimsOf(id domain.Identity) []Claim

	// Remove and Transfer are administrative and bypass ownership and limit checks.
	Remove(ctx context.Context, key domain.ChunkKey) (Claim, error)
	Transfer(ctx context.Context, key domain.ChunkKey, newOwner domain.Identity) (Claim, error)

	Invite(ctx context.Context, key domain.ChunkKey, inviter, target domain.Identity, caps domain.Capabilities) (Invitation, error)
	Uninvite(ctx context.Context, key domain.ChunkKey, actor, target domain.Identity) error
	ListInvitations(key domain.ChunkKey) []Invitation
	HasAccess(id domain.Identity, key domain.ChunkKey, capability domain.Capability) bool

	Limit(id domain.Identity) LimitInfo
	PurchaseSlots(ctx context.Context, id domain.Identity, n int) (LimitInfo, error)
	GrantBonus(ctx context.Context, id domain.Identity, n int, reason string) (LimitInfo, error)
}

// Option configures the service
type Option func(*service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithLimits sets the per-group base limits
func WithLimits(l Limits) Option {
	return func(s *service) { s.limits = l }
}

// WithGroupResolver sets the permission group lookup
func WithGroupResolver(r GroupResolver) Option {
	return func(s *service) { s.groups = r }
}

type service struct {
	claims      *persistence.Collection[Claim]
	invitations *persistence.Collection[Invitation]
	allowances  *persistence.Collection[Allowance]

	limits Limits
	groups GroupResolver
	locks  *concurrency.LockManager[domain.Identity]
	now    func() time.Time

	// mu guards every map below. Persistence writes are submitted while mu is held so the
	// per-key submission order matches the order of in-memory mutations.
	mu      sync.RWMutex
	byKey   map[domain.ChunkKey]Claim
	byOwner map[domain.Identity]map[domain.ChunkKey]struct{}
	invites map[domain.ChunkKey]map[domain.Identity]Invitation
	allow   map[domain.Identity]Allowance
	loaded  bool

	absent *expirable.LRU[domain.ChunkKey, struct{}]
}

// NewService creates a new claim registry backed by g
func NewService(g *persistence.Gateway, opts ...Option) Service {
	s := &service{
		claims:      persistence.NewCollection[Claim](g, persistence.TableClaims),
		invitations: persistence.NewCollection[Invitation](g, persistence.TableClaimInvitations),
		allowances:  persistence.NewCollection[Allowance](g, persistence.TableClaimAllowances),
		limits:      DefaultLimits(),
		groups:      NoGroups{},
		locks:       concurrency.NewLockManager[domain.Identity](),
		now:         time.Now,
		byKey:       make(map[domain.ChunkKey]Claim),
		byOwner:     make(map[domain.Identity]map[domain.ChunkKey]struct{}),
		invites:     make(map[domain.ChunkKey]map[domain.Identity]Invitation),
		allow:       make(map[domain.Identity]Allowance),
		absent:      expirable.NewLRU[domain.ChunkKey, struct{}](NegativeCacheSize, nil, NegativeCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Load(ctx context.Context) error {
	claims, err := s.claims.All().Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgLoadFailed, err)
	}
	invites, err := s.invitations.All().Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgLoadFailed, err)
	}
	allowances, err := s.allowances.All().Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgLoadFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byKey = make(map[domain.ChunkKey]Claim, len(claims))
	s.byOwner = make(map[domain.Identity]map[domain.ChunkKey]struct{})
	s.invites = make(map[domain.ChunkKey]map[domain.Identity]Invitation)
	s.allow = make(map[domain.Identity]Allowance, len(allowances))

	for _, c := range claims {
		s.insertLocked(c)
	}

	orphans := 0
	for _, inv := range invites {
		key, err := domain.ParseChunkKey(inv.ClaimKey)
		if _, claimed := s.byKey[key]; err != nil || !claimed {
			// Invitations never outlive their claim
			s.invitations.Delete(invitationKey(inv.ClaimKey, inv.Invited))
			orphans++
			continue
		}
		s.putInviteLocked(key, inv)
	}

	for _, a := range allowances {
		s.allow[a.Identity] = a
	}

	s.loaded = true
	s.absent.Purge()
	metrics.ClaimsActive.Set(float64(len(s.byKey)))

	logger.FromContext(ctx).Info(LogMsgStateLoaded,
		"claims", len(claims), "invitations", len(invites)-orphans, "orphans_removed", orphans, "allowances", len(allowances))
	return nil
}

func (s *service) Claim(ctx context.Context, id domain.Identity, key domain.ChunkKey) (Claim, error) {
	if id == domain.NilIdentity {
		return Claim{}, ErrNilIdentity
	}

	var (
		result Claim
		err    error
	)
	// Claim decisions for one identity are serialized so the limit check and the insert act
	// as one step even while the group lookup runs outside the registry lock.
	s.locks.With(id, func() {
		base := s.limits.Base(s.groups.Groups(id))

		s.mu.Lock()
		defer s.mu.Unlock()

		if existing, ok := s.byKey[key]; ok {
			if existing.Owner == id {
				err = ErrAlreadyOwner
			} else {
				err = ErrAlreadyClaimed
			}
			return
		}

		info := s.limitLocked(id, base)
		if info.Used >= info.Total() {
			err = LimitError{Used: info.Used, Limit: info.Total()}
			return
		}

		result = Claim{Key: key, Owner: id, ClaimedAt: s.now().UTC()}
		s.insertLocked(result)
		s.absent.Remove(key)
		s.claims.Upsert(key.String(), result)
		metrics.ClaimsActive.Set(float64(len(s.byKey)))
	})

	switch {
	case err == nil:
		metrics.ClaimDecisions.WithLabelValues(metrics.DecisionClaimed).Inc()
		logger.FromContext(ctx).Debug(LogMsgClaimed, "identity", id, "chunk", key.String())
	case IsLimitExceeded(err):
		metrics.ClaimDecisions.WithLabelValues(metrics.DecisionLimitExceeded).Inc()
	default:
		metrics.ClaimDecisions.WithLabelValues(metrics.DecisionAlreadyClaimed).Inc()
	}
	return result, err
}

func (s *service) Unclaim(ctx context.Context, id domain.Identity, key domain.ChunkKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byKey[key]
	if !ok {
		return ErrNotClaimed
	}
	if c.Owner != id {
		return ErrNotOwner
	}
	s.removeLocked(c)

	logger.FromContext(ctx).Debug(LogMsgUnclaimed, "identity", id, "chunk", key.String())
	return nil
}

func (s *service) ClaimInfo(ctx context.Context, key domain.ChunkKey) (*Claim, error) {
	s.mu.RLock()
	c, ok := s.byKey[key]
	loaded := s.loaded
	s.mu.RUnlock()

	if ok {
		return &c, nil
	}
	if loaded || s.absent.Contains(key) {
		return nil, nil
	}

	got, err := s.claims.Get(key.String()).Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgReadThrough, err)
	}
	if got == nil {
		s.absent.Add(key, struct{}{})
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byKey[key]; ok {
		return &existing, nil
	}
	s.insertLocked(*got)
	logger.FromContext(ctx).Debug(LogMsgReadThroughHit, "chunk", key.String())
	return got, nil
}

func (s *service) ChunkAt(world string, blockX, blockZ int) *Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.byKey[domain.ChunkOf(world, blockX, blockZ)]; ok {
		return &c
	}
	return nil
}

func (s *service) ClaimsOf(id domain.Identity) []Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Claim, 0, len(s.byOwner[id]))
	for key := range s.byOwner[id] {
		out = append(out, s.byKey[key])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

func (s *service) Remove(ctx context.Context, key domain.ChunkKey) (Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byKey[key]
	if !ok {
		return Claim{}, ErrNotClaimed
	}
	s.removeLocked(c)

	logger.FromContext(ctx).Info(LogMsgClaimRemoved, "owner", c.Owner, "chunk", key.String())
	return c, nil
}

func (s *service) Transfer(ctx context.Context, key domain.ChunkKey, newOwner domain.Identity) (Claim, error) {
	if newOwner == domain.NilIdentity {
		return Claim{}, ErrNilIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byKey[key]
	if !ok {
		return Claim{}, ErrNotClaimed
	}
	if c.Owner == newOwner {
		return Claim{}, ErrAlreadyOwner
	}

	previous := c.Owner
	delete(s.byOwner[previous], key)
	if len(s.byOwner[previous]) == 0 {
		delete(s.byOwner, previous)
	}

	// The new owner no longer needs an invitation
	if _, invited := s.invites[key][newOwner]; invited {
		s.deleteInviteLocked(key, newOwner)
	}

	c.Owner = newOwner
	s.insertLocked(c)
	s.claims.Upsert(key.String(), c)

	logger.FromContext(ctx).Info(LogMsgClaimTransferred, "from", previous, "to", newOwner, "chunk", key.String())
	return c, nil
}

func (s *service) Limit(id domain.Identity) LimitInfo {
	base := s.limits.Base(s.groups.Groups(id))
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limitLocked(id, base)
}

func (s *service) PurchaseSlots(ctx context.Context, id domain.Identity, n int) (LimitInfo, error) {
	if n <= 0 {
		return LimitInfo{}, ErrInvalidAmount
	}
	info, err := s.updateAllowance(id, func(a *Allowance) {
		a.Purchased += n
	})
	if err == nil {
		logger.FromContext(ctx).Debug(LogMsgSlotsPurchased, "identity", id, "amount", n, "limit", info.Total())
	}
	return info, err
}

func (s *service) GrantBonus(ctx context.Context, id domain.Identity, n int, reason string) (LimitInfo, error) {
	if n <= 0 {
		return LimitInfo{}, ErrInvalidAmount
	}
	info, err := s.updateAllowance(id, func(a *Allowance) {
		grants := make([]BonusGrant, len(a.Grants), len(a.Grants)+1)
		copy(grants, a.Grants)
		a.Grants = append(grants, BonusGrant{Amount: n, Reason: reason, GrantedAt: s.now().UTC()})
	})
	if err == nil {
		logger.FromContext(ctx).Info(LogMsgBonusGranted, "identity", id, "amount", n, "reason", reason, "limit", info.Total())
	}
	return info, err
}

// updateAllowance holds the identity lock so purchases cannot interleave with a claim
// decision for the same identity
func (s *service) updateAllowance(id domain.Identity, mutate func(a *Allowance)) (LimitInfo, error) {
	if id == domain.NilIdentity {
		return LimitInfo{}, ErrNilIdentity
	}

	var info LimitInfo
	s.locks.With(id, func() {
		base := s.limits.Base(s.groups.Groups(id))

		s.mu.Lock()
		defer s.mu.Unlock()

		a := s.allow[id]
		a.Identity = id
		mutate(&a)
		s.allow[id] = a
		s.allowances.Upsert(id.String(), a)
		info = s.limitLocked(id, base)
	})
	return info, nil
}

func (s *service) limitLocked(id domain.Identity, base int) LimitInfo {
	a := s.allow[id]
	return LimitInfo{
		Base:      base,
		Bonus:     a.Bonus(),
		Purchased: a.Purchased,
		Used:      len(s.byOwner[id]),
	}
}

func (s *service) insertLocked(c Claim) {
	s.byKey[c.Key] = c
	owned, ok := s.byOwner[c.Owner]
	if !ok {
		owned = make(map[domain.ChunkKey]struct{})
		s.byOwner[c.Owner] = owned
	}
	owned[c.Key] = struct{}{}
}

// removeLocked deletes the claim and cascades to its invitations
func (s *service) removeLocked(c Claim) {
	for invited := range s.invites[c.Key] {
		s.deleteInviteLocked(c.Key, invited)
	}

	delete(s.byKey, c.Key)
	delete(s.byOwner[c.Owner], c.Key)
	if len(s.byOwner[c.Owner]) == 0 {
		delete(s.byOwner, c.Owner)
	}
	s.claims.Delete(c.Key.String())
	metrics.ClaimsActive.Set(float64(len(s.byKey)))
}
