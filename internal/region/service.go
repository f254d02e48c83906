// Package region stores administrator-defined PvP areas and the two-click selection sessions
// used to define them.
package region

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/osse101/chunkward/internal/domain"
	"github.com/osse101/chunkward/internal/logger"
	"github.com/osse101/chunkward/internal/metrics"
	"github.com/osse101/chunkward/internal/persistence"
	"github.com/osse101/chunkward/internal/validation"
)

// Service defines the region store operations
type Service interface {
	Load(ctx context.Context) error

	// BeginSelection sets the first corner, discarding any earlier selection.
	BeginSelection(ctx context.Context, id domain.Identity, p domain.BlockPos) Selection
	// ContinueSelection sets the second corner. A completed selection is never reset
	// implicitly: the unchanged selection is returned with ErrSelectionComplete.
	ContinueSelection(ctx context.Context, id domain.Identity, p domain.BlockPos) (Selection, error)
	Selection(id domain.Identity) (Selection, bool)
	CancelSelection(ctx context.Context, id domain.Identity)

	// Create finalizes the identity's selection as a region named name and clears it.
	Create(ctx context.Context, id domain.Identity, name string) (Region, error)
	Define(ctx context.Context, creator domain.Identity, name string, a, b domain.BlockPos) (Region, error)
	Delete(ctx context.Context, name string) error

	Get(name string) *Region
	List() []Region
	// Contains returns the region covering p; the most recently created wins on overlap.
	Contains(p domain.BlockPos) *Region
	InRegion(p domain.BlockPos) bool
}

// Option configures the service
type Option func(*service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	regions *persistence.Collection[Region]
	now     func() time.Time

	mu      sync.RWMutex
	byName  map[string]Region // keyed by lower-cased name
	lastSeq int64

	selMu      sync.Mutex
	selections map[domain.Identity]Selection
}

type nameInput struct {
	Name string `validate:"required,max=32,identifier"`
}

// NewService creates a new region store backed by g
func NewService(g *persistence.Gateway, opts ...Option) Service {
	s := &service{
		regions:    persistence.NewCollection[Region](g, persistence.TablePvPRegions),
		now:        time.Now,
		byName:     make(map[string]Region),
		selections: make(map[domain.Identity]Selection),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Load(ctx context.Context) error {
	all, err := s.regions.All().Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgLoadFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byName = make(map[string]Region, len(all))
	s.lastSeq = 0
	for _, r := range all {
		s.byName[normalizeName(r.Name)] = r
		s.lastSeq = max(s.lastSeq, r.Seq)
	}
	metrics.RegionsActive.Set(float64(len(s.byName)))

	logger.FromContext(ctx).Info(LogMsgRegionsLoaded, "regions", len(all))
	return nil
}

func (s *service) BeginSelection(ctx context.Context, id domain.Identity, p domain.BlockPos) Selection {
	sel := Selection{Owner: id, First: p}

	s.selMu.Lock()
	s.selections[id] = sel
	s.selMu.Unlock()

	logger.FromContext(ctx).Debug(LogMsgSelectionStarted, "identity", id, "world", p.World)
	return sel
}

func (s *service) ContinueSelection(ctx context.Context, id domain.Identity, p domain.BlockPos) (Selection, error) {
	s.selMu.Lock()
	defer s.selMu.Unlock()

	sel, ok := s.selections[id]
	if !ok {
		return Selection{}, ErrNoSelection
	}
	if sel.Complete() {
		return sel, ErrSelectionComplete
	}
	if p.World != sel.First.World {
		return sel, ErrWorldMismatch
	}

	second := p
	sel.Second = &second
	s.selections[id] = sel
	return sel, nil
}

func (s *service) Selection(id domain.Identity) (Selection, bool) {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	sel, ok := s.selections[id]
	return sel, ok
}

func (s *service) CancelSelection(ctx context.Context, id domain.Identity) {
	s.selMu.Lock()
	_, had := s.selections[id]
	delete(s.selections, id)
	s.selMu.Unlock()

	if had {
		logger.FromContext(ctx).Debug(LogMsgSelectionCancelled, "identity", id)
	}
}

func (s *service) Create(ctx context.Context, id domain.Identity, name string) (Region, error) {
	s.selMu.Lock()
	sel, ok := s.selections[id]
	s.selMu.Unlock()

	if !ok || !sel.Complete() {
		return Region{}, ErrIncompleteSelection
	}

	r, err := s.Define(ctx, id, name, sel.First, *sel.Second)
	if err != nil {
		return Region{}, err
	}

	s.selMu.Lock()
	// Only clear the session we consumed; a new selection may have started meanwhile
	if cur, ok := s.selections[id]; ok && cur.Second != nil && *cur.Second == *sel.Second && cur.First == sel.First {
		delete(s.selections, id)
	}
	s.selMu.Unlock()
	return r, nil
}

func (s *service) Define(ctx context.Context, creator domain.Identity, name string, a, b domain.BlockPos) (Region, error) {
	name = strings.TrimSpace(name)
	if err := validation.Get().Struct(nameInput{Name: name}); err != nil {
		return Region{}, fmt.Errorf("%w: %s", ErrInvalidName, validation.Describe(err))
	}
	if a.World != b.World {
		return Region{}, ErrWorldMismatch
	}

	lo, hi := Bounds(a, b)

	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeName(name)
	if _, taken := s.byName[key]; taken {
		return Region{}, ErrNameTaken
	}

	s.lastSeq++
	r := Region{
		Name:      name,
		World:     a.World,
		Min:       lo,
		Max:       hi,
		CreatedBy: creator,
		CreatedAt: s.now().UTC(),
		Seq:       s.lastSeq,
	}
	s.byName[key] = r
	s.regions.Upsert(key, r)
	metrics.RegionsActive.Set(float64(len(s.byName)))

	logger.FromContext(ctx).Info(LogMsgRegionCreated,
		"name", name, "world", r.World, "min", r.Min, "max", r.Max, "volume", r.Volume())
	return r, nil
}

func (s *service) Delete(ctx context.Context, name string) error {
	key := normalizeName(strings.TrimSpace(name))

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byName[key]
	if !ok {
		return ErrRegionNotFound
	}
	delete(s.byName, key)
	s.regions.Delete(key)
	metrics.RegionsActive.Set(float64(len(s.byName)))

	logger.FromContext(ctx).Info(LogMsgRegionDeleted, "name", r.Name)
	return nil
}

func (s *service) Get(name string) *Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.byName[normalizeName(strings.TrimSpace(name))]; ok {
		return &r
	}
	return nil
}

// List returns every region ordered by name
func (s *service) List() []Region {
	s.mu.RLock()
	out := make([]Region, 0, len(s.byName))
	for _, r := range s.byName {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return normalizeName(out[i].Name) < normalizeName(out[j].Name) })
	return out
}

func (s *service) Contains(p domain.BlockPos) *Region {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *Region
	for _, r := range s.byName {
		if !r.Contains(p) {
			continue
		}
		if best == nil || r.Seq > best.Seq {
			match := r
			best = &match
		}
	}
	return best
}

func (s *service) InRegion(p domain.BlockPos) bool {
	return s.Contains(p) != nil
}

// normalizeName case-folds name; region names are unique without regard to case
func normalizeName(name string) string {
	return cases.Fold().String(name)
}
