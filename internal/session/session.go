// Package session tracks which identities are online. The host calls Join and Leave from its
// connection events; the playtime job reads Online.
package session

import (
	"context"
	"sort"
	"sync"

	"github.com/osse101/chunkward/internal/domain"
	"github.com/osse101/chunkward/internal/logger"
	"github.com/osse101/chunkward/internal/mode"
)

// Log messages
const (
	LogMsgJoined = "Identity joined"
	LogMsgLeft   = "Identity left"
)

// FirstContact is notified when an identity joins; the mode machine records first contact
type FirstContact interface {
	Touch(ctx context.Context, id domain.Identity) mode.Record
}

// SelectionCanceler drops in-progress region selections on disconnect
type SelectionCanceler interface {
	CancelSelection(ctx context.Context, id domain.Identity)
}

// Tracker is the set of online identities
type Tracker struct {
	mu         sync.RWMutex
	online     map[domain.Identity]struct{}
	contact    FirstContact
	selections SelectionCanceler
}

// NewTracker builds a tracker; either collaborator may be nil
func NewTracker(contact FirstContact, selections SelectionCanceler) *Tracker {
	return &Tracker{
		online:     make(map[domain.Identity]struct{}),
		contact:    contact,
		selections: selections,
	}
}

// Join marks id online and records first contact
func (t *Tracker) Join(ctx context.Context, id domain.Identity) {
	t.mu.Lock()
	t.online[id] = struct{}{}
	t.mu.Unlock()

	if t.contact != nil {
		t.contact.Touch(ctx, id)
	}
	logger.FromContext(ctx).Debug(LogMsgJoined, "identity", id)
}

// Leave marks id offline and discards its selection session
func (t *Tracker) Leave(ctx context.Context, id domain.Identity) {
	t.mu.Lock()
	delete(t.online, id)
	t.mu.Unlock()

	if t.selections != nil {
		t.selections.CancelSelection(ctx, id)
	}
	logger.FromContext(ctx).Debug(LogMsgLeft, "identity", id)
}

// IsOnline reports whether id has joined and not left
func (t *Tracker) IsOnline(id domain.Identity) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[id]
	return ok
}

// Online returns the online identities in a stable order
func (t *Tracker) Online() []domain.Identity {
	t.mu.RLock()
	out := make([]domain.Identity, 0, len(t.online))
	for id := range t.online {
		out = append(out, id)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
