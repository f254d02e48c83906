package claim

import (
	"context"
	"sort"

	"github.com/osse101/chunkward/internal/domain"
	"github.com/osse101/chunkward/internal/logger"
)

// Invite grants target caps inside key. The owner may grant anything; identities holding
// ManageInvitations may invite others but cannot hand out ManageInvitations themselves.
// Inviting an already invited identity replaces its capabilities.
func (s *service) Invite(ctx context.Context, key domain.ChunkKey, inviter, target domain.Identity, caps domain.Capabilities) (Invitation, error) {
	if target == domain.NilIdentity {
		return Invitation{}, ErrNilIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byKey[key]
	if !ok {
		return Invitation{}, ErrNotClaimed
	}
	if !s.canManageLocked(c, inviter) {
		return Invitation{}, ErrNotOwner
	}
	if target == c.Owner {
		return Invitation{}, ErrInvalidTarget
	}
	if caps.CanManageInvitations && inviter != c.Owner {
		return Invitation{}, ErrCannotDelegate
	}

	inv := Invitation{
		ClaimKey:     key.String(),
		Invited:      target,
		InvitedBy:    inviter,
		Capabilities: caps,
		InvitedAt:    s.now().UTC(),
	}
	s.putInviteLocked(key, inv)
	s.invitations.Upsert(invitationKey(inv.ClaimKey, target), inv)

	logger.FromContext(ctx).Debug(LogMsgInvited, "chunk", inv.ClaimKey, "inviter", inviter, "target", target)
	return inv, nil
}

// Uninvite removes target's invitation. Invited identities may always remove themselves;
// only the owner may remove someone who can manage invitations.
func (s *service) Uninvite(ctx context.Context, key domain.ChunkKey, actor, target domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byKey[key]
	if !ok {
		return ErrNotClaimed
	}
	inv, invited := s.invites[key][target]

	if actor != target {
		if !s.canManageLocked(c, actor) {
			return ErrNotOwner
		}
		if invited && inv.Capabilities.CanManageInvitations && actor != c.Owner {
			return ErrCannotDelegate
		}
	}
	if !invited {
		return ErrNotInvited
	}

	s.deleteInviteLocked(key, target)
	logger.FromContext(ctx).Debug(LogMsgUninvited, "chunk", key.String(), "actor", actor, "target", target)
	return nil
}

// ListInvitations returns the invitations of key, oldest first
func (s *service) ListInvitations(key domain.ChunkKey) []Invitation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Invitation, 0, len(s.invites[key]))
	for _, inv := range s.invites[key] {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].InvitedAt.Equal(out[j].InvitedAt) {
			return out[i].InvitedAt.Before(out[j].InvitedAt)
		}
		return out[i].Invited.String() < out[j].Invited.String()
	})
	return out
}

// HasAccess is true for the owner and for invited identities granted capability.
// Unclaimed chunks grant nothing; wilderness rules belong to the host.
func (s *service) HasAccess(id domain.Identity, key domain.ChunkKey, capability domain.Capability) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byKey[key]
	if !ok {
		return false
	}
	if c.Owner == id {
		return true
	}
	inv, ok := s.invites[key][id]
	return ok && inv.Capabilities.Allows(capability)
}

func (s *service) canManageLocked(c Claim, id domain.Identity) bool {
	if c.Owner == id {
		return true
	}
	inv, ok := s.invites[c.Key][id]
	return ok && inv.Capabilities.CanManageInvitations
}

func (s *service) putInviteLocked(key domain.ChunkKey, inv Invitation) {
	m, ok := s.invites[key]
	if !ok {
		m = make(map[domain.Identity]Invitation)
		s.invites[key] = m
	}
	m[inv.Invited] = inv
}

func (s *service) deleteInviteLocked(key domain.ChunkKey, invited domain.Identity) {
	delete(s.invites[key], invited)
	if len(s.invites[key]) == 0 {
		delete(s.invites, key)
	}
	s.invitations.Delete(invitationKey(key.String(), invited))
}
