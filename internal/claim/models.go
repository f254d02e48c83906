package claim

import (
	"time"

	"github.com/osse101/chunkward/internal/domain"
)

// Claim is the ownership record of one chunk
type Claim struct {
	Key       domain.ChunkKey `json:"key"`
	Owner     domain.Identity `json:"owner_id"`
	ClaimedAt time.Time       `json:"claimed_at"`
}

// Invitation grants an identity capabilities inside someone else's chunk
type Invitation struct {
	ClaimKey     string              `json:"claim_key"`
	Invited      domain.Identity     `json:"invited_id"`
	InvitedBy    domain.Identity     `json:"invited_by_id"`
	Capabilities domain.Capabilities `json:"capabilities"`
	InvitedAt    time.Time           `json:"invited_at"`
}

// BonusGrant is one stackable addition to an identity's claim limit
type BonusGrant struct {
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason,omitempty"`
	GrantedAt time.Time `json:"granted_at"`
}

// Allowance tracks purchased slots and bonus grants. Purchases only ever grow.
type Allowance struct {
	Identity  domain.Identity `json:"identity_id"`
	Purchased int             `json:"purchased"`
	Grants    []BonusGrant    `json:"grants,omitempty"`
}

// Bonus sums every grant
func (a Allowance) Bonus() int {
	total := 0
	for _, g := range a.Grants {
		total += g.Amount
	}
	return total
}

// LimitInfo breaks an identity's claim limit into its sources
type LimitInfo struct {
	Base      int `json:"base"`
	Bonus     int `json:"bonus"`
	Purchased int `json:"purchased"`
	Used      int `json:"used"`
}

// Total is the number of chunks the identity may hold
func (l LimitInfo) Total() int {
	return l.Base + l.Bonus + l.Purchased
}

// Remaining is the number of further claims allowed, never negative
func (l LimitInfo) Remaining() int {
	return max(l.Total()-l.Used, 0)
}

func invitationKey(claimKey string, invited domain.Identity) string {
	return claimKey + invitationKeySeparator + invited.String()
}
