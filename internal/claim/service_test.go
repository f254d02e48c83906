package claim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/chunkward/internal/domain"
	"github.com/osse101/chunkward/internal/persistence"
)

var testNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func openGateway(t *testing.T, store *persistence.MemoryStore) *persistence.Gateway {
	t.Helper()
	g, err := persistence.Open(context.Background(), store, persistence.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close(context.Background()) })
	return g
}

func newTestService(t *testing.T, opts ...Option) (Service, *persistence.Gateway) {
	t.Helper()
	g := openGateway(t, persistence.NewMemoryStore())
	svc := NewService(g, append([]Option{WithClock(testClock)}, opts...)...)
	require.NoError(t, svc.Load(context.Background()))
	return svc, g
}

func key(x, z int) domain.ChunkKey {
	return domain.ChunkKey{World: "w", X: x, Z: z}
}

func TestClaim_OwnershipScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	owner, other := uuid.New(), uuid.New()

	c, err := svc.Claim(ctx, owner, key(0, 0))
	require.NoError(t, err)
	assert.Equal(t, owner, c.Owner)
	assert.Equal(t, testNow, c.ClaimedAt)

	info, err := svc.ClaimInfo(ctx, key(0, 0))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, owner, info.Owner)

	_, err = svc.Claim(ctx, other, key(0, 0))
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, svc.Unclaim(ctx, owner, key(0, 0)))

	c, err = svc.Claim(ctx, other, key(0, 0))
	require.NoError(t, err)
	assert.Equal(t, other, c.Owner)
}

func TestClaim_Errors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	owner, other := uuid.New(), uuid.New()

	_, err := svc.Claim(ctx, domain.NilIdentity, key(0, 0))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Claim(ctx, owner, key(1, 1))
	require.NoError(t, err)

	_, err = svc.Claim(ctx, owner, key(1, 1))
	assert.ErrorIs(t, err, ErrAlreadyOwner)
	assert.ErrorIs(t, err, domain.ErrConflict)

	tests := []struct {
		name    string
		id      domain.Identity
		key     domain.ChunkKey
		wantErr error
		kind    error
	}{
		{"not claimed", owner, key(5, 5), ErrNotClaimed, domain.ErrNotFound},
		{"not owner", other, key(1, 1), ErrNotOwner, domain.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Unclaim(ctx, tt.id, tt.key)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestClaim_ConcurrentSameKeyExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	const contenders = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []domain.Identity
		conflicts int
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := uuid.New()
			_, err := svc.Claim(ctx, id, key(0, 0))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, id)
			case errors.Is(err, ErrAlreadyClaimed):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, contenders-1, conflicts)

	info, err := svc.ClaimInfo(ctx, key(0, 0))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, winners[0], info.Owner)
}

func TestClaim_LimitHoldsUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, WithLimits(Limits{Default: 3}))
	id := uuid.New()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		limited   int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Claim(ctx, id, key(i, 0))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, ErrLimitExceeded) {
				limited++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, successes)
	assert.Equal(t, 17, limited)
	assert.Len(t, svc.ClaimsOf(id), 3)
}

func TestClaim_LimitSources(t *testing.T) {
	ctx := context.Background()
	vip, plain := uuid.New(), uuid.New()
	groups := StaticGroups{vip: {"default", "vip"}}
	svc, _ := newTestService(t,
		WithLimits(Limits{Default: 1, Groups: map[string]int{"vip": 3, "default": 1}}),
		WithGroupResolver(groups))

	assert.Equal(t, 3, svc.Limit(vip).Base)
	assert.Equal(t, 1, svc.Limit(plain).Base)

	_, err := svc.Claim(ctx, plain, key(0, 0))
	require.NoError(t, err)

	_, err = svc.Claim(ctx, plain, key(0, 1))
	require.Error(t, err)
	var le LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 1, le.Used)
	assert.Equal(t, 1, le.Limit)
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)

	info, err := svc.PurchaseSlots(ctx, plain, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Purchased)

	info, err = svc.GrantBonus(ctx, plain, 1, "event")
	require.NoError(t, err)
	info, err = svc.GrantBonus(ctx, plain, 2, "anniversary")
	require.NoError(t, err)
	assert.Equal(t, 3, info.Bonus)
	assert.Equal(t, 6, info.Total())
	assert.Equal(t, 1, info.Used)
	assert.Equal(t, 5, info.Remaining())

	_, err = svc.Claim(ctx, plain, key(0, 1))
	assert.NoError(t, err)

	_, err = svc.PurchaseSlots(ctx, plain, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.GrantBonus(ctx, plain, -1, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLimitInfo_RemainingNeverNegative(t *testing.T) {
	assert.Equal(t, 0, LimitInfo{Base: 1, Used: 4}.Remaining())
}

func TestClaim_ChunkAtFloorsNegativeBlocks(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	id := uuid.New()

	_, err := svc.Claim(ctx, id, domain.ChunkOf("w", -1, -1))
	require.NoError(t, err)

	for _, block := range [][2]int{{-1, -1}, {-16, -16}, {-8, -3}} {
		c := svc.ChunkAt("w", block[0], block[1])
		require.NotNil(t, c, "block %v", block)
		assert.Equal(t, key(-1, -1), c.Key)
	}
	assert.Nil(t, svc.ChunkAt("w", 0, 0))
	assert.Nil(t, svc.ChunkAt("w", -17, -1))
	assert.Nil(t, svc.ChunkAt("nether", -1, -1))
}

func TestClaim_AdminRemoveAndTransfer(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, WithLimits(Limits{Default: 1}))
	a, b := uuid.New(), uuid.New()

	_, err := svc.Claim(ctx, a, key(0, 0))
	require.NoError(t, err)
	_, err = svc.Claim(ctx, b, key(1, 0))
	require.NoError(t, err)
	_, err = svc.Invite(ctx, key(0, 0), a, b, domain.Capabilities{CanBuild: true})
	require.NoError(t, err)

	// b is at its limit, but transfers bypass limits
	c, err := svc.Transfer(ctx, key(0, 0), b)
	require.NoError(t, err)
	assert.Equal(t, b, c.Owner)
	assert.Len(t, svc.ClaimsOf(b), 2)
	assert.Empty(t, svc.ClaimsOf(a))
	assert.Empty(t, svc.ListInvitations(key(0, 0)))

	_, err = svc.Transfer(ctx, key(0, 0), b)
	assert.ErrorIs(t, err, ErrAlreadyOwner)
	_, err = svc.Transfer(ctx, key(9, 9), a)
	assert.ErrorIs(t, err, ErrNotClaimed)

	removed, err := svc.Remove(ctx, key(1, 0))
	require.NoError(t, err)
	assert.Equal(t, b, removed.Owner)
	_, err = svc.Remove(ctx, key(1, 0))
	assert.ErrorIs(t, err, ErrNotClaimed)
}

func TestClaim_SurvivesRestart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := persistence.NewMemoryStore()
	g, err := persistence.Open(ctx, store, persistence.DefaultConfig())
	require.NoError(t, err)

	owner, guest := uuid.New(), uuid.New()
	svc := NewService(g, WithClock(testClock))
	require.NoError(t, svc.Load(ctx))
	_, err = svc.Claim(ctx, owner, key(-3, 7))
	require.NoError(t, err)
	_, err = svc.Invite(ctx, key(-3, 7), owner, guest, domain.Capabilities{CanAccessContainers: true})
	require.NoError(t, err)
	_, err = svc.PurchaseSlots(ctx, owner, 4)
	require.NoError(t, err)
	_, err = svc.GrantBonus(ctx, owner, 2, "vote")
	require.NoError(t, err)
	require.NoError(t, g.Close(ctx))

	store.Reopen()
	restarted := NewService(openGateway(t, store))
	require.NoError(t, restarted.Load(ctx))

	info, err := restarted.ClaimInfo(ctx, key(-3, 7))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, owner, info.Owner)
	assert.Equal(t, key(-3, 7), info.Key)
	assert.True(t, testNow.Equal(info.ClaimedAt))

	invites := restarted.ListInvitations(key(-3, 7))
	require.Len(t, invites, 1)
	assert.Equal(t, guest, invites[0].Invited)
	assert.Equal(t, owner, invites[0].InvitedBy)
	assert.True(t, restarted.HasAccess(guest, key(-3, 7), domain.CapabilityAccessContainers))
	assert.False(t, restarted.HasAccess(guest, key(-3, 7), domain.CapabilityBuild))

	limit := restarted.Limit(owner)
	assert.Equal(t, 4, limit.Purchased)
	assert.Equal(t, 2, limit.Bonus)
	assert.Equal(t, 1, limit.Used)
}

func TestClaim_ColdReadThrough(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g := openGateway(t, persistence.NewMemoryStore())
	owner := uuid.New()
	_, err := persistence.NewCollection[Claim](g, persistence.TableClaims).
		Upsert(key(2, 2).String(), Claim{Key: key(2, 2), Owner: owner, ClaimedAt: testNow}).Wait(ctx)
	require.NoError(t, err)

	// Not loaded: lookups fall through to persistence
	svc := NewService(g)
	info, err := svc.ClaimInfo(ctx, key(2, 2))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, owner, info.Owner)
	assert.Len(t, svc.ClaimsOf(owner), 1)

	missing, err := svc.ClaimInfo(ctx, key(3, 3))
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Claiming a remembered-absent key clears it from the negative cache
	_, err = svc.Claim(ctx, owner, key(3, 3))
	require.NoError(t, err)
	got, err := svc.ClaimInfo(ctx, key(3, 3))
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestClaim_PersistedStateFollowsMutations(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	svc, g := newTestService(t)
	owner, guest := uuid.New(), uuid.New()

	for i := 0; i < 5; i++ {
		_, err := svc.Claim(ctx, owner, key(i, i))
		require.NoError(t, err)
	}
	_, err := svc.Invite(ctx, key(0, 0), owner, guest, domain.Capabilities{CanBuild: true})
	require.NoError(t, err)
	require.NoError(t, svc.Unclaim(ctx, owner, key(0, 0)))
	require.NoError(t, g.Flush(ctx))

	claims, err := persistence.NewCollection[Claim](g, persistence.TableClaims).All().Wait(ctx)
	require.NoError(t, err)
	assert.Len(t, claims, 4)

	invites, err := persistence.NewCollection[Invitation](g, persistence.TableClaimInvitations).All().Wait(ctx)
	require.NoError(t, err)
	assert.Empty(t, invites, "unclaim must cascade to invitations")
}

func TestClaim_LoadDropsOrphanInvitations(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g := openGateway(t, persistence.NewMemoryStore())
	invitations := persistence.NewCollection[Invitation](g, persistence.TableClaimInvitations)
	orphan := Invitation{ClaimKey: key(4, 4).String(), Invited: uuid.New(), InvitedBy: uuid.New()}
	_, err := invitations.Upsert(invitationKey(orphan.ClaimKey, orphan.Invited), orphan).Wait(ctx)
	require.NoError(t, err)

	svc := NewService(g)
	require.NoError(t, svc.Load(ctx))
	require.NoError(t, g.Flush(ctx))

	left, err := invitations.All().Wait(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestClaim_ClaimsOfSorted(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	id := uuid.New()

	for _, k := range []domain.ChunkKey{key(2, 0), key(-1, 0), key(1, 0)} {
		_, err := svc.Claim(ctx, id, k)
		require.NoError(t, err)
	}

	var got []string
	for _, c := range svc.ClaimsOf(id) {
		got = append(got, c.Key.String())
	}
	assert.Equal(t, []string{"w:-1:0", "w:1:0", "w:2:0"}, got)
	assert.Empty(t, svc.ClaimsOf(uuid.New()))
}

func ExampleLimits_Base() {
	l := Limits{Default: 2, Groups: map[string]int{"vip": 10, "builder": 5}}
	fmt.Println(l.Base(nil), l.Base([]string{"builder"}), l.Base([]string{"builder", "vip"}))
	// Output: 2 5 10
}
