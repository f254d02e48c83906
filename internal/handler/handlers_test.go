package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/chunkward/internal/claim"
	"github.com/osse101/chunkward/internal/domain"
	"github.com/osse101/chunkward/internal/mode"
	"github.com/osse101/chunkward/internal/noob"
	"github.com/osse101/chunkward/internal/persistence"
	"github.com/osse101/chunkward/internal/region"
	"github.com/osse101/chunkward/internal/reputation"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return t0 }

type fixture struct {
	gateway *persistence.Gateway
	claims  claim.Service
	regions region.Service
	modes   mode.Service
	ledger  reputation.Service
	noobs   noob.Service
	router  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	g, err := persistence.Open(ctx, persistence.NewMemoryStore(), persistence.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close(context.Background()) })

	f := &fixture{
		gateway: g,
		claims:  claim.NewService(g, claim.WithClock(fixedClock)),
		regions: region.NewService(g, region.WithClock(fixedClock)),
		modes:   mode.NewService(g, mode.WithClock(fixedClock)),
	}
	f.ledger = reputation.NewService(g, f.modes, f.regions, reputation.WithClock(fixedClock))
	f.noobs = noob.NewService(g, f.modes, noob.WithClock(fixedClock))
	for _, l := range []interface{ Load(context.Context) error }{f.claims, f.regions, f.modes, f.ledger, f.noobs} {
		require.NoError(t, l.Load(ctx))
	}

	r := chi.NewRouter()
	r.Get("/claims/{world}/{x}/{z}", HandleGetClaim(f.claims))
	r.Get("/identities/{id}", HandleGetIdentity(f.modes, f.ledger, f.noobs))
	r.Get("/identities/{id}/claims", HandleGetIdentityClaims(f.claims))
	r.Get("/regions", HandleListRegions(f.regions))
	r.Get("/regions/at/{world}/{x}/{y}/{z}", HandleRegionAt(f.regions))
	r.Get("/regions/{name}", HandleGetRegion(f.regions))
	f.router = r
	return f
}

func (f *fixture) get(t *testing.T, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w.Code
}

func TestHandleGetClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	key := domain.ChunkKey{World: "world", X: -3, Z: 7}

	var resp ClaimResponse
	require.Equal(t, http.StatusOK, f.get(t, "/claims/world/-3/7", &resp))
	assert.False(t, resp.Claimed)
	assert.Nil(t, resp.Claim)

	_, err := f.claims.Claim(ctx, owner, key)
	require.NoError(t, err)
	_, err = f.claims.Invite(ctx, key, owner, uuid.New(), domain.Capabilities{CanBuild: true})
	require.NoError(t, err)

	resp = ClaimResponse{}
	require.Equal(t, http.StatusOK, f.get(t, "/claims/world/-3/7", &resp))
	assert.True(t, resp.Claimed)
	require.NotNil(t, resp.Claim)
	assert.Equal(t, owner, resp.Claim.Owner)
	assert.Equal(t, key, resp.Chunk)
	assert.Len(t, resp.Invitations, 1)

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/claims/world/x/7", nil))
}

func TestHandleGetIdentityClaims(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	for x := 0; x < 3; x++ {
		_, err := f.claims.Claim(context.Background(), owner, domain.ChunkKey{World: "world", X: x})
		require.NoError(t, err)
	}

	var resp IdentityClaimsResponse
	require.Equal(t, http.StatusOK, f.get(t, "/identities/"+owner.String()+"/claims", &resp))
	assert.Len(t, resp.Claims, 3)
	assert.Equal(t, 3, resp.Limit.Used)
	assert.Equal(t, claim.DefaultBaseLimit-3, resp.Remaining)

	resp = IdentityClaimsResponse{}
	require.Equal(t, http.StatusOK, f.get(t, "/identities/"+uuid.New().String()+"/claims", &resp))
	assert.NotNil(t, resp.Claims)
	assert.Empty(t, resp.Claims)
}

func TestHandleGetIdentity(t *testing.T) {
	t.Run("unknown identity", func(t *testing.T) {
		f := newFixture(t)

		var resp IdentityResponse
		require.Equal(t, http.StatusOK, f.get(t, "/identities/"+uuid.New().String(), &resp))
		assert.False(t, resp.Known)
		assert.Equal(t, domain.ModeUnset, resp.Mode)
		assert.Equal(t, "Unset", resp.ModeDisplay)
		assert.Equal(t, 0, resp.Reputation)
		assert.Equal(t, reputation.StatusNeutral, resp.ReputationStatus)
		assert.False(t, resp.Noob)
	})

	t.Run("lookup does not create records", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		id := uuid.New()

		require.Equal(t, http.StatusOK, f.get(t, "/identities/"+id.String(), nil))
		_, ok := f.ledger.Peek(id)
		assert.False(t, ok)

		require.NoError(t, f.gateway.Flush(ctx))
		rows, err := f.gateway.Query(persistence.TableReputations, nil).Wait(ctx)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("fresh peaceful player", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		id := uuid.New()

		f.modes.Touch(ctx, id)
		_, err := f.modes.SetMode(ctx, id, domain.ModePeaceful)
		require.NoError(t, err)
		f.ledger.Adjust(ctx, id, 6)

		var resp IdentityResponse
		require.Equal(t, http.StatusOK, f.get(t, "/identities/"+id.String(), &resp))
		assert.True(t, resp.Known)
		assert.Equal(t, domain.ModePeaceful, resp.Mode)
		assert.Equal(t, "Peaceful", resp.ModeDisplay)
		require.NotNil(t, resp.FirstSeenAt)
		assert.True(t, t0.Equal(*resp.FirstSeenAt))
		assert.Equal(t, int64((24 * time.Hour).Seconds()), resp.ModeCooldownRemainingSec)
		assert.Equal(t, 6, resp.Reputation)
		assert.Equal(t, reputation.StatusGood, resp.ReputationStatus)
		assert.True(t, resp.Noob)
		assert.Equal(t, int64(noob.DefaultWindow.Seconds()), resp.NoobRemainingSec)
	})

	t.Run("rejects malformed identity", func(t *testing.T) {
		f := newFixture(t)
		assert.Equal(t, http.StatusBadRequest, f.get(t, "/identities/steve", nil))
		assert.Equal(t, http.StatusBadRequest, f.get(t, "/identities/"+uuid.Nil.String(), nil))
	})
}

func TestHandleRegions(t *testing.T) {
	f := newFixture(t)
	creator := uuid.New()
	_, err := f.regions.Define(context.Background(), creator, "Arena",
		domain.BlockPos{World: "world", X: 10, Y: 0, Z: 10},
		domain.BlockPos{World: "world", X: -10, Y: 64, Z: -10})
	require.NoError(t, err)

	var list RegionsResponse
	require.Equal(t, http.StatusOK, f.get(t, "/regions", &list))
	require.Len(t, list.Regions, 1)
	assert.Equal(t, region.Point{X: -10, Y: 0, Z: -10}, list.Regions[0].Min)

	var reg region.Region
	require.Equal(t, http.StatusOK, f.get(t, "/regions/ARENA", &reg))
	assert.Equal(t, "world", reg.World)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/regions/nowhere", nil))

	var at RegionAtResponse
	require.Equal(t, http.StatusOK, f.get(t, "/regions/at/world/-10/64/10", &at))
	assert.True(t, at.InRegion)

	at = RegionAtResponse{}
	require.Equal(t, http.StatusOK, f.get(t, "/regions/at/world/11/0/0", &at))
	assert.False(t, at.InRegion)
	assert.Nil(t, at.Region)

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/regions/at/world/1.5/0/0", nil))
}

func TestMapServiceErrorToUserMessage(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{claim.ErrAlreadyClaimed, http.StatusConflict},
		{claim.ErrNotOwner, http.StatusForbidden},
		{claim.ErrLimitExceeded, http.StatusUnprocessableEntity},
		{region.ErrRegionNotFound, http.StatusNotFound},
		{region.ErrInvalidName, http.StatusBadRequest},
		{fmt.Errorf("write: %w", domain.ErrPersistenceFailure), http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
		{nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		status, msg := mapServiceErrorToUserMessage(tt.err)
		assert.Equal(t, tt.status, status, "%v", tt.err)
		assert.NotEmpty(t, msg)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Normal", DisplayName(string(domain.ModeNormal)))
	assert.Equal(t, "Excellent", DisplayName(string(reputation.StatusExcellent)))
}
