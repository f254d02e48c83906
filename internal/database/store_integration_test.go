package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/chunkward/internal/persistence"
)

type regionDoc struct {
	Name string `json:"name"`
	MinX int    `json:"min_x"`
}

func TestPostgresStore_MigrateAndCRUD(t *testing.T) {
	requireDatabase(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, testDBConnString, testPoolConfig(5))
	require.NoError(t, err)
	store := persistence.NewPostgresStore(pool)

	// Migrating twice must be a no-op the second time
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx))

	require.NoError(t, store.Upsert(ctx, persistence.TableClaims, "w:1:2", []byte(`{"owner":"a"}`)))
	require.NoError(t, store.Upsert(ctx, persistence.TableClaims, "w:1:2", []byte(`{"owner":"b"}`)))

	data, err := store.Get(ctx, persistence.TableClaims, "w:1:2")
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"b"}`, string(data))

	missing, err := store.Get(ctx, persistence.TableClaims, "w:9:9")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Delete(ctx, persistence.TableClaims, "w:1:2"))
	rows, err := store.Scan(ctx, persistence.TableClaims)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, store.Close())
}

func TestPostgresStore_GatewayRoundTripAcrossRestart(t *testing.T) {
	requireDatabase(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	open := func() *persistence.Gateway {
		pool, err := NewPool(ctx, testDBConnString, testPoolConfig(5))
		require.NoError(t, err)
		g, err := persistence.Open(ctx, persistence.NewPostgresStore(pool), persistence.DefaultConfig())
		require.NoError(t, err)
		return g
	}

	g := open()
	regions := persistence.NewCollection[regionDoc](g, persistence.TablePvPRegions)
	regions.Upsert("arena", regionDoc{Name: "Arena", MinX: -40})
	require.NoError(t, g.Close(ctx))

	g2 := open()
	defer g2.Close(ctx)

	got, err := persistence.NewCollection[regionDoc](g2, persistence.TablePvPRegions).Get("arena").Wait(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Arena", got.Name)
	assert.Equal(t, -40, got.MinX)
}
