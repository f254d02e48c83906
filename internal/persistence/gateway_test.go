package persistence

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/chunkward/internal/domain"
	"github.com/osse101/chunkward/internal/testing/leaktest"
)

// flakyStore fails the first failUpserts upserts, then delegates
type flakyStore struct {
	*MemoryStore
	mu          sync.Mutex
	failUpserts int
	upsertCalls int
}

func (s *flakyStore) Upsert(ctx context.Context, table Table, key string, data []byte) error {
	s.mu.Lock()
	s.upsertCalls++
	fail := s.failUpserts > 0
	if fail {
		s.failUpserts--
	}
	s.mu.Unlock()
	if fail {
		return errors.New("connection reset")
	}
	return s.MemoryStore.Upsert(ctx, table, key, data)
}

// stallingStore blocks reads until the context ends
type stallingStore struct {
	*MemoryStore
}

func (s *stallingStore) Get(ctx context.Context, table Table, key string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func openTestGateway(t *testing.T, store Store, cfg Config) *Gateway {
	t.Helper()
	g, err := Open(context.Background(), store, cfg)
	require.NoError(t, err)
	g.sleep = func(time.Duration) {}
	t.Cleanup(func() { _ = g.Close(context.Background()) })
	return g
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestGateway_CRUD(t *testing.T) {
	g := openTestGateway(t, NewMemoryStore(), DefaultConfig())
	ctx := waitCtx(t)

	_, err := g.Upsert(TableClaims, "w:0:0", []byte(`{"owner":"a"}`)).Wait(ctx)
	require.NoError(t, err)

	data, err := g.Get(TableClaims, "w:0:0").Wait(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"a"}`, string(data))

	missing, err := g.Get(TableClaims, "w:9:9").Wait(ctx)
	require.NoError(t, err)
	assert.Nil(t, missing, "absent key is not an error")

	_, err = g.Delete(TableClaims, "w:0:0").Wait(ctx)
	require.NoError(t, err)

	data, err = g.Get(TableClaims, "w:0:0").Wait(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestGateway_QueryWithPredicate(t *testing.T) {
	g := openTestGateway(t, NewMemoryStore(), DefaultConfig())
	ctx := waitCtx(t)

	for i := 0; i < 5; i++ {
		g.Upsert(TableReputations, strconv.Itoa(i), []byte(strconv.Itoa(i)))
	}
	require.NoError(t, g.Flush(ctx))

	rows, err := g.Query(TableReputations, func(r Row) bool {
		n, _ := strconv.Atoi(string(r.Data))
		return n%2 == 0
	}).Wait(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "0", rows[0].Key)
	assert.Equal(t, "2", rows[1].Key)
	assert.Equal(t, "4", rows[2].Key)

	all, err := g.Query(TableReputations, nil).Wait(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestGateway_SameKeyWritesApplyInSubmissionOrder(t *testing.T) {
	g := openTestGateway(t, NewMemoryStore(), Config{Workers: 8, QueueSize: 4})
	ctx := waitCtx(t)

	var last *Future[struct{}]
	for i := 0; i < 200; i++ {
		last = g.Upsert(TableIdentityModes, "player", []byte(strconv.Itoa(i)))
	}
	g.Delete(TableIdentityModes, "other")
	_, err := last.Wait(ctx)
	require.NoError(t, err)

	data, err := g.Get(TableIdentityModes, "player").Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "199", string(data))
}

func TestGateway_RetriesTransientWriteFailures(t *testing.T) {
	store := &flakyStore{MemoryStore: NewMemoryStore(), failUpserts: 2}
	g := openTestGateway(t, store, Config{MaxRetries: 3, RetryDelay: time.Millisecond})
	ctx := waitCtx(t)

	_, err := g.Upsert(TableNoobStatuses, "k", []byte(`1`)).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, store.upsertCalls)

	data, err := g.Get(TableNoobStatuses, "k").Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestGateway_DeadLettersExhaustedWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dead.jsonl")
	store := &flakyStore{MemoryStore: NewMemoryStore(), failUpserts: 100}
	g := openTestGateway(t, store, Config{MaxRetries: 2, RetryDelay: time.Millisecond, DeadLetterPath: path})
	ctx := waitCtx(t)

	_, err := g.Upsert(TableClaims, "w:1:2", []byte(`{"owner":"x"}`)).Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 3, store.upsertCalls)

	require.NoError(t, g.Close(ctx))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	var entry DeadLetterEntry
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
	assert.Equal(t, DeadLetterSchemaVersion, entry.SchemaVersion)
	assert.Equal(t, TableClaims, entry.Table)
	assert.Equal(t, "w:1:2", entry.Key)
	assert.Equal(t, OpUpsert, entry.Operation)
	assert.Equal(t, 3, entry.Attempts)
	assert.JSONEq(t, `{"owner":"x"}`, string(entry.Data))
	assert.False(t, scanner.Scan(), "exactly one entry")
}

func TestGateway_ReadTimeout(t *testing.T) {
	g := openTestGateway(t, &stallingStore{MemoryStore: NewMemoryStore()}, Config{OpTimeout: 20 * time.Millisecond})
	ctx := waitCtx(t)

	_, err := g.Get(TableClaims, "k").Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGateway_RejectsAfterClose(t *testing.T) {
	g, err := Open(context.Background(), NewMemoryStore(), DefaultConfig())
	require.NoError(t, err)
	ctx := waitCtx(t)

	require.NoError(t, g.Close(ctx))
	require.NoError(t, g.Close(ctx), "close is idempotent")

	_, err = g.Upsert(TableClaims, "k", []byte(`{}`)).Wait(ctx)
	assert.ErrorIs(t, err, ErrGatewayClosed)
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)
	assert.Error(t, g.Flush(ctx))
}

func TestGateway_UnknownTable(t *testing.T) {
	g := openTestGateway(t, NewMemoryStore(), Config{MaxRetries: 0})
	ctx := waitCtx(t)

	_, err := g.Upsert(Table("users; DROP TABLE claims"), "k", []byte(`{}`)).Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgUnknownTable)
}

func TestGateway_CloseLeavesNoGoroutines(t *testing.T) {
	checker := leaktest.NewGoroutineChecker(t)

	g, err := Open(context.Background(), NewMemoryStore(), Config{Workers: 6})
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		g.Upsert(TableClaims, strconv.Itoa(i), []byte(`{}`))
	}
	require.NoError(t, g.Close(context.Background()))

	checker.Check(1)
}

func TestGateway_Ping(t *testing.T) {
	store := NewMemoryStore()
	g := openTestGateway(t, store, DefaultConfig())
	assert.NoError(t, g.Ping(context.Background()))
}

func TestCalculateRetryDelay(t *testing.T) {
	base := 100 * time.Millisecond
	assert.Equal(t, time.Duration(0), CalculateRetryDelay(base, 0))
	assert.Equal(t, 100*time.Millisecond, CalculateRetryDelay(base, 1))
	assert.Equal(t, 200*time.Millisecond, CalculateRetryDelay(base, 2))
	assert.Equal(t, 800*time.Millisecond, CalculateRetryDelay(base, 4))
}

func TestFuture(t *testing.T) {
	f := newFuture[int]()
	assert.NoError(t, f.Err())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	f.complete(7, nil)
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	failed := Completed(0, errors.New("boom"))
	assert.EqualError(t, failed.Err(), "boom")
}
