package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/osse101/chunkward/internal/domain"
)

// Collection is a typed view over one table. Values are stored as JSON documents.
type Collection[T any] struct {
	g     *Gateway
	table Table
}

// NewCollection binds a typed collection to table
func NewCollection[T any](g *Gateway, table Table) *Collection[T] {
	return &Collection[T]{g: g, table: table}
}

// Table returns the backing table name
func (c *Collection[T]) Table() Table {
	return c.table
}

// Upsert stores v under key. v is encoded before this call returns, so the caller may keep
// mutating its own copy.
func (c *Collection[T]) Upsert(key string, v T) *Future[struct{}] {
	data, err := json.Marshal(v)
	if err != nil {
		return Completed(struct{}{}, fmt.Errorf("%w: %s: %w", domain.ErrPersistenceFailure, ErrMsgEncodeRecord, err))
	}
	return c.g.Upsert(c.table, key, data)
}

// Delete removes key
func (c *Collection[T]) Delete(key string) *Future[struct{}] {
	return c.g.Delete(c.table, key)
}

// Get resolves to nil when key is absent
func (c *Collection[T]) Get(key string) *Future[*T] {
	return submit(c.g, c.table, shardKey(c.table, key), OpGet, func(ctx context.Context) (*T, error) {
		data, err := readOnce(ctx, c.g, c.table, key, OpGet, func(ctx context.Context) ([]byte, error) {
			return c.g.store.Get(ctx, c.table, key)
		})
		if err != nil || data == nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, c.decodeError(key, err)
		}
		return &v, nil
	})
}

// Query resolves to every value accepted by pred; a nil pred accepts all
func (c *Collection[T]) Query(pred func(T) bool) *Future[[]T] {
	return submit(c.g, c.table, string(c.table), OpQuery, func(ctx context.Context) ([]T, error) {
		rows, err := readOnce(ctx, c.g, c.table, "*", OpQuery, func(ctx context.Context) ([]Row, error) {
			return c.g.store.Scan(ctx, c.table)
		})
		if err != nil {
			return nil, err
		}

		out := make([]T, 0, len(rows))
		for _, r := range rows {
			var v T
			if err := json.Unmarshal(r.Data, &v); err != nil {
				return nil, c.decodeError(r.Key, err)
			}
			if pred == nil || pred(v) {
				out = append(out, v)
			}
		}
		return out, nil
	})
}

// All resolves to every stored value
func (c *Collection[T]) All() *Future[[]T] {
	return c.Query(nil)
}

func (c *Collection[T]) decodeError(key string, err error) error {
	return fmt.Errorf("%w: %s %s/%s: %w", domain.ErrPersistenceFailure, ErrMsgDecodeRecord, c.table, key, err)
}
