package persistence

import (
	"context"
	"fmt"
)

// Row is one stored document.
type Row struct {
	Key  string
	Data []byte
}

// Store is a durable keyed document store. The gateway is its only caller; implementations
// may assume calls for one key never overlap.
type Store interface {
	// Migrate creates every table if it does not exist. It is idempotent.
	Migrate(ctx context.Context) error
	Upsert(ctx context.Context, table Table, key string, data []byte) error
	// Get returns nil data and no error when the key is absent.
	Get(ctx context.Context, table Table, key string) ([]byte, error)
	Delete(ctx context.Context, table Table, key string) error
	Scan(ctx context.Context, table Table) ([]Row, error)
	Ping(ctx context.Context) error
	Close() error
}

func checkTable(table Table) error {
	if !table.Valid() {
		return fmt.Errorf("%s: %q", ErrMsgUnknownTable, table)
	}
	return nil
}
