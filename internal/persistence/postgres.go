package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresStore keeps documents in JSONB columns
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore wraps an open pool; Close closes it
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate runs goose over a database/sql handle that borrows connections from the pool
func (s *PostgresStore) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.db)
	defer db.Close()
	return runMigrations(ctx, db, goose.DialectPostgres, migrationsDirPostgres)
}

func (s *PostgresStore) Upsert(ctx context.Context, table Table, key string, data []byte) error {
	if err := checkTable(table); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (key, data, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, table)
	_, err := s.db.Exec(ctx, query, key, string(data))
	return err
}

func (s *PostgresStore) Get(ctx context.Context, table Table, key string) ([]byte, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRow(ctx, fmt.Sprintf(`SELECT data FROM %s WHERE key = $1`, table), key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *PostgresStore) Delete(ctx context.Context, table Table, key string) error {
	if err := checkTable(table); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, table), key)
	return err
}

func (s *PostgresStore) Scan(ctx context.Context, table Table) ([]Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, fmt.Sprintf(`SELECT key, data FROM %s ORDER BY key`, table))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Row, error) {
		var r Row
		err := row.Scan(&r.Key, &r.Data)
		return r, err
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
