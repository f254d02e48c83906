package persistence

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryStore keeps documents in process memory. It backs tests and the "memory" driver;
// nothing survives the process.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[Table]map[string][]byte
	closed bool
}

// NewMemoryStore creates an empty store; tables appear on Migrate
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[Table]map[string][]byte)}
}

func (s *MemoryStore) Migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range AllTables {
		if _, ok := s.tables[t]; !ok {
			s.tables[t] = make(map[string][]byte)
		}
	}
	return nil
}

func (s *MemoryStore) Upsert(ctx context.Context, table Table, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.table(table)
	if err != nil {
		return err
	}
	rows[key] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, table Table, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.table(table)
	if err != nil {
		return nil, err
	}
	data, ok := rows[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Delete(ctx context.Context, table Table, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.table(table)
	if err != nil {
		return err
	}
	delete(rows, key)
	return nil
}

// Scan returns rows ordered by key
func (s *MemoryStore) Scan(ctx context.Context, table Table) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.table(table)
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0, len(rows))
	for k, v := range rows {
		out = append(out, Row{Key: k, Data: append([]byte(nil), v...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.New(ErrMsgStoreClosed)
	}
	return nil
}

// Close marks the store closed; the data stays readable so tests can reopen a gateway over it
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Reopen clears the closed flag, simulating a process restart over the same storage
func (s *MemoryStore) Reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
}

// table must be called with s.mu held
func (s *MemoryStore) table(table Table) (map[string][]byte, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if s.closed {
		return nil, errors.New(ErrMsgStoreClosed)
	}
	rows, ok := s.tables[table]
	if !ok {
		return nil, errors.New(ErrMsgUnknownTable + ": " + string(table) + " not migrated")
	}
	return rows, nil
}
