package persistence

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// DeadLetterWriter appends abandoned writes to a JSON-lines file so an operator can replay them
type DeadLetterWriter struct {
	file *os.File
	mu   sync.Mutex
	now  func() time.Time
}

// DeadLetterEntry represents a write that failed after all retries
type DeadLetterEntry struct {
	SchemaVersion string          `json:"schema_version"`
	Timestamp     time.Time       `json:"timestamp"`
	Table         Table           `json:"table"`
	Key           string          `json:"key"`
	Operation     string          `json:"operation"`
	Data          json.RawMessage `json:"data,omitempty"`
	Attempts      int             `json:"attempts"`
	LastError     string          `json:"last_error,omitempty"`
}

// NewDeadLetterWriter opens (or creates) the dead-letter file at path for appending
func NewDeadLetterWriter(path string) (*DeadLetterWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, DeadLetterFilePermissions)
	if err != nil {
		return nil, err
	}
	return &DeadLetterWriter{file: f, now: time.Now}, nil
}

// Write appends one entry
func (dlw *DeadLetterWriter) Write(table Table, key, op string, data []byte, attempts int, lastError error) error {
	entry := DeadLetterEntry{
		SchemaVersion: DeadLetterSchemaVersion,
		Timestamp:     dlw.now().UTC(),
		Table:         table,
		Key:           key,
		Operation:     op,
		Attempts:      attempts,
	}
	if len(data) > 0 && json.Valid(data) {
		entry.Data = data
	}
	if lastError != nil {
		entry.LastError = lastError.Error()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	dlw.mu.Lock()
	defer dlw.mu.Unlock()
	_, err = dlw.file.Write(append(line, '\n'))
	return err
}

// Close closes the dead-letter file
func (dlw *DeadLetterWriter) Close() error {
	dlw.mu.Lock()
	defer dlw.mu.Unlock()
	return dlw.file.Close()
}
