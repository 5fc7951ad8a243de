package store

import (
	"context"
	"sync"

	"satudata/internal/audit"
)

// Memory is an in-memory audit store for unit tests. Append-only, like the
// real one.
type Memory struct {
	mu      sync.Mutex
	entries []audit.Entry
}

// NewMemory constructs an empty in-memory audit store.
func NewMemory() *Memory {
	return &Memory{}
}

// Append records the entry.
func (s *Memory) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// ListByRecord returns the history of one record in append order.
func (s *Memory) ListByRecord(_ context.Context, table, recordID string) ([]audit.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []audit.Entry
	for _, e := range s.entries {
		if e.TableName == table && e.RecordID == recordID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Entries returns a copy of everything appended, for test assertions.
func (s *Memory) Entries() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
