package store

import (
	"context"
	"sync"

	"certdesk/pkg/domain"
)

// InMemoryStore keeps records in memory for tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []domain.Record
}

func NewInMemoryStore(records ...domain.Record) *InMemoryStore {
	return &InMemoryStore{records: append([]domain.Record(nil), records...)}
}

func (s *InMemoryStore) Load(_ context.Context) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *InMemoryStore) Append(_ context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}
