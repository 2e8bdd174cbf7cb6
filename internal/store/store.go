// Package store holds the in-memory record collection. It has no business
// logic; the gallery usecase computes every multi-record transition and
// applies it here as one batch so readers never observe an intermediate
// state.
package store

import (
	"sync"

	"github.com/promptloom/promptloom/internal/domain"
)

type Store struct {
	mu      sync.RWMutex
	records []domain.Record
	index   map[string]int
}

func New(records []domain.Record) *Store {
	s := &Store{}
	s.ReplaceAll(records)
	return s
}

// GetAll returns a copy of the collection in insertion order.
func (s *Store) GetAll() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Find returns the record with the given id, if present.
func (s *Store) Find(id string) (domain.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return domain.Record{}, false
	}
	return s.records[i], true
}

// Insert prepends the record, matching the original collection's
// newest-first ordering.
func (s *Store) Insert(record domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]domain.Record{record}, s.records...)
	s.reindex()
}

// ReplaceAll swaps the whole collection in one visible transition.
func (s *Store) ReplaceAll(records []domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make([]domain.Record, len(records))
	copy(s.records, records)
	s.reindex()
}

// Len reports the collection size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.records))
	for i, r := range s.records {
		s.index[r.ID] = i
	}
}
