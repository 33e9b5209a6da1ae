package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/pitabwire/ngazi/model"
)

// MemRowSource is an in-memory RowSource for testing and fixture-seeded
// deployments. Seeded entries are returned in seed order; the seeder is
// responsible for chronological ordering, like the backing table is.
type MemRowSource struct {
	mu       sync.RWMutex
	entries  map[int64][]model.HistoryEntry
	failWith error
}

// NewMemRowSource creates an empty in-memory history source.
func NewMemRowSource() *MemRowSource {
	return &MemRowSource{entries: make(map[int64][]model.HistoryEntry)}
}

// Seed replaces the entries stored for one content item.
func (s *MemRowSource) Seed(contentID int64, entries []model.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[contentID] = entries
}

// FailWith makes every subsequent call return err. Pass nil to restore
// normal behavior.
func (s *MemRowSource) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// EntriesForItem returns a copy of the seeded entries in seed order.
func (s *MemRowSource) EntriesForItem(_ context.Context, contentID int64) ([]model.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failWith != nil {
		return nil, fmt.Errorf("mem history source: %w", s.failWith)
	}

	stored := s.entries[contentID]
	out := make([]model.HistoryEntry, len(stored))
	copy(out, stored)
	return out, nil
}

// Len returns the number of seeded items. For testing.
func (s *MemRowSource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
