package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/pitabwire/ngazi/model"
)

type transitionKey struct {
	workflowID   int64
	transitionID int64
}

// MemRowSource is an in-memory RowSource for testing and fixture-seeded
// deployments.
type MemRowSource struct {
	mu       sync.RWMutex
	records  map[transitionKey][]model.NotificationRecord
	failWith error
}

// NewMemRowSource creates an empty in-memory notification source.
func NewMemRowSource() *MemRowSource {
	return &MemRowSource{records: make(map[transitionKey][]model.NotificationRecord)}
}

// Seed replaces the records stored for one transition.
func (s *MemRowSource) Seed(workflowID, transitionID int64, records []model.NotificationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[transitionKey{workflowID, transitionID}] = records
}

// FailWith makes every subsequent call return err. Pass nil to restore
// normal behavior.
func (s *MemRowSource) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// NotificationsForTransition returns a copy of the seeded records in seed
// order.
func (s *MemRowSource) NotificationsForTransition(_ context.Context, workflowID, transitionID int64) ([]model.NotificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failWith != nil {
		return nil, fmt.Errorf("mem notification source: %w", s.failWith)
	}

	stored := s.records[transitionKey{workflowID, transitionID}]
	out := make([]model.NotificationRecord, len(stored))
	copy(out, stored)
	return out, nil
}

// Len returns the number of seeded transitions. For testing.
func (s *MemRowSource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
