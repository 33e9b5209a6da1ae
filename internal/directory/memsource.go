package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/pitabwire/ngazi/model"
)

type stateKey struct {
	workflowID int64
	stateID    int64
}

// MemRoleSource is an in-memory RoleRowSource. Suitable for testing and
// single-instance deployments seeded from fixtures.
type MemRoleSource struct {
	mu       sync.RWMutex
	rows     map[stateKey][]model.RoleAssignment
	failWith error
}

// NewMemRoleSource creates an empty in-memory role source.
func NewMemRoleSource() *MemRoleSource {
	return &MemRoleSource{rows: make(map[stateKey][]model.RoleAssignment)}
}

// Seed replaces the rows stored for one workflow state.
func (s *MemRoleSource) Seed(workflowID, stateID int64, rows []model.RoleAssignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[stateKey{workflowID, stateID}] = rows
}

// FailWith makes every subsequent call return err. Pass nil to restore
// normal behavior. For testing backing-IO failure paths.
func (s *MemRoleSource) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// RolesForState returns a copy of the seeded rows in seed order.
func (s *MemRoleSource) RolesForState(_ context.Context, workflowID, stateID int64) ([]model.RoleAssignment, func(), error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failWith != nil {
		return nil, noRelease, fmt.Errorf("mem role source: %w", s.failWith)
	}

	stored := s.rows[stateKey{workflowID, stateID}]
	out := make([]model.RoleAssignment, len(stored))
	copy(out, stored)
	return out, noRelease, nil
}

// Len returns the number of seeded states. For testing.
func (s *MemRoleSource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
