package directory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pitabwire/ngazi/model"
)

// PgRoleSource reads state role assignments from PostgreSQL using pgx/v5.
type PgRoleSource struct {
	pool *pgxpool.Pool
}

// NewPgRoleSource creates a PostgreSQL-backed role row source.
func NewPgRoleSource(pool *pgxpool.Pool) *PgRoleSource {
	return &PgRoleSource{pool: pool}
}

// RolesForState queries all role assignment rows for one workflow state.
// The rows are fully materialized before returning, so the release function
// has nothing left to free.
func (s *PgRoleSource) RolesForState(ctx context.Context, workflowID, stateID int64) ([]model.RoleAssignment, func(), error) {
	rows, err := s.pool.Query(ctx, `
		SELECT role_id, role_name, assignment_type, adhoc_category, notify_enabled
		FROM workflow_state_roles
		WHERE workflow_id = $1 AND state_id = $2
		ORDER BY role_id`,
		workflowID, stateID,
	)
	if err != nil {
		return nil, noRelease, fmt.Errorf("query state roles: %w", err)
	}
	defer rows.Close()

	var out []model.RoleAssignment
	for rows.Next() {
		var r model.RoleAssignment
		var assignment, adhoc int16
		if err := rows.Scan(&r.RoleID, &r.RoleName, &assignment, &adhoc, &r.NotifyEnabled); err != nil {
			return nil, noRelease, fmt.Errorf("scan state role row: %w", err)
		}
		r.Assignment = model.AssignmentType(assignment)
		r.Adhoc = model.AdhocCategory(adhoc)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, noRelease, fmt.Errorf("read state role rows: %w", err)
	}

	return out, noRelease, nil
}
