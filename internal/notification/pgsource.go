package notification

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pitabwire/ngazi/model"
)

// PgRowSource reads transition notification records from PostgreSQL using
// pgx/v5.
type PgRowSource struct {
	pool *pgxpool.Pool
}

// NewPgRowSource creates a PostgreSQL-backed notification row source.
func NewPgRowSource(pool *pgxpool.Pool) *PgRowSource {
	return &PgRowSource{pool: pool}
}

// NotificationsForTransition queries all notification records for one
// transition in definition order.
func (s *PgRowSource) NotificationsForTransition(ctx context.Context, workflowID, transitionID int64) ([]model.NotificationRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT notification_id, recipient_type,
		       require_from_state_roles, require_to_state_roles,
		       notify_from_state_roles, notify_to_state_roles,
		       additional_recipients, cc_list
		FROM transition_notifications
		WHERE workflow_id = $1 AND transition_id = $2
		ORDER BY notification_id`,
		workflowID, transitionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transition notifications: %w", err)
	}
	defer rows.Close()

	var out []model.NotificationRecord
	for rows.Next() {
		rec := model.NotificationRecord{WorkflowID: workflowID, TransitionID: transitionID}
		var recipient int16
		if err := rows.Scan(
			&rec.NotificationID, &recipient,
			&rec.RequireFromStateRoles, &rec.RequireToStateRoles,
			&rec.NotifyFromStateRoles, &rec.NotifyToStateRoles,
			&rec.AdditionalRecipients, &rec.CCList,
		); err != nil {
			return nil, fmt.Errorf("scan transition notification row: %w", err)
		}
		rec.Recipient = model.RecipientType(recipient)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read transition notification rows: %w", err)
	}

	return out, nil
}
