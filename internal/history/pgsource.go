package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pitabwire/ngazi/model"
)

// Legacy column length limits, applied when hydrating rows. Values beyond
// a limit are truncated, not rejected.
const (
	maxTitle           = 40
	maxSessionID       = 40
	maxStateName       = 50
	maxTransitionLabel = 50
	maxRoleNames       = 255
	maxLastModifier    = 255
	maxComment         = 255
)

// PgRowSource reads content status history from PostgreSQL using pgx/v5.
type PgRowSource struct {
	pool *pgxpool.Pool
}

// NewPgRowSource creates a PostgreSQL-backed history row source.
func NewPgRowSource(pool *pgxpool.Pool) *PgRowSource {
	return &PgRowSource{pool: pool}
}

// EntriesForItem queries the item's history in chronological order. Bounded
// text fields are trimmed and truncated here, at the loading boundary.
func (s *PgRowSource) EntriesForItem(ctx context.Context, contentID int64) ([]model.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT history_id, content_id, revision, title, session_id, actor_name,
		       transition_id, is_publishable, state_id, state_name,
		       transition_label, role_names, checkout_user_name,
		       last_modifier_name, last_modified_at, event_at, comment
		FROM content_status_history
		WHERE content_id = $1
		ORDER BY event_at, history_id`,
		contentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query content history: %w", err)
	}
	defer rows.Close()

	var out []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var checkoutUser *string
		if err := rows.Scan(
			&e.HistoryID, &e.ContentID, &e.Revision, &e.Title, &e.SessionID, &e.ActorName,
			&e.TransitionID, &e.IsPublishable, &e.StateID, &e.StateName,
			&e.TransitionLabel, &e.RoleNamesCSV, &checkoutUser,
			&e.LastModifierName, &e.LastModifiedAt, &e.EventAt, &e.Comment,
		); err != nil {
			return nil, fmt.Errorf("scan content history row: %w", err)
		}

		e.Title = model.TruncateField(e.Title, maxTitle)
		e.SessionID = model.TruncateField(e.SessionID, maxSessionID)
		e.ActorName = model.TruncateField(e.ActorName, 0)
		e.StateName = model.TruncateField(e.StateName, maxStateName)
		e.TransitionLabel = model.TruncateField(e.TransitionLabel, maxTransitionLabel)
		e.RoleNamesCSV = model.TruncateField(e.RoleNamesCSV, maxRoleNames)
		e.LastModifierName = model.TruncateField(e.LastModifierName, maxLastModifier)
		e.Comment = model.TruncateField(e.Comment, maxComment)
		if checkoutUser != nil {
			e.CheckoutUserName = model.TruncateField(*checkoutUser, 0)
		}

		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read content history rows: %w", err)
	}

	return out, nil
}
