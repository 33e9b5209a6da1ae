// Package notification routes transition notifications to their recipients,
// combining per-transition notification records with the from-state and
// to-state role directories.
package notification

import (
	"context"

	"github.com/pitabwire/ngazi/model"
)

// RowSource yields the notification records defined for one transition.
type RowSource interface {
	// NotificationsForTransition returns all notification records for the
	// given (workflowID, transitionID) in definition order. Zero records
	// with a nil error is the NotFound outcome.
	NotificationsForTransition(ctx context.Context, workflowID, transitionID int64) ([]model.NotificationRecord, error)
}

// Cursor is a forward-only, non-restartable view over a transition's
// notification records. Once advanced past a record it cannot revisit it;
// callers needing another pass re-query the source.
type Cursor struct {
	records []model.NotificationRecord
	pos     int
}

// NewCursor creates a cursor positioned before the first record.
func NewCursor(records []model.NotificationRecord) *Cursor {
	return &Cursor{records: records, pos: -1}
}

// MoveNext advances to the next record, returning false once the sequence
// is exhausted.
func (c *Cursor) MoveNext() bool {
	if c.pos+1 >= len(c.records) {
		c.pos = len(c.records)
		return false
	}
	c.pos++
	return true
}

// Current returns the record the cursor is positioned on. Only valid after
// a MoveNext that returned true.
func (c *Cursor) Current() model.NotificationRecord {
	if c.pos < 0 || c.pos >= len(c.records) {
		return model.NotificationRecord{}
	}
	return c.records[c.pos]
}

// IsEmpty reports whether the backing set has zero records, independent of
// cursor position.
func (c *Cursor) IsEmpty() bool {
	return len(c.records) == 0
}
