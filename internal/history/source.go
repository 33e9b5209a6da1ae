// Package history exposes a content item's status history as a forward-only
// cursor over an eagerly loaded, immutable chronological sequence.
package history

import (
	"context"

	"github.com/pitabwire/ngazi/model"
)

// RowSource yields a content item's status history entries.
type RowSource interface {
	// EntriesForItem returns all history entries for the content item in
	// chronological order. Zero entries with a nil error means the item has
	// no history.
	EntriesForItem(ctx context.Context, contentID int64) ([]model.HistoryEntry, error)
}
