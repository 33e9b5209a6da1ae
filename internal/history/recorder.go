package history

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pitabwire/ngazi/internal/observability"
	"github.com/pitabwire/ngazi/model"
)

// Recorder is a read-only, forward-only cursor over one content item's
// status history. The full result set is materialized at load time; the
// cursor only ever moves forward, mirroring the append-only chronological
// nature of the history. No random access, no rewind.
type Recorder struct {
	contentID int64
	entries   []model.HistoryEntry
	pos       int
}

// newRecorder creates a cursor positioned before the first entry.
func newRecorder(contentID int64, entries []model.HistoryEntry) *Recorder {
	return &Recorder{contentID: contentID, entries: entries, pos: -1}
}

// ContentID returns the item this history belongs to.
func (r *Recorder) ContentID() int64 { return r.contentID }

// IsEmpty reports whether the item has zero history entries, independent of
// cursor position.
func (r *Recorder) IsEmpty() bool { return len(r.entries) == 0 }

// MoveNext advances to the next entry, returning false once the history is
// exhausted.
func (r *Recorder) MoveNext() bool {
	if r.pos+1 >= len(r.entries) {
		r.pos = len(r.entries)
		return false
	}
	r.pos++
	return true
}

// Current returns the entry the cursor is positioned on. Only valid after a
// MoveNext that returned true.
func (r *Recorder) Current() model.HistoryEntry {
	if r.pos < 0 || r.pos >= len(r.entries) {
		return model.HistoryEntry{}
	}
	return r.entries[r.pos]
}

// Len returns the total number of entries regardless of position.
func (r *Recorder) Len() int { return len(r.entries) }

// Loader builds Recorder cursors from a RowSource.
type Loader struct {
	source  RowSource
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader. Logger and metrics may be nil.
func NewLoader(source RowSource, logger *zap.Logger, metrics *observability.Metrics) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{source: source, logger: logger, metrics: metrics}
}

// Load materializes the item's full history and returns a cursor over it.
// An item with no history loads as an empty recorder, not an error.
func (l *Loader) Load(ctx context.Context, contentID int64) (*Recorder, error) {
	ctx, span := observability.StartSpan(ctx, "history.Load",
		observability.AttrContentID.Int64(contentID),
	)
	start := time.Now()

	entries, err := l.source.EntriesForItem(ctx, contentID)
	if err != nil {
		l.recordLoad("error")
		observability.EndSpanWithError(span, err)
		return nil, fmt.Errorf("history: load entries for content %d: %w", contentID, err)
	}

	if l.metrics != nil {
		l.metrics.HistoryLoadDuration.Observe(time.Since(start).Seconds())
	}
	if len(entries) == 0 {
		l.recordLoad("empty")
	} else {
		l.recordLoad("ok")
	}
	observability.EndSpanWithError(span, nil)
	return newRecorder(contentID, entries), nil
}

func (l *Loader) recordLoad(result string) {
	if l.metrics != nil {
		l.metrics.HistoryLoadsTotal.WithLabelValues(result).Inc()
	}
}

// HealthCheck verifies the row source is reachable by probing it with a key
// that is allowed to return zero rows.
func (l *Loader) HealthCheck(ctx context.Context) error {
	if _, err := l.source.EntriesForItem(ctx, 0); err != nil {
		return fmt.Errorf("history source: %w", err)
	}
	return nil
}
