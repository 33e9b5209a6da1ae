package directory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pitabwire/ngazi/internal/observability"
)

// Loader builds Directory snapshots from a RoleRowSource.
type Loader struct {
	source  RoleRowSource
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader. Logger and metrics may be nil.
func NewLoader(source RoleRowSource, logger *zap.Logger, metrics *observability.Metrics) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{source: source, logger: logger, metrics: metrics}
}

// Load queries the role rows for (workflowID, stateID) and builds a
// snapshot. Zero backing rows produce an empty directory, not an error; the
// caller must check IsEmpty. A source failure propagates unchanged, with the
// acquisition released before returning. The returned directory must be
// closed by the caller.
func (l *Loader) Load(ctx context.Context, workflowID, stateID int64) (*Directory, error) {
	ctx, span := observability.StartSpan(ctx, "directory.Load",
		observability.AttrWorkflowID.Int64(workflowID),
		observability.AttrStateID.Int64(stateID),
	)
	start := time.Now()

	rows, release, err := l.source.RolesForState(ctx, workflowID, stateID)
	if err != nil {
		if release != nil {
			release()
		}
		l.recordLoad("error")
		observability.EndSpanWithError(span, err)
		return nil, fmt.Errorf("directory: load roles for workflow %d state %d: %w", workflowID, stateID, err)
	}

	d := newDirectory(workflowID, stateID, rows, release)
	l.recordDuration(start)
	if d.IsEmpty() {
		l.recordLoad("empty")
		l.logger.Debug("state has no role assignments",
			zap.Int64("workflow_id", workflowID),
			zap.Int64("state_id", stateID),
		)
	} else {
		l.recordLoad("ok")
	}
	observability.EndSpanWithError(span, nil)
	return d, nil
}

func (l *Loader) recordLoad(result string) {
	if l.metrics != nil {
		l.metrics.DirectoryLoadsTotal.WithLabelValues(result).Inc()
	}
}

func (l *Loader) recordDuration(start time.Time) {
	if l.metrics != nil {
		l.metrics.DirectoryLoadDuration.Observe(time.Since(start).Seconds())
	}
}

// HealthCheck verifies the row source is reachable by probing it with a key
// that is allowed to return zero rows.
func (l *Loader) HealthCheck(ctx context.Context) error {
	_, release, err := l.source.RolesForState(ctx, 0, 0)
	if release != nil {
		release()
	}
	if err != nil {
		return fmt.Errorf("directory source: %w", err)
	}
	return nil
}
