package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pitabwire/ngazi/internal/directory"
	"github.com/pitabwire/ngazi/internal/observability"
	"github.com/pitabwire/ngazi/model"
)

// Router resolves a transition's notification records against the from- and
// to-state role directories.
type Router struct {
	source  RowSource
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewRouter creates a Router. Logger and metrics may be nil.
func NewRouter(source RowSource, logger *zap.Logger, metrics *observability.Metrics) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{source: source, logger: logger, metrics: metrics}
}

// Route computes the recipient list for every notification defined on the
// transition, in definition order. For each record:
//
//   - to-state roles with notifications switched on are added when the
//     recipient flag targets the to-state and the record's
//     notify-to-state-roles flag is set; likewise for from-state roles;
//   - additional recipients and the CC list are appended verbatim, never
//     deduplicated against role-derived recipients;
//   - a required directory that contributed zero recipients flags the
//     notification as under-resourced rather than suppressing it.
//
// A nil or empty directory simply contributes no role recipients. Output
// order always matches record order; the external mailer relies on it for
// its delivery guarantees. Routing the same transition against the same two
// directories is idempotent apart from the generated dispatch IDs.
func (r *Router) Route(ctx context.Context, workflowID, transitionID int64, fromState, toState *directory.Directory) ([]model.ResolvedNotification, error) {
	ctx, span := observability.StartSpan(ctx, "notification.Route",
		observability.AttrWorkflowID.Int64(workflowID),
		observability.AttrTransitionID.Int64(transitionID),
	)

	records, err := r.source.NotificationsForTransition(ctx, workflowID, transitionID)
	if err != nil {
		observability.EndSpanWithError(span, err)
		return nil, fmt.Errorf("notification: load records for workflow %d transition %d: %w", workflowID, transitionID, err)
	}

	var out []model.ResolvedNotification
	cursor := NewCursor(records)
	for cursor.MoveNext() {
		resolved := r.resolveOne(cursor.Current(), fromState, toState)
		out = append(out, resolved)

		if resolved.MissingFromStateRoles || resolved.MissingToStateRoles {
			r.logger.Warn("notification under-resourced",
				zap.Int64("workflow_id", workflowID),
				zap.Int64("transition_id", transitionID),
				zap.Int64("notification_id", resolved.NotificationID),
				zap.Bool("missing_from_state_roles", resolved.MissingFromStateRoles),
				zap.Bool("missing_to_state_roles", resolved.MissingToStateRoles),
			)
			if r.metrics != nil {
				r.metrics.NotificationsUnderResourcedTotal.Inc()
			}
		}
		if r.metrics != nil {
			r.metrics.NotificationsRoutedTotal.Inc()
		}
	}

	observability.EndSpanWithError(span, nil)
	return out, nil
}

// resolveOne routes a single record.
func (r *Router) resolveOne(rec model.NotificationRecord, fromState, toState *directory.Directory) model.ResolvedNotification {
	resolved := model.ResolvedNotification{
		DispatchID:     uuid.NewString(),
		NotificationID: rec.NotificationID,
	}

	var toCount, fromCount int
	if rec.Recipient.IncludesToState() && rec.NotifyToStateRoles {
		toCount = appendRoleRecipients(&resolved.Recipients, toState)
	}
	if rec.Recipient.IncludesFromState() && rec.NotifyFromStateRoles {
		fromCount = appendRoleRecipients(&resolved.Recipients, fromState)
	}

	resolved.Recipients = append(resolved.Recipients, rec.AdditionalRecipients...)
	resolved.CC = append(resolved.CC, rec.CCList...)

	resolved.MissingToStateRoles = rec.RequireToStateRoles && toCount == 0
	resolved.MissingFromStateRoles = rec.RequireFromStateRoles && fromCount == 0

	return resolved
}

// appendRoleRecipients adds the directory's notify-enabled role names and
// returns how many were contributed.
func appendRoleRecipients(recipients *[]string, dir *directory.Directory) int {
	if dir == nil {
		return 0
	}
	enabled := dir.NotifyEnabledRoles()
	for _, role := range enabled {
		*recipients = append(*recipients, role.RoleName)
	}
	return len(enabled)
}
