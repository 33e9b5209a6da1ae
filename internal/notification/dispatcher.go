package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pitabwire/ngazi/internal/directory"
	"github.com/pitabwire/ngazi/internal/observability"
	"github.com/pitabwire/ngazi/model"
)

// Dispatcher hands routed notifications to the external mailer at most once
// per content item, using a DeliveryLedger to suppress repeats. Routing
// itself stays idempotent; the ledger only gates the handoff.
type Dispatcher struct {
	router  *Router
	ledger  DeliveryLedger
	ttl     time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewDispatcher creates a Dispatcher. Logger and metrics may be nil.
func NewDispatcher(router *Router, ledger DeliveryLedger, ttl time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{router: router, ledger: ledger, ttl: ttl, logger: logger, metrics: metrics}
}

// Dispatch routes the transition's notifications for one content item and
// returns only those not yet marked in the ledger, marking each returned
// notification before returning. Suppressed notifications are dropped from
// the result, never re-ordered. A ledger read failure fails the whole
// dispatch; with delivery at stake, guessing is worse than erroring.
func (d *Dispatcher) Dispatch(ctx context.Context, workflowID, transitionID, contentID int64, fromState, toState *directory.Directory) ([]model.ResolvedNotification, error) {
	ctx, span := observability.StartSpan(ctx, "notification.Dispatch",
		observability.AttrWorkflowID.Int64(workflowID),
		observability.AttrTransitionID.Int64(transitionID),
		observability.AttrContentID.Int64(contentID),
	)

	resolved, err := d.router.Route(ctx, workflowID, transitionID, fromState, toState)
	if err != nil {
		observability.EndSpanWithError(span, err)
		return nil, err
	}

	out := make([]model.ResolvedNotification, 0, len(resolved))
	for _, rn := range resolved {
		key := FormatDeliveryKey(workflowID, transitionID, rn.NotificationID, contentID)

		delivered, err := d.ledger.WasDelivered(ctx, key)
		if err != nil {
			observability.EndSpanWithError(span, err)
			return nil, fmt.Errorf("notification: ledger read %q: %w", key, err)
		}
		if delivered {
			d.logger.Debug("notification delivery suppressed",
				zap.String("delivery_key", key),
				zap.String("dispatch_id", rn.DispatchID),
			)
			if d.metrics != nil {
				d.metrics.RecordDeliverySuppressed()
			}
			continue
		}

		if err := d.ledger.MarkDelivered(ctx, key, d.ttl); err != nil {
			observability.EndSpanWithError(span, err)
			return nil, fmt.Errorf("notification: ledger mark %q: %w", key, err)
		}
		out = append(out, rn)
	}

	observability.EndSpanWithError(span, nil)
	return out, nil
}
