// Package assignment computes the assignment type a user holds in a
// workflow state, combining role membership, per-item adhoc grants, and the
// state's role directory.
package assignment

import (
	"strings"

	"go.uber.org/zap"

	"github.com/pitabwire/ngazi/internal/directory"
	"github.com/pitabwire/ngazi/internal/observability"
	"github.com/pitabwire/ngazi/model"
)

// Request is the resolver's working input for one user in one state. Role
// memberships and adhoc grants come from the identity collaborator; the
// directory is the snapshot for the item's current state.
type Request struct {
	UserName    string
	RoleNames   []string
	AdhocGrants []string
	Directory   *directory.Directory
}

// Resolver computes the single highest-precedence assignment type.
type Resolver struct {
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewResolver creates a Resolver. Logger and metrics may be nil.
func NewResolver(logger *zap.Logger, metrics *observability.Metrics) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger, metrics: metrics}
}

// Resolve returns the most privileged assignment the user holds in the
// request's state. Assignment is never additive: the result is the maximum
// over all matches in the order None < Reader < Assignee < Admin.
//
//  1. Role memberships matching non-adhoc directory roles.
//  2. Adhoc grants matching adhoc-normal directory roles.
//  3. A Reader floor when the directory carries any adhoc-anonymous role;
//     this never overrides an Assignee or Admin result.
//
// An empty directory means the item has no workflow role control, so the
// result is AssignmentNone. A blank user name or nil directory is rejected
// as invalid input before any computation.
func (r *Resolver) Resolve(req Request) (model.AssignmentType, error) {
	if strings.TrimSpace(req.UserName) == "" {
		return model.AssignmentNone, model.NewBadRequestError("user name is required")
	}
	if req.Directory == nil {
		return model.AssignmentNone, model.NewBadRequestError("state role directory is required")
	}

	if req.Directory.IsEmpty() {
		r.record(model.AssignmentNone)
		return model.AssignmentNone, nil
	}

	result := model.AssignmentNone

	for _, name := range req.RoleNames {
		if id, ok := req.Directory.NonAdhocRoleID(name); ok {
			if at := req.Directory.AssignmentFor(id); at > result {
				result = at
			}
		}
	}

	for _, name := range req.AdhocGrants {
		if id, ok := req.Directory.AdhocNormalRoleID(name); ok {
			if at := req.Directory.AssignmentFor(id); at > result {
				result = at
			}
		}
	}

	if result < model.AssignmentReader && len(req.Directory.AdhocAnonymousRoles()) > 0 {
		result = model.AssignmentReader
	}

	r.logger.Debug("assignment resolved",
		zap.String("user", req.UserName),
		zap.Int64("workflow_id", req.Directory.WorkflowID()),
		zap.Int64("state_id", req.Directory.StateID()),
		zap.String("assignment", result.String()),
	)
	r.record(result)
	return result, nil
}

func (r *Resolver) record(result model.AssignmentType) {
	if r.metrics != nil {
		r.metrics.AssignmentResolutionsTotal.WithLabelValues(result.String()).Inc()
	}
}
