package transport

import (
	"net/http"
	"strconv"

	"github.com/pitabwire/ngazi/internal/assignment"
	"github.com/pitabwire/ngazi/internal/directory"
	"github.com/pitabwire/ngazi/internal/identity"
	"github.com/pitabwire/ngazi/model"
)

// assignmentResponse reports the caller's resolved assignment in one state.
type assignmentResponse struct {
	WorkflowID int64  `json:"workflow_id"`
	StateID    int64  `json:"state_id"`
	User       string `json:"user"`
	Assignment string `json:"assignment"`
}

func handleAssignment(dirs *directory.CachedLoader, memberships identity.MembershipProvider, resolver *assignment.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := model.RequestContextFrom(r.Context())
		if rctx == nil {
			WriteError(w, model.NewUnauthorizedError("missing request context"))
			return
		}
		workflowID, stateID, ok := statePathParams(w, r)
		if !ok {
			return
		}

		// content_id scopes adhoc grants to one item; without it only role
		// memberships and anonymous roles participate.
		var contentID int64
		if raw := r.URL.Query().Get("content_id"); raw != "" {
			var err error
			contentID, err = strconv.ParseInt(raw, 10, 64)
			if err != nil {
				WriteBadRequest(w, "content_id must be an integer")
				return
			}
		}

		dir, err := dirs.Load(r.Context(), workflowID, stateID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		roleNames, err := memberships.RoleNames(r.Context(), rctx.UserName)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		var grants []string
		if contentID != 0 {
			grants, err = memberships.AdhocGrants(r.Context(), rctx.UserName, contentID)
			if err != nil {
				writeDomainError(w, err)
				return
			}
		}

		result, err := resolver.Resolve(assignment.Request{
			UserName:    rctx.UserName,
			RoleNames:   roleNames,
			AdhocGrants: grants,
			Directory:   dir,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, assignmentResponse{
			WorkflowID: workflowID,
			StateID:    stateID,
			User:       rctx.UserName,
			Assignment: result.String(),
		})
	}
}
