package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pitabwire/ngazi/internal/directory"
	"github.com/pitabwire/ngazi/model"
)

// stateRolesResponse is the directory snapshot view.
type stateRolesResponse struct {
	WorkflowID int64                  `json:"workflow_id"`
	StateID    int64                  `json:"state_id"`
	Empty      bool                   `json:"empty"`
	Roles      []model.RoleAssignment `json:"roles"`
}

func handleStateRoles(dirs *directory.CachedLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflowID, stateID, ok := statePathParams(w, r)
		if !ok {
			return
		}

		dir, err := dirs.Load(r.Context(), workflowID, stateID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		roles := dir.Roles()
		if roles == nil {
			roles = []model.RoleAssignment{}
		}
		WriteJSON(w, http.StatusOK, stateRolesResponse{
			WorkflowID: workflowID,
			StateID:    stateID,
			Empty:      dir.IsEmpty(),
			Roles:      roles,
		})
	}
}

// --- shared handler helpers ---

// statePathParams parses {workflowID} and {stateID}. On failure it writes a
// 400 response and returns ok=false.
func statePathParams(w http.ResponseWriter, r *http.Request) (workflowID, stateID int64, ok bool) {
	workflowID, err := int64Param(r, "workflowID")
	if err != nil {
		WriteBadRequest(w, "workflowID must be an integer")
		return 0, 0, false
	}
	stateID, err = int64Param(r, "stateID")
	if err != nil {
		WriteBadRequest(w, "stateID must be an integer")
		return 0, 0, false
	}
	return workflowID, stateID, true
}

func int64Param(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// writeDomainError maps resolver and loader failures to responses. Errors
// that are not already an ErrorEnvelope come from backing row sources.
func writeDomainError(w http.ResponseWriter, err error) {
	var ee *model.ErrorEnvelope
	if errors.As(err, &ee) {
		WriteError(w, ee)
		return
	}
	WriteError(w, model.NewBackingIOError("backing store unavailable"))
}
