package transport

import (
	"net/http"
	"strconv"

	"github.com/pitabwire/ngazi/internal/directory"
	"github.com/pitabwire/ngazi/internal/notification"
	"github.com/pitabwire/ngazi/model"
)

// recipientsResponse previews the routed notifications for one transition.
type recipientsResponse struct {
	WorkflowID    int64                        `json:"workflow_id"`
	TransitionID  int64                        `json:"transition_id"`
	FromStateID   int64                        `json:"from_state_id"`
	ToStateID     int64                        `json:"to_state_id"`
	Notifications []model.ResolvedNotification `json:"notifications"`
}

func handleRecipients(dirs *directory.CachedLoader, router *notification.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflowID, err := int64Param(r, "workflowID")
		if err != nil {
			WriteBadRequest(w, "workflowID must be an integer")
			return
		}
		transitionID, err := int64Param(r, "transitionID")
		if err != nil {
			WriteBadRequest(w, "transitionID must be an integer")
			return
		}
		fromStateID, err := strconv.ParseInt(r.URL.Query().Get("from_state"), 10, 64)
		if err != nil {
			WriteBadRequest(w, "from_state query parameter is required and must be an integer")
			return
		}
		toStateID, err := strconv.ParseInt(r.URL.Query().Get("to_state"), 10, 64)
		if err != nil {
			WriteBadRequest(w, "to_state query parameter is required and must be an integer")
			return
		}

		fromDir, err := dirs.Load(r.Context(), workflowID, fromStateID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		toDir, err := dirs.Load(r.Context(), workflowID, toStateID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resolved, err := router.Route(r.Context(), workflowID, transitionID, fromDir, toDir)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if resolved == nil {
			resolved = []model.ResolvedNotification{}
		}

		WriteJSON(w, http.StatusOK, recipientsResponse{
			WorkflowID:    workflowID,
			TransitionID:  transitionID,
			FromStateID:   fromStateID,
			ToStateID:     toStateID,
			Notifications: resolved,
		})
	}
}
