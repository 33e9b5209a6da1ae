package transport

import (
	"net/http"
	"strconv"

	"github.com/pitabwire/ngazi/internal/directory"
	"github.com/pitabwire/ngazi/internal/notification"
	"github.com/pitabwire/ngazi/model"
)

// dispatchResponse is the mailer handoff result: only notifications not
// previously delivered for this item appear.
type dispatchResponse struct {
	WorkflowID    int64                        `json:"workflow_id"`
	TransitionID  int64                        `json:"transition_id"`
	ContentID     int64                        `json:"content_id"`
	Notifications []model.ResolvedNotification `json:"notifications"`
}

func handleDispatch(dirs *directory.CachedLoader, dispatcher *notification.Dispatcher) http.HandlerFunc {
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
		contentID, err := strconv.ParseInt(r.URL.Query().Get("content_id"), 10, 64)
		if err != nil {
			WriteBadRequest(w, "content_id query parameter is required and must be an integer")
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

		dispatched, err := dispatcher.Dispatch(r.Context(), workflowID, transitionID, contentID, fromDir, toDir)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if dispatched == nil {
			dispatched = []model.ResolvedNotification{}
		}

		WriteJSON(w, http.StatusOK, dispatchResponse{
			WorkflowID:    workflowID,
			TransitionID:  transitionID,
			ContentID:     contentID,
			Notifications: dispatched,
		})
	}
}
