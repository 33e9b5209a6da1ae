package transport

import (
	"net/http"

	"github.com/pitabwire/ngazi/internal/history"
	"github.com/pitabwire/ngazi/model"
)

// historyResponse is the item's full status history, oldest first.
type historyResponse struct {
	ContentID int64                `json:"content_id"`
	Entries   []model.HistoryEntry `json:"entries"`
}

func handleHistory(histories *history.Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contentID, err := int64Param(r, "contentID")
		if err != nil {
			WriteBadRequest(w, "contentID must be an integer")
			return
		}

		rec, err := histories.Load(r.Context(), contentID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		entries := make([]model.HistoryEntry, 0, rec.Len())
		for rec.MoveNext() {
			entries = append(entries, rec.Current())
		}

		WriteJSON(w, http.StatusOK, historyResponse{
			ContentID: contentID,
			Entries:   entries,
		})
	}
}
