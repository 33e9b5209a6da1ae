package transport

import (
	"net/http"

	"github.com/pitabwire/ngazi/internal/history"
	"github.com/pitabwire/ngazi/internal/observability"
	"github.com/pitabwire/ngazi/model"
)

// checkoutResponse reports the checkout classification for one item.
type checkoutResponse struct {
	ContentID int64  `json:"content_id"`
	User      string `json:"user"`
	Status    string `json:"status"`
}

// handleCheckout classifies the item's checkout against the requesting user.
// The current checkout owner is whatever the item's most recent status event
// recorded.
func handleCheckout(histories *history.Loader, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := model.RequestContextFrom(r.Context())
		if rctx == nil {
			WriteError(w, model.NewUnauthorizedError("missing request context"))
			return
		}
		contentID, err := int64Param(r, "contentID")
		if err != nil {
			WriteBadRequest(w, "contentID must be an integer")
			return
		}

		user := r.URL.Query().Get("user")
		if user == "" {
			user = rctx.UserName
		}

		rec, err := histories.Load(r.Context(), contentID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		var checkoutUser string
		for rec.MoveNext() {
			checkoutUser = rec.Current().CheckoutUserName
		}

		status := model.ClassifyCheckout(checkoutUser, user)
		if metrics != nil {
			metrics.RecordCheckoutResolution(status.String())
		}

		WriteJSON(w, http.StatusOK, checkoutResponse{
			ContentID: contentID,
			User:      user,
			Status:    status.String(),
		})
	}
}
