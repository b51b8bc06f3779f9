package handlers

import (
	"net/http"

	"github.com/Amulyajoshtalks/true-tales/internal/platform/api"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/auth"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/httpserver"
	"github.com/Amulyajoshtalks/true-tales/services/story/internal/store"
)

type payoutsResponse struct {
	Payouts []store.Payout `json:"payouts"`
}

// ListPayouts returns the authenticated creator's earnings statements,
// newest first.
func ListPayouts(s store.StoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHENTICATED", "Authentication required", rid)
			return
		}

		rows, err := s.ListPayouts(r.Context(), userID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		if rows == nil {
			rows = []store.Payout{}
		}
		api.WriteJSON(w, http.StatusOK, payoutsResponse{Payouts: rows})
	}
}
