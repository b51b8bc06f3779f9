package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Amulyajoshtalks/true-tales/internal/platform/api"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/auth"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/httpserver"
	"github.com/Amulyajoshtalks/true-tales/services/social/internal/store"
)

// Follow subscribes the caller to a creator. Repeating the call is a no-op.
func Follow(s store.EngagementStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		creatorID := chi.URLParam(r, "userID")
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHENTICATED", "Authentication required", rid)
			return
		}
		if creatorID == userID {
			api.BadRequest(w, "SELF_FOLLOW", "Cannot follow yourself", rid, nil)
			return
		}

		if err := s.Follow(r.Context(), userID, creatorID); err != nil {
			api.Internal(w, rid)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Unfollow removes a subscription.
func Unfollow(s store.EngagementStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		creatorID := chi.URLParam(r, "userID")
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHENTICATED", "Authentication required", rid)
			return
		}

		if err := s.Unfollow(r.Context(), userID, creatorID); err != nil {
			api.Internal(w, rid)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type followingResponse struct {
	Following bool `json:"following"`
}

// GetFollowing reports whether the caller follows a creator.
func GetFollowing(s store.EngagementStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		creatorID := chi.URLParam(r, "userID")

		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.WriteJSON(w, http.StatusOK, followingResponse{})
			return
		}

		following, err := s.IsFollowing(r.Context(), userID, creatorID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, followingResponse{Following: following})
	}
}
