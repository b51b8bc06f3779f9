package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Amulyajoshtalks/true-tales/internal/platform/api"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/auth"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/events"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/httpserver"
	"github.com/Amulyajoshtalks/true-tales/services/social/internal/store"
)

// GetFlags returns the caller's like/bookmark state for an episode.
// Anonymous callers get both flags false.
func GetFlags(s store.EngagementStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		episodeID := chi.URLParam(r, "episodeID")

		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.WriteJSON(w, http.StatusOK, store.Flags{})
			return
		}

		flags, err := s.GetFlags(r.Context(), episodeID, userID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, flags)
	}
}

// Like records a like. Repeating the call is a no-op.
func Like(s store.EngagementStore, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		episodeID := chi.URLParam(r, "episodeID")
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHENTICATED", "Authentication required", rid)
			return
		}

		if err := s.InsertLike(r.Context(), episodeID, userID); err != nil {
			api.Internal(w, rid)
			return
		}
		pub.Publish(events.SubjectEpisodeLiked, "episode_liked", userID, map[string]any{
			"episode_id": episodeID,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// Unlike removes a like. Removing a like that was never set is a no-op.
func Unlike(s store.EngagementStore, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		episodeID := chi.URLParam(r, "episodeID")
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHENTICATED", "Authentication required", rid)
			return
		}

		if err := s.DeleteLike(r.Context(), episodeID, userID); err != nil {
			api.Internal(w, rid)
			return
		}
		pub.Publish(events.SubjectEpisodeUnliked, "episode_unliked", userID, map[string]any{
			"episode_id": episodeID,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// Bookmark saves an episode to the caller's list.
func Bookmark(s store.EngagementStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		episodeID := chi.URLParam(r, "episodeID")
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHENTICATED", "Authentication required", rid)
			return
		}

		if err := s.InsertBookmark(r.Context(), episodeID, userID); err != nil {
			api.Internal(w, rid)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Unbookmark removes an episode from the caller's list.
func Unbookmark(s store.EngagementStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		episodeID := chi.URLParam(r, "episodeID")
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHENTICATED", "Authentication required", rid)
			return
		}

		if err := s.DeleteBookmark(r.Context(), episodeID, userID); err != nil {
			api.Internal(w, rid)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
