package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Amulyajoshtalks/true-tales/internal/platform/api"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/auth"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/httpserver"
	"github.com/Amulyajoshtalks/true-tales/services/social/internal/store"
)

const maxCommentLen = 2000

type commentsResponse struct {
	Comments []store.Comment `json:"comments"`
}

// ListComments returns an episode's comments, newest first.
func ListComments(s store.EngagementStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		episodeID := chi.URLParam(r, "episodeID")

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				api.BadRequest(w, "INVALID_LIMIT", "limit must be a positive integer", rid, nil)
				return
			}
			limit = n
		}

		comments, err := s.ListComments(r.Context(), episodeID, limit)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		if comments == nil {
			comments = []store.Comment{}
		}
		api.WriteJSON(w, http.StatusOK, commentsResponse{Comments: comments})
	}
}

type createCommentRequest struct {
	Body string `json:"body"`
}

// CreateComment posts a comment on an episode.
func CreateComment(s store.EngagementStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		episodeID := chi.URLParam(r, "episodeID")
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHENTICATED", "Authentication required", rid)
			return
		}

		var req createCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_BODY", "Request body must be valid JSON", rid, nil)
			return
		}
		body := strings.TrimSpace(req.Body)
		if body == "" {
			api.BadRequest(w, "EMPTY_COMMENT", "body is required", rid, nil)
			return
		}
		if len(body) > maxCommentLen {
			api.BadRequest(w, "COMMENT_TOO_LONG", "body exceeds the maximum length", rid,
				map[string]any{"max": maxCommentLen})
			return
		}

		created, err := s.CreateComment(r.Context(), store.Comment{
			EpisodeID: episodeID,
			UserID:    userID,
			Body:      body,
		})
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}
