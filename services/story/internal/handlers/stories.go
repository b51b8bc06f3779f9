package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Amulyajoshtalks/true-tales/internal/platform/api"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/auth"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/events"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/httpserver"
	"github.com/Amulyajoshtalks/true-tales/services/story/internal/cache"
	"github.com/Amulyajoshtalks/true-tales/services/story/internal/store"
)

type createStoryRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CoverURL    string `json:"cover_url"`
	Category    string `json:"category"`
}

// CreateStory registers a new story owned by the authenticated creator.
func CreateStory(s store.StoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHENTICATED", "Authentication required", rid)
			return
		}

		var req createStoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_BODY", "Request body must be valid JSON", rid, nil)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			api.BadRequest(w, "MISSING_TITLE", "title is required", rid, nil)
			return
		}

		created, err := s.CreateStory(r.Context(), store.Story{
			UserID:      userID,
			Title:       strings.TrimSpace(req.Title),
			Description: req.Description,
			CoverURL:    req.CoverURL,
			Category:    req.Category,
		})
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

type storyDetailResponse struct {
	Story    store.Story     `json:"story"`
	Episodes []store.Episode `json:"episodes"`
}

// GetStory returns one story together with all its episodes, newest first.
func GetStory(s store.StoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		storyID := chi.URLParam(r, "storyID")

		st, eps, err := s.GetStory(r.Context(), storyID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "STORY_NOT_FOUND", "Story does not exist", rid)
				return
			}
			api.Internal(w, rid)
			return
		}
		if eps == nil {
			eps = []store.Episode{}
		}
		api.WriteJSON(w, http.StatusOK, storyDetailResponse{Story: st, Episodes: eps})
	}
}

type createEpisodeRequest struct {
	Title           string `json:"title"`
	AudioURL        string `json:"audio_url"`
	DurationSeconds int    `json:"duration_seconds"`
}

// CreateEpisode appends an episode to a story the caller owns. Publishing an
// episode invalidates the feed cache and emits an event for downstream
// consumers.
func CreateEpisode(s store.StoryStore, pub *events.Publisher, inv *cache.Invalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHENTICATED", "Authentication required", rid)
			return
		}
		storyID := chi.URLParam(r, "storyID")

		var req createEpisodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_BODY", "Request body must be valid JSON", rid, nil)
			return
		}
		if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.AudioURL) == "" {
			api.BadRequest(w, "MISSING_FIELDS", "title and audio_url are required", rid, nil)
			return
		}
		if req.DurationSeconds < 0 {
			api.BadRequest(w, "INVALID_DURATION", "duration_seconds must be >= 0", rid, nil)
			return
		}

		created, err := s.CreateEpisode(r.Context(), userID, store.Episode{
			StoryID:         storyID,
			Title:           strings.TrimSpace(req.Title),
			AudioURL:        req.AudioURL,
			DurationSeconds: req.DurationSeconds,
		})
		if err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				api.NotFound(w, "STORY_NOT_FOUND", "Story does not exist", rid)
			case errors.Is(err, store.ErrForbidden):
				api.Forbidden(w, "NOT_OWNER", "Only the story owner can publish episodes", rid)
			default:
				api.Internal(w, rid)
			}
			return
		}

		pub.Publish(events.SubjectEpisodePublished, "episode_published", userID, map[string]any{
			"episode_id": created.ID,
			"story_id":   created.StoryID,
		})
		inv.Invalidate()

		api.WriteJSON(w, http.StatusCreated, created)
	}
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

// ListCategories returns the distinct categories currently in use.
func ListCategories(s store.StoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		cats, err := s.ListCategories(r.Context())
		if err != nil {
			api.Internal(w, rid)
			return
		}
		if cats == nil {
			cats = []string{}
		}
		api.WriteJSON(w, http.StatusOK, categoriesResponse{Categories: cats})
	}
}
