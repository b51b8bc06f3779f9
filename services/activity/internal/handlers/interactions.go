package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Amulyajoshtalks/true-tales/internal/platform/api"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/auth"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/events"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/httpserver"
	"github.com/Amulyajoshtalks/true-tales/services/activity/internal/store"
)

// GetInteraction returns the listening record for one (episode, viewer)
// pair. A missing record is a plain 404; first-time listeners have none.
func GetInteraction(s store.InteractionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		episodeID := chi.URLParam(r, "episodeID")
		viewerID := strings.TrimSpace(r.URL.Query().Get("viewer_id"))
		if viewerID == "" {
			api.BadRequest(w, "MISSING_VIEWER", "viewer_id is required", rid, nil)
			return
		}

		in, err := s.Get(r.Context(), episodeID, viewerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "INTERACTION_NOT_FOUND", "No listening record for this viewer", rid)
				return
			}
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, in)
	}
}

type createInteractionRequest struct {
	ViewerID            string  `json:"viewer_id"`
	PlayCount           int64   `json:"play_count"`
	PlayDurationSeconds float64 `json:"play_duration_seconds"`
	ProgressSeconds     float64 `json:"progress_seconds"`
}

// CreateInteraction starts a listening record. Anonymous viewers share a
// sentinel viewer_id, so no authentication is required here.
func CreateInteraction(s store.InteractionStore, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		episodeID := chi.URLParam(r, "episodeID")

		var req createInteractionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_BODY", "Request body must be valid JSON", rid, nil)
			return
		}
		req.ViewerID = strings.TrimSpace(req.ViewerID)
		if req.ViewerID == "" {
			api.BadRequest(w, "MISSING_VIEWER", "viewer_id is required", rid, nil)
			return
		}
		if req.PlayCount < 0 || req.PlayDurationSeconds < 0 || req.ProgressSeconds < 0 {
			api.BadRequest(w, "NEGATIVE_VALUES", "counters must be >= 0", rid, nil)
			return
		}

		created, err := s.Create(r.Context(), store.Interaction{
			EpisodeID:           episodeID,
			ViewerID:            req.ViewerID,
			PlayCount:           req.PlayCount,
			PlayDurationSeconds: req.PlayDurationSeconds,
			ProgressSeconds:     req.ProgressSeconds,
		})
		if err != nil {
			api.Internal(w, rid)
			return
		}

		pub.Publish(events.SubjectPlayRecorded, "play_recorded", req.ViewerID, map[string]any{
			"episode_id": episodeID,
		})
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// PatchInteraction applies a partial update to an existing record.
func PatchInteraction(s store.InteractionStore, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id := chi.URLParam(r, "interactionID")

		var p store.Patch
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			api.BadRequest(w, "INVALID_BODY", "Request body must be valid JSON", rid, nil)
			return
		}
		if (p.PlayCount != nil && *p.PlayCount < 0) ||
			(p.PlayDurationSeconds != nil && *p.PlayDurationSeconds < 0) ||
			(p.ProgressSeconds != nil && *p.ProgressSeconds < 0) {
			api.BadRequest(w, "NEGATIVE_VALUES", "counters must be >= 0", rid, nil)
			return
		}

		updated, err := s.ApplyPatch(r.Context(), id, p)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "INTERACTION_NOT_FOUND", "No such listening record", rid)
				return
			}
			api.Internal(w, rid)
			return
		}

		// A play_count bump marks a replay; duration/progress-only patches
		// happen on every pause.
		if p.PlayCount != nil {
			pub.Publish(events.SubjectPlayRecorded, "play_recorded", updated.ViewerID, map[string]any{
				"episode_id": updated.EpisodeID,
			})
		}
		api.WriteJSON(w, http.StatusOK, updated)
	}
}

type continueListeningResponse struct {
	Interactions []store.Interaction `json:"interactions"`
	NextCursor   string              `json:"next_cursor,omitempty"`
}

// ContinueListening returns the caller's most recently played episodes with
// keyset pagination.
func ContinueListening(s store.InteractionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHENTICATED", "Authentication required", rid)
			return
		}

		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				api.BadRequest(w, "INVALID_LIMIT", "limit must be a positive integer", rid, nil)
				return
			}
			limit = n
		}
		if limit > 50 {
			limit = 50
		}

		var cursor *store.Cursor
		if raw := r.URL.Query().Get("cursor"); raw != "" {
			c, err := decodeCursor(raw)
			if err != nil {
				api.BadRequest(w, "INVALID_CURSOR", "cursor is malformed", rid, nil)
				return
			}
			cursor = &c
		}

		rows, err := s.ListRecent(r.Context(), userID, limit+1, cursor)
		if err != nil {
			api.Internal(w, rid)
			return
		}

		var next string
		if len(rows) > limit {
			rows = rows[:limit]
			last := rows[len(rows)-1]
			next = encodeCursor(store.Cursor{UpdatedAt: last.UpdatedAt, ID: last.ID})
		}
		api.WriteJSON(w, http.StatusOK, continueListeningResponse{Interactions: rows, NextCursor: next})
	}
}

func encodeCursor(c store.Cursor) string {
	raw := c.UpdatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (store.Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return store.Cursor{}, err
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return store.Cursor{}, fmt.Errorf("malformed cursor")
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return store.Cursor{}, err
	}
	return store.Cursor{UpdatedAt: ts, ID: parts[1]}, nil
}
