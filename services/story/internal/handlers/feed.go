package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Amulyajoshtalks/true-tales/internal/platform/api"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/httpserver"
	"github.com/Amulyajoshtalks/true-tales/services/story/internal/cache"
	"github.com/Amulyajoshtalks/true-tales/services/story/internal/store"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

type feedResponse struct {
	Stories []store.StorySummary `json:"stories"`
}

// GetFeed serves paginated story summaries ordered by latest-episode
// recency. Pages are cached briefly; the cache is flushed when an episode
// is published.
func GetFeed(s store.StoryStore, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		filter := strings.TrimSpace(r.URL.Query().Get("filter"))
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
		limit := parseIntDefault(r.URL.Query().Get("limit"), defaultPageSize)
		if offset < 0 || limit <= 0 {
			api.BadRequest(w, "INVALID_PAGE", "offset must be >= 0 and limit > 0", rid, nil)
			return
		}
		if limit > maxPageSize {
			api.BadRequest(w, "INVALID_LIMIT", fmt.Sprintf("limit must be <= %d", maxPageSize), rid, nil)
			return
		}

		key := fmt.Sprintf("%s|%d|%d", filter, offset, limit)
		if c != nil {
			if body, ok := c.Get(key); ok {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(body)
				return
			}
		}

		rows, err := s.ListFeed(r.Context(), filter, offset, limit)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		if rows == nil {
			rows = []store.StorySummary{}
		}

		body, err := json.Marshal(feedResponse{Stories: rows})
		if err != nil {
			api.Internal(w, rid)
			return
		}
		if c != nil {
			c.Set(key, body)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

func parseIntDefault(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
