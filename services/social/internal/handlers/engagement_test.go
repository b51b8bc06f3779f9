package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Amulyajoshtalks/true-tales/internal/platform/auth"
	"github.com/Amulyajoshtalks/true-tales/services/social/internal/store"
)

// setupReq builds a request with chi URL params and optional user_id in context.
func setupReq(method, url string, body string, params map[string]string, userID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != "" {
		ctx = auth.WithUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}

func epParams(id string) map[string]string {
	return map[string]string{"episodeID": id}
}

func TestLikeRoundTrip(t *testing.T) {
	s := store.NewInMemoryEngagementStore()

	rr := httptest.NewRecorder()
	Like(s, nil).ServeHTTP(rr, setupReq(http.MethodPost, "/v1/episodes/ep-1/like", "", epParams("ep-1"), "user-a"))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("like: expected 204, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	GetFlags(s).ServeHTTP(rr, setupReq(http.MethodGet, "/v1/episodes/ep-1/flags", "", epParams("ep-1"), "user-a"))
	var f store.Flags
	if err := json.NewDecoder(rr.Body).Decode(&f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !f.Liked || f.Bookmarked {
		t.Fatalf("expected liked only, got %+v", f)
	}

	rr = httptest.NewRecorder()
	Unlike(s, nil).ServeHTTP(rr, setupReq(http.MethodDelete, "/v1/episodes/ep-1/like", "", epParams("ep-1"), "user-a"))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("unlike: expected 204, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	GetFlags(s).ServeHTTP(rr, setupReq(http.MethodGet, "/v1/episodes/ep-1/flags", "", epParams("ep-1"), "user-a"))
	f = store.Flags{}
	if err := json.NewDecoder(rr.Body).Decode(&f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Liked {
		t.Fatalf("expected like cleared, got %+v", f)
	}
}

func TestLike_Idempotent(t *testing.T) {
	s := store.NewInMemoryEngagementStore()
	handler := Like(s, nil)

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, setupReq(http.MethodPost, "/v1/episodes/ep-1/like", "", epParams("ep-1"), "user-a"))
		if rr.Code != http.StatusNoContent {
			t.Fatalf("attempt %d: expected 204, got %d", i, rr.Code)
		}
	}
}

func TestLike_Unauthorized(t *testing.T) {
	rr := httptest.NewRecorder()
	Like(store.NewInMemoryEngagementStore(), nil).
		ServeHTTP(rr, setupReq(http.MethodPost, "/v1/episodes/ep-1/like", "", epParams("ep-1"), ""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestGetFlags_Anonymous(t *testing.T) {
	s := store.NewInMemoryEngagementStore()
	if err := s.InsertLike(context.Background(), "ep-1", "user-a"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rr := httptest.NewRecorder()
	GetFlags(s).ServeHTTP(rr, setupReq(http.MethodGet, "/v1/episodes/ep-1/flags", "", epParams("ep-1"), ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var f store.Flags
	if err := json.NewDecoder(rr.Body).Decode(&f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Liked || f.Bookmarked {
		t.Fatalf("anonymous caller must see no flags, got %+v", f)
	}
}

func TestBookmarkRoundTrip(t *testing.T) {
	s := store.NewInMemoryEngagementStore()

	rr := httptest.NewRecorder()
	Bookmark(s).ServeHTTP(rr, setupReq(http.MethodPost, "/v1/episodes/ep-1/bookmark", "", epParams("ep-1"), "user-a"))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("bookmark: expected 204, got %d", rr.Code)
	}

	flags, err := s.GetFlags(context.Background(), "ep-1", "user-a")
	if err != nil || !flags.Bookmarked {
		t.Fatalf("expected bookmarked, got %+v err %v", flags, err)
	}

	rr = httptest.NewRecorder()
	Unbookmark(s).ServeHTTP(rr, setupReq(http.MethodDelete, "/v1/episodes/ep-1/bookmark", "", epParams("ep-1"), "user-a"))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("unbookmark: expected 204, got %d", rr.Code)
	}

	flags, err = s.GetFlags(context.Background(), "ep-1", "user-a")
	if err != nil || flags.Bookmarked {
		t.Fatalf("expected bookmark cleared, got %+v err %v", flags, err)
	}
}
