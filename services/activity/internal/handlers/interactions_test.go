package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Amulyajoshtalks/true-tales/internal/platform/auth"
	"github.com/Amulyajoshtalks/true-tales/services/activity/internal/store"
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

func TestCreateInteraction_ThenGet(t *testing.T) {
	s := store.NewInMemoryInteractionStore()

	rr := httptest.NewRecorder()
	CreateInteraction(s, nil).ServeHTTP(rr, setupReq(http.MethodPost, "/v1/episodes/ep-1/interactions",
		`{"viewer_id":"viewer-1","play_count":1}`, map[string]string{"episodeID": "ep-1"}, ""))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created store.Interaction
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.PlayCount != 1 {
		t.Fatalf("unexpected record: %+v", created)
	}

	rr = httptest.NewRecorder()
	GetInteraction(s).ServeHTTP(rr, setupReq(http.MethodGet,
		"/v1/episodes/ep-1/interactions?viewer_id=viewer-1", "", map[string]string{"episodeID": "ep-1"}, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rr.Code)
	}
	var got store.Interaction
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected id %s, got %s", created.ID, got.ID)
	}
}

func TestGetInteraction_Absent(t *testing.T) {
	rr := httptest.NewRecorder()
	GetInteraction(store.NewInMemoryInteractionStore()).ServeHTTP(rr, setupReq(http.MethodGet,
		"/v1/episodes/ep-1/interactions?viewer_id=viewer-1", "", map[string]string{"episodeID": "ep-1"}, ""))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for first-time listener, got %d", rr.Code)
	}
}

func TestGetInteraction_MissingViewer(t *testing.T) {
	rr := httptest.NewRecorder()
	GetInteraction(store.NewInMemoryInteractionStore()).ServeHTTP(rr, setupReq(http.MethodGet,
		"/v1/episodes/ep-1/interactions", "", map[string]string{"episodeID": "ep-1"}, ""))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCreateInteraction_DuplicateFoldsIntoUpdate(t *testing.T) {
	s := store.NewInMemoryInteractionStore()
	handler := CreateInteraction(s, nil)
	params := map[string]string{"episodeID": "ep-1"}

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, setupReq(http.MethodPost, "/v1/episodes/ep-1/interactions",
			`{"viewer_id":"viewer-1","play_count":1}`, params, ""))
		if rr.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201, got %d", i, rr.Code)
		}
	}

	got, err := s.Get(context.Background(), "ep-1", "viewer-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PlayCount != 2 {
		t.Fatalf("expected play_count 2 after duplicate create, got %d", got.PlayCount)
	}
}

func TestPatchInteraction(t *testing.T) {
	s := store.NewInMemoryInteractionStore()
	created, err := s.Create(context.Background(), store.Interaction{
		EpisodeID: "ep-1", ViewerID: "viewer-1", PlayCount: 1,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	rr := httptest.NewRecorder()
	PatchInteraction(s, nil).ServeHTTP(rr, setupReq(http.MethodPatch, "/v1/interactions/"+created.ID,
		`{"play_duration_seconds":12.3,"progress_seconds":12.3}`,
		map[string]string{"interactionID": created.ID}, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var got store.Interaction
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Untouched fields survive a partial update.
	if got.PlayCount != 1 || got.PlayDurationSeconds != 12.3 || got.ProgressSeconds != 12.3 {
		t.Fatalf("unexpected record after patch: %+v", got)
	}
}

func TestPatchInteraction_NotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	PatchInteraction(store.NewInMemoryInteractionStore(), nil).ServeHTTP(rr,
		setupReq(http.MethodPatch, "/v1/interactions/nope", `{"progress_seconds":5}`,
			map[string]string{"interactionID": "nope"}, ""))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestPatchInteraction_Negative(t *testing.T) {
	rr := httptest.NewRecorder()
	PatchInteraction(store.NewInMemoryInteractionStore(), nil).ServeHTTP(rr,
		setupReq(http.MethodPatch, "/v1/interactions/x", `{"progress_seconds":-1}`,
			map[string]string{"interactionID": "x"}, ""))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestContinueListening_Paginates(t *testing.T) {
	s := store.NewInMemoryInteractionStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := s.Create(ctx, store.Interaction{
			EpisodeID: fmt.Sprintf("ep-%d", i), ViewerID: "user-a", PlayCount: 1,
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	handler := ContinueListening(s)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodGet, "/v1/continue-listening?limit=3", "", nil, "user-a"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var page1 continueListeningResponse
	if err := json.NewDecoder(rr.Body).Decode(&page1); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page1.Interactions) != 3 || page1.NextCursor == "" {
		t.Fatalf("expected 3 rows and a cursor, got %d rows cursor %q", len(page1.Interactions), page1.NextCursor)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodGet,
		"/v1/continue-listening?limit=3&cursor="+page1.NextCursor, "", nil, "user-a"))
	var page2 continueListeningResponse
	if err := json.NewDecoder(rr.Body).Decode(&page2); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page2.Interactions) != 2 || page2.NextCursor != "" {
		t.Fatalf("expected 2 final rows and no cursor, got %d rows cursor %q", len(page2.Interactions), page2.NextCursor)
	}

	seen := map[string]bool{}
	for _, in := range append(page1.Interactions, page2.Interactions...) {
		if seen[in.EpisodeID] {
			t.Fatalf("episode %s returned twice", in.EpisodeID)
		}
		seen[in.EpisodeID] = true
	}
}

func TestContinueListening_Unauthorized(t *testing.T) {
	rr := httptest.NewRecorder()
	ContinueListening(store.NewInMemoryInteractionStore()).
		ServeHTTP(rr, setupReq(http.MethodGet, "/v1/continue-listening", "", nil, ""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
