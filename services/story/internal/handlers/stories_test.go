package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Amulyajoshtalks/true-tales/services/story/internal/store"
)

func TestCreateStory(t *testing.T) {
	s := store.NewInMemoryStoryStore()
	handler := CreateStory(s)

	req := setupReq(http.MethodPost, "/v1/stories",
		`{"title":"Monsoon Nights","description":"Rain tales","category":"folk"}`, nil, "user-a")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var st store.Story
	if err := json.NewDecoder(rr.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.ID == "" || st.UserID != "user-a" || st.Title != "Monsoon Nights" {
		t.Fatalf("unexpected story: %+v", st)
	}
}

func TestCreateStory_Unauthorized(t *testing.T) {
	handler := CreateStory(store.NewInMemoryStoryStore())

	req := setupReq(http.MethodPost, "/v1/stories", `{"title":"X"}`, nil, "")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestCreateStory_MissingTitle(t *testing.T) {
	handler := CreateStory(store.NewInMemoryStoryStore())

	req := setupReq(http.MethodPost, "/v1/stories", `{"title":"  "}`, nil, "user-a")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGetStory(t *testing.T) {
	s := store.NewInMemoryStoryStore()
	ctx := context.Background()
	st, _ := s.CreateStory(ctx, store.Story{UserID: "user-a", Title: "Monsoon Nights"})
	if _, err := s.CreateEpisode(ctx, "user-a", store.Episode{StoryID: st.ID, Title: "Ep 1", AudioURL: "https://a/1.mp3"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	handler := GetStory(s)

	req := setupReq(http.MethodGet, "/v1/stories/"+st.ID, "", map[string]string{"storyID": st.ID}, "")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp storyDetailResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Story.ID != st.ID || len(resp.Episodes) != 1 {
		t.Fatalf("unexpected detail: %+v", resp)
	}
}

func TestGetStory_NotFound(t *testing.T) {
	handler := GetStory(store.NewInMemoryStoryStore())

	req := setupReq(http.MethodGet, "/v1/stories/nope", "", map[string]string{"storyID": "nope"}, "")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCreateEpisode(t *testing.T) {
	s := store.NewInMemoryStoryStore()
	st, _ := s.CreateStory(context.Background(), store.Story{UserID: "user-a", Title: "Monsoon Nights"})
	handler := CreateEpisode(s, nil, nil)

	req := setupReq(http.MethodPost, "/v1/stories/"+st.ID+"/episodes",
		`{"title":"Ep 1","audio_url":"https://a/1.mp3","duration_seconds":90}`,
		map[string]string{"storyID": st.ID}, "user-a")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var ep store.Episode
	if err := json.NewDecoder(rr.Body).Decode(&ep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ep.ID == "" || ep.StoryID != st.ID || ep.DurationSeconds != 90 {
		t.Fatalf("unexpected episode: %+v", ep)
	}
}

func TestCreateEpisode_NotOwner(t *testing.T) {
	s := store.NewInMemoryStoryStore()
	st, _ := s.CreateStory(context.Background(), store.Story{UserID: "user-a", Title: "Monsoon Nights"})
	handler := CreateEpisode(s, nil, nil)

	req := setupReq(http.MethodPost, "/v1/stories/"+st.ID+"/episodes",
		`{"title":"Ep 1","audio_url":"https://a/1.mp3"}`,
		map[string]string{"storyID": st.ID}, "user-b")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestCreateEpisode_StoryMissing(t *testing.T) {
	handler := CreateEpisode(store.NewInMemoryStoryStore(), nil, nil)

	req := setupReq(http.MethodPost, "/v1/stories/nope/episodes",
		`{"title":"Ep 1","audio_url":"https://a/1.mp3"}`,
		map[string]string{"storyID": "nope"}, "user-a")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestListCategories(t *testing.T) {
	s := store.NewInMemoryStoryStore()
	s.SetCategories([]string{"folk", "urban"})
	handler := ListCategories(s)

	req := setupReq(http.MethodGet, "/v1/categories", "", nil, "")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp categoriesResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %v", resp.Categories)
	}
}

func TestListPayouts(t *testing.T) {
	s := store.NewInMemoryStoryStore()
	s.AddPayout(store.Payout{UserID: "user-a", AmountUSD: "42.50", Period: "2026-07", Status: "paid"})
	handler := ListPayouts(s)

	req := setupReq(http.MethodGet, "/v1/payouts", "", nil, "user-a")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp payoutsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Payouts) != 1 || resp.Payouts[0].AmountUSD != "42.50" {
		t.Fatalf("unexpected payouts: %+v", resp.Payouts)
	}
}

func TestListPayouts_Unauthorized(t *testing.T) {
	handler := ListPayouts(store.NewInMemoryStoryStore())

	req := setupReq(http.MethodGet, "/v1/payouts", "", nil, "")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
