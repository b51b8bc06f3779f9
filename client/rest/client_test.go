package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Amulyajoshtalks/true-tales/client"
)

func TestListStorySummaries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/feed" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("filter") != "Adventure" || q.Get("offset") != "10" || q.Get("limit") != "10" {
			t.Fatalf("unexpected query %v", q)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"stories": []client.StorySummary{{StoryID: "s1"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	rows, err := c.ListStorySummaries(context.Background(), "Adventure", 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].StoryID != "s1" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestBearerTokenAttached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Fatalf("expected bearer token, got %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenSource(func() string { return "tok-123" }))
	if err := c.InsertLike(context.Background(), "ep-1", "user-1"); err != nil {
		t.Fatal(err)
	}
}

func TestUnauthorizedMapsToAuthRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.InsertLike(context.Background(), "ep-1", "user-1"); !errors.Is(err, client.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
}

func TestGetInteraction_NotFoundMeansAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, ok, err := c.GetInteraction(context.Background(), "ep-1", "anonymous")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected absent record")
	}
}

func TestCurrentViewer_AnonymousOn401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL)
	v, err := c.CurrentViewer(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !v.Anonymous() {
		t.Fatalf("expected anonymous viewer, got %+v", v)
	}
}

func TestTransportFailureIsDataUnavailable(t *testing.T) {
	c := New("http://127.0.0.1:1") // nothing listens here
	_, err := c.ListStorySummaries(context.Background(), "", 0, 10)
	if !errors.Is(err, client.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestBackendErrorEnvelopeSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"INVALID_LIMIT","message":"limit too large"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ListStorySummaries(context.Background(), "", 0, 1000)
	if err == nil || err.Error() != "backend INVALID_LIMIT: limit too large" {
		t.Fatalf("unexpected error %v", err)
	}
}
