package client

import (
	"context"
	"errors"
	"testing"
)

func TestFeedLoader_PaginationExhaustion(t *testing.T) {
	svc := newFakeService()
	svc.listFn = func(filter string, offset, limit int) ([]StorySummary, error) {
		switch offset {
		case 0:
			return summaries(10, "p0"), nil
		case 10:
			return summaries(4, "p1"), nil
		default:
			t.Fatalf("unexpected fetch at offset %d", offset)
			return nil, nil
		}
	}

	l := NewFeedLoader(svc)
	l.SetFilter("Adventure")

	if err := l.LoadMore(context.Background()); err != nil {
		t.Fatalf("page 0: %v", err)
	}
	if !l.HasMore() {
		t.Fatal("expected hasMore after full page")
	}
	if err := l.LoadMore(context.Background()); err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if l.HasMore() {
		t.Fatal("expected exhaustion after short page")
	}
	if got := len(l.Stories()); got != 14 {
		t.Fatalf("expected 14 accumulated stories, got %d", got)
	}

	// Exhausted: no further fetch for this filter.
	svc.listFn = func(string, int, int) ([]StorySummary, error) {
		t.Fatal("fetch issued after exhaustion")
		return nil, nil
	}
	if err := l.LoadMore(context.Background()); err != nil {
		t.Fatalf("exhausted load: %v", err)
	}
}

func TestFeedLoader_FilterChangeResets(t *testing.T) {
	svc := newFakeService()
	svc.listFn = func(filter string, offset, limit int) ([]StorySummary, error) {
		return summaries(3, filter), nil
	}

	l := NewFeedLoader(svc)
	if err := l.LoadMore(context.Background()); err != nil {
		t.Fatal(err)
	}
	if l.HasMore() {
		t.Fatal("short page should exhaust")
	}

	l.SetFilter("Motivation")
	if !l.HasMore() {
		t.Fatal("filter change must reset hasMore")
	}
	if len(l.Stories()) != 0 {
		t.Fatal("filter change must clear the list")
	}
	if err := l.LoadMore(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := l.Stories(); len(got) != 3 || got[0].StoryID != "Motivation" {
		t.Fatalf("expected new filter's page, got %+v", got)
	}
}

func TestFeedLoader_SameFilterNoop(t *testing.T) {
	svc := newFakeService()
	calls := 0
	svc.listFn = func(string, int, int) ([]StorySummary, error) {
		calls++
		return summaries(10, "x"), nil
	}

	l := NewFeedLoader(svc)
	l.SetFilter("Adventure")
	if err := l.LoadMore(context.Background()); err != nil {
		t.Fatal(err)
	}
	l.SetFilter("Adventure") // re-selecting the same tab
	if len(l.Stories()) != 10 || !l.HasMore() {
		t.Fatal("same filter must not reset state")
	}
	if calls != 1 {
		t.Fatalf("expected 1 fetch, got %d", calls)
	}
}

func TestFeedLoader_StaleResponseDiscarded(t *testing.T) {
	svc := newFakeService()
	release := make(chan struct{})
	started := make(chan struct{})
	svc.listFn = func(filter string, offset, limit int) ([]StorySummary, error) {
		if filter == "old" {
			close(started)
			<-release
			return summaries(10, "old"), nil
		}
		return summaries(2, filter), nil
	}

	l := NewFeedLoader(svc)
	l.SetFilter("old")

	done := make(chan error, 1)
	go func() { done <- l.LoadMore(context.Background()) }()
	<-started

	// Filter changes while the old fetch is in flight.
	l.SetFilter("new")
	if err := l.LoadMore(context.Background()); err != nil {
		t.Fatal(err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	got := l.Stories()
	if len(got) != 2 || got[0].StoryID != "new" {
		t.Fatalf("stale response mutated state: %+v", got)
	}
}

func TestFeedLoader_DuplicateInFlightSuppressed(t *testing.T) {
	svc := newFakeService()
	release := make(chan struct{})
	started := make(chan struct{})
	calls := 0
	svc.listFn = func(string, int, int) ([]StorySummary, error) {
		calls++
		if calls == 1 {
			close(started)
			<-release
		}
		return summaries(10, "x"), nil
	}

	l := NewFeedLoader(svc)
	done := make(chan error, 1)
	go func() { done <- l.LoadMore(context.Background()) }()
	<-started

	// Identical request while the first is pending: suppressed.
	if err := l.LoadMore(context.Background()); err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected deduplicated fetch, got %d calls", calls)
	}
}

func TestFeedLoader_RemoteFailure(t *testing.T) {
	svc := newFakeService()
	svc.listFn = func(string, int, int) ([]StorySummary, error) {
		return nil, errors.New("network down")
	}

	l := NewFeedLoader(svc)
	err := l.LoadMore(context.Background())
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if !l.HasMore() {
		t.Fatal("failure must not mark the feed exhausted")
	}

	// Retry succeeds.
	svc.listFn = func(string, int, int) ([]StorySummary, error) {
		return summaries(5, "r"), nil
	}
	if err := l.LoadMore(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(l.Stories()) != 5 {
		t.Fatalf("expected retried page, got %d", len(l.Stories()))
	}
}
