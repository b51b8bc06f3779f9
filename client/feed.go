package client

import (
	"context"
	"fmt"
	"sync"
)

// DefaultPageSize is the fixed feed window; the backend orders pages by
// latest-episode recency descending.
const DefaultPageSize = 10

// FeedLoader fetches pages of story summaries for one filter, accumulating
// them until the backend signals exhaustion. SetFilter restarts pagination;
// a response that arrives after the filter changed is discarded.
type FeedLoader struct {
	svc      DataService
	pageSize int

	mu       sync.Mutex
	filter   string
	nextPage int
	gen      uint64 // bumped on every filter change
	stories  []StorySummary
	hasMore  bool

	// at most one fetch per (generation, page)
	inflight     bool
	inflightGen  uint64
	inflightPage int
}

func NewFeedLoader(svc DataService) *FeedLoader {
	return &FeedLoader{svc: svc, pageSize: DefaultPageSize, hasMore: true}
}

// Filter returns the currently applied free-text filter.
func (l *FeedLoader) Filter() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// Stories returns a copy of the accumulated feed.
func (l *FeedLoader) Stories() []StorySummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]StorySummary, len(l.stories))
	copy(out, l.stories)
	return out
}

// HasMore reports whether another page may exist for the current filter.
func (l *FeedLoader) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasMore
}

// SetFilter replaces the filter and resets pagination. Setting the same
// filter again is a no-op so tab re-selection does not refetch.
func (l *FeedLoader) SetFilter(filter string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if filter == l.filter {
		return
	}
	l.filter = filter
	l.nextPage = 0
	l.stories = nil
	l.hasMore = true
	l.gen++
	// An in-flight fetch now belongs to a dead generation; forget it so the
	// new filter can load immediately. Its response is dropped on arrival.
	l.inflight = false
}

// LoadMore fetches the next page for the current filter. It is a no-op when
// the feed is exhausted or the same page is already being fetched. Remote
// failures are reported as ErrDataUnavailable.
func (l *FeedLoader) LoadMore(ctx context.Context) error {
	l.mu.Lock()
	if !l.hasMore || l.inflight {
		l.mu.Unlock()
		return nil
	}
	gen, filter, page := l.gen, l.filter, l.nextPage
	l.inflight = true
	l.inflightGen = gen
	l.inflightPage = page
	l.mu.Unlock()

	rows, err := l.svc.ListStorySummaries(ctx, filter, page*l.pageSize, l.pageSize)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.gen != gen {
		// Filter changed while the fetch was in flight; this response must
		// not touch the displayed list.
		return nil
	}
	if l.inflight && l.inflightGen == gen && l.inflightPage == page {
		l.inflight = false
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	if page == 0 {
		l.stories = rows
	} else {
		l.stories = append(l.stories, rows...)
	}
	l.hasMore = len(rows) >= l.pageSize
	l.nextPage = page + 1
	return nil
}
