package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Creator mirrors the user columns the feed projection needs.
type Creator struct {
	ID        string
	Username  string
	FullName  string
	AvatarURL string
}

// InMemoryStoryStore is a development-only in-memory implementation.
type InMemoryStoryStore struct {
	mu         sync.RWMutex
	creators   map[string]Creator
	stories    map[string]Story
	episodes   map[string][]Episode // story id -> newest last
	categories []string
	payouts    map[string][]Payout
}

func NewInMemoryStoryStore() *InMemoryStoryStore {
	return &InMemoryStoryStore{
		creators: make(map[string]Creator),
		stories:  make(map[string]Story),
		episodes: make(map[string][]Episode),
		payouts:  make(map[string][]Payout),
	}
}

// AddCreator seeds a creator profile (tests and development fixtures).
func (s *InMemoryStoryStore) AddCreator(c Creator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creators[c.ID] = c
}

// SetCategories seeds the category list.
func (s *InMemoryStoryStore) SetCategories(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = names
}

// AddPayout seeds a payout statement.
func (s *InMemoryStoryStore) AddPayout(p Payout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	s.payouts[p.UserID] = append(s.payouts[p.UserID], p)
}

func (s *InMemoryStoryStore) summary(st Story) (StorySummary, bool) {
	eps := s.episodes[st.ID]
	if len(eps) == 0 {
		return StorySummary{}, false
	}
	latest := eps[len(eps)-1]
	creator := s.creators[st.UserID]
	return StorySummary{
		StoryID:     st.ID,
		StoryTitle:  st.Title,
		Description: st.Description,
		CoverURL:    st.CoverURL,
		Category:    st.Category,

		UserID:    st.UserID,
		Username:  creator.Username,
		FullName:  creator.FullName,
		AvatarURL: creator.AvatarURL,

		EpisodeID:        latest.ID,
		EpisodeTitle:     latest.Title,
		AudioURL:         latest.AudioURL,
		DurationSeconds:  latest.DurationSeconds,
		EpisodeCreatedAt: latest.CreatedAt,

		PlayCount:    latest.PlayCount,
		LikeCount:    latest.LikeCount,
		CommentCount: latest.CommentCount,
		ShareCount:   latest.ShareCount,
		EpisodeCount: int64(len(eps)),
	}, true
}

func matches(sum StorySummary, filter string) bool {
	if filter == "" {
		return true
	}
	f := strings.ToLower(filter)
	for _, field := range []string{sum.Username, sum.FullName, sum.StoryTitle, sum.EpisodeTitle, sum.Category} {
		if strings.Contains(strings.ToLower(field), f) {
			return true
		}
	}
	return false
}

func (s *InMemoryStoryStore) ListFeed(_ context.Context, filter string, offset, limit int) ([]StorySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []StorySummary
	for _, st := range s.stories {
		sum, ok := s.summary(st)
		if !ok || !matches(sum, filter) {
			continue
		}
		all = append(all, sum)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].EpisodeCreatedAt.Equal(all[j].EpisodeCreatedAt) {
			return all[i].EpisodeCreatedAt.After(all[j].EpisodeCreatedAt)
		}
		return all[i].StoryID > all[j].StoryID
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *InMemoryStoryStore) CreateStory(_ context.Context, st Story) (Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.ID = uuid.NewString()
	st.CreatedAt = time.Now().UTC()
	s.stories[st.ID] = st
	return st, nil
}

func (s *InMemoryStoryStore) GetStory(_ context.Context, storyID string) (Story, []Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stories[storyID]
	if !ok {
		return Story{}, nil, ErrNotFound
	}
	eps := make([]Episode, len(s.episodes[storyID]))
	copy(eps, s.episodes[storyID])
	// Newest first, matching the Postgres ordering.
	sort.Slice(eps, func(i, j int) bool { return eps[i].CreatedAt.After(eps[j].CreatedAt) })
	return st, eps, nil
}

func (s *InMemoryStoryStore) CreateEpisode(_ context.Context, userID string, e Episode) (Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stories[e.StoryID]
	if !ok {
		return Episode{}, ErrNotFound
	}
	if st.UserID != userID {
		return Episode{}, ErrForbidden
	}
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	s.episodes[e.StoryID] = append(s.episodes[e.StoryID], e)
	return e, nil
}

func (s *InMemoryStoryStore) ListCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

func (s *InMemoryStoryStore) ListPayouts(_ context.Context, userID string) ([]Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Payout, len(s.payouts[userID]))
	copy(out, s.payouts[userID])
	return out, nil
}
