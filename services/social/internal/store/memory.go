package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type pair struct{ episode, user string }

// InMemoryEngagementStore is a development-only in-memory implementation.
type InMemoryEngagementStore struct {
	mu        sync.RWMutex
	likes     map[pair]bool
	bookmarks map[pair]bool
	comments  map[string][]Comment // episode id -> newest last
	follows   map[pair]bool        // follower, creator
}

func NewInMemoryEngagementStore() *InMemoryEngagementStore {
	return &InMemoryEngagementStore{
		likes:     make(map[pair]bool),
		bookmarks: make(map[pair]bool),
		comments:  make(map[string][]Comment),
		follows:   make(map[pair]bool),
	}
}

func (s *InMemoryEngagementStore) GetFlags(_ context.Context, episodeID, userID string) (Flags, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := pair{episodeID, userID}
	return Flags{Liked: s.likes[p], Bookmarked: s.bookmarks[p]}, nil
}

func (s *InMemoryEngagementStore) InsertLike(_ context.Context, episodeID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.likes[pair{episodeID, userID}] = true
	return nil
}

func (s *InMemoryEngagementStore) DeleteLike(_ context.Context, episodeID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.likes, pair{episodeID, userID})
	return nil
}

func (s *InMemoryEngagementStore) InsertBookmark(_ context.Context, episodeID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks[pair{episodeID, userID}] = true
	return nil
}

func (s *InMemoryEngagementStore) DeleteBookmark(_ context.Context, episodeID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookmarks, pair{episodeID, userID})
	return nil
}

func (s *InMemoryEngagementStore) ListComments(_ context.Context, episodeID string, limit int) ([]Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.comments[episodeID]
	out := make([]Comment, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryEngagementStore) CreateComment(_ context.Context, c Comment) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	s.comments[c.EpisodeID] = append(s.comments[c.EpisodeID], c)
	return c, nil
}

func (s *InMemoryEngagementStore) Follow(_ context.Context, followerID, creatorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.follows[pair{followerID, creatorID}] = true
	return nil
}

func (s *InMemoryEngagementStore) Unfollow(_ context.Context, followerID, creatorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.follows, pair{followerID, creatorID})
	return nil
}

func (s *InMemoryEngagementStore) IsFollowing(_ context.Context, followerID, creatorID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.follows[pair{followerID, creatorID}], nil
}
