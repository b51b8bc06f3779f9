package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryInteractionStore is a development-only in-memory implementation.
type InMemoryInteractionStore struct {
	mu   sync.RWMutex
	byID map[string]Interaction
}

func NewInMemoryInteractionStore() *InMemoryInteractionStore {
	return &InMemoryInteractionStore{byID: make(map[string]Interaction)}
}

func (s *InMemoryInteractionStore) Get(_ context.Context, episodeID, viewerID string) (Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, in := range s.byID {
		if in.EpisodeID == episodeID && in.ViewerID == viewerID {
			return in, nil
		}
	}
	return Interaction{}, ErrNotFound
}

func (s *InMemoryInteractionStore) Create(_ context.Context, in Interaction) (Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cur := range s.byID {
		if cur.EpisodeID == in.EpisodeID && cur.ViewerID == in.ViewerID {
			cur.PlayCount++
			cur.PlayDurationSeconds = in.PlayDurationSeconds
			cur.ProgressSeconds = in.ProgressSeconds
			cur.UpdatedAt = time.Now().UTC()
			s.byID[id] = cur
			return cur, nil
		}
	}
	in.ID = uuid.NewString()
	in.UpdatedAt = time.Now().UTC()
	s.byID[in.ID] = in
	return in, nil
}

func (s *InMemoryInteractionStore) ApplyPatch(_ context.Context, id string, p Patch) (Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.byID[id]
	if !ok {
		return Interaction{}, ErrNotFound
	}
	if p.PlayCount != nil {
		in.PlayCount = *p.PlayCount
	}
	if p.PlayDurationSeconds != nil {
		in.PlayDurationSeconds = *p.PlayDurationSeconds
	}
	if p.ProgressSeconds != nil {
		in.ProgressSeconds = *p.ProgressSeconds
	}
	in.UpdatedAt = time.Now().UTC()
	s.byID[id] = in
	return in, nil
}

func (s *InMemoryInteractionStore) ListRecent(_ context.Context, viewerID string, limit int, cursor *Cursor) ([]Interaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []Interaction
	for _, in := range s.byID {
		if in.ViewerID == viewerID {
			all = append(all, in)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].UpdatedAt.After(all[j].UpdatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if cursor != nil {
		idx := 0
		for i, in := range all {
			if in.UpdatedAt.Before(cursor.UpdatedAt) ||
				(in.UpdatedAt.Equal(cursor.UpdatedAt) && in.ID < cursor.ID) {
				idx = i
				break
			}
			idx = len(all)
		}
		all = all[idx:]
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
