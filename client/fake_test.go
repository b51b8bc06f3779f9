package client

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// fakeService is a scriptable DataService. Unset hooks behave as an empty
// backend.
type fakeService struct {
	mu sync.Mutex

	listFn   func(filter string, offset, limit int) ([]StorySummary, error)
	flagsFn  func(episodeID, viewerID string) (UserFlags, error)
	likeErr  error
	unlkErr  error
	bookErr  error
	unbkErr  error
	interact map[string]Interaction // "episode/viewer" -> record
	getErr   error

	likes   []string // episode ids liked
	unlikes []string
	patches []InteractionPatch
	creates []Interaction
}

func newFakeService() *fakeService {
	return &fakeService{interact: make(map[string]Interaction)}
}

func ikey(episodeID, viewerID string) string { return episodeID + "/" + viewerID }

func (f *fakeService) ListStorySummaries(_ context.Context, filter string, offset, limit int) ([]StorySummary, error) {
	if f.listFn != nil {
		return f.listFn(filter, offset, limit)
	}
	return nil, nil
}

func (f *fakeService) GetUserEpisodeFlags(_ context.Context, episodeID, viewerID string) (UserFlags, error) {
	if f.flagsFn != nil {
		return f.flagsFn(episodeID, viewerID)
	}
	return UserFlags{}, nil
}

func (f *fakeService) InsertLike(_ context.Context, episodeID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.likeErr != nil {
		return f.likeErr
	}
	f.likes = append(f.likes, episodeID)
	return nil
}

func (f *fakeService) DeleteLike(_ context.Context, episodeID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unlkErr != nil {
		return f.unlkErr
	}
	f.unlikes = append(f.unlikes, episodeID)
	return nil
}

func (f *fakeService) InsertBookmark(_ context.Context, _, _ string) error { return f.bookErr }
func (f *fakeService) DeleteBookmark(_ context.Context, _, _ string) error { return f.unbkErr }

func (f *fakeService) GetInteraction(_ context.Context, episodeID, viewerID string) (Interaction, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return Interaction{}, false, f.getErr
	}
	rec, ok := f.interact[ikey(episodeID, viewerID)]
	return rec, ok, nil
}

func (f *fakeService) CreateInteraction(_ context.Context, rec Interaction) (Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = "int-" + rec.EpisodeID
	f.interact[ikey(rec.EpisodeID, rec.ViewerID)] = rec
	f.creates = append(f.creates, rec)
	return rec, nil
}

func (f *fakeService) UpdateInteraction(_ context.Context, id string, patch InteractionPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patch)
	for k, rec := range f.interact {
		if rec.ID != id {
			continue
		}
		if patch.PlayCount != nil {
			rec.PlayCount = *patch.PlayCount
		}
		if patch.PlayDurationSeconds != nil {
			rec.PlayDurationSeconds = *patch.PlayDurationSeconds
		}
		if patch.ProgressSeconds != nil {
			rec.ProgressSeconds = *patch.ProgressSeconds
		}
		f.interact[k] = rec
	}
	return nil
}

func (f *fakeService) ListComments(_ context.Context, _ string, _ int) ([]Comment, error) {
	return nil, nil
}

func (f *fakeService) CreateComment(_ context.Context, episodeID, viewerID, body string) (Comment, error) {
	return Comment{ID: "c-1", EpisodeID: episodeID, UserID: viewerID, Body: body}, nil
}

func (f *fakeService) CurrentViewer(_ context.Context) (Viewer, error) {
	return Viewer{}, nil
}

func testLogger() *zap.Logger { return zap.NewNop() }

func summaries(n int, prefix string) []StorySummary {
	out := make([]StorySummary, n)
	for i := range out {
		out[i] = StorySummary{StoryID: prefix, EpisodeID: prefix}
	}
	return out
}
