package client

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// AnonymousViewerID is the sentinel under which plays by signed-out
// listeners are recorded.
const AnonymousViewerID = "anonymous"

// ProgressTracker records play events and listening time for one episode as
// seen by one card. Everything here is best-effort telemetry: failures are
// logged and swallowed, never surfaced to the listener.
type ProgressTracker struct {
	svc       DataService
	log       *zap.Logger
	episodeID string
	viewerID  string

	mu            sync.Mutex
	startProgress float64
}

func NewProgressTracker(svc DataService, viewer Viewer, episodeID string, log *zap.Logger) *ProgressTracker {
	vid := viewer.ID
	if vid == "" {
		vid = AnonymousViewerID
	}
	return &ProgressTracker{svc: svc, log: log, episodeID: episodeID, viewerID: vid}
}

// OnPlayStart records that playback became audible at the given position.
// The first play creates the interaction record with a play count of one;
// later plays increment the count and leave duration and progress untouched.
func (t *ProgressTracker) OnPlayStart(ctx context.Context, position float64) {
	t.mu.Lock()
	t.startProgress = position
	t.mu.Unlock()

	rec, ok, err := t.svc.GetInteraction(ctx, t.episodeID, t.viewerID)
	if err != nil {
		t.log.Warn("play start: fetch interaction", zap.String("episode_id", t.episodeID), zap.Error(err))
		return
	}
	if !ok {
		_, err := t.svc.CreateInteraction(ctx, Interaction{
			EpisodeID: t.episodeID,
			ViewerID:  t.viewerID,
			PlayCount: 1,
		})
		if err != nil {
			t.log.Warn("play start: create interaction", zap.String("episode_id", t.episodeID), zap.Error(err))
		}
		return
	}

	count := rec.PlayCount + 1
	if err := t.svc.UpdateInteraction(ctx, rec.ID, InteractionPatch{PlayCount: &count}); err != nil {
		t.log.Warn("play start: bump play count", zap.String("episode_id", t.episodeID), zap.Error(err))
	}
}

// OnPlayStop folds the time listened since OnPlayStart into the record and
// stores the current position. Elapsed time is clamped at zero so a
// backward seek never accumulates negative listening time. Without an
// existing record this is a logged no-op.
func (t *ProgressTracker) OnPlayStop(ctx context.Context, position float64) {
	t.mu.Lock()
	start := t.startProgress
	t.mu.Unlock()

	elapsed := position - start
	if elapsed < 0 {
		elapsed = 0
	}

	rec, ok, err := t.svc.GetInteraction(ctx, t.episodeID, t.viewerID)
	if err != nil {
		t.log.Warn("play stop: fetch interaction", zap.String("episode_id", t.episodeID), zap.Error(err))
		return
	}
	if !ok {
		t.log.Info("play stop: no interaction record yet, skipping",
			zap.String("episode_id", t.episodeID))
		return
	}

	duration := rec.PlayDurationSeconds + elapsed
	patch := InteractionPatch{
		PlayDurationSeconds: &duration,
		ProgressSeconds:     &position,
	}
	if err := t.svc.UpdateInteraction(ctx, rec.ID, patch); err != nil {
		t.log.Warn("play stop: update interaction", zap.String("episode_id", t.episodeID), zap.Error(err))
	}
}
