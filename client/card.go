package client

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Audio is the playback surface the presentation layer provides per card.
type Audio interface {
	AudioHandle
	Play(ctx context.Context) error
	Position() float64
}

// Card wires one story's playback claim, engagement controller and progress
// tracker together, scoped to the story's latest episode. The rendering
// layer reads state through View/IsPlaying and drives it through the action
// methods.
type Card struct {
	coord  *Coordinator
	engage *EngagementController
	track  *ProgressTracker
	ready  *ReadyGate
	audio  Audio
	log    *zap.Logger

	mu      sync.Mutex
	playing bool
	broken  error // playback error; clears only with a different episode
	closed  bool
}

func NewCard(svc DataService, viewer Viewer, summary StorySummary, coord *Coordinator, audio Audio, log *zap.Logger) *Card {
	return &Card{
		coord:  coord,
		engage: NewEngagementController(svc, viewer, summary, log),
		track:  NewProgressTracker(svc, viewer, summary.EpisodeID, log),
		ready:  NewReadyGate(),
		audio:  audio,
		log:    log,
	}
}

// Engagement exposes the card's like/bookmark/comment/share actions.
func (c *Card) Engagement() *EngagementController { return c.engage }

// Ready is the gate the audio layer resolves once the element can play.
func (c *Card) Ready() *ReadyGate { return c.ready }

// View returns the card's current projection.
func (c *Card) View() CardView { return c.engage.View() }

// IsPlaying reports whether this card holds audible playback.
func (c *Card) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Err returns the playback error disabling this card, if any.
func (c *Card) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broken
}

// TogglePlay starts playback when paused and pauses when playing.
func (c *Card) TogglePlay(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if c.broken != nil {
		err := c.broken
		c.mu.Unlock()
		return err
	}
	playing := c.playing
	c.mu.Unlock()

	if playing {
		c.pause(ctx)
		return nil
	}
	return c.play(ctx)
}

func (c *Card) play(ctx context.Context) error {
	if err := c.ready.Wait(ctx); err != nil {
		return err
	}

	episodeID := c.engage.View().Summary.EpisodeID
	c.coord.Claim(c.audio, episodeID, func() { c.OnPaused(context.Background()) })

	if err := c.audio.Play(ctx); err != nil {
		c.coord.Release(c.audio)
		c.mu.Lock()
		c.broken = fmt.Errorf("%w: %v", ErrPlaybackUnsupported, err)
		err = c.broken
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.playing = true
	c.mu.Unlock()

	c.track.OnPlayStart(ctx, c.audio.Position())
	c.engage.RecordLocalPlay()
	return nil
}

func (c *Card) pause(ctx context.Context) {
	if err := c.audio.Pause(); err != nil {
		c.log.Warn("pause audio", zap.Error(err))
	}
	c.OnPaused(ctx)
}

// OnPaused is the card's pause notification: the audio layer invokes it
// from the element's pause event, and the coordinator invokes it when
// another card takes the claim. The stop is recorded only while the flag is
// still set, so repeated notifications for one pause are harmless.
func (c *Card) OnPaused(ctx context.Context) {
	c.mu.Lock()
	wasPlaying := c.playing
	c.playing = false
	c.mu.Unlock()

	if wasPlaying {
		c.track.OnPlayStop(ctx, c.audio.Position())
	}
}

// OnEnded handles natural playback end: the claim is released and the final
// position is recorded.
func (c *Card) OnEnded(ctx context.Context) {
	c.coord.Release(c.audio)
	c.mu.Lock()
	c.playing = false
	c.mu.Unlock()

	c.track.OnPlayStop(ctx, c.audio.Position())
}

// Close releases the card's resources on unmount. Playback is paused if
// held and the coordinator claim is released; later calls on the card are
// no-ops so late-resolving work cannot mutate unmounted state.
func (c *Card) Close(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	playing := c.playing
	c.playing = false
	c.mu.Unlock()

	if playing {
		if err := c.audio.Pause(); err != nil {
			c.log.Warn("pause audio on close", zap.Error(err))
		}
		c.track.OnPlayStop(ctx, c.audio.Position())
	}
	c.coord.Release(c.audio)
	c.engage.Close()
}
