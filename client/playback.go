package client

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// AudioHandle is the minimal control surface the coordinator needs over an
// audio element. Implementations must tolerate Pause on an already-paused
// or detached element; the coordinator ignores pause failures. Handles are
// compared by identity, so implementations should be pointers.
type AudioHandle interface {
	Pause() error
}

// Coordinator guarantees at most one audio handle is audible at a time
// across every mounted card. It is best-effort exclusivity, not a lock: a
// stale handle that fails to pause never wedges the coordinator.
type Coordinator struct {
	log *zap.Logger

	mu        sync.Mutex
	active    AudioHandle
	episodeID string
	displaced func()
}

func NewCoordinator(log *zap.Logger) *Coordinator {
	return &Coordinator{log: log}
}

// Claim pauses the previously active handle (if any and different),
// notifies its owner that the claim was taken, and marks h active for
// episodeID. The pause is initiated before h becomes active so two streams
// are never audible together. onDisplaced may be nil; when another card
// later claims over h it runs after that handle's pause, so the displaced
// owner observes a settled element.
func (c *Coordinator) Claim(h AudioHandle, episodeID string, onDisplaced func()) {
	c.mu.Lock()
	var notify func()
	if c.active != nil && c.active != h {
		if err := c.active.Pause(); err != nil {
			// Stale or detached handle; the transition proceeds regardless.
			c.log.Warn("pausing previous audio handle",
				zap.String("episode_id", c.episodeID), zap.Error(err))
		}
		notify = c.displaced
	}
	c.active = h
	c.episodeID = episodeID
	c.displaced = onDisplaced
	c.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Release clears the claim if it currently belongs to h. Called on natural
// playback end and on card unmount.
func (c *Coordinator) Release(h AudioHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == h {
		c.active = nil
		c.episodeID = ""
		c.displaced = nil
	}
}

// ActiveEpisode returns the episode holding the claim, if any.
func (c *Coordinator) ActiveEpisode() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.episodeID, c.active != nil
}

// Holds reports whether h owns the current claim.
func (c *Coordinator) Holds(h AudioHandle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil && c.active == h
}

// ReadyGate is a one-shot readiness signal. The audio layer resolves it
// once the element can play; waiters block until then instead of polling.
type ReadyGate struct {
	once sync.Once
	ch   chan struct{}
}

func NewReadyGate() *ReadyGate {
	return &ReadyGate{ch: make(chan struct{})}
}

// Resolve marks the gate ready. Subsequent calls are no-ops.
func (g *ReadyGate) Resolve() {
	g.once.Do(func() { close(g.ch) })
}

// Ready reports whether the gate has resolved without blocking.
func (g *ReadyGate) Ready() bool {
	select {
	case <-g.ch:
		return true
	default:
		return false
	}
}

// Wait blocks until the gate resolves or ctx is done.
func (g *ReadyGate) Wait(ctx context.Context) error {
	select {
	case <-g.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
