package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// CardView is the live, optimistically-updated projection one story card
// renders: the summary counters plus the viewer's engagement flags.
type CardView struct {
	Summary StorySummary
	Flags   UserFlags
}

// ShareOutcome reports how a share request was fulfilled.
type ShareOutcome int

const (
	// ShareSent means the platform share sheet handled it.
	ShareSent ShareOutcome = iota
	// ShareCopied means the canonical URL was copied to the clipboard.
	ShareCopied
)

// SharePlatform abstracts the host platform's share sheet and clipboard.
type SharePlatform interface {
	CanShare() bool
	Share(ctx context.Context, title, text, url string) error
	Copy(text string) error
}

// EngagementController applies like/bookmark/comment/share actions for one
// card. Toggles update the local view immediately and roll back to the
// exact pre-action snapshot when the remote write fails. Toggles for the
// same action are serialized: a second invocation before the first settles
// is rejected rather than issued against a stale snapshot.
type EngagementController struct {
	svc    DataService
	viewer Viewer
	log    *zap.Logger

	mu      sync.Mutex
	view    CardView
	pending map[string]bool // action key -> write in flight
	closed  bool
}

func NewEngagementController(svc DataService, viewer Viewer, summary StorySummary, log *zap.Logger) *EngagementController {
	return &EngagementController{
		svc:     svc,
		viewer:  viewer,
		log:     log,
		view:    CardView{Summary: summary},
		pending: make(map[string]bool),
	}
}

// Close detaches the controller on card unmount. Later actions are inert
// and writes still in flight settle without touching the view.
func (c *EngagementController) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// View returns the current card projection.
func (c *EngagementController) View() CardView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// RefreshFlags fetches the viewer's flags for the card's episode. Anonymous
// viewers keep the zero flags without a remote call.
func (c *EngagementController) RefreshFlags(ctx context.Context) error {
	if c.viewer.Anonymous() {
		return nil
	}
	c.mu.Lock()
	episodeID := c.view.Summary.EpisodeID
	c.mu.Unlock()

	flags, err := c.svc.GetUserEpisodeFlags(ctx, episodeID, c.viewer.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	c.mu.Lock()
	if !c.closed {
		c.view.Flags = flags
	}
	c.mu.Unlock()
	return nil
}

// commitFunc performs the remote write matching an already-applied local
// mutation.
type commitFunc func(ctx context.Context) error

// runOptimistic is the shared optimistic-mutation control: snapshot, apply
// locally, commit remotely, restore the snapshot on failure. mutate runs
// under the lock and returns the commit chosen from pre-mutation state.
func (c *EngagementController) runOptimistic(ctx context.Context, key string, mutate func(v *CardView) commitFunc) error {
	if c.viewer.Anonymous() {
		return ErrAuthRequired
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if c.pending[key] {
		c.mu.Unlock()
		return ErrTogglePending
	}
	snapshot := c.view
	commit := mutate(&c.view)
	c.pending[key] = true
	c.mu.Unlock()

	err := commit(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, key)
	if c.closed {
		// The card unmounted while the write was in flight; its outcome no
		// longer has a view to land in.
		return nil
	}
	if err != nil {
		// Restore the snapshot, not a recomputation, so concurrent toggles
		// of other actions cannot compound the error.
		c.view = snapshot
		return fmt.Errorf("%w: %v", ErrMutationFailed, err)
	}
	return nil
}

// ToggleLike flips the viewer's like for the card's episode.
func (c *EngagementController) ToggleLike(ctx context.Context) error {
	return c.runOptimistic(ctx, "like", func(v *CardView) commitFunc {
		episodeID := v.Summary.EpisodeID
		liked := v.Flags.IsLiked
		v.Flags.IsLiked = !liked
		if liked {
			v.Summary.LikeCount--
		} else {
			v.Summary.LikeCount++
		}
		if liked {
			return func(ctx context.Context) error {
				return c.svc.DeleteLike(ctx, episodeID, c.viewer.ID)
			}
		}
		return func(ctx context.Context) error {
			return c.svc.InsertLike(ctx, episodeID, c.viewer.ID)
		}
	})
}

// ToggleBookmark flips the viewer's bookmark for the card's episode.
func (c *EngagementController) ToggleBookmark(ctx context.Context) error {
	return c.runOptimistic(ctx, "bookmark", func(v *CardView) commitFunc {
		episodeID := v.Summary.EpisodeID
		bookmarked := v.Flags.IsBookmarked
		v.Flags.IsBookmarked = !bookmarked
		if bookmarked {
			return func(ctx context.Context) error {
				return c.svc.DeleteBookmark(ctx, episodeID, c.viewer.ID)
			}
		}
		return func(ctx context.Context) error {
			return c.svc.InsertBookmark(ctx, episodeID, c.viewer.ID)
		}
	})
}

// Share hands the story to the platform share sheet when available and
// falls back to copying the canonical URL. The share counter is a backend
// aggregate; nothing is written here.
func (c *EngagementController) Share(ctx context.Context, p SharePlatform, baseURL string) (ShareOutcome, error) {
	c.mu.Lock()
	s := c.view.Summary
	c.mu.Unlock()

	url := strings.TrimRight(baseURL, "/") + "/story/" + s.StoryID
	if p.CanShare() {
		if err := p.Share(ctx, s.StoryTitle, s.Description, url); err == nil {
			return ShareSent, nil
		}
		// Share sheet refused; the clipboard fallback still applies.
	}
	if err := p.Copy(url); err != nil {
		return ShareCopied, fmt.Errorf("copy share url: %w", err)
	}
	return ShareCopied, nil
}

// Comment gates the comment composer: anonymous viewers are redirected to
// sign in, everyone else may open it.
func (c *EngagementController) Comment() error {
	if c.viewer.Anonymous() {
		return ErrAuthRequired
	}
	return nil
}

// Comments lists the episode's comments, newest first.
func (c *EngagementController) Comments(ctx context.Context, limit int) ([]Comment, error) {
	c.mu.Lock()
	episodeID := c.view.Summary.EpisodeID
	c.mu.Unlock()

	out, err := c.svc.ListComments(ctx, episodeID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return out, nil
}

// PostComment submits a comment and bumps the local counter on success.
func (c *EngagementController) PostComment(ctx context.Context, body string) (Comment, error) {
	if c.viewer.Anonymous() {
		return Comment{}, ErrAuthRequired
	}
	c.mu.Lock()
	episodeID := c.view.Summary.EpisodeID
	c.mu.Unlock()

	cm, err := c.svc.CreateComment(ctx, episodeID, c.viewer.ID, body)
	if err != nil {
		return Comment{}, fmt.Errorf("%w: %v", ErrMutationFailed, err)
	}
	c.mu.Lock()
	if !c.closed {
		c.view.Summary.CommentCount++
	}
	c.mu.Unlock()
	return cm, nil
}

// RecordLocalPlay bumps the local play counter after a play event was
// accepted, mirroring the backend aggregate.
func (c *EngagementController) RecordLocalPlay() {
	c.mu.Lock()
	if !c.closed {
		c.view.Summary.PlayCount++
	}
	c.mu.Unlock()
}
