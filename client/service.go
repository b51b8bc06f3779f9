// Package client implements the listening core of the True Tales
// application: the paginated story feed, single-active-audio playback
// coordination, optimistic engagement actions and play-progress telemetry.
// It talks to the backend through the DataService interface and exposes
// plain state plus imperative actions to whatever layer renders it.
package client

import (
	"context"
	"time"
)

// StorySummary is the read-only feed projection of a story and its latest
// episode, produced by the story service.
type StorySummary struct {
	StoryID     string `json:"story_id"`
	StoryTitle  string `json:"story_title"`
	Description string `json:"description"`
	CoverURL    string `json:"cover_url"`
	Category    string `json:"category"`

	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`

	EpisodeID        string    `json:"episode_id"`
	EpisodeTitle     string    `json:"episode_title"`
	AudioURL         string    `json:"audio_url"`
	DurationSeconds  int       `json:"duration_seconds"`
	EpisodeCreatedAt time.Time `json:"episode_created_at"`

	PlayCount    int64 `json:"play_count"`
	LikeCount    int64 `json:"like_count"`
	CommentCount int64 `json:"comment_count"`
	ShareCount   int64 `json:"share_count"`
	EpisodeCount int64 `json:"episode_count"`
}

// UserFlags are the per-(episode, viewer) engagement booleans. Anonymous
// viewers always see the zero value.
type UserFlags struct {
	IsLiked      bool `json:"is_liked"`
	IsBookmarked bool `json:"is_bookmarked"`
}

// Interaction is the per-(episode, viewer) play statistics record owned by
// the activity service. The client creates and patches it, never deletes.
type Interaction struct {
	ID                  string  `json:"id"`
	EpisodeID           string  `json:"episode_id"`
	ViewerID            string  `json:"viewer_id"`
	PlayCount           int64   `json:"play_count"`
	PlayDurationSeconds float64 `json:"play_duration_seconds"`
	ProgressSeconds     float64 `json:"progress_seconds"`
}

// InteractionPatch carries the fields of a partial interaction update.
// Nil fields are left untouched by the service.
type InteractionPatch struct {
	PlayCount           *int64   `json:"play_count,omitempty"`
	PlayDurationSeconds *float64 `json:"play_duration_seconds,omitempty"`
	ProgressSeconds     *float64 `json:"progress_seconds,omitempty"`
}

// Comment is a single episode comment.
type Comment struct {
	ID        string    `json:"id"`
	EpisodeID string    `json:"episode_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Viewer identifies the signed-in user. The zero value is an anonymous
// session.
type Viewer struct {
	ID string `json:"id"`
}

// Anonymous reports whether the viewer is signed out.
func (v Viewer) Anonymous() bool { return v.ID == "" }

// DataService is the remote backend as the listening core sees it. The
// production implementation lives in client/rest; tests substitute fakes.
type DataService interface {
	ListStorySummaries(ctx context.Context, filter string, offset, limit int) ([]StorySummary, error)
	GetUserEpisodeFlags(ctx context.Context, episodeID, viewerID string) (UserFlags, error)

	InsertLike(ctx context.Context, episodeID, viewerID string) error
	DeleteLike(ctx context.Context, episodeID, viewerID string) error
	InsertBookmark(ctx context.Context, episodeID, viewerID string) error
	DeleteBookmark(ctx context.Context, episodeID, viewerID string) error

	GetInteraction(ctx context.Context, episodeID, viewerID string) (Interaction, bool, error)
	CreateInteraction(ctx context.Context, rec Interaction) (Interaction, error)
	UpdateInteraction(ctx context.Context, id string, patch InteractionPatch) error

	ListComments(ctx context.Context, episodeID string, limit int) ([]Comment, error)
	CreateComment(ctx context.Context, episodeID, viewerID, body string) (Comment, error)

	CurrentViewer(ctx context.Context) (Viewer, error)
}
