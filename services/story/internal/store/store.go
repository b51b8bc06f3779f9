package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// Story is a creator's collection of episodes.
type Story struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CoverURL    string    `json:"cover_url"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

// Episode is a single narrated recording. The aggregate counters are
// maintained by the social and activity writers and never decrease.
type Episode struct {
	ID              string    `json:"id"`
	StoryID         string    `json:"story_id"`
	Title           string    `json:"title"`
	AudioURL        string    `json:"audio_url"`
	DurationSeconds int       `json:"duration_seconds"`
	PlayCount       int64     `json:"play_count"`
	LikeCount       int64     `json:"like_count"`
	CommentCount    int64     `json:"comment_count"`
	ShareCount      int64     `json:"share_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// StorySummary is the feed projection: a story joined with its latest
// episode, its owner and aggregate counters. Field names match the client
// wire format.
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

// Payout is one pre-aggregated creator earnings statement. The client only
// displays these; computation happens elsewhere.
type Payout struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AmountUSD string    `json:"amount_usd"`
	Period    string    `json:"period"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// StoryStore defines all persistence operations for the story service.
type StoryStore interface {
	// ListFeed returns summaries ordered by latest-episode recency
	// descending. filter, when non-empty, free-text matches the creator's
	// username and full name, the story title, the episode title and the
	// category.
	ListFeed(ctx context.Context, filter string, offset, limit int) ([]StorySummary, error)

	CreateStory(ctx context.Context, s Story) (Story, error)
	GetStory(ctx context.Context, storyID string) (Story, []Episode, error)
	CreateEpisode(ctx context.Context, userID string, e Episode) (Episode, error)

	ListCategories(ctx context.Context) ([]string, error)
	ListPayouts(ctx context.Context, userID string) ([]Payout, error)
}
