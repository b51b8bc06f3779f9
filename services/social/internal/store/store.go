package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Flags reports whether one user has liked or bookmarked one episode.
type Flags struct {
	Liked      bool `json:"is_liked"`
	Bookmarked bool `json:"is_bookmarked"`
}

// Comment is one listener comment on an episode.
type Comment struct {
	ID        string    `json:"id"`
	EpisodeID string    `json:"episode_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// EngagementStore persists likes, bookmarks, comments and follows.
//
// Like and bookmark writes are idempotent: inserting an existing pair or
// deleting a missing one succeeds without effect, so retried toggles never
// fail. The episode like_count aggregate moves only when a row actually
// changes.
type EngagementStore interface {
	GetFlags(ctx context.Context, episodeID, userID string) (Flags, error)

	InsertLike(ctx context.Context, episodeID, userID string) error
	DeleteLike(ctx context.Context, episodeID, userID string) error

	InsertBookmark(ctx context.Context, episodeID, userID string) error
	DeleteBookmark(ctx context.Context, episodeID, userID string) error

	// ListComments returns up to limit comments, newest first.
	ListComments(ctx context.Context, episodeID string, limit int) ([]Comment, error)
	CreateComment(ctx context.Context, c Comment) (Comment, error)

	Follow(ctx context.Context, followerID, creatorID string) error
	Unfollow(ctx context.Context, followerID, creatorID string) error
	IsFollowing(ctx context.Context, followerID, creatorID string) (bool, error)
}
