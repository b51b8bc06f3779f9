package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Interaction is one viewer's listening record for one episode. viewer_id
// is either a user id or the shared anonymous sentinel, so it is free text
// rather than a user reference.
type Interaction struct {
	ID                  string    `json:"id"`
	EpisodeID           string    `json:"episode_id"`
	ViewerID            string    `json:"viewer_id"`
	PlayCount           int64     `json:"play_count"`
	PlayDurationSeconds float64   `json:"play_duration_seconds"`
	ProgressSeconds     float64   `json:"progress_seconds"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Patch carries a partial interaction update. Nil fields are left untouched.
type Patch struct {
	PlayCount           *int64   `json:"play_count,omitempty"`
	PlayDurationSeconds *float64 `json:"play_duration_seconds,omitempty"`
	ProgressSeconds     *float64 `json:"progress_seconds,omitempty"`
}

// Cursor is the decoded form of the opaque continue-listening cursor.
type Cursor struct {
	UpdatedAt time.Time
	ID        string
}

// InteractionStore defines persistence for listening records.
type InteractionStore interface {
	// Get looks up the record for one (episode, viewer) pair.
	Get(ctx context.Context, episodeID, viewerID string) (Interaction, error)
	// Create inserts a new record. Creating a second record for the same
	// (episode, viewer) pair returns the existing one updated instead.
	Create(ctx context.Context, in Interaction) (Interaction, error)
	// ApplyPatch updates the identified record and returns the result.
	ApplyPatch(ctx context.Context, id string, p Patch) (Interaction, error)
	// ListRecent returns up to limit records for one viewer ordered by
	// updated_at descending. cursor, when non-nil, is an exclusive lower
	// bound for keyset pagination.
	ListRecent(ctx context.Context, viewerID string, limit int, cursor *Cursor) ([]Interaction, error)
}
