package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const interactionCols = `id, episode_id, viewer_id, play_count, play_duration_seconds, progress_seconds, updated_at`

// PostgresInteractionStore persists listening records in Postgres.
type PostgresInteractionStore struct {
	pool *pgxpool.Pool
}

func NewPostgresInteractionStore(pool *pgxpool.Pool) *PostgresInteractionStore {
	return &PostgresInteractionStore{pool: pool}
}

func scanInteraction(row pgx.Row) (Interaction, error) {
	var in Interaction
	err := row.Scan(&in.ID, &in.EpisodeID, &in.ViewerID,
		&in.PlayCount, &in.PlayDurationSeconds, &in.ProgressSeconds, &in.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Interaction{}, ErrNotFound
	}
	return in, err
}

func (s *PostgresInteractionStore) Get(ctx context.Context, episodeID, viewerID string) (Interaction, error) {
	const q = `SELECT ` + interactionCols + `
	           FROM interactions WHERE episode_id = $1 AND viewer_id = $2`
	return scanInteraction(s.pool.QueryRow(ctx, q, episodeID, viewerID))
}

// Create upserts on the (episode, viewer) pair: a concurrent duplicate
// create folds into an update of the existing row.
func (s *PostgresInteractionStore) Create(ctx context.Context, in Interaction) (Interaction, error) {
	const q = `INSERT INTO interactions (episode_id, viewer_id, play_count, play_duration_seconds, progress_seconds)
	           VALUES ($1, $2, $3, $4, $5)
	           ON CONFLICT (episode_id, viewer_id) DO UPDATE SET
	               play_count            = interactions.play_count + 1,
	               play_duration_seconds = EXCLUDED.play_duration_seconds,
	               progress_seconds      = EXCLUDED.progress_seconds,
	               updated_at            = now()
	           RETURNING ` + interactionCols
	return scanInteraction(s.pool.QueryRow(ctx, q,
		in.EpisodeID, in.ViewerID, in.PlayCount, in.PlayDurationSeconds, in.ProgressSeconds))
}

func (s *PostgresInteractionStore) ApplyPatch(ctx context.Context, id string, p Patch) (Interaction, error) {
	const q = `UPDATE interactions SET
	               play_count            = COALESCE($2, play_count),
	               play_duration_seconds = COALESCE($3, play_duration_seconds),
	               progress_seconds      = COALESCE($4, progress_seconds),
	               updated_at            = now()
	           WHERE id = $1
	           RETURNING ` + interactionCols
	return scanInteraction(s.pool.QueryRow(ctx, q, id, p.PlayCount, p.PlayDurationSeconds, p.ProgressSeconds))
}

func (s *PostgresInteractionStore) ListRecent(ctx context.Context, viewerID string, limit int, cursor *Cursor) ([]Interaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if cursor == nil {
		const q = `SELECT ` + interactionCols + `
		           FROM interactions WHERE viewer_id = $1
		           ORDER BY updated_at DESC, id DESC LIMIT $2`
		rows, err = s.pool.Query(ctx, q, viewerID, limit)
	} else {
		const q = `SELECT ` + interactionCols + `
		           FROM interactions
		           WHERE viewer_id = $1 AND (updated_at, id) < ($2, $3)
		           ORDER BY updated_at DESC, id DESC LIMIT $4`
		rows, err = s.pool.Query(ctx, q, viewerID, cursor.UpdatedAt, cursor.ID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Interaction{}
	for rows.Next() {
		var in Interaction
		if err := rows.Scan(&in.ID, &in.EpisodeID, &in.ViewerID,
			&in.PlayCount, &in.PlayDurationSeconds, &in.ProgressSeconds, &in.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
