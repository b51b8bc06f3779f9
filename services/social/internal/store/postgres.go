package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresEngagementStore persists engagement rows in Postgres.
type PostgresEngagementStore struct {
	pool *pgxpool.Pool
}

func NewPostgresEngagementStore(pool *pgxpool.Pool) *PostgresEngagementStore {
	return &PostgresEngagementStore{pool: pool}
}

func (s *PostgresEngagementStore) GetFlags(ctx context.Context, episodeID, userID string) (Flags, error) {
	const q = `SELECT
	    EXISTS (SELECT 1 FROM likes     WHERE episode_id = $1 AND user_id = $2),
	    EXISTS (SELECT 1 FROM bookmarks WHERE episode_id = $1 AND user_id = $2)`
	var f Flags
	err := s.pool.QueryRow(ctx, q, episodeID, userID).Scan(&f.Liked, &f.Bookmarked)
	return f, err
}

// InsertLike records a like and bumps the episode aggregate. ON CONFLICT
// keeps the write idempotent; the aggregate only moves when a row was
// actually inserted.
func (s *PostgresEngagementStore) InsertLike(ctx context.Context, episodeID, userID string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO likes (episode_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			episodeID, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		_, err = tx.Exec(ctx,
			`UPDATE episodes SET like_count = like_count + 1 WHERE id = $1`, episodeID)
		return err
	})
}

func (s *PostgresEngagementStore) DeleteLike(ctx context.Context, episodeID, userID string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM likes WHERE episode_id = $1 AND user_id = $2`, episodeID, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		_, err = tx.Exec(ctx,
			`UPDATE episodes SET like_count = GREATEST(like_count - 1, 0) WHERE id = $1`, episodeID)
		return err
	})
}

func (s *PostgresEngagementStore) InsertBookmark(ctx context.Context, episodeID, userID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bookmarks (episode_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		episodeID, userID)
	return err
}

func (s *PostgresEngagementStore) DeleteBookmark(ctx context.Context, episodeID, userID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM bookmarks WHERE episode_id = $1 AND user_id = $2`, episodeID, userID)
	return err
}

func (s *PostgresEngagementStore) ListComments(ctx context.Context, episodeID string, limit int) ([]Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	const q = `SELECT c.id, c.episode_id, c.user_id, u.username, c.body, c.created_at
	           FROM comments c
	           JOIN users u ON u.id = c.user_id
	           WHERE c.episode_id = $1
	           ORDER BY c.created_at DESC
	           LIMIT $2`
	rows, err := s.pool.Query(ctx, q, episodeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.EpisodeID, &c.UserID, &c.Username, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresEngagementStore) CreateComment(ctx context.Context, c Comment) (Comment, error) {
	var out Comment
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		const q = `INSERT INTO comments (episode_id, user_id, body)
		           VALUES ($1, $2, $3)
		           RETURNING id, episode_id, user_id,
		                     (SELECT username FROM users WHERE id = user_id),
		                     body, created_at`
		if err := tx.QueryRow(ctx, q, c.EpisodeID, c.UserID, c.Body).
			Scan(&out.ID, &out.EpisodeID, &out.UserID, &out.Username, &out.Body, &out.CreatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`UPDATE episodes SET comment_count = comment_count + 1 WHERE id = $1`, c.EpisodeID)
		return err
	})
	return out, err
}

func (s *PostgresEngagementStore) Follow(ctx context.Context, followerID, creatorID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO follows (follower_id, creator_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		followerID, creatorID)
	return err
}

func (s *PostgresEngagementStore) Unfollow(ctx context.Context, followerID, creatorID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND creator_id = $2`, followerID, creatorID)
	return err
}

func (s *PostgresEngagementStore) IsFollowing(ctx context.Context, followerID, creatorID string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND creator_id = $2)`,
		followerID, creatorID).Scan(&ok)
	return ok, err
}
