package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStoryStore is the production Postgres-backed implementation.
type PostgresStoryStore struct {
	db *pgxpool.Pool
}

func NewPostgresStoryStore(db *pgxpool.Pool) *PostgresStoryStore {
	return &PostgresStoryStore{db: db}
}

const feedQuery = `
SELECT s.id, s.title, s.description, s.cover_url, s.category,
       u.id, u.username, u.full_name, u.avatar_url,
       e.id, e.title, e.audio_url, e.duration_seconds, e.created_at,
       e.play_count, e.like_count, e.comment_count, e.share_count,
       (SELECT COUNT(*) FROM episodes ec WHERE ec.story_id = s.id)
FROM stories s
JOIN users u ON u.id = s.user_id
JOIN LATERAL (
    SELECT * FROM episodes le
    WHERE le.story_id = s.id
    ORDER BY le.created_at DESC
    LIMIT 1
) e ON true
WHERE $1 = ''
   OR u.username ILIKE $2 OR u.full_name ILIKE $2
   OR s.title ILIKE $2 OR e.title ILIKE $2 OR s.category ILIKE $2
ORDER BY e.created_at DESC
OFFSET $3 LIMIT $4`

func (s *PostgresStoryStore) ListFeed(ctx context.Context, filter string, offset, limit int) ([]StorySummary, error) {
	pattern := "%" + filter + "%"
	rows, err := s.db.Query(ctx, feedQuery, filter, pattern, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("feed query: %w", err)
	}
	defer rows.Close()

	var out []StorySummary
	for rows.Next() {
		var sum StorySummary
		if err := rows.Scan(
			&sum.StoryID, &sum.StoryTitle, &sum.Description, &sum.CoverURL, &sum.Category,
			&sum.UserID, &sum.Username, &sum.FullName, &sum.AvatarURL,
			&sum.EpisodeID, &sum.EpisodeTitle, &sum.AudioURL, &sum.DurationSeconds, &sum.EpisodeCreatedAt,
			&sum.PlayCount, &sum.LikeCount, &sum.CommentCount, &sum.ShareCount,
			&sum.EpisodeCount,
		); err != nil {
			return nil, fmt.Errorf("feed scan: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *PostgresStoryStore) CreateStory(ctx context.Context, st Story) (Story, error) {
	st.ID = uuid.NewString()
	err := s.db.QueryRow(ctx, `
INSERT INTO stories (id, user_id, title, description, cover_url, category)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`,
		st.ID, st.UserID, st.Title, st.Description, st.CoverURL, st.Category,
	).Scan(&st.CreatedAt)
	if err != nil {
		return Story{}, fmt.Errorf("insert story: %w", err)
	}
	return st, nil
}

func (s *PostgresStoryStore) GetStory(ctx context.Context, storyID string) (Story, []Episode, error) {
	var st Story
	err := s.db.QueryRow(ctx, `
SELECT id, user_id, title, description, cover_url, category, created_at
FROM stories WHERE id = $1`, storyID).
		Scan(&st.ID, &st.UserID, &st.Title, &st.Description, &st.CoverURL, &st.Category, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Story{}, nil, ErrNotFound
		}
		return Story{}, nil, fmt.Errorf("select story: %w", err)
	}

	rows, err := s.db.Query(ctx, `
SELECT id, story_id, title, audio_url, duration_seconds,
       play_count, like_count, comment_count, share_count, created_at
FROM episodes WHERE story_id = $1 ORDER BY created_at DESC`, storyID)
	if err != nil {
		return Story{}, nil, fmt.Errorf("select episodes: %w", err)
	}
	defer rows.Close()

	var eps []Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.ID, &e.StoryID, &e.Title, &e.AudioURL, &e.DurationSeconds,
			&e.PlayCount, &e.LikeCount, &e.CommentCount, &e.ShareCount, &e.CreatedAt); err != nil {
			return Story{}, nil, fmt.Errorf("scan episode: %w", err)
		}
		eps = append(eps, e)
	}
	return st, eps, rows.Err()
}

func (s *PostgresStoryStore) CreateEpisode(ctx context.Context, userID string, e Episode) (Episode, error) {
	var owner string
	err := s.db.QueryRow(ctx, `SELECT user_id FROM stories WHERE id = $1`, e.StoryID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Episode{}, ErrNotFound
		}
		return Episode{}, fmt.Errorf("select story owner: %w", err)
	}
	if owner != userID {
		return Episode{}, ErrForbidden
	}

	e.ID = uuid.NewString()
	err = s.db.QueryRow(ctx, `
INSERT INTO episodes (id, story_id, title, audio_url, duration_seconds)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`,
		e.ID, e.StoryID, e.Title, e.AudioURL, e.DurationSeconds,
	).Scan(&e.CreatedAt)
	if err != nil {
		return Episode{}, fmt.Errorf("insert episode: %w", err)
	}
	return e, nil
}

func (s *PostgresStoryStore) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (s *PostgresStoryStore) ListPayouts(ctx context.Context, userID string) ([]Payout, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, user_id, amount_usd::text, period, status, created_at
FROM payouts WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select payouts: %w", err)
	}
	defer rows.Close()

	var out []Payout
	for rows.Next() {
		var p Payout
		if err := rows.Scan(&p.ID, &p.UserID, &p.AmountUSD, &p.Period, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
