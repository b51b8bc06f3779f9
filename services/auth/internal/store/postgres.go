package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userCols = `id, email, username, full_name, avatar_url, password_hash, created_at`

// PostgresUserStore persists accounts in Postgres.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.AvatarURL, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *PostgresUserStore) CreateUser(ctx context.Context, p CreateUserParams) (User, error) {
	const q = `INSERT INTO users (email, username, full_name, password_hash)
	           VALUES ($1, $2, $3, $4)
	           RETURNING ` + userCols
	u, err := scanUser(s.pool.QueryRow(ctx, q, p.Email, p.Username, p.FullName, p.PasswordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrConflict
		}
		return User{}, err
	}
	return u, nil
}

func (s *PostgresUserStore) FindByLogin(ctx context.Context, login string) (User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return User{}, ErrNotFound
	}
	const q = `SELECT ` + userCols + `
	           FROM users
	           WHERE lower(email) = lower($1) OR lower(username) = lower($1)
	           LIMIT 1`
	return scanUser(s.pool.QueryRow(ctx, q, login))
}

func (s *PostgresUserStore) GetUser(ctx context.Context, id string) (User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, q, id))
}

func (s *PostgresUserStore) SaveRefreshToken(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (token_hash, user_id, expires_at) VALUES ($1, $2, $3)`,
		tokenHash, userID, expiresAt)
	return err
}

func (s *PostgresUserStore) ConsumeRefreshToken(ctx context.Context, tokenHash string) (string, error) {
	const q = `DELETE FROM refresh_tokens
	           WHERE token_hash = $1 AND expires_at > now()
	           RETURNING user_id::text`
	var userID string
	err := s.pool.QueryRow(ctx, q, tokenHash).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return userID, err
}
