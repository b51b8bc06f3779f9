package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
)

// User is an account row. PasswordHash never leaves the service.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`

	PasswordHash string `json:"-"`
}

type CreateUserParams struct {
	Email        string
	Username     string
	FullName     string
	PasswordHash string
}

// UserStore persists accounts and refresh tokens.
type UserStore interface {
	// CreateUser returns ErrConflict when the email or username is taken.
	CreateUser(ctx context.Context, p CreateUserParams) (User, error)
	// FindByLogin matches email or username, case-insensitively.
	FindByLogin(ctx context.Context, login string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)

	SaveRefreshToken(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	// ConsumeRefreshToken deletes the token and returns its user id.
	// Expired or unknown tokens return ErrNotFound.
	ConsumeRefreshToken(ctx context.Context, tokenHash string) (string, error)
}
