package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Amulyajoshtalks/true-tales/internal/platform/api"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/auth"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/events"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/httpserver"
	"github.com/Amulyajoshtalks/true-tales/services/auth/internal/store"
	"github.com/Amulyajoshtalks/true-tales/services/auth/internal/tokens"
)

const minPasswordLen = 8

type tokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type authResponse struct {
	User   store.User `json:"user"`
	Tokens tokenPair  `json:"tokens"`
}

func issueTokens(svc tokens.Service, s store.UserStore, r *http.Request, userID string) (tokenPair, error) {
	access, exp, err := svc.NewAccessToken(userID, time.Time{})
	if err != nil {
		return tokenPair{}, err
	}
	raw, hash, err := tokens.NewRefreshToken()
	if err != nil {
		return tokenPair{}, err
	}
	expiresAt := time.Now().UTC().Add(svc.RefreshTokenTTL)
	if err := s.SaveRefreshToken(r.Context(), hash, userID, expiresAt); err != nil {
		return tokenPair{}, err
	}
	return tokenPair{AccessToken: access, RefreshToken: raw, ExpiresAt: exp}, nil
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// Register creates an account and signs the new user in.
func Register(s store.UserStore, svc tokens.Service, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_BODY", "Request body must be valid JSON", rid, nil)
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		req.Username = strings.TrimSpace(req.Username)
		if _, err := mail.ParseAddress(req.Email); err != nil {
			api.BadRequest(w, "INVALID_EMAIL", "email is not valid", rid, nil)
			return
		}
		if req.Username == "" {
			api.BadRequest(w, "MISSING_USERNAME", "username is required", rid, nil)
			return
		}
		if len(req.Password) < minPasswordLen {
			api.BadRequest(w, "WEAK_PASSWORD", "password is too short", rid,
				map[string]any{"min_length": minPasswordLen})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			api.Internal(w, rid)
			return
		}

		u, err := s.CreateUser(r.Context(), store.CreateUserParams{
			Email:        req.Email,
			Username:     req.Username,
			FullName:     strings.TrimSpace(req.FullName),
			PasswordHash: string(hash),
		})
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				api.Conflict(w, "ACCOUNT_EXISTS", "Email or username is already taken", rid, nil)
				return
			}
			api.Internal(w, rid)
			return
		}

		pair, err := issueTokens(svc, s, r, u.ID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		pub.Publish(events.SubjectViewerRegistered, "viewer_registered", u.ID, nil)
		api.WriteJSON(w, http.StatusCreated, authResponse{User: u, Tokens: pair})
	}
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token pair. Unknown accounts and wrong
// passwords are indistinguishable to the caller.
func Login(s store.UserStore, svc tokens.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_BODY", "Request body must be valid JSON", rid, nil)
			return
		}

		u, err := s.FindByLogin(r.Context(), req.Login)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.Unauthorized(w, "BAD_CREDENTIALS", "Invalid login or password", rid)
				return
			}
			api.Internal(w, rid)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			api.Unauthorized(w, "BAD_CREDENTIALS", "Invalid login or password", rid)
			return
		}

		pair, err := issueTokens(svc, s, r, u.ID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, authResponse{User: u, Tokens: pair})
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a refresh token: the presented token is consumed and a
// fresh pair is returned.
func Refresh(s store.UserStore, svc tokens.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
			api.BadRequest(w, "INVALID_BODY", "refresh_token is required", rid, nil)
			return
		}

		userID, err := s.ConsumeRefreshToken(r.Context(), tokens.HashRefreshToken(req.RefreshToken))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.Unauthorized(w, "INVALID_REFRESH", "Refresh token is expired or unknown", rid)
				return
			}
			api.Internal(w, rid)
			return
		}

		pair, err := issueTokens(svc, s, r, userID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, pair)
	}
}

// Me returns the authenticated user's profile.
func Me(s store.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHENTICATED", "Authentication required", rid)
			return
		}

		u, err := s.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.Unauthorized(w, "UNKNOWN_USER", "Account no longer exists", rid)
				return
			}
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, u)
	}
}
