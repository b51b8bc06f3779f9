package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Amulyajoshtalks/true-tales/internal/platform/auth"
	"github.com/Amulyajoshtalks/true-tales/services/auth/internal/store"
	"github.com/Amulyajoshtalks/true-tales/services/auth/internal/tokens"
)

func testTokens() tokens.Service {
	return tokens.Service{
		Secret:          []byte("test-secret"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func postJSON(handler http.HandlerFunc, url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func register(t *testing.T, s store.UserStore) authResponse {
	t.Helper()
	rr := postJSON(Register(s, testTokens(), nil), "/v1/auth/register",
		`{"email":"asha@example.com","username":"asha","full_name":"Asha Rao","password":"correct horse"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp authResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestRegister(t *testing.T) {
	resp := register(t, store.NewInMemoryUserStore())
	if resp.User.ID == "" || resp.User.Username != "asha" {
		t.Fatalf("unexpected user: %+v", resp.User)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected a token pair, got %+v", resp.Tokens)
	}
	if resp.User.PasswordHash != "" {
		t.Fatal("password hash must not be serialized")
	}
}

func TestRegister_Conflict(t *testing.T) {
	s := store.NewInMemoryUserStore()
	register(t, s)

	rr := postJSON(Register(s, testTokens(), nil), "/v1/auth/register",
		`{"email":"asha@example.com","username":"other","password":"correct horse"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestRegister_Invalid(t *testing.T) {
	handler := Register(store.NewInMemoryUserStore(), testTokens(), nil)
	for name, body := range map[string]string{
		"bad email":      `{"email":"nope","username":"x","password":"correct horse"}`,
		"short password": `{"email":"a@b.io","username":"x","password":"short"}`,
		"no username":    `{"email":"a@b.io","username":"","password":"correct horse"}`,
	} {
		rr := postJSON(handler, "/v1/auth/register", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rr.Code)
		}
	}
}

func TestLogin(t *testing.T) {
	s := store.NewInMemoryUserStore()
	register(t, s)

	for _, login := range []string{"asha", "ASHA@example.com"} {
		rr := postJSON(Login(s, testTokens()), "/v1/auth/login",
			`{"login":"`+login+`","password":"correct horse"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("login as %q: expected 200, got %d: %s", login, rr.Code, rr.Body.String())
		}
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	s := store.NewInMemoryUserStore()
	register(t, s)
	handler := Login(s, testTokens())

	for name, body := range map[string]string{
		"wrong password": `{"login":"asha","password":"wrong password"}`,
		"unknown user":   `{"login":"nobody","password":"correct horse"}`,
	} {
		rr := postJSON(handler, "/v1/auth/login", body)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rr.Code)
		}
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	s := store.NewInMemoryUserStore()
	resp := register(t, s)
	handler := Refresh(s, testTokens())

	rr := postJSON(handler, "/v1/auth/refresh", `{"refresh_token":"`+resp.Tokens.RefreshToken+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var pair tokenPair
	if err := json.NewDecoder(rr.Body).Decode(&pair); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pair.RefreshToken == resp.Tokens.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// The consumed token is gone.
	rr = postJSON(handler, "/v1/auth/refresh", `{"refresh_token":"`+resp.Tokens.RefreshToken+`"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("reuse: expected 401, got %d", rr.Code)
	}
}

func TestMe(t *testing.T) {
	s := store.NewInMemoryUserStore()
	resp := register(t, s)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), resp.User.ID))
	rr := httptest.NewRecorder()
	Me(s).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var u store.User
	if err := json.NewDecoder(rr.Body).Decode(&u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.ID != resp.User.ID {
		t.Fatalf("expected user %s, got %s", resp.User.ID, u.ID)
	}
}

func TestMe_Unauthorized(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	rr := httptest.NewRecorder()
	Me(store.NewInMemoryUserStore()).ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
