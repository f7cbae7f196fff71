package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"guildboard/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginMe(t *testing.T) {
	t.Parallel()

	_, app := setupTestServer(t)

	// Register
	body := []byte(`{"username":"newuser","email":"newuser@example.com","password":"password1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, payload := doRequest(t, app, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, payload["token"])

	cookieHeader := resp.Header.Values("Set-Cookie")
	assert.NotEmpty(t, cookieHeader)

	// Login
	body = []byte(`{"email":"newuser@example.com","password":"password1"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, payload = doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := payload["token"].(string)
	require.NotEmpty(t, token)

	// Me
	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, payload = doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "newuser@example.com", payload["email"])
	assert.NotContains(t, payload, "password")
}

func TestRegisterAcceptsNameFieldAndMinimalCredentials(t *testing.T) {
	t.Parallel()

	_, app := setupTestServer(t)

	// Single-character name, six-character password, "name" instead of
	// "username": all accepted.
	body := []byte(`{"name":"A","email":"a@x.com","password":"secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, payload := doRequest(t, app, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, payload["token"])

	body = []byte(`{"email":"a@x.com","password":"secret1"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, payload = doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := payload["token"].(string)
	require.NotEmpty(t, token)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, payload = doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a@x.com", payload["email"])
	assert.Equal(t, "A", payload["username"])
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	createUser(t, s, "known", "known@example.com")

	unknownBody := []byte(`{"email":"nobody@example.com","password":"password1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(unknownBody))
	req.Header.Set("Content-Type", "application/json")
	resp, unknownPayload := doRequest(t, app, req)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	wrongBody := []byte(`{"email":"known@example.com","password":"wrong-password"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(wrongBody))
	req.Header.Set("Content-Type", "application/json")
	resp, wrongPayload := doRequest(t, app, req)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Equal(t, unknownPayload["message"], wrongPayload["message"])
}

func TestAuthRequiredRejections(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	user, _ := createUser(t, s, "authuser", "authuser@example.com")

	expiredIssuer := auth.NewTokenIssuer(s.config.JWTSecret, -time.Hour)
	expiredToken, err := expiredIssuer.Issue(user.ID)
	require.NoError(t, err)

	deleted, deletedToken := createUser(t, s, "ghost", "ghost@example.com")
	require.NoError(t, s.db.Unscoped().Delete(deleted).Error)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"missing token", "", "Authorization required"},
		{"malformed token", "Bearer not.a.jwt", "Malformed token"},
		{"expired token", "Bearer " + expiredToken, "Token expired"},
		{"deleted account", "Bearer " + deletedToken, "Account not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, payload := doRequest(t, app, req)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tt.message, payload["message"])
			assert.Equal(t, false, payload["success"])
		})
	}
}

func TestAuthViaCookie(t *testing.T) {
	t.Parallel()

	s, app := setupTestServer(t)
	_, token := createUser(t, s, "cookieuser", "cookieuser@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "gb_token", Value: token})
	resp, payload := doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cookieuser@example.com", payload["email"])

	// Secondary session cookie is honored too.
	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "gb_session", Value: token})
	resp, payload = doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cookieuser@example.com", payload["email"])
}

func TestUnknownRoute404(t *testing.T) {
	t.Parallel()

	_, app := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	resp, payload := doRequest(t, app, req)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Route not found", payload["message"])
	assert.Equal(t, "/api/nope", payload["path"])
}
