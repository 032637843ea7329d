package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SiameseJames22/2DWORLD/internal/application/identity"
	"github.com/SiameseJames22/2DWORLD/internal/application/username"
	"github.com/SiameseJames22/2DWORLD/internal/infrastructure/http/handlers"
	"github.com/SiameseJames22/2DWORLD/internal/infrastructure/http/middleware"
	identitymemory "github.com/SiameseJames22/2DWORLD/internal/infrastructure/identity/memory"
	storememory "github.com/SiameseJames22/2DWORLD/internal/infrastructure/persistence/memory"
	"github.com/SiameseJames22/2DWORLD/internal/infrastructure/queue"
)

// newTestServer wires the full stack on the in-memory backends, plus a
// cookie-jar client so the session cookie rides along between calls.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	log := zerolog.Nop()
	provider := identitymemory.NewProvider(log)
	claims := username.NewService(storememory.NewDocStore(), log)
	registry := middleware.NewSessionRegistry(
		[]byte("test-secret"),
		"accounts_session",
		time.Hour,
		false,
		func() *identity.Session {
			return identity.NewSession(provider, claims, provider, log)
		},
		log,
	)
	router := NewRouter(RouterConfig{
		AccountsHandler: handlers.NewAccountsHandler(queue.NewNoopEnqueuer(), log),
		Sessions:        registry,
		Log:             log,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return srv, &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func getJSON(t *testing.T, client *http.Client, url string) (int, map[string]any) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestRegisterAndSession(t *testing.T) {
	srv, client := newTestServer(t)

	status, body := postJSON(t, client, srv.URL+"/auth/register", map[string]any{
		"username": "  Alice Smith!! ",
		"email":    "alice@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, status, "body: %v", body)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, "alice_smith", body["display_name"])
	assert.NotEmpty(t, body["id"])

	status, body = getJSON(t, client, srv.URL+"/auth/session")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["signed_in"])
	account, ok := body["account"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", account["email"])
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	srv, client := newTestServer(t)

	status, _ := postJSON(t, client, srv.URL+"/auth/register", map[string]any{
		"username": "alice", "email": "alice@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := postJSON(t, client, srv.URL+"/auth/register", map[string]any{
		"username": "ALICE", "email": "second@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "username_taken", body["code"])
	assert.Equal(t, "That username is taken.", body["error"])

	// the rolled-back account's email is free again
	status, _ = postJSON(t, client, srv.URL+"/auth/register", map[string]any{
		"username": "bob", "email": "second@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, status)
}

func TestLoginWrongPassword(t *testing.T) {
	srv, client := newTestServer(t)

	status, _ := postJSON(t, client, srv.URL+"/auth/register", map[string]any{
		"username": "alice", "email": "alice@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := postJSON(t, client, srv.URL+"/auth/login", map[string]any{
		"email": "alice@example.com", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "wrong_password", body["code"])
	assert.Equal(t, "Wrong password.", body["error"])
}

func TestLogoutClearsSession(t *testing.T) {
	srv, client := newTestServer(t)

	status, _ := postJSON(t, client, srv.URL+"/auth/register", map[string]any{
		"username": "alice", "email": "alice@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = postJSON(t, client, srv.URL+"/auth/logout", map[string]any{})
	require.Equal(t, http.StatusNoContent, status)

	status, body := getJSON(t, client, srv.URL+"/auth/session")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["signed_in"])

	// idempotent
	status, _ = postJSON(t, client, srv.URL+"/auth/logout", map[string]any{})
	require.Equal(t, http.StatusNoContent, status)
}

func TestResetPasswordNeverRevealsExistence(t *testing.T) {
	srv, client := newTestServer(t)

	status, body := postJSON(t, client, srv.URL+"/auth/reset-password", map[string]any{
		"email": "nobody@example.com",
	})
	require.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, "sent", body["status"])
}

func TestResendVerificationRequiresSignIn(t *testing.T) {
	srv, client := newTestServer(t)

	status, body := postJSON(t, client, srv.URL+"/auth/resend-verification", map[string]any{})
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "not_signed_in", body["code"])
}

func TestConfirmPhoneWithoutChallenge(t *testing.T) {
	srv, client := newTestServer(t)

	status, _ := postJSON(t, client, srv.URL+"/auth/register", map[string]any{
		"username": "alice", "email": "alice@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := postJSON(t, client, srv.URL+"/auth/phone/confirm", map[string]any{
		"code": "123456",
	})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "no_challenge_pending", body["code"])
	assert.Equal(t, "Start SMS verification first.", body["error"])
}

func TestPhoneLinkStartsChallenge(t *testing.T) {
	srv, client := newTestServer(t)

	status, _ := postJSON(t, client, srv.URL+"/auth/register", map[string]any{
		"username": "alice", "email": "alice@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := postJSON(t, client, srv.URL+"/auth/phone/link", map[string]any{
		"phone_number": "+1 555 123 4567",
	})
	require.Equal(t, http.StatusAccepted, status, "body: %v", body)
	assert.Equal(t, "code_sent", body["status"])

	// second start while pending is rejected
	status, body = postJSON(t, client, srv.URL+"/auth/phone/link", map[string]any{
		"phone_number": "+15551234567",
	})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "challenge_pending", body["code"])
}

func TestSessionsAreIsolatedPerBrowser(t *testing.T) {
	srv, alice := newTestServer(t)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	mallory := &http.Client{Jar: jar}

	status, _ := postJSON(t, alice, srv.URL+"/auth/register", map[string]any{
		"username": "alice", "email": "alice@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := getJSON(t, mallory, srv.URL+"/auth/session")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["signed_in"])
}
