package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/api/internal/config"
	"storefront/api/internal/handlers"
	"storefront/api/internal/repository"
	"storefront/api/internal/security"
	"storefront/api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	engine *gin.Engine
}

func newTestApp(t *testing.T, secret string) *testApp {
	t.Helper()
	return newTestAppWith(t, secret, repository.NewMemoryManager())
}

func newTestAppWith(t *testing.T, secret string, repos repository.Manager) *testApp {
	t.Helper()

	cfg := &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			SessionTTL:          7 * 24 * time.Hour,
			CookieSigningSecret: secret,
			MinPasswordLength:   6,
		},
		Bootstrap: config.BootstrapConfig{Username: "dage666", Password: "dage168"},
		Gate:      config.GateConfig{ProtectedPrefix: "/admin", LoginPath: "/login"},
	}
	require.NoError(t, cfg.Validate())

	log := zerolog.Nop()
	codec := security.NewCookieCodec(secret)
	creds := service.NewCredentialStore(repos, cfg, log)
	sessions := service.NewSessionManager(repos, cfg.Security.SessionTTL, log)
	auth := service.NewAuthService(repos, creds, sessions, nil, nil, cfg, log)
	handlerSet := handlers.NewHandlerSet(log, cfg, repos, nil, auth, codec)

	return &testApp{engine: NewEngine(cfg, log, handlerSet, codec)}
}

func (a *testApp) do(method, path, body, cookie string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) login(t *testing.T, password string) string {
	t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/login", `{"username":"dage666","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	return cookie.Value
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == security.SessionCookieName {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLogin(t *testing.T) {
	app := newTestApp(t, "")

	rec := app.do(http.MethodPost, "/api/auth/login", `{"username":"dage666","password":"dage168"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.False(t, cookie.Secure)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), cookie.Expires, time.Minute)
}

func TestLogin_Errors(t *testing.T) {
	app := newTestApp(t, "")

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"username":`, http.StatusBadRequest, "invalid_body"},
		{"missing password", `{"username":"dage666"}`, http.StatusBadRequest, "credentials_required"},
		{"wrong password", `{"username":"dage666","password":"nope"}`, http.StatusUnauthorized, "invalid_credentials"},
		{"unknown user", `{"username":"ghost","password":"dage168"}`, http.StatusUnauthorized, "invalid_credentials"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := app.do(http.MethodPost, "/api/auth/login", tc.body, "")
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decode(t, rec)["error"])
			assert.Nil(t, sessionCookie(rec))
		})
	}
}

func TestMe(t *testing.T) {
	app := newTestApp(t, "")

	rec := app.do(http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(http.MethodGet, "/api/auth/me", "", "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	cookie := app.login(t, "dage168")
	rec = app.do(http.MethodGet, "/api/auth/me", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, "dage666", user["username"])
	assert.NotEmpty(t, user["id"])
}

func TestLogout(t *testing.T) {
	app := newTestApp(t, "")
	cookie := app.login(t, "dage168")

	for i := 0; i < 2; i++ {
		rec := app.do(http.MethodPost, "/api/auth/logout", "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		cleared := sessionCookie(rec)
		require.NotNil(t, cleared)
		assert.Equal(t, -1, cleared.MaxAge)
	}

	rec := app.do(http.MethodPost, "/api/auth/logout", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(http.MethodGet, "/api/auth/me", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// brokenDeletes fails every session delete.
type brokenDeletes struct {
	*repository.MemoryManager
}

func (m brokenDeletes) Sessions() repository.Sessions {
	return failingDeleteSessions{m.MemoryManager.Sessions()}
}

type failingDeleteSessions struct {
	repository.Sessions
}

func (failingDeleteSessions) DeleteByToken(ctx context.Context, token string) error {
	return errors.New("connection reset")
}

func TestLogout_StorageFailure(t *testing.T) {
	app := newTestAppWith(t, "", brokenDeletes{repository.NewMemoryManager()})
	cookie := app.login(t, "dage168")

	rec := app.do(http.MethodPost, "/api/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestAdminGate(t *testing.T) {
	app := newTestApp(t, "")

	rec := app.do(http.MethodGet, "/admin/orders", "", "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?from=%2Fadmin%2Forders", rec.Header().Get("Location"))

	// a forged cookie gets past the edge but not the session check
	rec = app.do(http.MethodGet, "/admin/orders", "", "forged")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?from=%2Fadmin%2Forders", rec.Header().Get("Location"))
	require.NotNil(t, sessionCookie(rec))

	cookie := app.login(t, "dage168")
	rec = app.do(http.MethodGet, "/admin", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "dage666", body["user"].(map[string]any)["username"])

	rec = app.do(http.MethodGet, "/admin/orders", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/orders", decode(t, rec)["page"])
}

func TestAdminGate_SignedCookies(t *testing.T) {
	app := newTestApp(t, "s3cret")

	rec := app.do(http.MethodGet, "/admin", "", "forged")
	assert.Equal(t, http.StatusFound, rec.Code)

	cookie := app.login(t, "dage168")
	rec = app.do(http.MethodGet, "/admin", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(http.MethodGet, "/api/auth/me", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangePassword(t *testing.T) {
	app := newTestApp(t, "")
	cookie := app.login(t, "dage168")
	other := app.login(t, "dage168")

	rec := app.do(http.MethodPost, "/api/auth/change-password", `{"currentPassword":"dage168","newPassword":"n3w-secret"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(http.MethodPost, "/api/auth/change-password", `{"currentPassword":"nope","newPassword":"n3w-secret"}`, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_current_password", decode(t, rec)["error"])

	rec = app.do(http.MethodPost, "/api/auth/change-password", `{"currentPassword":"dage168","newPassword":"short"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password_too_short", decode(t, rec)["error"])

	rec = app.do(http.MethodPost, "/api/auth/change-password", `{"newPassword":"n3w-secret"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "passwords_required", decode(t, rec)["error"])

	rec = app.do(http.MethodPost, "/api/auth/change-password", `{"currentPassword":"dage168","newPassword":"n3w-secret"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])

	for _, c := range []string{cookie, other} {
		rec = app.do(http.MethodGet, "/api/auth/me", "", c)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec = app.do(http.MethodPost, "/api/auth/login", `{"username":"dage666","password":"dage168"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	app.login(t, "n3w-secret")
}

func TestHealthAndStatus(t *testing.T) {
	app := newTestApp(t, "")

	rec := app.do(http.MethodGet, "/api/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode(t, rec)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "disabled", health["cache"])

	app.login(t, "dage168")

	rec = app.do(http.MethodGet, "/api/debug/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode(t, rec)
	assert.Equal(t, "memory", status["dbProvider"])
	counts := status["counts"].(map[string]any)
	assert.Equal(t, float64(1), counts["adminUser"])
	assert.Equal(t, float64(1), counts["session"])
}

func TestLoginPage(t *testing.T) {
	app := newTestApp(t, "")

	rec := app.do(http.MethodGet, "/login?from=%2Fadmin%2Forders", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-from="/admin/orders"`)

	rec = app.do(http.MethodGet, "/login?from=https%3A%2F%2Fevil.example", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-from=""`)
}
