package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/api/internal/models"
)

func seedAccount(t *testing.T, f *fixture) models.AdminUser {
	t.Helper()
	ctx := context.Background()
	_, err := f.creds.EnsureDefaultAccount(ctx)
	require.NoError(t, err)
	user, err := f.repos.AdminUsers().FindByUsername(ctx, "dage666")
	require.NoError(t, err)
	return user
}

func TestSessionManager_RoundTrip(t *testing.T) {
	f := newFixture(testConfig())
	user := seedAccount(t, f)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f.sessions.SetClock(func() time.Time { return now })

	session, err := f.sessions.Create(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, now.Add(7*24*time.Hour), session.ExpiresAt)

	resolved, err := f.sessions.Resolve(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.UserID)
	require.NotNil(t, resolved.User)
	assert.Equal(t, "dage666", resolved.User.Username)
}

func TestSessionManager_ExpiryBoundary(t *testing.T) {
	f := newFixture(testConfig())
	user := seedAccount(t, f)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	f.sessions.SetClock(func() time.Time { return now })

	session, err := f.sessions.Create(ctx, user)
	require.NoError(t, err)

	now = session.ExpiresAt.Add(-time.Nanosecond)
	_, err = f.sessions.Resolve(ctx, session.Token)
	require.NoError(t, err)

	now = session.ExpiresAt
	_, err = f.sessions.Resolve(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	count, err := f.repos.Sessions().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "expired session is deleted on lookup")
}

func TestSessionManager_UnknownToken(t *testing.T) {
	f := newFixture(testConfig())
	ctx := context.Background()

	_, err := f.sessions.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrSessionInvalid)

	_, err = f.sessions.Resolve(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestSessionManager_DestroyIdempotent(t *testing.T) {
	f := newFixture(testConfig())
	user := seedAccount(t, f)
	ctx := context.Background()

	session, err := f.sessions.Create(ctx, user)
	require.NoError(t, err)

	require.NoError(t, f.sessions.Destroy(ctx, session.Token))
	require.NoError(t, f.sessions.Destroy(ctx, session.Token))
	require.NoError(t, f.sessions.Destroy(ctx, ""))

	_, err = f.sessions.Resolve(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestSessionManager_DestroyAllForAccount(t *testing.T) {
	f := newFixture(testConfig())
	user := seedAccount(t, f)
	ctx := context.Background()

	var tokens []string
	for i := 0; i < 3; i++ {
		s, err := f.sessions.Create(ctx, user)
		require.NoError(t, err)
		tokens = append(tokens, s.Token)
	}

	n, err := f.sessions.DestroyAllForAccount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	for _, token := range tokens {
		_, err := f.sessions.Resolve(ctx, token)
		assert.ErrorIs(t, err, ErrSessionInvalid)
	}
}

func TestSessionManager_CreateForMissingAccount(t *testing.T) {
	f := newFixture(testConfig())

	_, err := f.sessions.Create(context.Background(), models.AdminUser{ID: "missing"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessionManager_CreateAfterPasswordChange(t *testing.T) {
	f := newFixture(testConfig())
	stale := seedAccount(t, f)
	ctx := context.Background()

	require.NoError(t, f.creds.ChangePassword(ctx, stale.ID, "n3w-secret"))

	_, err := f.sessions.Create(ctx, stale)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	count, err := f.repos.Sessions().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
