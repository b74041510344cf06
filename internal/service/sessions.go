package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"storefront/api/internal/models"
	"storefront/api/internal/repository"
	"storefront/api/internal/security"
)

// SessionManager issues, resolves and revokes opaque session tokens.
type SessionManager struct {
	repos repository.Manager
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

func NewSessionManager(repos repository.Manager, ttl time.Duration, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		repos: repos,
		ttl:   ttl,
		now:   time.Now,
		log:   log,
	}
}

// SetClock replaces the time source.
func (m *SessionManager) SetClock(now func() time.Time) {
	m.now = now
}

func (m *SessionManager) withRepos(repos repository.Manager) *SessionManager {
	clone := *m
	clone.repos = repos
	return &clone
}

// Create issues a session for an account whose password was just verified.
// If the password changed in between, nothing is stored and
// ErrInvalidCredentials is returned.
func (m *SessionManager) Create(ctx context.Context, account models.AdminUser) (models.Session, error) {
	token, err := security.GenerateSessionToken()
	if err != nil {
		return models.Session{}, err
	}

	session := models.Session{
		Token:     token,
		UserID:    account.ID,
		ExpiresAt: m.now().Add(m.ttl),
	}
	if err := m.repos.Sessions().Create(ctx, session, account.PasswordHash); err != nil {
		if errors.Is(err, repository.ErrCredentialsChanged) {
			return models.Session{}, ErrInvalidCredentials
		}
		return models.Session{}, storageError("create session", err)
	}
	return session, nil
}

// Resolve returns the live session for token. Missing and expired sessions
// both yield ErrSessionInvalid; expired rows are deleted on the way out.
func (m *SessionManager) Resolve(ctx context.Context, token string) (models.Session, error) {
	if token == "" {
		return models.Session{}, ErrSessionInvalid
	}

	session, err := m.repos.Sessions().GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.Session{}, ErrSessionInvalid
		}
		return models.Session{}, storageError("get session", err)
	}

	if session.ExpiredAt(m.now()) {
		if err := m.repos.Sessions().DeleteByToken(ctx, token); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			m.log.Warn().Err(err).Str("user_id", session.UserID).Msg("delete expired session failed")
		}
		return models.Session{}, ErrSessionInvalid
	}

	return session, nil
}

// Destroy is idempotent.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := m.repos.Sessions().DeleteByToken(ctx, token)
	if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return storageError("delete session", err)
	}
	return nil
}

func (m *SessionManager) DestroyAllForAccount(ctx context.Context, accountID string) (int64, error) {
	n, err := m.repos.Sessions().DeleteByUser(ctx, accountID)
	if err != nil {
		return 0, storageError("delete account sessions", err)
	}
	return n, nil
}
