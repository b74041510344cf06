package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"storefront/api/internal/config"
	"storefront/api/internal/ids"
	"storefront/api/internal/models"
	"storefront/api/internal/repository"
)

// EventPublisher receives auth audit events. Publishing is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, event models.AuditEvent) error
}

// LoginLimiter tracks failed logins per subject.
type LoginLimiter interface {
	Allow(ctx context.Context, subject string) (bool, error)
	Fail(ctx context.Context, subject string) error
	Reset(ctx context.Context, subject string) error
}

type AuthService struct {
	repos       repository.Manager
	credentials *CredentialStore
	sessions    *SessionManager
	events      EventPublisher
	limiter     LoginLimiter
	minPassword int
	log         zerolog.Logger
}

func NewAuthService(
	repos repository.Manager,
	credentials *CredentialStore,
	sessions *SessionManager,
	events EventPublisher,
	limiter LoginLimiter,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repos:       repos,
		credentials: credentials,
		sessions:    sessions,
		events:      events,
		limiter:     limiter,
		minPassword: cfg.Security.MinPasswordLength,
		log:         log,
	}
}

func (s *AuthService) Credentials() *CredentialStore { return s.credentials }
func (s *AuthService) Sessions() *SessionManager     { return s.sessions }

// ClientMeta describes the caller for audit purposes.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

type LoginInput struct {
	Username string
	Password string
	Client   ClientMeta
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (models.Session, error) {
	if _, err := s.credentials.EnsureDefaultAccount(ctx); err != nil {
		return models.Session{}, err
	}

	if input.Username == "" || input.Password == "" {
		return models.Session{}, ErrCredentialsRequired
	}

	subject := input.Client.IPAddress + ":" + input.Username
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, subject)
		if err != nil {
			s.log.Warn().Err(err).Msg("login limiter unavailable")
		} else if !allowed {
			s.publish(ctx, models.AuditLoginThrottled, "", input.Username, input.Client)
			return models.Session{}, ErrTooManyAttempts
		}
	}

	user, err := s.credentials.Authenticate(ctx, input.Username, input.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			if s.limiter != nil {
				if ferr := s.limiter.Fail(ctx, subject); ferr != nil {
					s.log.Warn().Err(ferr).Msg("record login failure")
				}
			}
			s.publish(ctx, models.AuditLoginFailed, "", input.Username, input.Client)
		}
		return models.Session{}, err
	}

	session, err := s.sessions.Create(ctx, user)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.publish(ctx, models.AuditLoginFailed, user.ID, user.Username, input.Client)
		}
		return models.Session{}, err
	}
	session.User = &user

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, subject); err != nil {
			s.log.Warn().Err(err).Msg("reset login failures")
		}
	}
	s.publish(ctx, models.AuditLoginSucceeded, user.ID, user.Username, input.Client)

	return session, nil
}

// Logout destroys the session behind token, if any. Storage failures are
// logged and swallowed so logging out always succeeds for the caller.
func (s *AuthService) Logout(ctx context.Context, token string, client ClientMeta) {
	if token == "" {
		return
	}

	var userID, username string
	session, err := s.sessions.Resolve(ctx, token)
	switch {
	case err == nil && session.User != nil:
		userID, username = session.UserID, session.User.Username
	case err != nil && !errors.Is(err, ErrSessionInvalid):
		s.log.Warn().Err(err).Msg("resolve session on logout failed")
	}

	if err := s.sessions.Destroy(ctx, token); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("destroy session on logout failed")
		return
	}
	if userID != "" {
		s.publish(ctx, models.AuditLogout, userID, username, client)
	}
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	Client          ClientMeta
}

// ChangePassword verifies the current password, then rewrites the hash and
// wipes every session of the account in one transaction. Once it returns
// nil no session minted under the old password is valid.
func (s *AuthService) ChangePassword(ctx context.Context, session models.Session, input ChangePasswordInput) error {
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return ErrPasswordsRequired
	}
	if utf8.RuneCountInString(input.NewPassword) < s.minPassword {
		return ErrPasswordTooShort
	}

	user, err := s.credentials.CheckPassword(ctx, session.UserID, input.CurrentPassword)
	if err != nil {
		return err
	}

	var revoked int64
	err = s.repos.WithinTx(ctx, func(tx repository.Manager) error {
		if err := s.credentials.withRepos(tx).ChangePassword(ctx, user.ID, input.NewPassword); err != nil {
			return err
		}
		n, err := s.sessions.withRepos(tx).DestroyAllForAccount(ctx, user.ID)
		revoked = n
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("user_id", user.ID).
		Int64("revoked_sessions", revoked).
		Msg("admin password changed")
	s.publish(ctx, models.AuditPasswordChanged, user.ID, user.Username, input.Client)
	return nil
}

type Status struct {
	AdminUsers int
	Sessions   int
}

func (s *AuthService) Status(ctx context.Context) (Status, error) {
	users, err := s.repos.AdminUsers().Count(ctx)
	if err != nil {
		return Status{}, storageError("count admin users", err)
	}
	sessions, err := s.repos.Sessions().Count(ctx)
	if err != nil {
		return Status{}, storageError("count sessions", err)
	}
	return Status{AdminUsers: users, Sessions: sessions}, nil
}

func (s *AuthService) publish(ctx context.Context, kind models.AuditKind, userID, username string, client ClientMeta) {
	if s.events == nil {
		return
	}
	event := models.AuditEvent{
		ID:         ids.New(),
		Kind:       kind,
		UserID:     userID,
		Username:   username,
		IPAddress:  client.IPAddress,
		UserAgent:  client.UserAgent,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("kind", string(event.Kind)).Msg("publish audit event failed")
	}
}
