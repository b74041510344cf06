package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"storefront/api/internal/config"
	"storefront/api/internal/ids"
	"storefront/api/internal/models"
	"storefront/api/internal/repository"
	"storefront/api/internal/security"
)

// CredentialStore owns password verification and rotation for admin
// accounts.
type CredentialStore struct {
	repos           repository.Manager
	bootstrap       config.BootstrapConfig
	dummyHashOnMiss bool
	log             zerolog.Logger
}

func NewCredentialStore(repos repository.Manager, cfg *config.AppConfig, log zerolog.Logger) *CredentialStore {
	return &CredentialStore{
		repos:           repos,
		bootstrap:       cfg.Bootstrap,
		dummyHashOnMiss: cfg.Security.DummyHashOnMiss,
		log:             log,
	}
}

func (s *CredentialStore) withRepos(repos repository.Manager) *CredentialStore {
	clone := *s
	clone.repos = repos
	return &clone
}

// EnsureDefaultAccount creates the bootstrap account when none exists. It is
// safe to run concurrently from several processes.
func (s *CredentialStore) EnsureDefaultAccount(ctx context.Context) (bool, error) {
	users := s.repos.AdminUsers()

	count, err := users.Count(ctx)
	if err != nil {
		return false, storageError("count admin users", err)
	}
	if count > 0 {
		return false, nil
	}

	hash, salt, err := security.HashPassword(s.bootstrap.Password)
	if err != nil {
		return false, err
	}

	created, err := users.CreateIfEmpty(ctx, models.AdminUser{
		ID:           ids.New(),
		Username:     s.bootstrap.Username,
		PasswordHash: hash,
		PasswordSalt: salt,
	})
	if err != nil {
		return false, storageError("create default admin", err)
	}
	if created {
		s.log.Warn().
			Str("username", s.bootstrap.Username).
			Msg("default admin account created, change its password")
	}
	return created, nil
}

// Authenticate returns the account for username when password matches.
// Unknown usernames and wrong passwords are indistinguishable to callers.
func (s *CredentialStore) Authenticate(ctx context.Context, username string, password string) (models.AdminUser, error) {
	user, err := s.repos.AdminUsers().FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAdminUserNotFound) {
			if s.dummyHashOnMiss {
				security.DummyVerify(password)
			}
			return models.AdminUser{}, ErrInvalidCredentials
		}
		return models.AdminUser{}, storageError("find admin user", err)
	}

	if !security.VerifyPassword(password, user.PasswordHash, user.PasswordSalt) {
		return models.AdminUser{}, ErrInvalidCredentials
	}
	return user, nil
}

// CheckPassword re-verifies the password of an already identified account.
func (s *CredentialStore) CheckPassword(ctx context.Context, accountID string, password string) (models.AdminUser, error) {
	user, err := s.repos.AdminUsers().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAdminUserNotFound) {
			return models.AdminUser{}, ErrNotFound
		}
		return models.AdminUser{}, storageError("get admin user", err)
	}
	if !security.VerifyPassword(password, user.PasswordHash, user.PasswordSalt) {
		return models.AdminUser{}, ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword rewrites hash and salt. Callers must also destroy the
// account's sessions before reporting success.
func (s *CredentialStore) ChangePassword(ctx context.Context, accountID string, newPassword string) error {
	hash, salt, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repos.AdminUsers().UpdatePassword(ctx, accountID, hash, salt); err != nil {
		if errors.Is(err, repository.ErrAdminUserNotFound) {
			return ErrNotFound
		}
		return storageError("update password", err)
	}
	return nil
}
