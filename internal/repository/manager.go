package repository

import (
	"context"
	"errors"
	"time"

	"storefront/api/internal/models"
)

var (
	ErrAdminUserNotFound  = errors.New("admin user not found")
	ErrSessionNotFound    = errors.New("session not found")
	// ErrCredentialsChanged means the account's password hash no longer
	// matches the one a login verified against.
	ErrCredentialsChanged = errors.New("credentials changed")
)

type AdminUsers interface {
	FindByUsername(ctx context.Context, username string) (models.AdminUser, error)
	GetByID(ctx context.Context, id string) (models.AdminUser, error)
	// CreateIfEmpty inserts user only when no account exists yet. It reports
	// whether a row was written.
	CreateIfEmpty(ctx context.Context, user models.AdminUser) (bool, error)
	UpdatePassword(ctx context.Context, id string, hash string, salt string) error
	Count(ctx context.Context) (int, error)
}

type Sessions interface {
	// Create stores session only while the owner's password hash still
	// equals verifiedHash, and returns ErrCredentialsChanged otherwise.
	Create(ctx context.Context, session models.Session, verifiedHash string) error
	// GetByToken loads the session together with its owner.
	GetByToken(ctx context.Context, token string) (models.Session, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	Count(ctx context.Context) (int, error)
}

type AuditEvents interface {
	Insert(ctx context.Context, event models.AuditEvent) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Manager vends repositories bound to one connection or transaction.
type Manager interface {
	AdminUsers() AdminUsers
	Sessions() Sessions
	AuditEvents() AuditEvents
	// WithinTx runs fn against a Manager bound to a single transaction,
	// committing when fn returns nil.
	WithinTx(ctx context.Context, fn func(tx Manager) error) error
	Ping(ctx context.Context) error
}
