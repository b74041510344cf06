package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"storefront/api/internal/models"
)

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create takes a share lock on the owner row. A concurrent password change
// holds the row lock until it commits, after which the hash check fails; a
// change that starts later waits for this insert and then deletes it.
func (r *SessionRepository) Create(ctx context.Context, session models.Session, verifiedHash string) error {
	const query = `
		INSERT INTO admin_sessions (token, user_id, expires_at, created_at)
		SELECT $1, u.id, $3, NOW()
		FROM admin_users u
		WHERE u.id = $2 AND u.password_hash = $4
		FOR SHARE
	`
	cmd, err := r.db.Exec(ctx, query, session.Token, session.UserID, session.ExpiresAt, verifiedHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCredentialsChanged
	}
	return nil
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (models.Session, error) {
	const query = `
		SELECT s.token, s.user_id, s.expires_at, s.created_at,
		       u.id, u.username, u.password_hash, u.password_salt, u.created_at, u.updated_at
		FROM admin_sessions s
		JOIN admin_users u ON u.id = s.user_id
		WHERE s.token = $1
	`

	var (
		session models.Session
		user    models.AdminUser
	)
	if err := r.db.QueryRow(ctx, query, token).Scan(
		&session.Token,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.PasswordSalt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}
	session.User = &user
	return session, nil
}

func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) error {
	const query = `DELETE FROM admin_sessions WHERE token = $1`
	cmd, err := r.db.Exec(ctx, query, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	const query = `DELETE FROM admin_sessions WHERE user_id = $1`
	cmd, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *SessionRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM admin_sessions`
	var count int
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
