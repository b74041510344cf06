package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"storefront/api/internal/models"
)

type AdminUserRepository struct {
	db DBTX
}

func NewAdminUserRepository(db DBTX) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

func (r *AdminUserRepository) FindByUsername(ctx context.Context, username string) (models.AdminUser, error) {
	const query = `
		SELECT id, username, password_hash, password_salt, created_at, updated_at
		FROM admin_users WHERE username = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, username))
}

func (r *AdminUserRepository) GetByID(ctx context.Context, id string) (models.AdminUser, error) {
	const query = `
		SELECT id, username, password_hash, password_salt, created_at, updated_at
		FROM admin_users WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// CreateIfEmpty relies on the unique username index, not on the NOT EXISTS
// guard alone: two racing callers can both see an empty table, and the
// loser's insert then becomes a no-op.
func (r *AdminUserRepository) CreateIfEmpty(ctx context.Context, user models.AdminUser) (bool, error) {
	const query = `
		INSERT INTO admin_users (id, username, password_hash, password_salt, created_at, updated_at)
		SELECT $1, $2, $3, $4, NOW(), NOW()
		WHERE NOT EXISTS (SELECT 1 FROM admin_users)
		ON CONFLICT (username) DO NOTHING
	`
	cmd, err := r.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.PasswordSalt,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *AdminUserRepository) UpdatePassword(ctx context.Context, id string, hash string, salt string) error {
	const query = `
		UPDATE admin_users
		SET password_hash = $2, password_salt = $3, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.db.Exec(ctx, query, id, hash, salt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAdminUserNotFound
	}
	return nil
}

func (r *AdminUserRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM admin_users`
	var count int
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AdminUserRepository) scanOne(row pgx.Row) (models.AdminUser, error) {
	var user models.AdminUser
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.PasswordSalt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AdminUser{}, ErrAdminUserNotFound
		}
		return models.AdminUser{}, err
	}
	return user, nil
}
