package repository

import (
	"context"
	"time"

	"storefront/api/internal/models"
)

type AuditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert ignores duplicates so a redelivered stream message is harmless.
func (r *AuditRepository) Insert(ctx context.Context, event models.AuditEvent) error {
	const query = `
		INSERT INTO auth_audit_events (id, kind, user_id, username, ip_address, user_agent, occurred_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		event.ID,
		string(event.Kind),
		event.UserID,
		event.Username,
		event.IPAddress,
		event.UserAgent,
		event.OccurredAt,
	)
	return err
}

func (r *AuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM auth_audit_events WHERE occurred_at < $1`
	cmd, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
