package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type PostgresManager struct {
	conn Conn
	db   DBTX
}

func NewPostgresManager(conn Conn) *PostgresManager {
	return &PostgresManager{conn: conn, db: conn}
}

func (m *PostgresManager) AdminUsers() AdminUsers {
	return NewAdminUserRepository(m.db)
}

func (m *PostgresManager) Sessions() Sessions {
	return NewSessionRepository(m.db)
}

func (m *PostgresManager) AuditEvents() AuditEvents {
	return NewAuditRepository(m.db)
}

func (m *PostgresManager) WithinTx(ctx context.Context, fn func(tx Manager) error) error {
	if m.conn == nil {
		// already bound to a transaction
		return fn(m)
	}
	return pgx.BeginFunc(ctx, m.conn, func(tx pgx.Tx) error {
		return fn(&PostgresManager{db: tx})
	})
}

func (m *PostgresManager) Ping(ctx context.Context) error {
	if m.conn == nil {
		return nil
	}
	return m.conn.Ping(ctx)
}
