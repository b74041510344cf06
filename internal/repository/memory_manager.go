package repository

import (
	"context"
	"sync"
	"time"

	"storefront/api/internal/models"
)

// MemoryManager keeps everything in process memory. It backs local
// development without Postgres and the service tests. WithinTx gives no
// rollback; each call is applied immediately.
type MemoryManager struct {
	mu       sync.Mutex
	users    map[string]models.AdminUser
	sessions map[string]models.Session
	audit    map[string]models.AuditEvent
	now      func() time.Time
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		users:    make(map[string]models.AdminUser),
		sessions: make(map[string]models.Session),
		audit:    make(map[string]models.AuditEvent),
		now:      time.Now,
	}
}

func (m *MemoryManager) AdminUsers() AdminUsers   { return memoryAdminUsers{m} }
func (m *MemoryManager) Sessions() Sessions       { return memorySessions{m} }
func (m *MemoryManager) AuditEvents() AuditEvents { return memoryAudit{m} }

func (m *MemoryManager) WithinTx(ctx context.Context, fn func(tx Manager) error) error {
	return fn(m)
}

func (m *MemoryManager) Ping(ctx context.Context) error {
	return nil
}

// AuditLen is used by tests.
func (m *MemoryManager) AuditLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.audit)
}

type memoryAdminUsers struct{ m *MemoryManager }

func (r memoryAdminUsers) FindByUsername(ctx context.Context, username string) (models.AdminUser, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, user := range r.m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.AdminUser{}, ErrAdminUserNotFound
}

func (r memoryAdminUsers) GetByID(ctx context.Context, id string) (models.AdminUser, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user, ok := r.m.users[id]
	if !ok {
		return models.AdminUser{}, ErrAdminUserNotFound
	}
	return user, nil
}

func (r memoryAdminUsers) CreateIfEmpty(ctx context.Context, user models.AdminUser) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if len(r.m.users) > 0 {
		return false, nil
	}
	now := r.m.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.m.users[user.ID] = user
	return true, nil
}

func (r memoryAdminUsers) UpdatePassword(ctx context.Context, id string, hash string, salt string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user, ok := r.m.users[id]
	if !ok {
		return ErrAdminUserNotFound
	}
	user.PasswordHash = hash
	user.PasswordSalt = salt
	user.UpdatedAt = r.m.now()
	r.m.users[id] = user
	return nil
}

func (r memoryAdminUsers) Count(ctx context.Context) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return len(r.m.users), nil
}

type memorySessions struct{ m *MemoryManager }

func (r memorySessions) Create(ctx context.Context, session models.Session, verifiedHash string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user, ok := r.m.users[session.UserID]
	if !ok || user.PasswordHash != verifiedHash {
		return ErrCredentialsChanged
	}
	session.CreatedAt = r.m.now()
	session.User = nil
	r.m.sessions[session.Token] = session
	return nil
}

func (r memorySessions) GetByToken(ctx context.Context, token string) (models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	session, ok := r.m.sessions[token]
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	user, ok := r.m.users[session.UserID]
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	session.User = &user
	return session, nil
}

func (r memorySessions) DeleteByToken(ctx context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.sessions[token]; !ok {
		return ErrSessionNotFound
	}
	delete(r.m.sessions, token)
	return nil
}

func (r memorySessions) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for token, session := range r.m.sessions {
		if session.UserID == userID {
			delete(r.m.sessions, token)
			n++
		}
	}
	return n, nil
}

func (r memorySessions) Count(ctx context.Context) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return len(r.m.sessions), nil
}

type memoryAudit struct{ m *MemoryManager }

func (r memoryAudit) Insert(ctx context.Context, event models.AuditEvent) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.audit[event.ID]; !ok {
		r.m.audit[event.ID] = event
	}
	return nil
}

func (r memoryAudit) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for id, event := range r.m.audit {
		if event.OccurredAt.Before(cutoff) {
			delete(r.m.audit, id)
			n++
		}
	}
	return n, nil
}
