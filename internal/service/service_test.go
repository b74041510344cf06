package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"storefront/api/internal/config"
	"storefront/api/internal/models"
	"storefront/api/internal/repository"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			SessionTTL:        7 * 24 * time.Hour,
			MinPasswordLength: 6,
		},
		Bootstrap: config.BootstrapConfig{
			Username: "dage666",
			Password: "dage168",
		},
	}
}

type fixture struct {
	repos    *repository.MemoryManager
	creds    *CredentialStore
	sessions *SessionManager
	auth     *AuthService
	events   *recordingPublisher
	limiter  *countingLimiter
}

func newFixture(cfg *config.AppConfig) *fixture {
	log := zerolog.Nop()
	repos := repository.NewMemoryManager()
	creds := NewCredentialStore(repos, cfg, log)
	sessions := NewSessionManager(repos, cfg.Security.SessionTTL, log)
	events := &recordingPublisher{}
	limiter := &countingLimiter{max: 3, failures: map[string]int{}}
	return &fixture{
		repos:    repos,
		creds:    creds,
		sessions: sessions,
		auth:     NewAuthService(repos, creds, sessions, events, limiter, cfg, log),
		events:   events,
		limiter:  limiter,
	}
}

type recordingPublisher struct {
	mu    sync.Mutex
	kinds []models.AuditKind
}

func (p *recordingPublisher) Publish(ctx context.Context, event models.AuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kinds = append(p.kinds, event.Kind)
	return nil
}

func (p *recordingPublisher) Kinds() []models.AuditKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.AuditKind(nil), p.kinds...)
}

type countingLimiter struct {
	mu       sync.Mutex
	max      int
	failures map[string]int
}

func (l *countingLimiter) Allow(ctx context.Context, subject string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures[subject] < l.max, nil
}

func (l *countingLimiter) Fail(ctx context.Context, subject string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[subject]++
	return nil
}

func (l *countingLimiter) Reset(ctx context.Context, subject string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, subject)
	return nil
}
