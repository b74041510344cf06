package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/api/internal/events"
	"storefront/api/internal/repository"
)

// Processor persists audit events and prunes old ones. It never touches
// sessions.
type Processor struct {
	audit     repository.AuditEvents
	retention time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

func NewProcessor(audit repository.AuditEvents, retention time.Duration, logger zerolog.Logger) *Processor {
	return &Processor{
		audit:     audit,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	payload, err := events.Decode(msg.Values)
	if err != nil {
		// a malformed message will never decode; drop it so it is acked
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("discarding malformed message")
		return nil
	}

	switch payload.Type {
	case events.TypeAudit:
		return p.handleAudit(ctx, payload)
	case events.TypePrune:
		return p.handlePrune(ctx)
	default:
		p.logger.Warn().Str("type", payload.Type).Msg("unknown task type")
		return nil
	}
}

func (p *Processor) handleAudit(ctx context.Context, payload events.Message) error {
	event, err := payload.Audit()
	if err != nil {
		p.logger.Warn().Err(err).Msg("discarding invalid audit event")
		return nil
	}
	if err := p.audit.Insert(ctx, event); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	p.logger.Debug().
		Str("kind", string(event.Kind)).
		Str("username", event.Username).
		Msg("audit event stored")
	return nil
}

func (p *Processor) handlePrune(ctx context.Context) error {
	if p.retention <= 0 {
		return nil
	}
	cutoff := p.now().Add(-p.retention)
	n, err := p.audit.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune audit events: %w", err)
	}
	p.logger.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("audit events pruned")
	return nil
}
