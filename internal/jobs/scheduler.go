package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// PruneEnqueuer hands audit pruning to the worker.
type PruneEnqueuer interface {
	EnqueuePrune(ctx context.Context) error
}

type Scheduler struct {
	cron     *cron.Cron
	queue    PruneEnqueuer
	schedule string
	log      zerolog.Logger
}

func NewScheduler(queue PruneEnqueuer, schedule string, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		queue:    queue,
		schedule: schedule,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil || s.schedule == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.enqueuePrune); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("audit prune scheduled")
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) enqueuePrune() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.queue.EnqueuePrune(ctx); err != nil {
		s.log.Error().Err(err).Msg("enqueue audit prune failed")
	}
}
