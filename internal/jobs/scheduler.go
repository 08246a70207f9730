package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"buhoeats/api/internal/tasks"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, values map[string]any) (string, error)
}

// Scheduler enqueues the maintenance tasks on a cron schedule with a
// seconds field. The worker binary does the actual work.
type Scheduler struct {
	cron     *cron.Cron
	queue    Enqueuer
	schedule string
	log      zerolog.Logger
	now      func() time.Time
}

func NewScheduler(queue Enqueuer, schedule string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		queue:    queue,
		schedule: schedule,
		log:      log.With().Str("component", "scheduler").Logger(),
		now:      time.Now,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil || s.schedule == "" {
		s.log.Info().Msg("maintenance scheduling disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.enqueueMaintenance); err != nil {
		return fmt.Errorf("schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("scheduler started")
	return nil
}

// Stop waits up to five seconds for a running enqueue to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) enqueueMaintenance() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, taskType := range tasks.MaintenanceTypes {
		task := tasks.New(taskType, s.now())
		id, err := s.queue.Enqueue(ctx, task.Values())
		if err != nil {
			s.log.Error().Err(err).Str("type", string(taskType)).Msg("enqueue task failed")
			continue
		}
		s.log.Debug().Str("type", string(taskType)).Str("message_id", id).Msg("task enqueued")
	}
}
