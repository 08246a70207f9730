package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type AttemptPruner interface {
	PruneOld(ctx context.Context) (int64, error)
}

type SessionPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type RatingRecomputer interface {
	RecomputeAll(ctx context.Context) (int, error)
}

// Processor runs maintenance tasks pulled off the stream. A returned error
// leaves the message pending so it is claimed and retried later.
type Processor struct {
	attempts AttemptPruner
	sessions SessionPurger
	ratings  RatingRecomputer
	logger   zerolog.Logger
	now      func() time.Time
}

func NewProcessor(attempts AttemptPruner, sessions SessionPurger, ratings RatingRecomputer, logger zerolog.Logger) *Processor {
	return &Processor{
		attempts: attempts,
		sessions: sessions,
		ratings:  ratings,
		logger:   logger.With().Str("component", "tasks").Logger(),
		now:      time.Now,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	task, err := Decode(msg.Values)
	if err != nil {
		// a malformed message can never succeed, acknowledge it
		p.logger.Error().Err(err).Str("message_id", msg.ID).Msg("drop undecodable task")
		return nil
	}

	logger := p.logger.With().
		Str("message_id", msg.ID).
		Str("task_id", task.ID).
		Str("type", string(task.Type)).
		Logger()

	start := p.now()
	switch task.Type {
	case TypePruneLoginAttempts:
		removed, err := p.attempts.PruneOld(ctx)
		if err != nil {
			return fmt.Errorf("prune login attempts: %w", err)
		}
		logger.Info().Int64("removed", removed).Dur("took", p.now().Sub(start)).Msg("login attempts pruned")
	case TypePurgeSessions:
		removed, err := p.sessions.DeleteExpired(ctx, start)
		if err != nil {
			return fmt.Errorf("purge sessions: %w", err)
		}
		logger.Info().Int64("removed", removed).Dur("took", p.now().Sub(start)).Msg("expired sessions purged")
	case TypeRecomputeRatings:
		count, err := p.ratings.RecomputeAll(ctx)
		if err != nil {
			return fmt.Errorf("recompute ratings: %w", err)
		}
		logger.Info().Int("restaurants", count).Dur("took", p.now().Sub(start)).Msg("ratings recomputed")
	default:
		logger.Warn().Msg("unknown task type")
	}
	return nil
}
