// Package ratelimit throttles login attempts per client ip and per email
// using the persisted attempt log. Any storage failure lets the attempt
// through.
package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"buhoeats/api/internal/config"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/store"
)

type Decision struct {
	Allowed           bool
	RemainingAttempts int
	MinutesRemaining  int
	RetryAfter        int
	BlockedBy         models.AttemptDimension
}

type Limiter struct {
	attempts    store.AttemptStore
	maxAttempts int
	lockout     time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

// NewLimiter builds a limiter over attempts. A nil now uses time.Now.
func NewLimiter(attempts store.AttemptStore, cfg config.RateLimitConfig, logger zerolog.Logger, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		attempts:    attempts,
		maxAttempts: cfg.MaxAttempts,
		lockout:     cfg.LockoutDuration,
		log:         logger.With().Str("component", "ratelimit").Logger(),
		now:         now,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (l *Limiter) open() Decision {
	return Decision{Allowed: true, RemainingAttempts: l.maxAttempts}
}

// CheckLimit reports whether a login from ip for email may proceed. The ip
// dimension is evaluated before the email one, and an empty email skips
// the email dimension.
func (l *Limiter) CheckLimit(ctx context.Context, ip, email string) Decision {
	email = NormalizeEmail(email)

	if _, err := l.PruneOld(ctx); err != nil {
		l.log.Warn().Err(err).Str("ip", ip).Msg("prune login attempts failed, allowing request")
		return l.open()
	}

	now := l.now()
	since := now.Add(-l.lockout)

	dimensions := []struct {
		dim models.AttemptDimension
		key string
	}{
		{models.AttemptDimensionIP, ip},
		{models.AttemptDimensionEmail, email},
	}

	remaining := l.maxAttempts
	for _, d := range dimensions {
		if d.key == "" {
			continue
		}
		failed, last, err := l.attempts.Failures(ctx, d.dim, d.key, since)
		if err != nil {
			l.log.Warn().Err(err).Str("ip", ip).Str("dimension", string(d.dim)).Msg("rate limit lookup failed, allowing request")
			return l.open()
		}
		if failed >= l.maxAttempts {
			until := last.Add(l.lockout)
			if now.Before(until) {
				wait := until.Sub(now)
				return Decision{
					Allowed:          false,
					MinutesRemaining: int((wait + time.Minute - 1) / time.Minute),
					RetryAfter:       int((wait + time.Second - 1) / time.Second),
					BlockedBy:        d.dim,
				}
			}
		}
		if left := l.maxAttempts - failed; left < remaining {
			remaining = left
		}
	}

	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, RemainingAttempts: remaining}
}

// RecordAttempt appends one attempt. A success clears the earlier failures
// of both the ip and the email.
func (l *Limiter) RecordAttempt(ctx context.Context, ip, email string, success bool) {
	email = NormalizeEmail(email)

	attempt := models.LoginAttempt{
		IPAddress:   ip,
		Email:       email,
		Success:     success,
		AttemptTime: l.now(),
	}
	if err := l.attempts.Record(ctx, attempt); err != nil {
		l.log.Warn().Err(err).Str("ip", ip).Bool("success", success).Msg("record login attempt failed")
		return
	}
	if !success {
		return
	}
	if err := l.attempts.ClearFailures(ctx, ip, email); err != nil {
		l.log.Warn().Err(err).Str("ip", ip).Msg("clear login failures failed")
	}
}

// PruneOld deletes attempts older than the lockout window.
func (l *Limiter) PruneOld(ctx context.Context) (int64, error) {
	return l.attempts.DeleteBefore(ctx, l.now().Add(-l.lockout))
}
