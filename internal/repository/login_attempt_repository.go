package repository

import (
	"context"
	"fmt"
	"time"

	"buhoeats/api/internal/database"
	"buhoeats/api/internal/models"
)

type LoginAttemptRepository struct {
	db database.Querier
}

func NewLoginAttemptRepository(db database.Querier) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

func (r *LoginAttemptRepository) Record(ctx context.Context, attempt models.LoginAttempt) error {
	const query = `
		INSERT INTO login_attempts (ip_address, email, success, attempt_time)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, attempt.IPAddress, attempt.Email, attempt.Success, attempt.AttemptTime)
	return err
}

func (r *LoginAttemptRepository) Failures(ctx context.Context, dim models.AttemptDimension, key string, since time.Time) (int, time.Time, error) {
	var column string
	switch dim {
	case models.AttemptDimensionIP:
		column = "ip_address"
	case models.AttemptDimensionEmail:
		column = "email"
	default:
		return 0, time.Time{}, fmt.Errorf("unknown attempt dimension %q", dim)
	}

	query := fmt.Sprintf(`
		SELECT
			COUNT(*) FILTER (WHERE NOT success AND attempt_time > $2),
			COALESCE(MAX(attempt_time), 'epoch'::timestamptz)
		FROM login_attempts
		WHERE %s = $1
	`, column)

	var (
		failed int
		last   time.Time
	)
	if err := r.db.QueryRow(ctx, query, key, since).Scan(&failed, &last); err != nil {
		return 0, time.Time{}, err
	}
	return failed, last, nil
}

func (r *LoginAttemptRepository) ClearFailures(ctx context.Context, ip string, email string) error {
	const query = `
		DELETE FROM login_attempts
		WHERE NOT success AND (ip_address = $1 OR ($2 <> '' AND email = $2))
	`
	_, err := r.db.Exec(ctx, query, ip, email)
	return err
}

func (r *LoginAttemptRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM login_attempts WHERE attempt_time < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
