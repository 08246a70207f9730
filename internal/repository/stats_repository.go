package repository

import (
	"context"

	"buhoeats/api/internal/database"
	"buhoeats/api/internal/models"
)

type StatsRepository struct {
	db database.Querier
}

func NewStatsRepository(db database.Querier) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) Platform(ctx context.Context) (models.PlatformStats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM restaurants),
			(SELECT COUNT(*) FROM reviews WHERE is_active),
			(SELECT COUNT(*) FROM review_reports WHERE status = 'pendiente'),
			(SELECT COUNT(*) FROM users WHERE NOT is_active)
	`
	var stats models.PlatformStats
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.TotalRestaurants,
		&stats.TotalReviews,
		&stats.PendingReports,
		&stats.BannedUsers,
	)
	return stats, err
}
