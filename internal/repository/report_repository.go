package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"buhoeats/api/internal/database"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/store"
)

const reportColumns = `id, review_id, reporter_id, reason, description, status, created_at, resolved_at, resolved_by`

type ReportRepository struct {
	db database.Querier
}

func NewReportRepository(db database.Querier) *ReportRepository {
	return &ReportRepository{db: db}
}

func scanReport(row pgx.Row) (models.ReviewReport, error) {
	var report models.ReviewReport
	if err := row.Scan(
		&report.ID,
		&report.ReviewID,
		&report.ReporterID,
		&report.Reason,
		&report.Description,
		&report.Status,
		&report.CreatedAt,
		&report.ResolvedAt,
		&report.ResolvedBy,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ReviewReport{}, store.ErrReportNotFound
		}
		return models.ReviewReport{}, err
	}
	return report, nil
}

func (r *ReportRepository) Create(ctx context.Context, report models.ReviewReport) (models.ReviewReport, error) {
	const query = `
		INSERT INTO review_reports (review_id, reporter_id, reason, description, status, created_at)
		VALUES ($1, $2, $3, $4, 'pendiente', NOW())
		RETURNING ` + reportColumns

	created, err := scanReport(r.db.QueryRow(ctx, query,
		report.ReviewID,
		report.ReporterID,
		report.Reason,
		report.Description,
	))
	if database.IsUniqueViolation(err) {
		return models.ReviewReport{}, store.ErrDuplicate
	}
	return created, err
}

func (r *ReportRepository) GetForUpdate(ctx context.Context, id int64) (models.ReviewReport, error) {
	const query = `SELECT ` + reportColumns + ` FROM review_reports WHERE id = $1 FOR UPDATE`
	return scanReport(r.db.QueryRow(ctx, query, id))
}

func (r *ReportRepository) Resolve(ctx context.Context, id int64, status models.ReportStatus, adminID int64, at time.Time) (bool, error) {
	const query = `
		UPDATE review_reports
		SET status = $2, resolved_at = $3, resolved_by = $4
		WHERE id = $1 AND status = 'pendiente'
	`
	cmd, err := r.db.Exec(ctx, query, id, status, at, adminID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *ReportRepository) List(ctx context.Context, status models.ReportStatus, limit, offset int) ([]models.ReportListItem, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM review_reports WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
		SELECT rr.id, rr.review_id, rr.reporter_id, rr.reason, rr.description, rr.status,
		       rr.created_at, rr.resolved_at, rr.resolved_by,
		       TRIM(u.first_name || ' ' || u.last_name), u.email,
		       rv.rating, rv.comment, rv.user_id, rv.is_active,
		       rest.id, rest.name
		FROM review_reports rr
		JOIN users u ON u.id = rr.reporter_id
		JOIN reviews rv ON rv.id = rr.review_id
		JOIN restaurants rest ON rest.id = rv.restaurant_id
		WHERE rr.status = $1
		ORDER BY rr.created_at DESC, rr.id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]models.ReportListItem, 0, limit)
	for rows.Next() {
		var item models.ReportListItem
		if err := rows.Scan(
			&item.ID,
			&item.ReviewID,
			&item.ReporterID,
			&item.Reason,
			&item.Description,
			&item.Status,
			&item.CreatedAt,
			&item.ResolvedAt,
			&item.ResolvedBy,
			&item.ReporterName,
			&item.ReporterEmail,
			&item.ReviewRating,
			&item.ReviewComment,
			&item.ReviewAuthorID,
			&item.ReviewActive,
			&item.RestaurantID,
			&item.RestaurantName,
		); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (r *ReportRepository) CountPendingByRestaurant(ctx context.Context, restaurantID int64) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM review_reports rr
		JOIN reviews rv ON rv.id = rr.review_id
		WHERE rv.restaurant_id = $1 AND rr.status = 'pendiente'
	`
	var count int
	err := r.db.QueryRow(ctx, query, restaurantID).Scan(&count)
	return count, err
}
