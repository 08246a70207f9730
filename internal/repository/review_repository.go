package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"buhoeats/api/internal/database"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/store"
)

const reviewColumns = `id, restaurant_id, user_id, rating, comment, visit_date, is_active, created_at, updated_at`

type ReviewRepository struct {
	db database.Querier
}

func NewReviewRepository(db database.Querier) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func scanReview(row pgx.Row) (models.Review, error) {
	var review models.Review
	if err := row.Scan(
		&review.ID,
		&review.RestaurantID,
		&review.UserID,
		&review.Rating,
		&review.Comment,
		&review.VisitDate,
		&review.IsActive,
		&review.CreatedAt,
		&review.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Review{}, store.ErrReviewNotFound
		}
		return models.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) Create(ctx context.Context, review models.Review) (models.Review, error) {
	const query = `
		INSERT INTO reviews (
			restaurant_id, user_id, rating, comment, visit_date, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, TRUE, NOW(), NOW()
		)
		RETURNING ` + reviewColumns

	created, err := scanReview(r.db.QueryRow(ctx, query,
		review.RestaurantID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.VisitDate,
	))
	if database.IsUniqueViolation(err) {
		return models.Review{}, store.ErrDuplicate
	}
	return created, err
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (models.Review, error) {
	const query = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	return scanReview(r.db.QueryRow(ctx, query, id))
}

func (r *ReviewRepository) GetByIDForUpdate(ctx context.Context, id int64) (models.Review, error) {
	const query = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1 FOR UPDATE`
	return scanReview(r.db.QueryRow(ctx, query, id))
}

func (r *ReviewRepository) FindActiveByPair(ctx context.Context, userID, restaurantID int64) (models.Review, error) {
	const query = `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE user_id = $1 AND restaurant_id = $2 AND is_active
		ORDER BY id DESC
		LIMIT 1
		FOR UPDATE
	`
	return scanReview(r.db.QueryRow(ctx, query, userID, restaurantID))
}

func (r *ReviewRepository) Update(ctx context.Context, review models.Review) error {
	const query = `
		UPDATE reviews SET rating = $2, comment = $3, visit_date = $4, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.db.Exec(ctx, query, review.ID, review.Rating, review.Comment, review.VisitDate)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return store.ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	const query = `UPDATE reviews SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *ReviewRepository) DeactivateByUser(ctx context.Context, userID int64) ([]int64, error) {
	const query = `
		WITH affected AS (
			UPDATE reviews SET is_active = FALSE, updated_at = NOW()
			WHERE user_id = $1 AND is_active
			RETURNING restaurant_id
		)
		SELECT DISTINCT restaurant_id FROM affected ORDER BY restaurant_id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (r *ReviewRepository) ListByRestaurant(ctx context.Context, restaurantID int64, limit, offset int) ([]models.Review, int, error) {
	var total int
	const countQuery = `SELECT COUNT(*) FROM reviews WHERE restaurant_id = $1 AND is_active`
	if err := r.db.QueryRow(ctx, countQuery, restaurantID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
		SELECT r.id, r.restaurant_id, r.user_id, r.rating, r.comment, r.visit_date, r.is_active,
		       r.created_at, r.updated_at, TRIM(u.first_name || ' ' || u.last_name)
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.restaurant_id = $1 AND r.is_active
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, restaurantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reviews := make([]models.Review, 0, limit)
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(
			&review.ID,
			&review.RestaurantID,
			&review.UserID,
			&review.Rating,
			&review.Comment,
			&review.VisitDate,
			&review.IsActive,
			&review.CreatedAt,
			&review.UpdatedAt,
			&review.AuthorName,
		); err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, review)
	}
	return reviews, total, rows.Err()
}

func (r *ReviewRepository) ActiveSummary(ctx context.Context, restaurantID int64) (models.RatingSummary, error) {
	const query = `
		SELECT COUNT(*), COALESCE(AVG(rating), 0)::float8
		FROM reviews
		WHERE restaurant_id = $1 AND is_active
	`
	var summary models.RatingSummary
	if err := r.db.QueryRow(ctx, query, restaurantID).Scan(&summary.TotalReviews, &summary.AverageRating); err != nil {
		return models.RatingSummary{}, err
	}
	return summary, nil
}

func (r *ReviewRepository) Distribution(ctx context.Context, restaurantID int64) (map[int]int, error) {
	const query = `
		SELECT rating, COUNT(*)
		FROM reviews
		WHERE restaurant_id = $1 AND is_active
		GROUP BY rating
	`
	rows, err := r.db.Query(ctx, query, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	distribution := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, err
		}
		distribution[rating] = count
	}
	return distribution, rows.Err()
}
