package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"buhoeats/api/internal/database"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/store"
)

const restaurantColumns = `id, owner_id, name, description, address, cuisine_type, price_range,
	average_rating, total_reviews, is_active, created_at, updated_at`

type RestaurantRepository struct {
	db database.Querier
}

func NewRestaurantRepository(db database.Querier) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

func scanRestaurant(row pgx.Row) (models.Restaurant, error) {
	var r models.Restaurant
	if err := row.Scan(
		&r.ID,
		&r.OwnerID,
		&r.Name,
		&r.Description,
		&r.Address,
		&r.CuisineType,
		&r.PriceRange,
		&r.AverageRating,
		&r.TotalReviews,
		&r.IsActive,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Restaurant{}, store.ErrRestaurantNotFound
		}
		return models.Restaurant{}, err
	}
	return r, nil
}

func (r *RestaurantRepository) Create(ctx context.Context, restaurant models.Restaurant) (models.Restaurant, error) {
	const query = `
		INSERT INTO restaurants (
			owner_id, name, description, address, cuisine_type, price_range, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW()
		)
		RETURNING ` + restaurantColumns

	return scanRestaurant(r.db.QueryRow(ctx, query,
		restaurant.OwnerID,
		restaurant.Name,
		restaurant.Description,
		restaurant.Address,
		restaurant.CuisineType,
		restaurant.PriceRange,
	))
}

func (r *RestaurantRepository) GetByID(ctx context.Context, id int64) (models.Restaurant, error) {
	const query = `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1`
	return scanRestaurant(r.db.QueryRow(ctx, query, id))
}

func (r *RestaurantRepository) GetByIDForUpdate(ctx context.Context, id int64) (models.Restaurant, error) {
	const query = `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1 FOR UPDATE`
	return scanRestaurant(r.db.QueryRow(ctx, query, id))
}

func (r *RestaurantRepository) GetByOwner(ctx context.Context, ownerID int64) (models.Restaurant, error) {
	const query = `SELECT ` + restaurantColumns + ` FROM restaurants WHERE owner_id = $1 ORDER BY id LIMIT 1`
	return scanRestaurant(r.db.QueryRow(ctx, query, ownerID))
}

func (r *RestaurantRepository) List(ctx context.Context, q models.RestaurantQuery) ([]models.Restaurant, int, error) {
	var (
		where []string
		args  []any
	)
	if !q.IncludeInactive {
		where = append(where, "is_active")
	}
	if q.OwnerID != nil {
		args = append(args, *q.OwnerID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if cuisine := strings.TrimSpace(q.CuisineType); cuisine != "" {
		args = append(args, cuisine)
		where = append(where, fmt.Sprintf("cuisine_type ILIKE $%d", len(args)))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR cuisine_type ILIKE $%d OR address ILIKE $%d)", n, n, n))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM restaurants `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listArgs := append(append([]any{}, args...), q.Limit, q.Offset)
	query := fmt.Sprintf(`SELECT %s FROM restaurants %s
		ORDER BY average_rating DESC, total_reviews DESC, id ASC
		LIMIT $%d OFFSET $%d`, restaurantColumns, whereSQL, len(args)+1, len(args)+2)

	rows, err := r.db.Query(ctx, query, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	restaurants := make([]models.Restaurant, 0, q.Limit)
	for rows.Next() {
		restaurant, err := scanRestaurant(rows)
		if err != nil {
			return nil, 0, err
		}
		restaurants = append(restaurants, restaurant)
	}
	return restaurants, total, rows.Err()
}

func (r *RestaurantRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM restaurants ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (r *RestaurantRepository) Update(ctx context.Context, restaurant models.Restaurant) error {
	const query = `
		UPDATE restaurants
		SET name = $2, description = $3, address = $4, cuisine_type = $5, price_range = $6, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.db.Exec(ctx, query,
		restaurant.ID,
		restaurant.Name,
		restaurant.Description,
		restaurant.Address,
		restaurant.CuisineType,
		restaurant.PriceRange,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return store.ErrRestaurantNotFound
	}
	return nil
}

func (r *RestaurantRepository) SetRating(ctx context.Context, id int64, summary models.RatingSummary) error {
	const query = `UPDATE restaurants SET average_rating = $2, total_reviews = $3, updated_at = NOW() WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id, summary.AverageRating, summary.TotalReviews)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return store.ErrRestaurantNotFound
	}
	return nil
}

func (r *RestaurantRepository) SetActiveByOwner(ctx context.Context, ownerID int64, active bool) (int64, error) {
	const query = `UPDATE restaurants SET is_active = $2, updated_at = NOW() WHERE owner_id = $1 AND is_active <> $2`
	cmd, err := r.db.Exec(ctx, query, ownerID, active)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
