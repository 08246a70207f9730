package repository

import (
	"context"

	"buhoeats/api/internal/database"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/store"
)

type FavoriteRepository struct {
	db database.Querier
}

func NewFavoriteRepository(db database.Querier) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) Add(ctx context.Context, userID, restaurantID int64) error {
	const query = `INSERT INTO user_favorites (user_id, restaurant_id, created_at) VALUES ($1, $2, NOW())`
	_, err := r.db.Exec(ctx, query, userID, restaurantID)
	if database.IsUniqueViolation(err) {
		return store.ErrDuplicate
	}
	return err
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, restaurantID int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM user_favorites WHERE user_id = $1 AND restaurant_id = $2`, userID, restaurantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return store.ErrFavoriteNotFound
	}
	return nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, restaurantID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM user_favorites WHERE user_id = $1 AND restaurant_id = $2)`
	var exists bool
	err := r.db.QueryRow(ctx, query, userID, restaurantID).Scan(&exists)
	return exists, err
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID int64) ([]models.Restaurant, error) {
	const query = `
		SELECT r.id, r.owner_id, r.name, r.description, r.address, r.cuisine_type, r.price_range,
		       r.average_rating, r.total_reviews, r.is_active, r.created_at, r.updated_at
		FROM user_favorites f
		JOIN restaurants r ON r.id = f.restaurant_id
		WHERE f.user_id = $1 AND r.is_active
		ORDER BY f.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var restaurants []models.Restaurant
	for rows.Next() {
		restaurant, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		restaurants = append(restaurants, restaurant)
	}
	return restaurants, rows.Err()
}
