package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"buhoeats/api/internal/database"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/store"
)

const menuColumns = `id, restaurant_id, name, description, price::float8, category, is_available, created_at, updated_at`

type MenuRepository struct {
	db database.Querier
}

func NewMenuRepository(db database.Querier) *MenuRepository {
	return &MenuRepository{db: db}
}

func scanMenuItem(row pgx.Row) (models.MenuItem, error) {
	var item models.MenuItem
	if err := row.Scan(
		&item.ID,
		&item.RestaurantID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.Category,
		&item.IsAvailable,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.MenuItem{}, store.ErrMenuItemNotFound
		}
		return models.MenuItem{}, err
	}
	return item, nil
}

func (r *MenuRepository) List(ctx context.Context, restaurantID int64, q models.MenuQuery) ([]models.MenuItem, error) {
	const query = `
		SELECT ` + menuColumns + `
		FROM menu_items
		WHERE restaurant_id = $1
		  AND ($2 = '' OR category = $2)
		  AND (NOT $3 OR is_available)
		ORDER BY category, name
	`
	rows, err := r.db.Query(ctx, query, restaurantID, string(q.Category), q.AvailableOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *MenuRepository) GetByID(ctx context.Context, id int64) (models.MenuItem, error) {
	const query = `SELECT ` + menuColumns + ` FROM menu_items WHERE id = $1`
	return scanMenuItem(r.db.QueryRow(ctx, query, id))
}

func (r *MenuRepository) Create(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	const query = `
		INSERT INTO menu_items (restaurant_id, name, description, price, category, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING ` + menuColumns

	return scanMenuItem(r.db.QueryRow(ctx, query,
		item.RestaurantID,
		item.Name,
		item.Description,
		item.Price,
		item.Category,
		item.IsAvailable,
	))
}

func (r *MenuRepository) Update(ctx context.Context, item models.MenuItem) error {
	const query = `
		UPDATE menu_items
		SET name = $2, description = $3, price = $4, category = $5, is_available = $6, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.db.Exec(ctx, query, item.ID, item.Name, item.Description, item.Price, item.Category, item.IsAvailable)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return store.ErrMenuItemNotFound
	}
	return nil
}

func (r *MenuRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return store.ErrMenuItemNotFound
	}
	return nil
}
