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

const userColumns = `id, first_name, last_name, email, password_hash, role, strikes, is_active, created_at, updated_at`

type UserRepository struct {
	db database.Querier
}

func NewUserRepository(db database.Querier) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Strikes,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, store.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (
			first_name, last_name, email, password_hash, role, strikes, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, 0, TRUE, NOW(), NOW()
		)
		RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Role,
	))
	if database.IsUniqueViolation(err) {
		return models.User{}, store.ErrDuplicate
	}
	return created, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id int64) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) List(ctx context.Context, q models.UserQuery) ([]models.User, int, error) {
	var (
		where []string
		args  []any
	)
	switch q.Filter {
	case models.UserFilterBanned:
		where = append(where, "is_active = FALSE")
	case models.UserFilterWithStrikes:
		where = append(where, "strikes > 0")
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		args = append(args, "%"+search+"%")
		where = append(where, fmt.Sprintf("(first_name || ' ' || last_name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listArgs := append(append([]any{}, args...), q.Limit, q.Offset)
	query := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		userColumns, whereSQL, len(args)+1, len(args)+2)

	rows, err := r.db.Query(ctx, query, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]models.User, 0, q.Limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

func (r *UserRepository) IncrementStrikes(ctx context.Context, id int64) (int, error) {
	const query = `
		UPDATE users SET strikes = strikes + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING strikes
	`
	var strikes int
	if err := r.db.QueryRow(ctx, query, id).Scan(&strikes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, store.ErrUserNotFound
		}
		return 0, err
	}
	return strikes, nil
}

func (r *UserRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	const query = `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *UserRepository) Ban(ctx context.Context, id int64, strikes int) error {
	const query = `UPDATE users SET is_active = FALSE, strikes = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id, strikes)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Unban(ctx context.Context, id int64, resetStrikes bool) error {
	const query = `
		UPDATE users
		SET is_active = TRUE,
		    strikes = CASE WHEN $2::boolean THEN 0 ELSE strikes END,
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.db.Exec(ctx, query, id, resetStrikes)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}
	return nil
}
