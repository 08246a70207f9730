package repository

import (
	"context"

	"buhoeats/api/internal/database"
	"buhoeats/api/internal/models"
)

type AuditRepository struct {
	db database.Querier
}

func NewAuditRepository(db database.Querier) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, entry models.AuditEntry) error {
	const query = `
		INSERT INTO admin_audit (admin_id, action, target_user_id, reason, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	_, err := r.db.Exec(ctx, query, entry.AdminID, entry.Action, entry.TargetUserID, entry.Reason)
	return err
}

func (r *AuditRepository) List(ctx context.Context, limit, offset int) ([]models.AuditEntry, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM admin_audit`).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
		SELECT id, admin_id, action, target_user_id, reason, created_at
		FROM admin_audit
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0, limit)
	for rows.Next() {
		var entry models.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.AdminID,
			&entry.Action,
			&entry.TargetUserID,
			&entry.Reason,
			&entry.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}
