package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/placement-api/internal/models"
)

// ActivityRepository persists lifecycle activity logs.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Insert stores a single activity row.
func (r *ActivityRepository) Insert(ctx context.Context, entry models.ActivityLog) error {
	const query = `INSERT INTO activity_logs (id, actor_id, actor_role, action, description, related_entity_id, created_at)
VALUES (:id, :actor_id, :actor_role, :action, :description, :related_entity_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

// List returns activity rows newest first with the total count.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error) {
	var conditions []string
	var args []interface{}

	if filter.ActorID != "" {
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", len(args)+1))
		args = append(args, filter.ActorID)
	}
	if filter.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)+1))
		args = append(args, filter.Action)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM activity_logs"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count activity logs: %w", err)
	}

	page, size := models.Normalize(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT id, actor_id, actor_role, action, description, related_entity_id, created_at FROM activity_logs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		clause, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	var logs []models.ActivityLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list activity logs: %w", err)
	}
	return logs, total, nil
}
