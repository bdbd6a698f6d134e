package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wenwu/saas-platform/panel-service/internal/models"
)

type ActivityRepository struct {
	pool *pgxpool.Pool
}

func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

// Create creates a new activity log entry
func (r *ActivityRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO panel.activity_logs (id, user_id, action, details)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, entry.ID, entry.UserID, entry.Action, entry.Details)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}

	return nil
}

// Log is a helper to record an action with details
func (r *ActivityRepository) Log(ctx context.Context, userID, action string, details map[string]interface{}) error {
	return r.Create(ctx, &models.ActivityLog{
		UserID:  userID,
		Action:  action,
		Details: details,
	})
}

// ListByUser retrieves a user's activity, newest first
func (r *ActivityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, action, details, created_at
		FROM panel.activity_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity logs: %w", err)
	}
	defer rows.Close()

	return r.scanLogs(rows)
}

// List retrieves all activity, newest first
func (r *ActivityRepository) List(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, user_id, action, details, created_at
		FROM panel.activity_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity logs: %w", err)
	}
	defer rows.Close()

	return r.scanLogs(rows)
}

func (r *ActivityRepository) scanLogs(rows pgx.Rows) ([]*models.ActivityLog, error) {
	var entries []*models.ActivityLog
	for rows.Next() {
		entry := &models.ActivityLog{}
		err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.Details, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
