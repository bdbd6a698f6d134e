package service

import (
	"context"
	"log"

	"github.com/wenwu/saas-platform/panel-service/internal/models"
)

// ActivityLogger records audit entries for mutating operations.
type ActivityLogger interface {
	Log(ctx context.Context, userID, action string, details map[string]interface{}) error
}

// ActivityStore extends the logger with the read side used by the
// activity endpoints.
type ActivityStore interface {
	ActivityLogger
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.ActivityLog, error)
	List(ctx context.Context, limit int) ([]*models.ActivityLog, error)
}

// logActivity writes an audit entry and only logs on failure; the audit
// trail must not fail an operation that already committed.
func logActivity(ctx context.Context, logger ActivityLogger, userID, action string, details map[string]interface{}) {
	if err := logger.Log(ctx, userID, action, details); err != nil {
		log.Printf("[Activity] failed to record %s for user %s: %v", action, userID, err)
	}
}
