package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dayflow/dayflow-backend/internal/models"
	"github.com/dayflow/dayflow-backend/internal/repository"
)

// TimeSessionRepository implements repository.TimeSessionRepository using PostgreSQL
type TimeSessionRepository struct {
	db *sqlx.DB
}

// NewTimeSessionRepository creates a new PostgreSQL time session repository
func NewTimeSessionRepository(db *sqlx.DB) repository.TimeSessionRepository {
	return &TimeSessionRepository{db: db}
}

const sessionColumns = `id, user_id, task_id, category, started_at, ended_at, estimated_minutes, actual_minutes`

// ListSince retrieves sessions started after a point in time
func (r *TimeSessionRepository) ListSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]models.TimeSession, error) {
	var sessions []models.TimeSession
	query := `
		SELECT ` + sessionColumns + `
		FROM time_sessions
		WHERE user_id = $1 AND started_at >= $2
		ORDER BY started_at DESC
		LIMIT $3
	`

	err := r.db.SelectContext(ctx, &sessions, query, userID, since, limit)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

// ListByTask retrieves all sessions recorded against a task
func (r *TimeSessionRepository) ListByTask(ctx context.Context, userID, taskID uuid.UUID) ([]models.TimeSession, error) {
	var sessions []models.TimeSession
	query := `SELECT ` + sessionColumns + ` FROM time_sessions WHERE user_id = $1 AND task_id = $2 ORDER BY started_at`

	err := r.db.SelectContext(ctx, &sessions, query, userID, taskID)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}
