package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dayflow/dayflow-backend/internal/models"
	"github.com/dayflow/dayflow-backend/internal/repository"
)

// CompletionHistoryRepository implements repository.CompletionHistoryRepository using PostgreSQL
type CompletionHistoryRepository struct {
	db *sqlx.DB
}

// NewCompletionHistoryRepository creates a new PostgreSQL completion history repository
func NewCompletionHistoryRepository(db *sqlx.DB) repository.CompletionHistoryRepository {
	return &CompletionHistoryRepository{db: db}
}

// ListRecent retrieves the most recent completion records for a user
func (r *CompletionHistoryRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.CompletionRecord, error) {
	var records []models.CompletionRecord
	query := `
		SELECT id, user_id, task_id, category, scheduled_hour, completed_on_time, completed_at
		FROM completion_history
		WHERE user_id = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`

	err := r.db.SelectContext(ctx, &records, query, userID, limit)
	if err != nil {
		return nil, err
	}

	return records, nil
}
