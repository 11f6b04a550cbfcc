package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dayflow/dayflow-backend/internal/models"
	"github.com/dayflow/dayflow-backend/internal/repository"
)

// GoalRepository implements repository.GoalRepository using PostgreSQL
type GoalRepository struct {
	db *sqlx.DB
}

// NewGoalRepository creates a new PostgreSQL goal repository
func NewGoalRepository(db *sqlx.DB) repository.GoalRepository {
	return &GoalRepository{db: db}
}

// ListActive retrieves active goals for a user
func (r *GoalRepository) ListActive(ctx context.Context, userID uuid.UUID) ([]models.Goal, error) {
	var goals []models.Goal
	query := `SELECT id, user_id, title, status, target_date, created_at FROM goals WHERE user_id = $1 AND status = 'active' ORDER BY created_at`

	err := r.db.SelectContext(ctx, &goals, query, userID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}
