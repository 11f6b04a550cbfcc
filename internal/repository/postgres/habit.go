package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dayflow/dayflow-backend/internal/models"
	"github.com/dayflow/dayflow-backend/internal/repository"
)

// HabitRepository implements repository.HabitRepository using PostgreSQL
type HabitRepository struct {
	db *sqlx.DB
}

// NewHabitRepository creates a new PostgreSQL habit repository
func NewHabitRepository(db *sqlx.DB) repository.HabitRepository {
	return &HabitRepository{db: db}
}

// List retrieves all habits for a user
func (r *HabitRepository) List(ctx context.Context, userID uuid.UUID) ([]models.Habit, error) {
	var habits []models.Habit
	query := `SELECT id, user_id, name, streak, created_at FROM habits WHERE user_id = $1 ORDER BY created_at`

	err := r.db.SelectContext(ctx, &habits, query, userID)
	if err != nil {
		return nil, err
	}

	return habits, nil
}

// ChecksOnDate retrieves habit checks recorded on a date
func (r *HabitRepository) ChecksOnDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]models.HabitCheck, error) {
	var checks []models.HabitCheck
	query := `SELECT id, habit_id, user_id, check_date FROM habit_checks WHERE user_id = $1 AND check_date = $2`

	err := r.db.SelectContext(ctx, &checks, query, userID, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	return checks, nil
}
