package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dayflow/dayflow-backend/internal/models"
	"github.com/dayflow/dayflow-backend/internal/repository"
)

// PreferencesRepository implements repository.PreferencesRepository using PostgreSQL
type PreferencesRepository struct {
	db *sqlx.DB
}

// NewPreferencesRepository creates a new PostgreSQL preferences repository
func NewPreferencesRepository(db *sqlx.DB) repository.PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// Get retrieves schedule preferences for a user
func (r *PreferencesRepository) Get(ctx context.Context, userID uuid.UUID) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	query := `
		SELECT user_id, work_start_hour, work_end_hour, preferred_plan_mode, daily_task_target, updated_at
		FROM user_preferences
		WHERE user_id = $1
	`

	err := r.db.GetContext(ctx, &prefs, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &prefs, nil
}
