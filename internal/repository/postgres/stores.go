package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/dayflow/dayflow-backend/internal/repository"
)

// NewStores builds the full repository set over one connection pool.
func NewStores(db *sqlx.DB) *repository.Stores {
	return &repository.Stores{
		Tasks:             NewTaskRepository(db),
		Habits:            NewHabitRepository(db),
		Notes:             NewNoteRepository(db),
		TimeSessions:      NewTimeSessionRepository(db),
		Projects:          NewProjectRepository(db),
		Goals:             NewGoalRepository(db),
		Certifications:    NewCertificationRepository(db),
		CompletionHistory: NewCompletionHistoryRepository(db),
		Preferences:       NewPreferencesRepository(db),
		Patterns:          NewPatternRepository(db),
		Events:            NewEventRepository(db),
	}
}
