// Package repository defines the storage contracts the personalization
// engine reads from and the two tables it owns (user_patterns,
// behavior_events). Get-style methods return (nil, nil) when no row exists.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dayflow/dayflow-backend/internal/models"
)

// Pattern is a persisted per-user, per-signal-type estimate. PatternData is
// a JSON document whose shape depends on PatternType; confidence is always
// in [0,1].
type Pattern struct {
	ID              uuid.UUID `db:"id"`
	UserID          uuid.UUID `db:"user_id"`
	PatternType     string    `db:"pattern_type"`
	PatternData     []byte    `db:"pattern_data"`
	ConfidenceScore float64   `db:"confidence_score"`
	LastUpdated     time.Time `db:"last_updated"`
}

// BehaviorEvent is the durable mirror of a bus event.
type BehaviorEvent struct {
	ID         uuid.UUID     `db:"id"`
	UserID     uuid.UUID     `db:"user_id"`
	EventType  string        `db:"event_type"`
	EntityType string        `db:"entity_type"`
	EntityID   uuid.NullUUID `db:"entity_id"`
	Metadata   []byte        `db:"metadata"`
	CreatedAt  time.Time     `db:"created_at"`
}

// TaskRepository defines task reads used by prediction and aggregation
type TaskRepository interface {
	Get(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error)
	ListByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]models.Task, error)
	ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Task, error)
	ListIncompleteBetween(ctx context.Context, userID uuid.UUID, from, to time.Time, limit int) ([]models.Task, error)
	ListIncomplete(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	ListByCategory(ctx context.Context, userID uuid.UUID, category string, limit int) ([]models.Task, error)
	CountIncompleteOnDate(ctx context.Context, userID uuid.UUID, date time.Time) (int, error)
}

// HabitRepository defines habit and habit-check reads
type HabitRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Habit, error)
	ChecksOnDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]models.HabitCheck, error)
}

// NoteRepository defines note reads for the mood classifier
type NoteRepository interface {
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Note, error)
}

// TimeSessionRepository defines time-tracking reads
type TimeSessionRepository interface {
	ListSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]models.TimeSession, error)
	ListByTask(ctx context.Context, userID, taskID uuid.UUID) ([]models.TimeSession, error)
}

// ProjectRepository defines project reads
type ProjectRepository interface {
	Get(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error)
	ListActive(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
}

// GoalRepository defines goal reads
type GoalRepository interface {
	ListActive(ctx context.Context, userID uuid.UUID) ([]models.Goal, error)
}

// CertificationRepository defines certification, module and progress reads
type CertificationRepository interface {
	Get(ctx context.Context, userID, certID uuid.UUID) (*models.Certification, error)
	GetModule(ctx context.Context, moduleID uuid.UUID) (*models.CertificationModule, error)
	ListProgressBelowComplete(ctx context.Context, userID uuid.UUID) ([]models.CertificationProgress, error)
}

// CompletionHistoryRepository defines completion-history sampling
type CompletionHistoryRepository interface {
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.CompletionRecord, error)
}

// PreferencesRepository defines schedule preference reads
type PreferencesRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.UserPreferences, error)
}

// PatternRepository owns the user_patterns table. Upsert is keyed by
// (user_id, pattern_type); rows are superseded, never deleted.
type PatternRepository interface {
	Get(ctx context.Context, userID uuid.UUID, patternType string) (*Pattern, error)
	Upsert(ctx context.Context, pattern *Pattern) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Pattern, error)
}

// EventRepository owns the behavior_events table.
type EventRepository interface {
	Insert(ctx context.Context, event *BehaviorEvent) error
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]BehaviorEvent, error)
}

// Stores groups every repository the engine consumes. The composition root
// fills it once and hands it to the services.
type Stores struct {
	Tasks             TaskRepository
	Habits            HabitRepository
	Notes             NoteRepository
	TimeSessions      TimeSessionRepository
	Projects          ProjectRepository
	Goals             GoalRepository
	Certifications    CertificationRepository
	CompletionHistory CompletionHistoryRepository
	Preferences       PreferencesRepository
	Patterns          PatternRepository
	Events            EventRepository
}
