package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dayflow/dayflow-backend/internal/repository"
)

// EventRepository implements repository.EventRepository using PostgreSQL
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new PostgreSQL event repository
func NewEventRepository(db *sqlx.DB) repository.EventRepository {
	return &EventRepository{db: db}
}

// Insert writes a behavior event record
func (r *EventRepository) Insert(ctx context.Context, event *repository.BehaviorEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if len(event.Metadata) == 0 {
		event.Metadata = []byte("{}")
	}

	query := `
		INSERT INTO behavior_events (id, user_id, event_type, entity_type, entity_id, metadata, created_at)
		VALUES (:id, :user_id, :event_type, :entity_type, :entity_id, :metadata, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, event)
	return err
}

// ListRecent retrieves the most recent behavior events for a user
func (r *EventRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]repository.BehaviorEvent, error) {
	var events []repository.BehaviorEvent
	query := `
		SELECT id, user_id, event_type, entity_type, entity_id, metadata, created_at
		FROM behavior_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	err := r.db.SelectContext(ctx, &events, query, userID, limit)
	if err != nil {
		return nil, err
	}

	return events, nil
}
