package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dayflow/dayflow-backend/internal/models"
	"github.com/dayflow/dayflow-backend/internal/repository"
)

// NoteRepository implements repository.NoteRepository using PostgreSQL
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository creates a new PostgreSQL note repository
func NewNoteRepository(db *sqlx.DB) repository.NoteRepository {
	return &NoteRepository{db: db}
}

// ListRecent retrieves the most recent notes for a user
func (r *NoteRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Note, error) {
	var notes []models.Note
	query := `SELECT id, user_id, content, created_at FROM notes WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	err := r.db.SelectContext(ctx, &notes, query, userID, limit)
	if err != nil {
		return nil, err
	}

	return notes, nil
}
