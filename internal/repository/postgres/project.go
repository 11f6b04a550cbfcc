package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dayflow/dayflow-backend/internal/models"
	"github.com/dayflow/dayflow-backend/internal/repository"
)

// ProjectRepository implements repository.ProjectRepository using PostgreSQL
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new PostgreSQL project repository
func NewProjectRepository(db *sqlx.DB) repository.ProjectRepository {
	return &ProjectRepository{db: db}
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	query := `SELECT id, user_id, name, status, created_at FROM projects WHERE id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, &project, query, projectID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &project, nil
}

// ListActive retrieves active projects for a user
func (r *ProjectRepository) ListActive(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	query := `SELECT id, user_id, name, status, created_at FROM projects WHERE user_id = $1 AND status = 'active' ORDER BY created_at`

	err := r.db.SelectContext(ctx, &projects, query, userID)
	if err != nil {
		return nil, err
	}

	return projects, nil
}
