package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dayflow/dayflow-backend/internal/models"
	"github.com/dayflow/dayflow-backend/internal/repository"
)

// CertificationRepository implements repository.CertificationRepository using PostgreSQL
type CertificationRepository struct {
	db *sqlx.DB
}

// NewCertificationRepository creates a new PostgreSQL certification repository
func NewCertificationRepository(db *sqlx.DB) repository.CertificationRepository {
	return &CertificationRepository{db: db}
}

// Get retrieves a certification by ID
func (r *CertificationRepository) Get(ctx context.Context, userID, certID uuid.UUID) (*models.Certification, error) {
	var cert models.Certification
	query := `SELECT id, user_id, name, exam_date, created_at FROM certifications WHERE id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, &cert, query, certID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &cert, nil
}

// GetModule retrieves a certification module by ID
func (r *CertificationRepository) GetModule(ctx context.Context, moduleID uuid.UUID) (*models.CertificationModule, error) {
	var module models.CertificationModule
	query := `SELECT id, certification_id, name, position FROM certification_modules WHERE id = $1`

	err := r.db.GetContext(ctx, &module, query, moduleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &module, nil
}

// ListProgressBelowComplete retrieves certification progress rows under 100%
func (r *CertificationRepository) ListProgressBelowComplete(ctx context.Context, userID uuid.UUID) ([]models.CertificationProgress, error) {
	var rows []models.CertificationProgress
	query := `
		SELECT id, user_id, certification_id, percent_complete, updated_at
		FROM certification_progress
		WHERE user_id = $1 AND percent_complete < 100
		ORDER BY updated_at DESC
	`

	err := r.db.SelectContext(ctx, &rows, query, userID)
	if err != nil {
		return nil, err
	}

	return rows, nil
}
