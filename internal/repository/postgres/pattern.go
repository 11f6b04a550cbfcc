package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dayflow/dayflow-backend/internal/repository"
)

// PatternRepository implements repository.PatternRepository using PostgreSQL
type PatternRepository struct {
	db *sqlx.DB
}

// NewPatternRepository creates a new PostgreSQL pattern repository
func NewPatternRepository(db *sqlx.DB) repository.PatternRepository {
	return &PatternRepository{db: db}
}

// Get retrieves the pattern row for (user_id, pattern_type)
func (r *PatternRepository) Get(ctx context.Context, userID uuid.UUID, patternType string) (*repository.Pattern, error) {
	var pattern repository.Pattern
	query := `
		SELECT id, user_id, pattern_type, pattern_data, confidence_score, last_updated
		FROM user_patterns
		WHERE user_id = $1 AND pattern_type = $2
	`

	err := r.db.GetContext(ctx, &pattern, query, userID, patternType)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &pattern, nil
}

// Upsert writes a pattern row keyed by (user_id, pattern_type)
func (r *PatternRepository) Upsert(ctx context.Context, pattern *repository.Pattern) error {
	if pattern.ID == uuid.Nil {
		pattern.ID = uuid.New()
	}
	if pattern.LastUpdated.IsZero() {
		pattern.LastUpdated = time.Now()
	}
	if len(pattern.PatternData) == 0 {
		pattern.PatternData = []byte("{}")
	}

	query := `
		INSERT INTO user_patterns (id, user_id, pattern_type, pattern_data, confidence_score, last_updated)
		VALUES (:id, :user_id, :pattern_type, :pattern_data, :confidence_score, :last_updated)
		ON CONFLICT (user_id, pattern_type) DO UPDATE SET
			pattern_data = EXCLUDED.pattern_data,
			confidence_score = EXCLUDED.confidence_score,
			last_updated = EXCLUDED.last_updated
	`

	_, err := r.db.NamedExecContext(ctx, query, pattern)
	return err
}

// ListByUser retrieves every pattern row for a user
func (r *PatternRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]repository.Pattern, error) {
	var patterns []repository.Pattern
	query := `
		SELECT id, user_id, pattern_type, pattern_data, confidence_score, last_updated
		FROM user_patterns
		WHERE user_id = $1
		ORDER BY pattern_type
	`

	err := r.db.SelectContext(ctx, &patterns, query, userID)
	if err != nil {
		return nil, err
	}

	return patterns, nil
}
