package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dayflow/dayflow-backend/internal/models"
	"github.com/dayflow/dayflow-backend/internal/repository"
)

// TaskRepository implements repository.TaskRepository using PostgreSQL
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new PostgreSQL task repository
func NewTaskRepository(db *sqlx.DB) repository.TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, user_id, project_id, certification_id, module_id, title, category,
	task_date, scheduled_start, scheduled_minutes, estimated_minutes, done, completed_at, created_at`

// Get retrieves a task by ID
func (r *TaskRepository) Get(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	var task models.Task
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, &task, query, taskID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &task, nil
}

// ListByDate retrieves all tasks scheduled on a date
func (r *TaskRepository) ListByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]models.Task, error) {
	var tasks []models.Task
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 AND task_date = $2 ORDER BY scheduled_start NULLS LAST, created_at`

	err := r.db.SelectContext(ctx, &tasks, query, userID, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// ListBetween retrieves all tasks dated inside a range, inclusive
func (r *TaskRepository) ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Task, error) {
	var tasks []models.Task
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND task_date >= $2 AND task_date <= $3
		ORDER BY task_date, created_at
	`

	err := r.db.SelectContext(ctx, &tasks, query, userID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// ListIncompleteBetween retrieves undone tasks in a date range
func (r *TaskRepository) ListIncompleteBetween(ctx context.Context, userID uuid.UUID, from, to time.Time, limit int) ([]models.Task, error) {
	var tasks []models.Task
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND done = FALSE AND task_date >= $2 AND task_date <= $3
		ORDER BY task_date, scheduled_start NULLS LAST
		LIMIT $4
	`

	err := r.db.SelectContext(ctx, &tasks, query, userID, from.Format("2006-01-02"), to.Format("2006-01-02"), limit)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// ListIncomplete retrieves every undone task for a user
func (r *TaskRepository) ListIncomplete(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 AND done = FALSE ORDER BY task_date`

	err := r.db.SelectContext(ctx, &tasks, query, userID)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// ListByCategory retrieves the most recent tasks in a category
func (r *TaskRepository) ListByCategory(ctx context.Context, userID uuid.UUID, category string, limit int) ([]models.Task, error) {
	var tasks []models.Task
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND category = $2
		ORDER BY task_date DESC
		LIMIT $3
	`

	err := r.db.SelectContext(ctx, &tasks, query, userID, category, limit)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// CountIncompleteOnDate counts undone tasks on a date
func (r *TaskRepository) CountIncompleteOnDate(ctx context.Context, userID uuid.UUID, date time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND task_date = $2 AND done = FALSE`

	err := r.db.GetContext(ctx, &count, query, userID, date.Format("2006-01-02"))
	if err != nil {
		return 0, err
	}

	return count, nil
}
