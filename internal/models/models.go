package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Task represents a scheduled unit of work on a user's day plan
type Task struct {
	ID               uuid.UUID      `db:"id" json:"id"`
	UserID           uuid.UUID      `db:"user_id" json:"user_id"`
	ProjectID        uuid.NullUUID  `db:"project_id" json:"project_id,omitempty"`
	CertificationID  uuid.NullUUID  `db:"certification_id" json:"certification_id,omitempty"`
	ModuleID         uuid.NullUUID  `db:"module_id" json:"module_id,omitempty"`
	Title            string         `db:"title" json:"title"`
	Category         sql.NullString `db:"category" json:"category,omitempty"`
	TaskDate         time.Time      `db:"task_date" json:"task_date"`
	ScheduledStart   sql.NullTime   `db:"scheduled_start" json:"scheduled_start,omitempty"`
	ScheduledMinutes sql.NullInt64  `db:"scheduled_minutes" json:"scheduled_minutes,omitempty"`
	EstimatedMinutes sql.NullInt64  `db:"estimated_minutes" json:"estimated_minutes,omitempty"`
	Done             bool           `db:"done" json:"done"`
	CompletedAt      sql.NullTime   `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}

// Habit is a recurring daily commitment with a running streak counter
type Habit struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Streak    int       `db:"streak" json:"streak"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HabitCheck records a single day's completion of a habit
type HabitCheck struct {
	ID        uuid.UUID `db:"id" json:"id"`
	HabitID   uuid.UUID `db:"habit_id" json:"habit_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	CheckDate time.Time `db:"check_date" json:"check_date"`
}

// Note is free-form user text, used by the mood classifier
type Note struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TimeSession is a tracked work interval, optionally tied to a task
type TimeSession struct {
	ID               uuid.UUID      `db:"id" json:"id"`
	UserID           uuid.UUID      `db:"user_id" json:"user_id"`
	TaskID           uuid.NullUUID  `db:"task_id" json:"task_id,omitempty"`
	Category         sql.NullString `db:"category" json:"category,omitempty"`
	StartedAt        time.Time      `db:"started_at" json:"started_at"`
	EndedAt          sql.NullTime   `db:"ended_at" json:"ended_at,omitempty"`
	EstimatedMinutes sql.NullInt64  `db:"estimated_minutes" json:"estimated_minutes,omitempty"`
	ActualMinutes    sql.NullInt64  `db:"actual_minutes" json:"actual_minutes,omitempty"`
}

// Project groups tasks under a shared deliverable
type Project struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Goal is a longer-horizon objective
type Goal struct {
	ID         uuid.UUID    `db:"id" json:"id"`
	UserID     uuid.UUID    `db:"user_id" json:"user_id"`
	Title      string       `db:"title" json:"title"`
	Status     string       `db:"status" json:"status"`
	TargetDate sql.NullTime `db:"target_date" json:"target_date,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}

// Certification is an exam track the user is studying toward
type Certification struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	UserID    uuid.UUID    `db:"user_id" json:"user_id"`
	Name      string       `db:"name" json:"name"`
	ExamDate  sql.NullTime `db:"exam_date" json:"exam_date,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// CertificationModule is one study unit inside a certification
type CertificationModule struct {
	ID              uuid.UUID `db:"id" json:"id"`
	CertificationID uuid.UUID `db:"certification_id" json:"certification_id"`
	Name            string    `db:"name" json:"name"`
	Position        int       `db:"position" json:"position"`
}

// CertificationProgress tracks percent complete per certification
type CertificationProgress struct {
	ID              uuid.UUID `db:"id" json:"id"`
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	CertificationID uuid.UUID `db:"certification_id" json:"certification_id"`
	PercentComplete int       `db:"percent_complete" json:"percent_complete"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// CompletionRecord is one historical task completion sample
type CompletionRecord struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	UserID          uuid.UUID      `db:"user_id" json:"user_id"`
	TaskID          uuid.NullUUID  `db:"task_id" json:"task_id,omitempty"`
	Category        sql.NullString `db:"category" json:"category,omitempty"`
	ScheduledHour   sql.NullInt64  `db:"scheduled_hour" json:"scheduled_hour,omitempty"`
	CompletedOnTime bool           `db:"completed_on_time" json:"completed_on_time"`
	CompletedAt     time.Time      `db:"completed_at" json:"completed_at"`
}

// UserPreferences holds schedule preferences consumed by the aggregator
type UserPreferences struct {
	UserID            uuid.UUID `db:"user_id" json:"user_id"`
	WorkStartHour     int       `db:"work_start_hour" json:"work_start_hour"`
	WorkEndHour       int       `db:"work_end_hour" json:"work_end_hour"`
	PreferredPlanMode string    `db:"preferred_plan_mode" json:"preferred_plan_mode"`
	DailyTaskTarget   int       `db:"daily_task_target" json:"daily_task_target"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultPreferences returns the neutral preference set used when a user
// has no stored row.
func DefaultPreferences(userID uuid.UUID) UserPreferences {
	return UserPreferences{
		UserID:            userID,
		WorkStartHour:     9,
		WorkEndHour:       17,
		PreferredPlanMode: "balanced",
		DailyTaskTarget:   5,
	}
}
