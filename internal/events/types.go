// Package events provides the in-process publish/subscribe bus that carries
// user-behavior signals through the personalization engine, plus the typed
// emission surface and the fixed handler registrations made at startup.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies different event types
type EventType string

const (
	EventTypeTaskCompleted         EventType = "task.completed"
	EventTypeHabitChecked          EventType = "habit.checked"
	EventTypeHabitStreakMaintained EventType = "habit.streak_maintained"
	EventTypeTimeSessionEnded      EventType = "time_session.ended"
	EventTypePlanGenerated         EventType = "plan.generated"
	EventTypePatternLearned        EventType = "pattern.learned"
)

// AllTypes lists every event type carried on the bus.
func AllTypes() []EventType {
	return []EventType{
		EventTypeTaskCompleted,
		EventTypeHabitChecked,
		EventTypeHabitStreakMaintained,
		EventTypeTimeSessionEnded,
		EventTypePlanGenerated,
		EventTypePatternLearned,
	}
}

// Payload is the tagged union of per-event metadata. One shape per event
// type; handlers switch on the concrete type instead of digging through an
// untyped map.
type Payload interface {
	EventType() EventType
}

// TaskCompletedPayload carries the completion signal for a task, with the
// predicted likelihood when a prediction had been made for it.
type TaskCompletedPayload struct {
	TaskID              uuid.UUID `json:"task_id"`
	WasPredicted        bool      `json:"was_predicted"`
	PredictedCompletion *float64  `json:"predicted_completion,omitempty"`
}

func (TaskCompletedPayload) EventType() EventType { return EventTypeTaskCompleted }

// HabitCheckedPayload records a habit check and whether it kept the streak
// alive.
type HabitCheckedPayload struct {
	HabitID          uuid.UUID `json:"habit_id"`
	StreakMaintained bool      `json:"streak_maintained"`
}

func (HabitCheckedPayload) EventType() EventType { return EventTypeHabitChecked }

// HabitStreakMaintainedPayload is the derived event cascaded from a
// streak-preserving habit check.
type HabitStreakMaintainedPayload struct {
	HabitID uuid.UUID `json:"habit_id"`
	Streak  int       `json:"streak,omitempty"`
}

func (HabitStreakMaintainedPayload) EventType() EventType { return EventTypeHabitStreakMaintained }

// TimeSessionEndedPayload carries estimated vs. actual minutes for a tracked
// work interval. EstimatedMinutes is nil when the session had no estimate.
type TimeSessionEndedPayload struct {
	SessionID        uuid.UUID  `json:"session_id"`
	TaskID           *uuid.UUID `json:"task_id,omitempty"`
	EstimatedMinutes *float64   `json:"estimated_minutes,omitempty"`
	ActualMinutes    float64    `json:"actual_minutes"`
}

func (TimeSessionEndedPayload) EventType() EventType { return EventTypeTimeSessionEnded }

// PlanGeneratedPayload marks a generated day plan.
type PlanGeneratedPayload struct {
	PlanID uuid.UUID `json:"plan_id"`
	Mode   string    `json:"mode"`
	Date   string    `json:"date"`
}

func (PlanGeneratedPayload) EventType() EventType { return EventTypePlanGenerated }

// PatternLearnedPayload announces an updated confidence estimate.
type PatternLearnedPayload struct {
	PatternType string  `json:"pattern_type"`
	Confidence  float64 `json:"confidence"`
}

func (PatternLearnedPayload) EventType() EventType { return EventTypePatternLearned }

// Event is a single immutable bus record.
type Event struct {
	Type       EventType `json:"event_type"`
	UserID     uuid.UUID `json:"user_id"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   uuid.UUID `json:"entity_id,omitempty"`
	Payload    Payload   `json:"payload,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// MarshalMetadata renders the payload as JSON for durable persistence and
// the websocket stream. A nil payload marshals to an empty object.
func (e Event) MarshalMetadata() ([]byte, error) {
	if e.Payload == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e.Payload)
}
