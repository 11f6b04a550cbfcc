package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Emitter is the typed emission surface exposed to the rest of the
// application. Callers go through these helpers instead of building raw
// events by hand.
type Emitter struct {
	bus *Bus
}

// NewEmitter creates an emitter bound to a bus.
func NewEmitter(bus *Bus) *Emitter {
	return &Emitter{bus: bus}
}

// EmitTaskCompleted publishes a task completion. predictedCompletion is the
// likelihood a prior prediction assigned, nil when none was made.
func (e *Emitter) EmitTaskCompleted(ctx context.Context, userID, taskID uuid.UUID, wasPredicted bool, predictedCompletion *float64) error {
	return e.bus.Emit(ctx, Event{
		Type:       EventTypeTaskCompleted,
		UserID:     userID,
		EntityType: "task",
		EntityID:   taskID,
		Payload: TaskCompletedPayload{
			TaskID:              taskID,
			WasPredicted:        wasPredicted,
			PredictedCompletion: predictedCompletion,
		},
	})
}

// EmitHabitChecked publishes a habit check. A streak-preserving check
// cascades into a HabitStreakMaintained event via the handler registry.
func (e *Emitter) EmitHabitChecked(ctx context.Context, userID, habitID uuid.UUID, streakMaintained bool) error {
	return e.bus.Emit(ctx, Event{
		Type:       EventTypeHabitChecked,
		UserID:     userID,
		EntityType: "habit",
		EntityID:   habitID,
		Payload: HabitCheckedPayload{
			HabitID:          habitID,
			StreakMaintained: streakMaintained,
		},
	})
}

// EmitTimeSessionEnded publishes the end of a tracked work interval.
func (e *Emitter) EmitTimeSessionEnded(ctx context.Context, userID, sessionID uuid.UUID, taskID *uuid.UUID, estimatedMinutes *float64, actualMinutes float64) error {
	return e.bus.Emit(ctx, Event{
		Type:       EventTypeTimeSessionEnded,
		UserID:     userID,
		EntityType: "time_session",
		EntityID:   sessionID,
		Payload: TimeSessionEndedPayload{
			SessionID:        sessionID,
			TaskID:           taskID,
			EstimatedMinutes: estimatedMinutes,
			ActualMinutes:    actualMinutes,
		},
	})
}

// EmitPlanGenerated publishes a generated day plan.
func (e *Emitter) EmitPlanGenerated(ctx context.Context, userID, planID uuid.UUID, mode string, date time.Time) error {
	return e.bus.Emit(ctx, Event{
		Type:       EventTypePlanGenerated,
		UserID:     userID,
		EntityType: "plan",
		EntityID:   planID,
		Payload: PlanGeneratedPayload{
			PlanID: planID,
			Mode:   mode,
			Date:   date.Format("2006-01-02"),
		},
	})
}

// EmitPatternLearned publishes an updated confidence estimate. Emitted by
// the learning loop after a pattern upsert.
func (e *Emitter) EmitPatternLearned(ctx context.Context, userID uuid.UUID, patternType string, confidence float64) error {
	return e.bus.Emit(ctx, Event{
		Type:       EventTypePatternLearned,
		UserID:     userID,
		EntityType: "pattern",
		Payload: PatternLearnedPayload{
			PatternType: patternType,
			Confidence:  confidence,
		},
	})
}
