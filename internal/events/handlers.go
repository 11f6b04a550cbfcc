package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OutcomeRecorder is the slice of the learning loop the handler registry
// feeds.
type OutcomeRecorder interface {
	RecordDurationOutcome(ctx context.Context, userID uuid.UUID, predictedMinutes, actualMinutes float64) error
	RecordLikelihoodOutcome(ctx context.Context, userID uuid.UUID, predicted float64, completed bool) error
}

// Registry holds the fixed set of domain reactions subscribed at startup.
type Registry struct {
	bus     *Bus
	learner OutcomeRecorder
	log     *logrus.Logger
}

// RegisterHandlers subscribes the standard reactions and returns the
// registry. Registration happens exactly once, at the composition root.
func RegisterHandlers(bus *Bus, learner OutcomeRecorder, log *logrus.Logger) *Registry {
	if log == nil {
		log = logrus.New()
	}
	r := &Registry{bus: bus, learner: learner, log: log}

	bus.Subscribe(EventTypeTaskCompleted, r.handleTaskCompleted)
	bus.Subscribe(EventTypeHabitChecked, r.handleHabitChecked)
	bus.Subscribe(EventTypeTimeSessionEnded, r.handleTimeSessionEnded)
	bus.Subscribe(EventTypePlanGenerated, r.handlePlanGenerated)
	bus.Subscribe(EventTypePatternLearned, r.handlePatternLearned)

	return r
}

// handleTaskCompleted records a completion-likelihood outcome when the
// completed task carried a prediction.
func (r *Registry) handleTaskCompleted(ctx context.Context, evt Event) error {
	payload, ok := evt.Payload.(TaskCompletedPayload)
	if !ok {
		return nil
	}
	if payload.PredictedCompletion == nil {
		return nil
	}
	return r.learner.RecordLikelihoodOutcome(ctx, evt.UserID, *payload.PredictedCompletion, true)
}

// handleHabitChecked cascades a derived streak event when the check kept
// the streak alive.
func (r *Registry) handleHabitChecked(ctx context.Context, evt Event) error {
	payload, ok := evt.Payload.(HabitCheckedPayload)
	if !ok || !payload.StreakMaintained {
		return nil
	}
	return r.bus.Emit(ctx, Event{
		Type:       EventTypeHabitStreakMaintained,
		UserID:     evt.UserID,
		EntityType: "habit",
		EntityID:   payload.HabitID,
		Payload:    HabitStreakMaintainedPayload{HabitID: payload.HabitID},
	})
}

// handleTimeSessionEnded records a duration outcome when the session had
// both an estimate and an actual.
func (r *Registry) handleTimeSessionEnded(ctx context.Context, evt Event) error {
	payload, ok := evt.Payload.(TimeSessionEndedPayload)
	if !ok {
		return nil
	}
	if payload.EstimatedMinutes == nil || payload.ActualMinutes <= 0 {
		return nil
	}
	return r.learner.RecordDurationOutcome(ctx, evt.UserID, *payload.EstimatedMinutes, payload.ActualMinutes)
}

func (r *Registry) handlePlanGenerated(ctx context.Context, evt Event) error {
	if payload, ok := evt.Payload.(PlanGeneratedPayload); ok {
		r.log.WithFields(logrus.Fields{
			"user_id": evt.UserID,
			"plan_id": payload.PlanID,
			"mode":    payload.Mode,
			"date":    payload.Date,
		}).Debug("plan generated")
	}
	return nil
}

func (r *Registry) handlePatternLearned(ctx context.Context, evt Event) error {
	if payload, ok := evt.Payload.(PatternLearnedPayload); ok {
		r.log.WithFields(logrus.Fields{
			"user_id":      evt.UserID,
			"pattern_type": payload.PatternType,
			"confidence":   payload.Confidence,
		}).Debug("pattern learned")
	}
	return nil
}
