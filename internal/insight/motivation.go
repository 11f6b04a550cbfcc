package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Message types and timing buckets.
const (
	MessageAchievement   = "achievement"
	MessageEncouragement = "encouragement"
	MessageWarning       = "warning"
	MessageCelebration   = "celebration"

	TimingMorning    = "morning"
	TimingMidday     = "midday"
	TimingEvening    = "evening"
	TimingContextual = "contextual"
)

// MotivationMessage is a contextual, rule-driven encouragement or warning.
// Computed fresh on each request; stateless.
type MotivationMessage struct {
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Context    map[string]interface{} `json:"context"`
	Timing     string                 `json:"timing"`
	ActionURL  string                 `json:"action_url,omitempty"`
	ActionText string                 `json:"action_text,omitempty"`
}

// MotivationGenerator derives messages from the aggregated context with a
// fixed decision table per timing bucket, first match wins.
type MotivationGenerator struct {
	aggregator *ContextAggregator
	log        *logrus.Logger
	now        func() time.Time
}

// NewMotivationGenerator creates a generator over the aggregator.
func NewMotivationGenerator(aggregator *ContextAggregator, log *logrus.Logger) *MotivationGenerator {
	if log == nil {
		log = logrus.New()
	}
	return &MotivationGenerator{
		aggregator: aggregator,
		log:        log,
		now:        time.Now,
	}
}

// GenerateMotivation produces a message for the given timing bucket.
// "contextual" (or empty) derives the bucket from the current hour.
func (g *MotivationGenerator) GenerateMotivation(ctx context.Context, userID uuid.UUID, timing string) MotivationMessage {
	now := g.now()
	if timing == "" || timing == TimingContextual {
		timing = bucketForHour(now.Hour())
	}

	bundle := g.aggregator.BuildContextBundle(ctx, userID, now)

	switch timing {
	case TimingMorning:
		return g.morning(bundle)
	case TimingMidday:
		return g.midday(bundle, now)
	default:
		return g.evening(bundle, now)
	}
}

func (g *MotivationGenerator) morning(bundle ContextBundle) MotivationMessage {
	state := bundle.CurrentState

	if state.LongestStreak >= 7 {
		return MotivationMessage{
			Type:    MessageAchievement,
			Timing:  TimingMorning,
			Message: fmt.Sprintf("You're on a %d-day streak. Keep the momentum going today!", state.LongestStreak),
			Context: basedOn("habit_streak", map[string]interface{}{
				"longest_streak": state.LongestStreak,
			}),
		}
	}

	if bundle.ProgressContext.AvgCompletionRate >= 80 {
		return MotivationMessage{
			Type:    MessageEncouragement,
			Timing:  TimingMorning,
			Message: fmt.Sprintf("You completed %.0f%% of your tasks this week. Today looks like another strong day.", bundle.ProgressContext.AvgCompletionRate),
			Context: basedOn("weekly_completion_rate", map[string]interface{}{
				"avg_completion_rate": bundle.ProgressContext.AvgCompletionRate,
			}),
		}
	}

	return MotivationMessage{
		Type:    MessageEncouragement,
		Timing:  TimingMorning,
		Message: fmt.Sprintf("A fresh day with %d tasks planned. Start with the one that matters most.", state.TasksTotal),
		Context: basedOn("day_ahead", map[string]interface{}{
			"tasks_total": state.TasksTotal,
		}),
	}
}

func (g *MotivationGenerator) midday(bundle ContextBundle, now time.Time) MotivationMessage {
	state := bundle.CurrentState
	pct := completionPct(state)

	if state.TasksTotal > 0 && pct >= 0.5 {
		return MotivationMessage{
			Type:    MessageCelebration,
			Timing:  TimingMidday,
			Message: fmt.Sprintf("Halfway through the day and %d of %d tasks done. Great pace!", state.TasksCompleted, state.TasksTotal),
			Context: basedOn("today_completion", map[string]interface{}{
				"tasks_completed": state.TasksCompleted,
				"tasks_total":     state.TasksTotal,
			}),
		}
	}

	if state.TasksTotal > 0 && pct < 0.3 {
		return MotivationMessage{
			Type:       MessageWarning,
			Timing:     TimingMidday,
			Message:    fmt.Sprintf("Only %d of %d tasks done so far. Want to reschedule some to keep the day realistic?", state.TasksCompleted, state.TasksTotal),
			ActionURL:  rescheduleURL(now),
			ActionText: "Reschedule tasks",
			Context: basedOn("today_completion", map[string]interface{}{
				"tasks_completed": state.TasksCompleted,
				"tasks_total":     state.TasksTotal,
			}),
		}
	}

	return MotivationMessage{
		Type:    MessageEncouragement,
		Timing:  TimingMidday,
		Message: "Solid progress. The afternoon is a good time for your deeper work.",
		Context: basedOn("default", nil),
	}
}

func (g *MotivationGenerator) evening(bundle ContextBundle, now time.Time) MotivationMessage {
	state := bundle.CurrentState
	pct := completionPct(state)

	if state.TasksTotal > 0 && pct >= 0.8 {
		return MotivationMessage{
			Type:    MessageCelebration,
			Timing:  TimingEvening,
			Message: fmt.Sprintf("%d of %d tasks completed today. Excellent work!", state.TasksCompleted, state.TasksTotal),
			Context: basedOn("today_completion", map[string]interface{}{
				"tasks_completed": state.TasksCompleted,
				"tasks_total":     state.TasksTotal,
			}),
		}
	}

	if state.TasksTotal > 0 && pct >= 0.5 {
		return MotivationMessage{
			Type:    MessageEncouragement,
			Timing:  TimingEvening,
			Message: fmt.Sprintf("You finished %d of %d tasks today. A good day's work.", state.TasksCompleted, state.TasksTotal),
			Context: basedOn("today_completion", map[string]interface{}{
				"tasks_completed": state.TasksCompleted,
				"tasks_total":     state.TasksTotal,
			}),
		}
	}

	return MotivationMessage{
		Type:       MessageEncouragement,
		Timing:     TimingEvening,
		Message:    "Tomorrow is a new start. Move what's left to a better slot tonight.",
		ActionURL:  rescheduleURL(now.AddDate(0, 0, 1)),
		ActionText: "Plan tomorrow",
		Context: basedOn("today_completion", map[string]interface{}{
			"tasks_completed": state.TasksCompleted,
			"tasks_total":     state.TasksTotal,
		}),
	}
}

func bucketForHour(hour int) string {
	switch {
	case hour < 12:
		return TimingMorning
	case hour < 17:
		return TimingMidday
	default:
		return TimingEvening
	}
}

func completionPct(state CurrentState) float64 {
	if state.TasksTotal == 0 {
		return 0
	}
	return float64(state.TasksCompleted) / float64(state.TasksTotal)
}

func basedOn(signal string, extra map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{"based_on": signal}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func rescheduleURL(date time.Time) string {
	return "/planner?date=" + date.Format("2006-01-02") + "&action=reschedule"
}
