package insight

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dayflow/dayflow-backend/internal/learning"
	"github.com/dayflow/dayflow-backend/internal/models"
	"github.com/dayflow/dayflow-backend/internal/repository"
)

// ErrTaskNotFound is the only hard failure the read side surfaces.
var ErrTaskNotFound = errors.New("task not found")

// Scoring constants. These magnitudes define the predictor's behavior and
// the test expectations; do not tune them casually.
const (
	baselineLikelihood = 0.7
	baselineConfidence = 0.5

	timeAlignedBonus      = 0.1
	timeMisalignedPenalty = 0.15
	lowCategoryPenalty    = 0.1
	maxCategoryBonus      = 0.2
	categoryBonusScale    = 0.4
	overduePenalty        = 0.3
	underAllocatedPenalty = 0.2
	underAllocatedRatio   = 0.8
	workloadPenalty       = 0.1
	workloadThreshold     = 8
	similarBlendWeight    = 0.5
	similarConfidenceGain = 0.2
	streakBonus           = 0.05
	streakPenalty         = 0.05
	activeStreakTarget    = 3

	minCategorySample     = 3
	categorySample        = 50
	similarDurationWindow = 30

	highRiskThreshold = 0.4
	lowRiskThreshold  = 0.7
)

// CompletionPrediction scores the likelihood a pending task gets done.
type CompletionPrediction struct {
	TaskID               uuid.UUID `json:"task_id"`
	CompletionLikelihood float64   `json:"completion_likelihood"`
	RiskLevel            string    `json:"risk_level"`
	RiskFactors          []string  `json:"risk_factors"`
	SuggestedTime        string    `json:"suggested_time,omitempty"`
	Confidence           float64   `json:"confidence"`
	Reasoning            string    `json:"reasoning"`
}

// RiskSummary is the daily at-risk digest.
type RiskSummary struct {
	HighRiskTasks []CompletionPrediction `json:"high_risk_tasks"`
	Reasons       []string               `json:"reasons"`
}

// CompletionPredictor scores pending tasks from task attributes and the
// learned patterns. Predictions are computed fresh on every call, never
// cached.
type CompletionPredictor struct {
	tasks    repository.TaskRepository
	habits   repository.HabitRepository
	patterns repository.PatternRepository
	log      *logrus.Logger
	now      func() time.Time
}

// NewCompletionPredictor creates a predictor over the domain stores.
func NewCompletionPredictor(tasks repository.TaskRepository, habits repository.HabitRepository, patterns repository.PatternRepository, log *logrus.Logger) *CompletionPredictor {
	if log == nil {
		log = logrus.New()
	}
	return &CompletionPredictor{
		tasks:    tasks,
		habits:   habits,
		patterns: patterns,
		log:      log,
		now:      time.Now,
	}
}

// PredictTaskCompletion scores a single task. It fails only when the task
// cannot be found; every other missing signal degrades to the baseline.
func (p *CompletionPredictor) PredictTaskCompletion(ctx context.Context, userID, taskID uuid.UUID) (*CompletionPrediction, error) {
	task, err := p.tasks.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	likelihood := baselineLikelihood
	confidence := baselineConfidence
	factors := []string{}

	bestHours := p.bestHours(ctx, userID)

	// Time alignment against the learned best hours
	if len(bestHours) > 0 && task.ScheduledStart.Valid {
		hour := task.ScheduledStart.Time.Hour()
		if hourIn(bestHours, hour) {
			likelihood += timeAlignedBonus
			confidence += timeAlignedBonus
		} else {
			likelihood -= timeMisalignedPenalty
			factors = append(factors, fmt.Sprintf("Scheduled at %02d:00, outside your most productive hours", hour))
		}
	}

	// Category history
	var categoryTasks []models.Task
	if task.Category.Valid {
		categoryTasks = p.categoryHistory(ctx, userID, task.Category.String, task.ID)
		if len(categoryTasks) >= minCategorySample {
			rate := completionRate(categoryTasks)
			if rate < 0.5 {
				likelihood -= lowCategoryPenalty
				factors = append(factors, fmt.Sprintf("Low completion rate for %s tasks (%.0f%%)", task.Category.String, rate*100))
			} else {
				likelihood += math.Min((rate-0.5)*categoryBonusScale, maxCategoryBonus)
			}
		}
	}

	// Overdue
	today := truncateToDay(p.now())
	if truncateToDay(task.TaskDate).Before(today) && !task.Done {
		likelihood -= overduePenalty
		factors = append(factors, "Task is overdue")
	}

	// Under-allocated time. A missing allocation counts as zero when the
	// task carries an estimate.
	if task.EstimatedMinutes.Valid {
		allocated := int64(0)
		if task.ScheduledMinutes.Valid {
			allocated = task.ScheduledMinutes.Int64
		}
		if float64(allocated) < underAllocatedRatio*float64(task.EstimatedMinutes.Int64) {
			likelihood -= underAllocatedPenalty
			if allocated == 0 {
				factors = append(factors, fmt.Sprintf("No time allocated for an estimated %d minutes", task.EstimatedMinutes.Int64))
			} else {
				factors = append(factors, fmt.Sprintf("Only %d of %d estimated minutes allocated", allocated, task.EstimatedMinutes.Int64))
			}
		}
	}

	// Same-day workload
	if count, err := p.tasks.CountIncompleteOnDate(ctx, userID, task.TaskDate); err == nil && count > workloadThreshold {
		likelihood -= workloadPenalty
		factors = append(factors, fmt.Sprintf("High workload: %d tasks scheduled that day", count))
	}

	// Similar-task history: same category, estimate within 30 minutes
	if similar := filterSimilar(categoryTasks, task); len(similar) >= minCategorySample {
		rate := completionRate(similar)
		likelihood = likelihood*similarBlendWeight + rate*similarBlendWeight
		confidence += similarConfidenceGain
	}

	// Motivational proxy from habit streaks
	if habits, err := p.habits.List(ctx, userID); err == nil {
		active := 0
		for _, h := range habits {
			if h.Streak > 0 {
				active++
			}
		}
		switch {
		case active >= activeStreakTarget:
			likelihood += streakBonus
		case active == 0:
			likelihood -= streakPenalty
			factors = append(factors, "No active habit streaks")
		}
	}

	likelihood = clamp01(likelihood)
	confidence = clamp01(confidence)

	prediction := &CompletionPrediction{
		TaskID:               task.ID,
		CompletionLikelihood: likelihood,
		RiskLevel:            riskLevel(likelihood),
		RiskFactors:          factors,
		Confidence:           confidence,
	}

	if prediction.RiskLevel == "high" && len(bestHours) > 0 {
		prediction.SuggestedTime = fmt.Sprintf("%02d:00", bestHours[0].Hour)
	}

	prediction.Reasoning = buildReasoning(prediction.RiskLevel, factors)

	return prediction, nil
}

// IdentifyRiskTasks predicts every undone task on a date and keeps the
// high-risk ones, returning the de-duplicated union of their risk factors.
func (p *CompletionPredictor) IdentifyRiskTasks(ctx context.Context, userID uuid.UUID, date time.Time) (*RiskSummary, error) {
	tasks, err := p.tasks.ListByDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	summary := &RiskSummary{
		HighRiskTasks: []CompletionPrediction{},
		Reasons:       []string{},
	}
	seen := make(map[string]bool)

	for _, task := range tasks {
		if task.Done {
			continue
		}
		prediction, err := p.PredictTaskCompletion(ctx, userID, task.ID)
		if err != nil {
			p.log.WithError(err).WithField("task_id", task.ID).Debug("risk prediction failed")
			continue
		}
		if prediction.RiskLevel != "high" {
			continue
		}
		summary.HighRiskTasks = append(summary.HighRiskTasks, *prediction)
		for _, factor := range prediction.RiskFactors {
			if !seen[factor] {
				seen[factor] = true
				summary.Reasons = append(summary.Reasons, factor)
			}
		}
	}

	sortPredictions(summary.HighRiskTasks)

	return summary, nil
}

func (p *CompletionPredictor) bestHours(ctx context.Context, userID uuid.UUID) []learning.HourStat {
	pattern, err := p.patterns.Get(ctx, userID, learning.PatternBestTime)
	if err != nil || pattern == nil {
		return nil
	}
	return learning.DecodeBestTime(pattern.PatternData).BestHours
}

func (p *CompletionPredictor) categoryHistory(ctx context.Context, userID uuid.UUID, category string, exclude uuid.UUID) []models.Task {
	history, err := p.tasks.ListByCategory(ctx, userID, category, categorySample)
	if err != nil {
		return nil
	}
	out := history[:0]
	for _, t := range history {
		if t.ID != exclude {
			out = append(out, t)
		}
	}
	return out
}

func filterSimilar(categoryTasks []models.Task, task *models.Task) []models.Task {
	if !task.EstimatedMinutes.Valid {
		return nil
	}
	var similar []models.Task
	for _, t := range categoryTasks {
		if !t.EstimatedMinutes.Valid {
			continue
		}
		delta := t.EstimatedMinutes.Int64 - task.EstimatedMinutes.Int64
		if delta < 0 {
			delta = -delta
		}
		if delta <= similarDurationWindow {
			similar = append(similar, t)
		}
	}
	return similar
}

func completionRate(tasks []models.Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Done {
			done++
		}
	}
	return float64(done) / float64(len(tasks))
}

func hourIn(stats []learning.HourStat, hour int) bool {
	for _, s := range stats {
		if s.Hour == hour {
			return true
		}
	}
	return false
}

// riskLevel buckets a likelihood. Boundaries are exact: 0.7 is low, 0.4 is
// medium.
func riskLevel(likelihood float64) string {
	switch {
	case likelihood >= lowRiskThreshold:
		return "low"
	case likelihood >= highRiskThreshold:
		return "medium"
	default:
		return "high"
	}
}

func buildReasoning(risk string, factors []string) string {
	var verdict string
	switch risk {
	case "low":
		verdict = "Completion likelihood is high"
	case "medium":
		verdict = "Completion likelihood is moderate"
	default:
		verdict = "Completion likelihood is low"
	}
	if len(factors) == 0 {
		return verdict + "."
	}
	if len(factors) > 3 {
		factors = factors[:3]
	}
	return verdict + ". Risk factors: " + strings.Join(factors, "; ") + "."
}

// sortPredictions orders predictions by ascending likelihood, riskiest
// first.
func sortPredictions(predictions []CompletionPrediction) {
	sort.Slice(predictions, func(i, j int) bool {
		return predictions[i].CompletionLikelihood < predictions[j].CompletionLikelihood
	})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
