package insight

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayflow/dayflow-backend/internal/learning"
	"github.com/dayflow/dayflow-backend/internal/models"
	"github.com/dayflow/dayflow-backend/internal/repository"
)

var predictorNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func newTestPredictor(tasks *fakeTaskRepo, habits *fakeHabitRepo, patterns *fakePatternRepo) *CompletionPredictor {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	p := NewCompletionPredictor(tasks, habits, patterns, log)
	p.now = func() time.Time { return predictorNow }
	return p
}

func oneActiveStreak(userID uuid.UUID) *fakeHabitRepo {
	return &fakeHabitRepo{habits: []models.Habit{
		{ID: uuid.New(), UserID: userID, Name: "Reading", Streak: 4},
	}}
}

func seedBestHours(t *testing.T, patterns *fakePatternRepo, userID uuid.UUID, hours ...int) {
	t.Helper()
	stats := make([]learning.HourStat, len(hours))
	for i, h := range hours {
		stats[i] = learning.HourStat{Hour: h, CompletionRate: 0.9}
	}
	data, err := learning.EncodePatternData(learning.BestTimeData{BestHours: stats})
	require.NoError(t, err)
	require.NoError(t, patterns.Upsert(context.Background(), &repository.Pattern{
		ID:              uuid.New(),
		UserID:          userID,
		PatternType:     learning.PatternBestTime,
		PatternData:     data,
		ConfidenceScore: 0.5,
		LastUpdated:     predictorNow,
	}))
}

func TestPredictor_UnknownTask(t *testing.T) {
	userID := uuid.New()
	p := newTestPredictor(&fakeTaskRepo{}, oneActiveStreak(userID), newFakePatternRepo())

	_, err := p.PredictTaskCompletion(context.Background(), userID, uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestPredictor_BaselineWithNoSignals(t *testing.T) {
	userID := uuid.New()
	task := models.Task{ID: uuid.New(), UserID: userID, TaskDate: predictorNow}
	p := newTestPredictor(&fakeTaskRepo{tasks: []models.Task{task}}, oneActiveStreak(userID), newFakePatternRepo())

	prediction, err := p.PredictTaskCompletion(context.Background(), userID, task.ID)
	require.NoError(t, err)

	assert.InDelta(t, 0.7, prediction.CompletionLikelihood, 1e-9)
	assert.InDelta(t, 0.5, prediction.Confidence, 1e-9)
	assert.Equal(t, "low", prediction.RiskLevel)
	assert.Empty(t, prediction.RiskFactors)
	assert.Empty(t, prediction.SuggestedTime)
	assert.Equal(t, "Completion likelihood is high.", prediction.Reasoning)
}

func TestPredictor_ScheduledInBestHour(t *testing.T) {
	userID := uuid.New()
	task := models.Task{
		ID:             uuid.New(),
		UserID:         userID,
		TaskDate:       predictorNow,
		ScheduledStart: sql.NullTime{Time: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), Valid: true},
	}
	patterns := newFakePatternRepo()
	seedBestHours(t, patterns, userID, 9, 14)
	p := newTestPredictor(&fakeTaskRepo{tasks: []models.Task{task}}, oneActiveStreak(userID), patterns)

	prediction, err := p.PredictTaskCompletion(context.Background(), userID, task.ID)
	require.NoError(t, err)

	assert.InDelta(t, 0.8, prediction.CompletionLikelihood, 1e-9)
	assert.InDelta(t, 0.6, prediction.Confidence, 1e-9)
	assert.Equal(t, "low", prediction.RiskLevel)
}

func TestPredictor_ScheduledOutsideBestHours(t *testing.T) {
	userID := uuid.New()
	task := models.Task{
		ID:             uuid.New(),
		UserID:         userID,
		TaskDate:       predictorNow,
		ScheduledStart: sql.NullTime{Time: time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC), Valid: true},
	}
	patterns := newFakePatternRepo()
	seedBestHours(t, patterns, userID, 9)
	p := newTestPredictor(&fakeTaskRepo{tasks: []models.Task{task}}, oneActiveStreak(userID), patterns)

	prediction, err := p.PredictTaskCompletion(context.Background(), userID, task.ID)
	require.NoError(t, err)

	assert.InDelta(t, 0.55, prediction.CompletionLikelihood, 1e-9)
	assert.Equal(t, "medium", prediction.RiskLevel)
	require.Len(t, prediction.RiskFactors, 1)
	assert.Contains(t, prediction.RiskFactors[0], "22:00")
}

func TestPredictor_CategoryHistory(t *testing.T) {
	userID := uuid.New()
	category := sql.NullString{String: "admin", Valid: true}

	history := func(done ...bool) []models.Task {
		out := make([]models.Task, len(done))
		for i, d := range done {
			out[i] = models.Task{ID: uuid.New(), UserID: userID, TaskDate: predictorNow.AddDate(0, 0, -i-1), Category: category, Done: d}
		}
		return out
	}

	t.Run("low completion rate penalizes", func(t *testing.T) {
		task := models.Task{ID: uuid.New(), UserID: userID, TaskDate: predictorNow, Category: category}
		repo := &fakeTaskRepo{tasks: append(history(true, false, false, false), task)}
		p := newTestPredictor(repo, oneActiveStreak(userID), newFakePatternRepo())

		prediction, err := p.PredictTaskCompletion(context.Background(), userID, task.ID)
		require.NoError(t, err)

		assert.InDelta(t, 0.6, prediction.CompletionLikelihood, 1e-9)
		assert.Equal(t, "medium", prediction.RiskLevel)
		require.Len(t, prediction.RiskFactors, 1)
		assert.Contains(t, prediction.RiskFactors[0], "admin")
	})

	t.Run("strong completion rate rewards, capped", func(t *testing.T) {
		task := models.Task{ID: uuid.New(), UserID: userID, TaskDate: predictorNow, Category: category}
		repo := &fakeTaskRepo{tasks: append(history(true, true, true, true), task)}
		p := newTestPredictor(repo, oneActiveStreak(userID), newFakePatternRepo())

		prediction, err := p.PredictTaskCompletion(context.Background(), userID, task.ID)
		require.NoError(t, err)

		// rate 1.0 earns the capped 0.2 bonus
		assert.InDelta(t, 0.9, prediction.CompletionLikelihood, 1e-9)
		assert.Equal(t, "low", prediction.RiskLevel)
	})

	t.Run("too few samples leave the baseline", func(t *testing.T) {
		task := models.Task{ID: uuid.New(), UserID: userID, TaskDate: predictorNow, Category: category}
		repo := &fakeTaskRepo{tasks: append(history(false, false), task)}
		p := newTestPredictor(repo, oneActiveStreak(userID), newFakePatternRepo())

		prediction, err := p.PredictTaskCompletion(context.Background(), userID, task.ID)
		require.NoError(t, err)

		assert.InDelta(t, 0.7, prediction.CompletionLikelihood, 1e-9)
	})
}

func TestPredictor_OverdueAndUnderAllocated(t *testing.T) {
	userID := uuid.New()
	task := models.Task{
		ID:               uuid.New(),
		UserID:           userID,
		TaskDate:         predictorNow.AddDate(0, 0, -2),
		ScheduledMinutes: sql.NullInt64{Int64: 30, Valid: true},
		EstimatedMinutes: sql.NullInt64{Int64: 60, Valid: true},
	}
	patterns := newFakePatternRepo()
	seedBestHours(t, patterns, userID, 9)
	p := newTestPredictor(&fakeTaskRepo{tasks: []models.Task{task}}, &fakeHabitRepo{}, patterns)

	prediction, err := p.PredictTaskCompletion(context.Background(), userID, task.ID)
	require.NoError(t, err)

	// 0.7 - 0.3 overdue - 0.2 under-allocated - 0.05 no streaks
	assert.InDelta(t, 0.15, prediction.CompletionLikelihood, 1e-9)
	assert.Equal(t, "high", prediction.RiskLevel)
	assert.Contains(t, prediction.RiskFactors, "Task is overdue")
	assert.Contains(t, prediction.RiskFactors, "Only 30 of 60 estimated minutes allocated")
	assert.Contains(t, prediction.RiskFactors, "No active habit streaks")
	assert.Equal(t, "09:00", prediction.SuggestedTime, "high risk suggests the top learned hour")
	assert.Contains(t, prediction.Reasoning, "Completion likelihood is low")
}

func TestPredictor_OverdueTaskWithNoAllocationFlagsBoth(t *testing.T) {
	userID := uuid.New()
	task := models.Task{
		ID:               uuid.New(),
		UserID:           userID,
		TaskDate:         predictorNow.AddDate(0, 0, -1),
		EstimatedMinutes: sql.NullInt64{Int64: 60, Valid: true},
	}
	p := newTestPredictor(&fakeTaskRepo{tasks: []models.Task{task}}, oneActiveStreak(userID), newFakePatternRepo())

	prediction, err := p.PredictTaskCompletion(context.Background(), userID, task.ID)
	require.NoError(t, err)

	// 0.7 - 0.3 overdue - 0.2 unallocated estimate
	assert.InDelta(t, 0.2, prediction.CompletionLikelihood, 1e-9)
	assert.Equal(t, "high", prediction.RiskLevel)
	assert.Contains(t, prediction.RiskFactors, "Task is overdue")
	assert.Contains(t, prediction.RiskFactors, "No time allocated for an estimated 60 minutes")
}

func TestPredictor_HeavyDayWorkload(t *testing.T) {
	userID := uuid.New()
	task := models.Task{ID: uuid.New(), UserID: userID, TaskDate: predictorNow}
	tasks := []models.Task{task}
	for i := 0; i < 8; i++ {
		tasks = append(tasks, models.Task{ID: uuid.New(), UserID: userID, TaskDate: predictorNow})
	}
	p := newTestPredictor(&fakeTaskRepo{tasks: tasks}, oneActiveStreak(userID), newFakePatternRepo())

	prediction, err := p.PredictTaskCompletion(context.Background(), userID, task.ID)
	require.NoError(t, err)

	assert.InDelta(t, 0.6, prediction.CompletionLikelihood, 1e-9)
	assert.Contains(t, prediction.RiskFactors, "High workload: 9 tasks scheduled that day")
}

func TestPredictor_SimilarTaskBlend(t *testing.T) {
	userID := uuid.New()
	category := sql.NullString{String: "deep-work", Valid: true}
	estimate := sql.NullInt64{Int64: 60, Valid: true}

	task := models.Task{
		ID:               uuid.New(),
		UserID:           userID,
		TaskDate:         predictorNow,
		Category:         category,
		ScheduledMinutes: estimate,
		EstimatedMinutes: estimate,
	}
	tasks := []models.Task{task}
	for _, mins := range []int64{45, 55, 70, 95} {
		tasks = append(tasks, models.Task{
			ID:               uuid.New(),
			UserID:           userID,
			TaskDate:         predictorNow.AddDate(0, 0, -3),
			Category:         category,
			EstimatedMinutes: sql.NullInt64{Int64: mins, Valid: true},
			Done:             true,
		})
	}
	p := newTestPredictor(&fakeTaskRepo{tasks: tasks}, oneActiveStreak(userID), newFakePatternRepo())

	prediction, err := p.PredictTaskCompletion(context.Background(), userID, task.ID)
	require.NoError(t, err)

	// Category bonus lifts to 0.9; three similar tasks (95 is outside the
	// 30-minute window) all done blend it to (0.9+1.0)/2 = 0.95.
	assert.InDelta(t, 0.95, prediction.CompletionLikelihood, 1e-9)
	assert.InDelta(t, 0.7, prediction.Confidence, 1e-9)
	assert.Equal(t, "low", prediction.RiskLevel)
}

func TestPredictor_StreakSignals(t *testing.T) {
	userID := uuid.New()
	task := models.Task{ID: uuid.New(), UserID: userID, TaskDate: predictorNow}

	t.Run("three active streaks add a bonus", func(t *testing.T) {
		habits := &fakeHabitRepo{habits: []models.Habit{
			{ID: uuid.New(), UserID: userID, Name: "a", Streak: 2},
			{ID: uuid.New(), UserID: userID, Name: "b", Streak: 7},
			{ID: uuid.New(), UserID: userID, Name: "c", Streak: 1},
		}}
		p := newTestPredictor(&fakeTaskRepo{tasks: []models.Task{task}}, habits, newFakePatternRepo())

		prediction, err := p.PredictTaskCompletion(context.Background(), userID, task.ID)
		require.NoError(t, err)
		assert.InDelta(t, 0.75, prediction.CompletionLikelihood, 1e-9)
	})

	t.Run("no active streaks penalize", func(t *testing.T) {
		p := newTestPredictor(&fakeTaskRepo{tasks: []models.Task{task}}, &fakeHabitRepo{}, newFakePatternRepo())

		prediction, err := p.PredictTaskCompletion(context.Background(), userID, task.ID)
		require.NoError(t, err)
		assert.InDelta(t, 0.65, prediction.CompletionLikelihood, 1e-9)
		assert.Contains(t, prediction.RiskFactors, "No active habit streaks")
	})
}

func TestPredictor_LikelihoodNeverLeavesUnitInterval(t *testing.T) {
	userID := uuid.New()
	category := sql.NullString{String: "admin", Valid: true}
	task := models.Task{
		ID:               uuid.New(),
		UserID:           userID,
		TaskDate:         predictorNow.AddDate(0, 0, -5),
		Category:         category,
		ScheduledStart:   sql.NullTime{Time: time.Date(2026, 3, 5, 23, 0, 0, 0, time.UTC), Valid: true},
		ScheduledMinutes: sql.NullInt64{Int64: 10, Valid: true},
		EstimatedMinutes: sql.NullInt64{Int64: 120, Valid: true},
	}
	tasks := []models.Task{task}
	for i := 0; i < 4; i++ {
		tasks = append(tasks, models.Task{ID: uuid.New(), UserID: userID, TaskDate: predictorNow.AddDate(0, 0, -6), Category: category})
	}
	patterns := newFakePatternRepo()
	seedBestHours(t, patterns, userID, 9)
	p := newTestPredictor(&fakeTaskRepo{tasks: tasks}, &fakeHabitRepo{}, patterns)

	prediction, err := p.PredictTaskCompletion(context.Background(), userID, task.ID)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, prediction.CompletionLikelihood, 0.0)
	assert.LessOrEqual(t, prediction.CompletionLikelihood, 1.0)
	assert.Equal(t, "high", prediction.RiskLevel)
}

func TestRiskLevelBoundaries(t *testing.T) {
	assert.Equal(t, "low", riskLevel(0.7))
	assert.Equal(t, "medium", riskLevel(0.6999))
	assert.Equal(t, "medium", riskLevel(0.4))
	assert.Equal(t, "high", riskLevel(0.3999))
	assert.Equal(t, "low", riskLevel(1.0))
	assert.Equal(t, "high", riskLevel(0.0))
}

func TestPredictor_IdentifyRiskTasks(t *testing.T) {
	userID := uuid.New()

	safe := models.Task{ID: uuid.New(), UserID: userID, TaskDate: predictorNow}
	finished := models.Task{ID: uuid.New(), UserID: userID, TaskDate: predictorNow, Done: true}
	risky := models.Task{
		ID:               uuid.New(),
		UserID:           userID,
		TaskDate:         predictorNow,
		ScheduledStart:   sql.NullTime{Time: time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC), Valid: true},
		ScheduledMinutes: sql.NullInt64{Int64: 15, Valid: true},
		EstimatedMinutes: sql.NullInt64{Int64: 90, Valid: true},
	}
	patterns := newFakePatternRepo()
	seedBestHours(t, patterns, userID, 9)
	p := newTestPredictor(&fakeTaskRepo{tasks: []models.Task{safe, finished, risky}}, &fakeHabitRepo{}, patterns)

	summary, err := p.IdentifyRiskTasks(context.Background(), userID, predictorNow)
	require.NoError(t, err)

	// safe lands at 0.65 (medium), finished is skipped, risky at
	// 0.7-0.15-0.2-0.05 = 0.3 (high).
	require.Len(t, summary.HighRiskTasks, 1)
	assert.Equal(t, risky.ID, summary.HighRiskTasks[0].TaskID)
	assert.NotEmpty(t, summary.Reasons)
	assert.Contains(t, summary.Reasons, "No active habit streaks")
}

func TestPredictor_IdentifyRiskTasksEmptyDay(t *testing.T) {
	userID := uuid.New()
	p := newTestPredictor(&fakeTaskRepo{}, &fakeHabitRepo{}, newFakePatternRepo())

	summary, err := p.IdentifyRiskTasks(context.Background(), userID, predictorNow)
	require.NoError(t, err)

	assert.Empty(t, summary.HighRiskTasks)
	assert.Empty(t, summary.Reasons)
	assert.NotNil(t, summary.HighRiskTasks, "empty day yields empty slices, not nulls")
}
