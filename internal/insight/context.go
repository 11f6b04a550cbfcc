// Package insight contains the read side of the personalization engine:
// context aggregation, completion prediction, motivation messages and task
// relationship summaries. Everything here only reads patterns and domain
// rows; the engine's own state is mutated solely by the learning loop.
package insight

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dayflow/dayflow-backend/internal/learning"
	"github.com/dayflow/dayflow-backend/internal/models"
	"github.com/dayflow/dayflow-backend/internal/repository"
)

// Defaults used when a data source is empty or failing. The bundle is
// always fully populated; a missing source never fails the whole call.
const (
	defaultAvgCompletionRate = 50.0

	completionSampleSize = 100
	sessionSampleSize    = 200
	recentNoteCount      = 5
	upcomingTaskLimit    = 10
	upcomingDays         = 7
	topHourCount         = 3
)

// ContextBundle is the aggregated read-model snapshot of a user's current
// behavioral and planning state.
type ContextBundle struct {
	UserPreferences    models.UserPreferences `json:"user_preferences"`
	CurrentState       CurrentState           `json:"current_state"`
	ProgressContext    ProgressContext        `json:"progress_context"`
	BehavioralInsights BehavioralInsights     `json:"behavioral_insights"`
	TimeContext        TimeContext            `json:"time_context"`
}

// CurrentState holds today's plan and streak facts.
type CurrentState struct {
	TodayTasks           []models.Task `json:"today_tasks"`
	TasksCompleted       int           `json:"tasks_completed"`
	TasksTotal           int           `json:"tasks_total"`
	YesterdayCompletion  float64       `json:"yesterday_completion"`
	ActiveStreaks        int           `json:"active_streaks"`
	LongestStreak        int           `json:"longest_streak"`
	HabitsCompletedToday []string      `json:"habits_completed_today"`
	Mood                 Mood          `json:"mood"`
}

// ProgressContext holds longer-horizon progress facts.
type ProgressContext struct {
	ActiveProjects        []models.Project               `json:"active_projects"`
	ActiveGoals           []models.Goal                  `json:"active_goals"`
	CertificationProgress []models.CertificationProgress `json:"certification_progress"`
	UpcomingTasks         []models.Task                  `json:"upcoming_tasks"`
	AvgCompletionRate     float64                        `json:"avg_completion_rate"`
}

// BehavioralInsights holds the mined time patterns.
type BehavioralInsights struct {
	TimeTrackingAccuracy float64                   `json:"time_tracking_accuracy"`
	BestHours            []learning.HourStat       `json:"best_hours"`
	FocusBlocks          []learning.FocusBlockStat `json:"focus_blocks"`
}

// TimeContext situates the bundle in the calendar.
type TimeContext struct {
	Date      string `json:"date"`
	DayOfWeek string `json:"day_of_week"`
	IsWeekend bool   `json:"is_weekend"`
	HourOfDay int    `json:"hour_of_day"`
}

// ContextAggregator builds context bundles from the domain stores. Every
// sub-fetch is independent and best-effort.
type ContextAggregator struct {
	stores    *repository.Stores
	sentiment SentimentAnalyzer
	learner   *learning.AccuracyLearner
	log       *logrus.Logger
	now       func() time.Time
}

// NewContextAggregator creates an aggregator. learner may be nil; when set,
// freshly mined best-hour and focus-block patterns are written back so the
// predictor and relationship graph see them.
func NewContextAggregator(stores *repository.Stores, sentiment SentimentAnalyzer, learner *learning.AccuracyLearner, log *logrus.Logger) *ContextAggregator {
	if sentiment == nil {
		sentiment = NewKeywordAnalyzer()
	}
	if log == nil {
		log = logrus.New()
	}
	return &ContextAggregator{
		stores:    stores,
		sentiment: sentiment,
		learner:   learner,
		log:       log,
		now:       time.Now,
	}
}

// BuildContextBundle assembles the cross-domain snapshot for a user on a
// date. A zero date means today.
func (a *ContextAggregator) BuildContextBundle(ctx context.Context, userID uuid.UUID, date time.Time) ContextBundle {
	if date.IsZero() {
		date = a.now()
	}
	day := truncateToDay(date)
	now := a.now()

	bundle := ContextBundle{
		UserPreferences: a.fetchPreferences(ctx, userID),
		TimeContext: TimeContext{
			Date:      day.Format("2006-01-02"),
			DayOfWeek: now.Weekday().String(),
			IsWeekend: now.Weekday() == time.Saturday || now.Weekday() == time.Sunday,
			HourOfDay: now.Hour(),
		},
	}

	bundle.CurrentState = a.fetchCurrentState(ctx, userID, day)
	bundle.ProgressContext = a.fetchProgressContext(ctx, userID, day)
	bundle.BehavioralInsights = a.fetchBehavioralInsights(ctx, userID)

	return bundle
}

func (a *ContextAggregator) fetchPreferences(ctx context.Context, userID uuid.UUID) models.UserPreferences {
	prefs, err := a.stores.Preferences.Get(ctx, userID)
	if err != nil {
		a.log.WithError(err).Debug("preferences fetch failed, using defaults")
	}
	if prefs == nil {
		return models.DefaultPreferences(userID)
	}
	return *prefs
}

func (a *ContextAggregator) fetchCurrentState(ctx context.Context, userID uuid.UUID, day time.Time) CurrentState {
	state := CurrentState{
		TodayTasks:           []models.Task{},
		HabitsCompletedToday: []string{},
		Mood:                 MoodNeutral,
	}

	if tasks, err := a.stores.Tasks.ListByDate(ctx, userID, day); err == nil {
		state.TodayTasks = tasks
		state.TasksTotal = len(tasks)
		for _, t := range tasks {
			if t.Done {
				state.TasksCompleted++
			}
		}
	} else {
		a.log.WithError(err).Debug("today task fetch failed")
	}

	if yesterday, err := a.stores.Tasks.ListByDate(ctx, userID, day.AddDate(0, 0, -1)); err == nil && len(yesterday) > 0 {
		completed := 0
		for _, t := range yesterday {
			if t.Done {
				completed++
			}
		}
		state.YesterdayCompletion = float64(completed) / float64(len(yesterday))
	}

	habits, err := a.stores.Habits.List(ctx, userID)
	if err != nil {
		a.log.WithError(err).Debug("habit fetch failed")
		habits = nil
	}
	habitNames := make(map[uuid.UUID]string, len(habits))
	for _, h := range habits {
		habitNames[h.ID] = h.Name
		if h.Streak > 0 {
			state.ActiveStreaks++
		}
		if h.Streak > state.LongestStreak {
			state.LongestStreak = h.Streak
		}
	}

	if checks, err := a.stores.Habits.ChecksOnDate(ctx, userID, day); err == nil {
		for _, c := range checks {
			if name, ok := habitNames[c.HabitID]; ok {
				state.HabitsCompletedToday = append(state.HabitsCompletedToday, name)
			}
		}
	}

	state.Mood = a.classifyMood(ctx, userID)

	return state
}

func (a *ContextAggregator) classifyMood(ctx context.Context, userID uuid.UUID) Mood {
	notes, err := a.stores.Notes.ListRecent(ctx, userID, recentNoteCount)
	if err != nil || len(notes) == 0 {
		return MoodNeutral
	}

	texts := make([]string, len(notes))
	for i, n := range notes {
		texts[i] = n.Content
	}

	mood, err := a.sentiment.Classify(ctx, texts)
	if err != nil {
		a.log.WithError(err).Debug("mood classification failed, defaulting to neutral")
		return MoodNeutral
	}
	return mood
}

func (a *ContextAggregator) fetchProgressContext(ctx context.Context, userID uuid.UUID, day time.Time) ProgressContext {
	progress := ProgressContext{
		ActiveProjects:        []models.Project{},
		ActiveGoals:           []models.Goal{},
		CertificationProgress: []models.CertificationProgress{},
		UpcomingTasks:         []models.Task{},
		AvgCompletionRate:     defaultAvgCompletionRate,
	}

	if projects, err := a.stores.Projects.ListActive(ctx, userID); err == nil && projects != nil {
		progress.ActiveProjects = projects
	}
	if goals, err := a.stores.Goals.ListActive(ctx, userID); err == nil && goals != nil {
		progress.ActiveGoals = goals
	}
	if certs, err := a.stores.Certifications.ListProgressBelowComplete(ctx, userID); err == nil && certs != nil {
		progress.CertificationProgress = certs
	}
	if upcoming, err := a.stores.Tasks.ListIncompleteBetween(ctx, userID, day, day.AddDate(0, 0, upcomingDays), upcomingTaskLimit); err == nil && upcoming != nil {
		progress.UpcomingTasks = upcoming
	}

	if recent, err := a.stores.Tasks.ListBetween(ctx, userID, day.AddDate(0, 0, -7), day.AddDate(0, 0, -1)); err == nil && len(recent) > 0 {
		completed := 0
		for _, t := range recent {
			if t.Done {
				completed++
			}
		}
		progress.AvgCompletionRate = float64(completed) / float64(len(recent)) * 100
	}

	return progress
}

func (a *ContextAggregator) fetchBehavioralInsights(ctx context.Context, userID uuid.UUID) BehavioralInsights {
	insights := BehavioralInsights{
		BestHours:   []learning.HourStat{},
		FocusBlocks: []learning.FocusBlockStat{},
	}

	sessions, err := a.stores.TimeSessions.ListSince(ctx, userID, a.now().AddDate(0, 0, -30), sessionSampleSize)
	if err != nil {
		a.log.WithError(err).Debug("time session fetch failed")
		sessions = nil
	}

	insights.TimeTrackingAccuracy = timeTrackingAccuracy(sessions)
	insights.FocusBlocks = mineFocusBlocks(sessions)

	if history, err := a.stores.CompletionHistory.ListRecent(ctx, userID, completionSampleSize); err == nil {
		insights.BestHours = mineBestHours(history)
	} else {
		a.log.WithError(err).Debug("completion history fetch failed")
	}

	a.persistMinedPatterns(ctx, userID, insights)

	return insights
}

// persistMinedPatterns writes fresh best-hour and focus-block patterns back
// to the pattern store so prediction and relations share them. Best-effort.
func (a *ContextAggregator) persistMinedPatterns(ctx context.Context, userID uuid.UUID, insights BehavioralInsights) {
	if a.learner == nil {
		return
	}
	if len(insights.BestHours) > 0 {
		if err := a.learner.SaveBestTimePattern(ctx, userID, learning.BestTimeData{BestHours: insights.BestHours}); err != nil {
			a.log.WithError(err).Debug("best time pattern save failed")
		}
	}
	if len(insights.FocusBlocks) > 0 {
		if err := a.learner.SaveFocusBlocksPattern(ctx, userID, learning.FocusBlocksData{Blocks: insights.FocusBlocks}); err != nil {
			a.log.WithError(err).Debug("focus blocks pattern save failed")
		}
	}
}

// timeTrackingAccuracy averages duration accuracy across sessions that have
// both an estimate and an actual.
func timeTrackingAccuracy(sessions []models.TimeSession) float64 {
	sum := 0.0
	count := 0
	for _, s := range sessions {
		if !s.EstimatedMinutes.Valid || !s.ActualMinutes.Valid {
			continue
		}
		sum += learning.DurationAccuracy(float64(s.EstimatedMinutes.Int64), float64(s.ActualMinutes.Int64))
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// mineBestHours groups a completion-history sample by scheduled hour and
// ranks hours by on-time completion rate, keeping the top 3.
func mineBestHours(history []models.CompletionRecord) []learning.HourStat {
	type bucket struct {
		total  int
		onTime int
	}
	buckets := make(map[int]*bucket)
	for _, rec := range history {
		if !rec.ScheduledHour.Valid {
			continue
		}
		hour := int(rec.ScheduledHour.Int64)
		b, ok := buckets[hour]
		if !ok {
			b = &bucket{}
			buckets[hour] = b
		}
		b.total++
		if rec.CompletedOnTime {
			b.onTime++
		}
	}

	stats := make([]learning.HourStat, 0, len(buckets))
	for hour, b := range buckets {
		stats = append(stats, learning.HourStat{
			Hour:           hour,
			CompletionRate: float64(b.onTime) / float64(b.total),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].CompletionRate != stats[j].CompletionRate {
			return stats[i].CompletionRate > stats[j].CompletionRate
		}
		return stats[i].Hour < stats[j].Hour
	})
	if len(stats) > topHourCount {
		stats = stats[:topHourCount]
	}
	return stats
}

// mineFocusBlocks groups tracked sessions by start hour and ranks hours by
// frequency, attaching the most common task category per hour.
func mineFocusBlocks(sessions []models.TimeSession) []learning.FocusBlockStat {
	type bucket struct {
		count      int
		categories map[string]int
	}
	buckets := make(map[int]*bucket)
	for _, s := range sessions {
		hour := s.StartedAt.Hour()
		b, ok := buckets[hour]
		if !ok {
			b = &bucket{categories: make(map[string]int)}
			buckets[hour] = b
		}
		b.count++
		if s.Category.Valid {
			b.categories[s.Category.String]++
		}
	}

	blocks := make([]learning.FocusBlockStat, 0, len(buckets))
	for hour, b := range buckets {
		top := ""
		topCount := 0
		for category, count := range b.categories {
			if count > topCount || (count == topCount && category < top) {
				top = category
				topCount = count
			}
		}
		blocks = append(blocks, learning.FocusBlockStat{
			Hour:        hour,
			Sessions:    b.count,
			TopCategory: top,
		})
	}
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Sessions != blocks[j].Sessions {
			return blocks[i].Sessions > blocks[j].Sessions
		}
		return blocks[i].Hour < blocks[j].Hour
	})
	if len(blocks) > topHourCount {
		blocks = blocks[:topHourCount]
	}
	return blocks
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
