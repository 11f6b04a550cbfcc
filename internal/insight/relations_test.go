package insight

import (
	"context"
	"database/sql"
	"fmt"
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

func newTestGraph(tasks *fakeTaskRepo, projects *fakeProjectRepo, certs *fakeCertRepo, sessions *fakeSessionRepo, patterns *fakePatternRepo) *RelationshipGraph {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewRelationshipGraph(tasks, projects, certs, sessions, patterns, log)
}

func TestGraph_UnknownTask(t *testing.T) {
	g := newTestGraph(&fakeTaskRepo{}, &fakeProjectRepo{}, &fakeCertRepo{}, &fakeSessionRepo{}, newFakePatternRepo())

	_, err := g.GetTaskRelations(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestGraph_ResolvesDirectLinks(t *testing.T) {
	userID := uuid.New()
	projectID := uuid.New()
	certID := uuid.New()
	moduleID := uuid.New()

	task := models.Task{
		ID:              uuid.New(),
		UserID:          userID,
		Title:           "Study chapter 4",
		ProjectID:       uuid.NullUUID{UUID: projectID, Valid: true},
		CertificationID: uuid.NullUUID{UUID: certID, Valid: true},
		ModuleID:        uuid.NullUUID{UUID: moduleID, Valid: true},
		TaskDate:        time.Now(),
	}
	projects := &fakeProjectRepo{projects: []models.Project{
		{ID: projectID, UserID: userID, Name: "Cloud exam prep", Status: "active"},
	}}
	certs := &fakeCertRepo{
		certs:   []models.Certification{{ID: certID, UserID: userID, Name: "Solutions Architect"}},
		modules: []models.CertificationModule{{ID: moduleID, CertificationID: certID, Name: "Networking", Position: 4}},
	}
	g := newTestGraph(&fakeTaskRepo{tasks: []models.Task{task}}, projects, certs, &fakeSessionRepo{}, newFakePatternRepo())

	relations, err := g.GetTaskRelations(context.Background(), userID, task.ID)
	require.NoError(t, err)

	require.NotNil(t, relations.Project)
	assert.Equal(t, "Cloud exam prep", relations.Project.Name)
	require.NotNil(t, relations.Certification)
	assert.Equal(t, "Solutions Architect", relations.Certification.Name)
	require.NotNil(t, relations.Module)
	assert.Equal(t, "Networking", relations.Module.Name)
}

func TestScoreSimilarity(t *testing.T) {
	projectID := uuid.New()
	base := &models.Task{
		ProjectID:        uuid.NullUUID{UUID: projectID, Valid: true},
		Category:         sql.NullString{String: "study", Valid: true},
		EstimatedMinutes: sql.NullInt64{Int64: 60, Valid: true},
	}

	t.Run("same project wins", func(t *testing.T) {
		other := &models.Task{
			ProjectID: uuid.NullUUID{UUID: projectID, Valid: true},
			Category:  sql.NullString{String: "study", Valid: true},
		}
		strength, relation := scoreSimilarity(base, other)
		assert.Equal(t, 0.8, strength)
		assert.Equal(t, "related", relation)
	})

	t.Run("same category", func(t *testing.T) {
		other := &models.Task{Category: sql.NullString{String: "study", Valid: true}}
		strength, relation := scoreSimilarity(base, other)
		assert.Equal(t, 0.6, strength)
		assert.Equal(t, "similar", relation)
	})

	t.Run("close duration", func(t *testing.T) {
		other := &models.Task{EstimatedMinutes: sql.NullInt64{Int64: 80, Valid: true}}
		strength, relation := scoreSimilarity(base, other)
		assert.Equal(t, 0.5, strength)
		assert.Equal(t, "similar_duration", relation)
	})

	t.Run("duration outside window", func(t *testing.T) {
		other := &models.Task{EstimatedMinutes: sql.NullInt64{Int64: 120, Valid: true}}
		strength, _ := scoreSimilarity(base, other)
		assert.Zero(t, strength)
	})

	t.Run("nothing shared", func(t *testing.T) {
		other := &models.Task{}
		strength, relation := scoreSimilarity(base, other)
		assert.Zero(t, strength)
		assert.Empty(t, relation)
	})
}

func TestGraph_RelatedTasksRankedAndCapped(t *testing.T) {
	userID := uuid.New()
	projectID := uuid.New()
	category := sql.NullString{String: "study", Valid: true}

	task := models.Task{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     "Main task",
		ProjectID: uuid.NullUUID{UUID: projectID, Valid: true},
		Category:  category,
		TaskDate:  time.Now(),
	}
	tasks := []models.Task{task}
	// Seven same-project siblings; only five survive the cap.
	for i := 0; i < 7; i++ {
		tasks = append(tasks, models.Task{
			ID:        uuid.New(),
			UserID:    userID,
			Title:     fmt.Sprintf("Sibling %d", i),
			ProjectID: uuid.NullUUID{UUID: projectID, Valid: true},
			TaskDate:  time.Now(),
		})
	}
	// A weaker category-only match and a completed sibling that must be
	// excluded from the incomplete scan.
	tasks = append(tasks,
		models.Task{ID: uuid.New(), UserID: userID, Title: "Category cousin", Category: category, TaskDate: time.Now()},
		models.Task{ID: uuid.New(), UserID: userID, Title: "Done already", ProjectID: uuid.NullUUID{UUID: projectID, Valid: true}, Done: true, TaskDate: time.Now()},
	)

	g := newTestGraph(&fakeTaskRepo{tasks: tasks}, &fakeProjectRepo{}, &fakeCertRepo{}, &fakeSessionRepo{}, newFakePatternRepo())

	relations, err := g.GetTaskRelations(context.Background(), userID, task.ID)
	require.NoError(t, err)

	require.Len(t, relations.RelatedTasks, 5)
	for _, related := range relations.RelatedTasks {
		assert.Equal(t, 0.8, related.Strength)
		assert.Equal(t, "related", related.Relation)
		assert.NotEqual(t, "Done already", related.Title)
	}
}

func TestGraph_WeakMatchesAreDropped(t *testing.T) {
	userID := uuid.New()
	task := models.Task{ID: uuid.New(), UserID: userID, Title: "Loner", TaskDate: time.Now()}
	other := models.Task{ID: uuid.New(), UserID: userID, Title: "Unrelated", TaskDate: time.Now()}

	g := newTestGraph(&fakeTaskRepo{tasks: []models.Task{task, other}}, &fakeProjectRepo{}, &fakeCertRepo{}, &fakeSessionRepo{}, newFakePatternRepo())

	relations, err := g.GetTaskRelations(context.Background(), userID, task.ID)
	require.NoError(t, err)

	assert.Empty(t, relations.RelatedTasks)
	assert.NotNil(t, relations.RelatedTasks)
}

func TestGraph_TimePatternsFromSessions(t *testing.T) {
	userID := uuid.New()
	task := models.Task{ID: uuid.New(), UserID: userID, TaskDate: time.Now()}
	taskRef := uuid.NullUUID{UUID: task.ID, Valid: true}

	sessions := &fakeSessionRepo{sessions: []models.TimeSession{
		{
			ID: uuid.New(), UserID: userID, TaskID: taskRef,
			StartedAt:     time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC),
			EndedAt:       sql.NullTime{Time: time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC), Valid: true},
			ActualMinutes: sql.NullInt64{Int64: 60, Valid: true},
		},
		{
			ID: uuid.New(), UserID: userID, TaskID: taskRef,
			StartedAt:     time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC),
			EndedAt:       sql.NullTime{Time: time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC), Valid: true},
			ActualMinutes: sql.NullInt64{Int64: 30, Valid: true},
		},
		{
			ID: uuid.New(), UserID: userID, TaskID: taskRef,
			StartedAt: time.Date(2026, 3, 11, 9, 30, 0, 0, time.UTC),
		},
	}}

	g := newTestGraph(&fakeTaskRepo{tasks: []models.Task{task}}, &fakeProjectRepo{}, &fakeCertRepo{}, sessions, newFakePatternRepo())

	relations, err := g.GetTaskRelations(context.Background(), userID, task.ID)
	require.NoError(t, err)

	patterns := relations.TimePatterns
	assert.Equal(t, []int{9, 15}, patterns.HoursWorked)
	assert.InDelta(t, 45.0, patterns.AvgSessionMinutes, 1e-9)
	assert.InDelta(t, 2.0/3.0, patterns.CompletionRate, 1e-9)
	// Without a learned pattern the worked hours double as optimal hours.
	assert.Equal(t, []int{9, 15}, patterns.OptimalHours)
}

func TestGraph_LearnedBestHoursOverrideOptimal(t *testing.T) {
	userID := uuid.New()
	task := models.Task{ID: uuid.New(), UserID: userID, TaskDate: time.Now()}

	sessions := &fakeSessionRepo{sessions: []models.TimeSession{
		{
			ID: uuid.New(), UserID: userID,
			TaskID:    uuid.NullUUID{UUID: task.ID, Valid: true},
			StartedAt: time.Date(2026, 3, 9, 22, 0, 0, 0, time.UTC),
		},
	}}
	patterns := newFakePatternRepo()
	data, err := learning.EncodePatternData(learning.BestTimeData{BestHours: []learning.HourStat{
		{Hour: 9, CompletionRate: 0.9},
		{Hour: 14, CompletionRate: 0.8},
	}})
	require.NoError(t, err)
	require.NoError(t, patterns.Upsert(context.Background(), &repository.Pattern{
		ID:          uuid.New(),
		UserID:      userID,
		PatternType: learning.PatternBestTime,
		PatternData: data,
	}))

	g := newTestGraph(&fakeTaskRepo{tasks: []models.Task{task}}, &fakeProjectRepo{}, &fakeCertRepo{}, sessions, patterns)

	relations, err := g.GetTaskRelations(context.Background(), userID, task.ID)
	require.NoError(t, err)

	assert.Equal(t, []int{22}, relations.TimePatterns.HoursWorked)
	assert.Equal(t, []int{9, 14}, relations.TimePatterns.OptimalHours)
}
