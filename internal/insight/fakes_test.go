package insight

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dayflow/dayflow-backend/internal/models"
	"github.com/dayflow/dayflow-backend/internal/repository"
)

// In-memory repository fakes shared by the insight tests.

type fakeTaskRepo struct {
	tasks []models.Task
	err   error
}

func (f *fakeTaskRepo) Get(_ context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.tasks {
		if f.tasks[i].ID == taskID && f.tasks[i].UserID == userID {
			t := f.tasks[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (f *fakeTaskRepo) ListByDate(_ context.Context, userID uuid.UUID, date time.Time) ([]models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Task
	for _, t := range f.tasks {
		if t.UserID == userID && sameDay(t.TaskDate, date) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) ListBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Task
	for _, t := range f.tasks {
		day := truncateToDay(t.TaskDate)
		if t.UserID == userID && !day.Before(truncateToDay(from)) && !day.After(truncateToDay(to)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) ListIncompleteBetween(ctx context.Context, userID uuid.UUID, from, to time.Time, limit int) ([]models.Task, error) {
	all, err := f.ListBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	var out []models.Task
	for _, t := range all {
		if !t.Done {
			out = append(out, t)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) ListIncomplete(_ context.Context, userID uuid.UUID) ([]models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Task
	for _, t := range f.tasks {
		if t.UserID == userID && !t.Done {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) ListByCategory(_ context.Context, userID uuid.UUID, category string, limit int) ([]models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Task
	for _, t := range f.tasks {
		if t.UserID == userID && t.Category.Valid && t.Category.String == category {
			out = append(out, t)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) CountIncompleteOnDate(ctx context.Context, userID uuid.UUID, date time.Time) (int, error) {
	tasks, err := f.ListByDate(ctx, userID, date)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, t := range tasks {
		if !t.Done {
			count++
		}
	}
	return count, nil
}

type fakeHabitRepo struct {
	habits []models.Habit
	checks []models.HabitCheck
	err    error
}

func (f *fakeHabitRepo) List(_ context.Context, userID uuid.UUID) ([]models.Habit, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Habit
	for _, h := range f.habits {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHabitRepo) ChecksOnDate(_ context.Context, userID uuid.UUID, date time.Time) ([]models.HabitCheck, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.HabitCheck
	for _, c := range f.checks {
		if c.UserID == userID && sameDay(c.CheckDate, date) {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeNoteRepo struct {
	notes []models.Note
	err   error
}

func (f *fakeNoteRepo) ListRecent(_ context.Context, userID uuid.UUID, limit int) ([]models.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Note
	for _, n := range f.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeSessionRepo struct {
	sessions []models.TimeSession
	err      error
}

func (f *fakeSessionRepo) ListSince(_ context.Context, userID uuid.UUID, since time.Time, limit int) ([]models.TimeSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.TimeSession
	for _, s := range f.sessions {
		if s.UserID == userID && !s.StartedAt.Before(since) {
			out = append(out, s)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) ListByTask(_ context.Context, userID, taskID uuid.UUID) ([]models.TimeSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.TimeSession
	for _, s := range f.sessions {
		if s.UserID == userID && s.TaskID.Valid && s.TaskID.UUID == taskID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeProjectRepo struct {
	projects []models.Project
}

func (f *fakeProjectRepo) Get(_ context.Context, userID, projectID uuid.UUID) (*models.Project, error) {
	for i := range f.projects {
		if f.projects[i].ID == projectID && f.projects[i].UserID == userID {
			p := f.projects[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeProjectRepo) ListActive(_ context.Context, userID uuid.UUID) ([]models.Project, error) {
	var out []models.Project
	for _, p := range f.projects {
		if p.UserID == userID && p.Status == "active" {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeGoalRepo struct {
	goals []models.Goal
}

func (f *fakeGoalRepo) ListActive(_ context.Context, userID uuid.UUID) ([]models.Goal, error) {
	var out []models.Goal
	for _, g := range f.goals {
		if g.UserID == userID && g.Status == "active" {
			out = append(out, g)
		}
	}
	return out, nil
}

type fakeCertRepo struct {
	certs    []models.Certification
	modules  []models.CertificationModule
	progress []models.CertificationProgress
}

func (f *fakeCertRepo) Get(_ context.Context, userID, certID uuid.UUID) (*models.Certification, error) {
	for i := range f.certs {
		if f.certs[i].ID == certID && f.certs[i].UserID == userID {
			c := f.certs[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeCertRepo) GetModule(_ context.Context, moduleID uuid.UUID) (*models.CertificationModule, error) {
	for i := range f.modules {
		if f.modules[i].ID == moduleID {
			m := f.modules[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (f *fakeCertRepo) ListProgressBelowComplete(_ context.Context, userID uuid.UUID) ([]models.CertificationProgress, error) {
	var out []models.CertificationProgress
	for _, p := range f.progress {
		if p.UserID == userID && p.PercentComplete < 100 {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeHistoryRepo struct {
	records []models.CompletionRecord
	err     error
}

func (f *fakeHistoryRepo) ListRecent(_ context.Context, userID uuid.UUID, limit int) ([]models.CompletionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.CompletionRecord
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakePrefsRepo struct {
	prefs *models.UserPreferences
}

func (f *fakePrefsRepo) Get(_ context.Context, _ uuid.UUID) (*models.UserPreferences, error) {
	return f.prefs, nil
}

type fakePatternRepo struct {
	patterns map[string]*repository.Pattern
}

func newFakePatternRepo() *fakePatternRepo {
	return &fakePatternRepo{patterns: make(map[string]*repository.Pattern)}
}

func (f *fakePatternRepo) key(userID uuid.UUID, patternType string) string {
	return userID.String() + "/" + patternType
}

func (f *fakePatternRepo) Get(_ context.Context, userID uuid.UUID, patternType string) (*repository.Pattern, error) {
	if p, ok := f.patterns[f.key(userID, patternType)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakePatternRepo) Upsert(_ context.Context, pattern *repository.Pattern) error {
	cp := *pattern
	f.patterns[f.key(pattern.UserID, pattern.PatternType)] = &cp
	return nil
}

func (f *fakePatternRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]repository.Pattern, error) {
	var out []repository.Pattern
	for _, p := range f.patterns {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeEventRepo struct {
	events []repository.BehaviorEvent
}

func (f *fakeEventRepo) Insert(_ context.Context, event *repository.BehaviorEvent) error {
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEventRepo) ListRecent(_ context.Context, userID uuid.UUID, limit int) ([]repository.BehaviorEvent, error) {
	var out []repository.BehaviorEvent
	for _, e := range f.events {
		if e.UserID == userID {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func emptyStores() *repository.Stores {
	return &repository.Stores{
		Tasks:             &fakeTaskRepo{},
		Habits:            &fakeHabitRepo{},
		Notes:             &fakeNoteRepo{},
		TimeSessions:      &fakeSessionRepo{},
		Projects:          &fakeProjectRepo{},
		Goals:             &fakeGoalRepo{},
		Certifications:    &fakeCertRepo{},
		CompletionHistory: &fakeHistoryRepo{},
		Preferences:       &fakePrefsRepo{},
		Patterns:          newFakePatternRepo(),
		Events:            &fakeEventRepo{},
	}
}

func sameDay(a, b time.Time) bool {
	return truncateToDay(a).Equal(truncateToDay(b))
}
