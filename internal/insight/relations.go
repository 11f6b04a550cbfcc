package insight

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dayflow/dayflow-backend/internal/learning"
	"github.com/dayflow/dayflow-backend/internal/models"
	"github.com/dayflow/dayflow-backend/internal/repository"
)

// Relation scoring constants.
const (
	sameProjectStrength   = 0.8
	sameCategoryStrength  = 0.6
	closeDurationStrength = 0.5
	relationThreshold     = 0.4
	maxRelatedTasks       = 5
	durationWindow        = 30
)

// RelatedTask is one similarity-scored neighbor of a task.
type RelatedTask struct {
	TaskID   uuid.UUID `json:"task_id"`
	Title    string    `json:"title"`
	Strength float64   `json:"strength"`
	Relation string    `json:"relation"`
}

// TimePatterns summarizes a task's own tracked history, with the global
// best-hour pattern layered on top when one exists.
type TimePatterns struct {
	HoursWorked       []int   `json:"hours_worked"`
	AvgSessionMinutes float64 `json:"avg_session_minutes"`
	CompletionRate    float64 `json:"completion_rate"`
	OptimalHours      []int   `json:"optimal_hours"`
}

// TaskRelations is the ad hoc relationship summary for one task.
type TaskRelations struct {
	TaskID        uuid.UUID                   `json:"task_id"`
	Project       *models.Project             `json:"project,omitempty"`
	Certification *models.Certification       `json:"certification,omitempty"`
	Module        *models.CertificationModule `json:"module,omitempty"`
	RelatedTasks  []RelatedTask               `json:"related_tasks"`
	TimePatterns  TimePatterns                `json:"time_patterns"`
}

// RelationshipGraph computes task relationship summaries on demand; nothing
// is persisted.
type RelationshipGraph struct {
	tasks          repository.TaskRepository
	projects       repository.ProjectRepository
	certifications repository.CertificationRepository
	sessions       repository.TimeSessionRepository
	patterns       repository.PatternRepository
	log            *logrus.Logger
}

// NewRelationshipGraph creates a grapher over the domain stores.
func NewRelationshipGraph(
	tasks repository.TaskRepository,
	projects repository.ProjectRepository,
	certifications repository.CertificationRepository,
	sessions repository.TimeSessionRepository,
	patterns repository.PatternRepository,
	log *logrus.Logger,
) *RelationshipGraph {
	if log == nil {
		log = logrus.New()
	}
	return &RelationshipGraph{
		tasks:          tasks,
		projects:       projects,
		certifications: certifications,
		sessions:       sessions,
		patterns:       patterns,
		log:            log,
	}
}

// GetTaskRelations resolves a task's direct links and scores its similarity
// to the user's other incomplete tasks. Fails only when the task itself is
// missing.
func (g *RelationshipGraph) GetTaskRelations(ctx context.Context, userID, taskID uuid.UUID) (*TaskRelations, error) {
	task, err := g.tasks.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	relations := &TaskRelations{
		TaskID:       task.ID,
		RelatedTasks: []RelatedTask{},
	}

	if task.ProjectID.Valid {
		if project, err := g.projects.Get(ctx, userID, task.ProjectID.UUID); err == nil {
			relations.Project = project
		} else {
			g.log.WithError(err).Debug("project lookup failed")
		}
	}
	if task.CertificationID.Valid {
		if cert, err := g.certifications.Get(ctx, userID, task.CertificationID.UUID); err == nil {
			relations.Certification = cert
		} else {
			g.log.WithError(err).Debug("certification lookup failed")
		}
	}
	if task.ModuleID.Valid {
		if module, err := g.certifications.GetModule(ctx, task.ModuleID.UUID); err == nil {
			relations.Module = module
		} else {
			g.log.WithError(err).Debug("module lookup failed")
		}
	}

	relations.RelatedTasks = g.relatedTasks(ctx, userID, task)
	relations.TimePatterns = g.timePatterns(ctx, userID, task)

	return relations, nil
}

func (g *RelationshipGraph) relatedTasks(ctx context.Context, userID uuid.UUID, task *models.Task) []RelatedTask {
	others, err := g.tasks.ListIncomplete(ctx, userID)
	if err != nil {
		g.log.WithError(err).Debug("incomplete task scan failed")
		return []RelatedTask{}
	}

	related := []RelatedTask{}
	for _, other := range others {
		if other.ID == task.ID {
			continue
		}
		strength, relation := scoreSimilarity(task, &other)
		if strength <= relationThreshold {
			continue
		}
		related = append(related, RelatedTask{
			TaskID:   other.ID,
			Title:    other.Title,
			Strength: strength,
			Relation: relation,
		})
	}

	sort.Slice(related, func(i, j int) bool {
		if related[i].Strength != related[j].Strength {
			return related[i].Strength > related[j].Strength
		}
		return related[i].Title < related[j].Title
	})
	if len(related) > maxRelatedTasks {
		related = related[:maxRelatedTasks]
	}
	return related
}

// scoreSimilarity applies the relation rules in strength order: shared
// project beats shared category beats close duration.
func scoreSimilarity(task, other *models.Task) (float64, string) {
	strength := 0.0
	relation := ""

	if task.ProjectID.Valid && other.ProjectID.Valid && task.ProjectID.UUID == other.ProjectID.UUID {
		strength = sameProjectStrength
		relation = "related"
	}
	if task.Category.Valid && other.Category.Valid && task.Category.String == other.Category.String {
		if strength < sameCategoryStrength {
			strength = sameCategoryStrength
			relation = "similar"
		}
	}
	if task.EstimatedMinutes.Valid && other.EstimatedMinutes.Valid {
		delta := task.EstimatedMinutes.Int64 - other.EstimatedMinutes.Int64
		if delta < 0 {
			delta = -delta
		}
		if delta <= durationWindow && strength < closeDurationStrength {
			strength = closeDurationStrength
			relation = "similar_duration"
		}
	}

	return strength, relation
}

// timePatterns summarizes the task's own tracked sessions, then overrides
// the optimal hours with the globally learned best-hour pattern so
// task-specific history and the global pattern reinforce each other.
func (g *RelationshipGraph) timePatterns(ctx context.Context, userID uuid.UUID, task *models.Task) TimePatterns {
	patterns := TimePatterns{
		HoursWorked:  []int{},
		OptimalHours: []int{},
	}

	sessions, err := g.sessions.ListByTask(ctx, userID, task.ID)
	if err != nil {
		g.log.WithError(err).Debug("session history fetch failed")
		sessions = nil
	}

	hourSet := make(map[int]bool)
	totalMinutes := 0.0
	measured := 0
	ended := 0
	for _, s := range sessions {
		hourSet[s.StartedAt.Hour()] = true
		if s.ActualMinutes.Valid {
			totalMinutes += float64(s.ActualMinutes.Int64)
			measured++
		}
		if s.EndedAt.Valid {
			ended++
		}
	}

	for hour := range hourSet {
		patterns.HoursWorked = append(patterns.HoursWorked, hour)
	}
	sort.Ints(patterns.HoursWorked)

	if measured > 0 {
		patterns.AvgSessionMinutes = totalMinutes / float64(measured)
	}
	if len(sessions) > 0 {
		patterns.CompletionRate = float64(ended) / float64(len(sessions))
	}

	patterns.OptimalHours = append(patterns.OptimalHours, patterns.HoursWorked...)

	if pattern, err := g.patterns.Get(ctx, userID, learning.PatternBestTime); err == nil && pattern != nil {
		if best := learning.DecodeBestTime(pattern.PatternData).BestHours; len(best) > 0 {
			patterns.OptimalHours = patterns.OptimalHours[:0]
			for _, stat := range best {
				patterns.OptimalHours = append(patterns.OptimalHours, stat.Hour)
			}
		}
	}

	return patterns
}
