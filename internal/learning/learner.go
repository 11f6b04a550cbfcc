// Package learning maintains per-user confidence estimates for the
// prediction types the engine makes. There is no model training here:
// "learning" is comparing predicted values to observed outcomes and folding
// the resulting accuracy into a smoothed score per (user, pattern type).
package learning

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dayflow/dayflow-backend/internal/repository"
)

// EMA weights. A single observation moves the confidence by at most 10%,
// so one outlier cannot swing the score. Test expectations depend on these
// exact values.
const (
	emaRetain  = 0.9
	emaObserve = 0.1
)

// defaultConfidence is reported for tracked pattern types with no row yet.
const defaultConfidence = 0.7

// lockStripes serializes read-modify-write of one (user, pattern type)
// confidence within this process. The store-side upsert is atomic per row
// but the EMA combination is computed here, so concurrent emits for the
// same key would otherwise race.
const lockStripes = 64

// LearnedFunc is notified after each pattern upsert.
type LearnedFunc func(ctx context.Context, userID uuid.UUID, patternType string, confidence float64)

// AccuracyLearner records (predicted, actual) pairs and maintains the
// per-user confidence estimates in the pattern store.
type AccuracyLearner struct {
	patterns  repository.PatternRepository
	log       *logrus.Logger
	onLearned LearnedFunc
	locks     [lockStripes]sync.Mutex
}

// NewAccuracyLearner creates a learner over the pattern store.
func NewAccuracyLearner(patterns repository.PatternRepository, log *logrus.Logger) *AccuracyLearner {
	if log == nil {
		log = logrus.New()
	}
	return &AccuracyLearner{patterns: patterns, log: log}
}

// OnLearned registers a callback invoked after each confidence update.
// The composition root uses it to publish PatternLearned events without
// coupling this package to the bus.
func (l *AccuracyLearner) OnLearned(fn LearnedFunc) {
	l.onLearned = fn
}

// DurationAccuracy scores a duration prediction in [0,1].
func DurationAccuracy(predictedMinutes, actualMinutes float64) float64 {
	denom := math.Max(predictedMinutes, actualMinutes)
	if denom <= 0 {
		return 0
	}
	return math.Max(0, 1-math.Abs(predictedMinutes-actualMinutes)/denom)
}

// LikelihoodAccuracy scores a completion-likelihood prediction against the
// binary outcome.
func LikelihoodAccuracy(predicted float64, completed bool) float64 {
	actual := 0.0
	if completed {
		actual = 1.0
	}
	return clamp01(1 - math.Abs(predicted-actual))
}

// OptimalTimeAccuracy scores an optimal-hour prediction: full credit when
// the actual hour was in the predicted set, half credit otherwise.
func OptimalTimeAccuracy(predictedHours []int, actualHour int) float64 {
	for _, h := range predictedHours {
		if h == actualHour {
			return 1
		}
	}
	return 0.5
}

// PlanModeAccuracy scores a plan-mode prediction.
func PlanModeAccuracy(predictedMode, actualMode string) float64 {
	if predictedMode == actualMode {
		return 1
	}
	return 0.3
}

// RecordDurationOutcome folds one estimated-vs-actual duration observation
// into the duration_accuracy pattern.
func (l *AccuracyLearner) RecordDurationOutcome(ctx context.Context, userID uuid.UUID, predictedMinutes, actualMinutes float64) error {
	return l.updatePatternAccuracy(ctx, userID, PatternDurationAccuracy, DurationAccuracy(predictedMinutes, actualMinutes))
}

// RecordLikelihoodOutcome folds one completion prediction outcome into the
// completion_likelihood_accuracy pattern.
func (l *AccuracyLearner) RecordLikelihoodOutcome(ctx context.Context, userID uuid.UUID, predicted float64, completed bool) error {
	return l.updatePatternAccuracy(ctx, userID, PatternCompletionLikelihoodAccuracy, LikelihoodAccuracy(predicted, completed))
}

// RecordOptimalTimeOutcome folds one optimal-hour outcome into the
// optimal_time_accuracy pattern.
func (l *AccuracyLearner) RecordOptimalTimeOutcome(ctx context.Context, userID uuid.UUID, predictedHours []int, actualHour int) error {
	return l.updatePatternAccuracy(ctx, userID, PatternOptimalTimeAccuracy, OptimalTimeAccuracy(predictedHours, actualHour))
}

// RecordPlanModeOutcome folds one plan-mode outcome into the
// plan_mode_accuracy pattern.
func (l *AccuracyLearner) RecordPlanModeOutcome(ctx context.Context, userID uuid.UUID, predictedMode, actualMode string) error {
	return l.updatePatternAccuracy(ctx, userID, PatternPlanModeAccuracy, PlanModeAccuracy(predictedMode, actualMode))
}

// updatePatternAccuracy upserts the confidence row for (user, pattern type)
// with a fixed-weight exponential moving average. With no prior row the raw
// accuracy seeds the score.
func (l *AccuracyLearner) updatePatternAccuracy(ctx context.Context, userID uuid.UUID, patternType string, accuracy float64) error {
	accuracy = clamp01(accuracy)

	lock := l.stripe(userID, patternType)
	lock.Lock()
	defer lock.Unlock()

	existing, err := l.patterns.Get(ctx, userID, patternType)
	if err != nil {
		return err
	}

	confidence := accuracy
	observations := 0
	if existing != nil {
		confidence = existing.ConfidenceScore*emaRetain + accuracy*emaObserve
		observations = DecodeAccuracy(existing.PatternData).Observations
	}
	confidence = clamp01(confidence)

	data, err := EncodePatternData(AccuracyData{
		LastAccuracy: accuracy,
		Observations: observations + 1,
	})
	if err != nil {
		return err
	}

	pattern := &repository.Pattern{
		UserID:          userID,
		PatternType:     patternType,
		PatternData:     data,
		ConfidenceScore: confidence,
		LastUpdated:     time.Now(),
	}
	if existing != nil {
		pattern.ID = existing.ID
	}

	if err := l.patterns.Upsert(ctx, pattern); err != nil {
		return err
	}

	l.log.WithFields(logrus.Fields{
		"user_id":      userID,
		"pattern_type": patternType,
		"accuracy":     accuracy,
		"confidence":   confidence,
	}).Debug("pattern confidence updated")

	if l.onLearned != nil {
		l.onLearned(ctx, userID, patternType, confidence)
	}

	return nil
}

// SaveBestTimePattern stores freshly mined best hours, preserving the
// existing confidence score (0.5 when the row is new).
func (l *AccuracyLearner) SaveBestTimePattern(ctx context.Context, userID uuid.UUID, data BestTimeData) error {
	return l.saveMinedPattern(ctx, userID, PatternBestTime, data)
}

// SaveFocusBlocksPattern stores freshly mined focus-time blocks.
func (l *AccuracyLearner) SaveFocusBlocksPattern(ctx context.Context, userID uuid.UUID, data FocusBlocksData) error {
	return l.saveMinedPattern(ctx, userID, PatternFocusBlocks, data)
}

func (l *AccuracyLearner) saveMinedPattern(ctx context.Context, userID uuid.UUID, patternType string, data interface{}) error {
	lock := l.stripe(userID, patternType)
	lock.Lock()
	defer lock.Unlock()

	existing, err := l.patterns.Get(ctx, userID, patternType)
	if err != nil {
		return err
	}

	confidence := 0.5
	var id uuid.UUID
	if existing != nil {
		confidence = existing.ConfidenceScore
		id = existing.ID
	}

	encoded, err := EncodePatternData(data)
	if err != nil {
		return err
	}

	return l.patterns.Upsert(ctx, &repository.Pattern{
		ID:              id,
		UserID:          userID,
		PatternType:     patternType,
		PatternData:     encoded,
		ConfidenceScore: confidence,
		LastUpdated:     time.Now(),
	})
}

// PersonalizationModel is the snapshot of the four tracked confidence
// scores.
type PersonalizationModel struct {
	DurationAccuracy             float64   `json:"duration_accuracy"`
	CompletionLikelihoodAccuracy float64   `json:"completion_likelihood_accuracy"`
	OptimalTimeAccuracy          float64   `json:"optimal_time_accuracy"`
	PlanModeAccuracy             float64   `json:"plan_mode_accuracy"`
	UpdatedAt                    time.Time `json:"updated_at"`
}

// GetPersonalizationModel returns the tracked confidence scores, defaulting
// to 0.7 for pattern types with no observations yet.
func (l *AccuracyLearner) GetPersonalizationModel(ctx context.Context, userID uuid.UUID) (PersonalizationModel, error) {
	model := PersonalizationModel{
		DurationAccuracy:             defaultConfidence,
		CompletionLikelihoodAccuracy: defaultConfidence,
		OptimalTimeAccuracy:          defaultConfidence,
		PlanModeAccuracy:             defaultConfidence,
		UpdatedAt:                    time.Now(),
	}

	patterns, err := l.patterns.ListByUser(ctx, userID)
	if err != nil {
		return model, err
	}

	for _, p := range patterns {
		switch p.PatternType {
		case PatternDurationAccuracy:
			model.DurationAccuracy = p.ConfidenceScore
		case PatternCompletionLikelihoodAccuracy:
			model.CompletionLikelihoodAccuracy = p.ConfidenceScore
		case PatternOptimalTimeAccuracy:
			model.OptimalTimeAccuracy = p.ConfidenceScore
		case PatternPlanModeAccuracy:
			model.PlanModeAccuracy = p.ConfidenceScore
		}
	}

	return model, nil
}

// GetOverallAccuracy returns the unweighted mean of the four confidence
// scores, rounded to two decimals.
func (l *AccuracyLearner) GetOverallAccuracy(ctx context.Context, userID uuid.UUID) (float64, error) {
	model, err := l.GetPersonalizationModel(ctx, userID)
	if err != nil {
		return 0, err
	}
	mean := (model.DurationAccuracy + model.CompletionLikelihoodAccuracy +
		model.OptimalTimeAccuracy + model.PlanModeAccuracy) / 4
	return math.Round(mean*100) / 100, nil
}

func (l *AccuracyLearner) stripe(userID uuid.UUID, patternType string) *sync.Mutex {
	h := fnv.New32a()
	h.Write(userID[:])
	h.Write([]byte(patternType))
	return &l.locks[h.Sum32()%lockStripes]
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
