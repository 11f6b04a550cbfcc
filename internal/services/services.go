package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dayflow/dayflow-backend/internal/config"
	"github.com/dayflow/dayflow-backend/internal/events"
	"github.com/dayflow/dayflow-backend/internal/insight"
	"github.com/dayflow/dayflow-backend/internal/learning"
	"github.com/dayflow/dayflow-backend/internal/repository"
)

// Services holds all service instances
type Services struct {
	Bus      *events.Bus
	Emitter  *events.Emitter
	Outbox   *events.Outbox
	Registry *events.Registry

	Learner    *learning.AccuracyLearner
	Aggregator *insight.ContextAggregator
	Predictor  *insight.CompletionPredictor
	Motivator  *insight.MotivationGenerator
	Relations  *insight.RelationshipGraph

	Stores *repository.Stores
}

// NewServices wires the personalization engine: outbox → bus → emitter,
// learner feeding back PatternLearned events, handler registry subscribed
// once, and the read-side services over the same stores.
func NewServices(stores *repository.Stores, cfg *config.Config, log *logrus.Logger) *Services {
	if log == nil {
		log = logrus.New()
	}

	outbox := events.NewOutbox(stores.Events, cfg.Events.OutboxSize, cfg.Events.Workers, log)
	bus := events.NewBus(log,
		events.WithHistorySize(cfg.Events.HistorySize),
		events.WithSink(outbox),
	)
	emitter := events.NewEmitter(bus)

	learner := learning.NewAccuracyLearner(stores.Patterns, log)
	learner.OnLearned(func(ctx context.Context, userID uuid.UUID, patternType string, confidence float64) {
		if err := emitter.EmitPatternLearned(ctx, userID, patternType, confidence); err != nil {
			log.WithError(err).Debug("pattern learned emit failed")
		}
	})

	registry := events.RegisterHandlers(bus, learner, log)

	sentiment := buildSentiment(cfg.Sentiment, log)
	aggregator := insight.NewContextAggregator(stores, sentiment, learner, log)
	predictor := insight.NewCompletionPredictor(stores.Tasks, stores.Habits, stores.Patterns, log)
	motivator := insight.NewMotivationGenerator(aggregator, log)
	relations := insight.NewRelationshipGraph(
		stores.Tasks,
		stores.Projects,
		stores.Certifications,
		stores.TimeSessions,
		stores.Patterns,
		log,
	)

	return &Services{
		Bus:        bus,
		Emitter:    emitter,
		Outbox:     outbox,
		Registry:   registry,
		Learner:    learner,
		Aggregator: aggregator,
		Predictor:  predictor,
		Motivator:  motivator,
		Relations:  relations,
		Stores:     stores,
	}
}

func buildSentiment(cfg config.SentimentConfig, log *logrus.Logger) insight.SentimentAnalyzer {
	if cfg.Provider == "openai" && cfg.APIKey != "" {
		log.WithField("model", cfg.Model).Info("using OpenAI sentiment analyzer")
		return insight.NewOpenAIAnalyzer(cfg.APIKey, cfg.Model)
	}
	return insight.NewKeywordAnalyzer()
}
