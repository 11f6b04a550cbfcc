package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dayflow/dayflow-backend/internal/repository"
)

// Outbox mirrors bus events to durable storage from a bounded background
// queue. Enqueue never blocks the emitter; when the queue is full the record
// is dropped. A dropped or failed write is a lost telemetry row, not a lost
// domain fact, so there is no retry.
type Outbox struct {
	queue   chan Event
	repo    repository.EventRepository
	workers int
	log     *logrus.Logger

	mu     sync.RWMutex
	closed bool

	wg     sync.WaitGroup
	cancel context.CancelFunc
	once   sync.Once
}

// NewOutbox creates an outbox with the given queue size and worker count.
func NewOutbox(repo repository.EventRepository, size, workers int, log *logrus.Logger) *Outbox {
	if size <= 0 {
		size = 256
	}
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = logrus.New()
	}
	return &Outbox{
		queue:   make(chan Event, size),
		repo:    repo,
		workers: workers,
		log:     log,
	}
}

// Enqueue hands an event to the background writers. It reports false when
// the queue is full or the outbox has stopped. The read lock keeps the send
// from racing the close in Stop.
func (o *Outbox) Enqueue(evt Event) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return false
	}
	select {
	case o.queue <- evt:
		return true
	default:
		return false
	}
}

// Start launches the background writers.
func (o *Outbox) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)
	for i := 0; i < o.workers; i++ {
		o.wg.Add(1)
		go o.run(ctx)
	}
}

// Stop drains in-flight writes and stops the workers.
func (o *Outbox) Stop() {
	o.once.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.queue)
		o.mu.Unlock()
	})
	o.wg.Wait()
	if o.cancel != nil {
		o.cancel()
	}
}

func (o *Outbox) run(ctx context.Context) {
	defer o.wg.Done()
	for evt := range o.queue {
		o.persist(ctx, evt)
	}
}

func (o *Outbox) persist(ctx context.Context, evt Event) {
	metadata, err := evt.MarshalMetadata()
	if err != nil {
		o.log.WithError(err).WithField("event_type", evt.Type).Warn("failed to encode event metadata")
		metadata = []byte("{}")
	}

	record := &repository.BehaviorEvent{
		ID:         uuid.New(),
		UserID:     evt.UserID,
		EventType:  string(evt.Type),
		EntityType: evt.EntityType,
		Metadata:   metadata,
		CreatedAt:  evt.Timestamp,
	}
	if evt.EntityID != uuid.Nil {
		record.EntityID = uuid.NullUUID{UUID: evt.EntityID, Valid: true}
	}

	if err := o.repo.Insert(ctx, record); err != nil {
		o.log.WithError(err).WithFields(logrus.Fields{
			"event_type": evt.Type,
			"user_id":    evt.UserID,
		}).Warn("failed to persist event record")
	}
}
