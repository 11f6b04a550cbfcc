package events

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Handler reacts to a single event. An error (or panic) inside a handler is
// logged by the bus and never reaches the emitter or sibling handlers.
type Handler func(ctx context.Context, evt Event) error

// Sink receives events after fan-out for best-effort durable persistence.
// Enqueue must not block; it reports whether the event was accepted.
type Sink interface {
	Enqueue(evt Event) bool
}

// Bus is an in-process publish/subscribe event bus with a bounded in-memory
// history log. Subscribing the same handler twice for one event type keeps a
// single registration.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType]map[uintptr]Handler

	histMu   sync.Mutex
	history  []Event
	histNext int
	histLen  int

	sink Sink
	log  *logrus.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithHistorySize overrides the default history capacity of 1000.
func WithHistorySize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.history = make([]Event, n)
		}
	}
}

// WithSink attaches the durable persistence sink.
func WithSink(s Sink) Option {
	return func(b *Bus) { b.sink = s }
}

// NewBus creates a new event bus.
func NewBus(log *logrus.Logger, opts ...Option) *Bus {
	if log == nil {
		log = logrus.New()
	}
	b := &Bus{
		handlers: make(map[EventType]map[uintptr]Handler),
		history:  make([]Event, 1000),
		log:      log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for an event type and returns a function
// that removes the registration.
func (b *Bus) Subscribe(eventType EventType, handler Handler) func() {
	key := handlerKey(handler)

	b.mu.Lock()
	set, ok := b.handlers[eventType]
	if !ok {
		set = make(map[uintptr]Handler)
		b.handlers[eventType] = set
	}
	set[key] = handler
	b.mu.Unlock()

	return func() {
		b.Unsubscribe(eventType, handler)
	}
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(eventType EventType, handler Handler) {
	key := handlerKey(handler)

	b.mu.Lock()
	if set, ok := b.handlers[eventType]; ok {
		delete(set, key)
	}
	b.mu.Unlock()
}

// Emit stamps the event, appends it to the bounded history log, invokes
// every subscribed handler concurrently and waits for all of them. Handler
// failures are logged, never propagated. After the join the event is handed
// to the persistence sink without waiting for the write.
func (b *Bus) Emit(ctx context.Context, evt Event) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	b.appendHistory(evt)

	b.mu.RLock()
	snapshot := make([]Handler, 0, len(b.handlers[evt.Type]))
	for _, h := range b.handlers[evt.Type] {
		snapshot = append(snapshot, h)
	}
	b.mu.RUnlock()

	var wg sync.WaitGroup
	for _, handler := range snapshot {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			if err := b.invoke(ctx, h, evt); err != nil {
				b.log.WithFields(logrus.Fields{
					"event_type": evt.Type,
					"user_id":    evt.UserID,
				}).WithError(err).Error("event handler failed")
			}
		}(handler)
	}
	wg.Wait()

	if b.sink != nil {
		if !b.sink.Enqueue(evt) {
			b.log.WithField("event_type", evt.Type).Warn("event persistence queue full, dropping record")
		}
	}

	return nil
}

func (b *Bus) invoke(ctx context.Context, h Handler, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, evt)
}

func (b *Bus) appendHistory(evt Event) {
	b.histMu.Lock()
	defer b.histMu.Unlock()

	b.history[b.histNext] = evt
	b.histNext = (b.histNext + 1) % len(b.history)
	if b.histLen < len(b.history) {
		b.histLen++
	}
}

// History returns up to limit retained events, most recent last. An empty
// eventType returns events of every type. limit <= 0 means no limit beyond
// the log capacity.
func (b *Bus) History(eventType EventType, limit int) []Event {
	return b.filterHistory(func(evt Event) bool {
		return eventType == "" || evt.Type == eventType
	}, limit)
}

// HistoryForUser returns one user's retained events, most recent last. The
// log is shared across users; reads exposed outside the process go through
// this method so nobody sees another user's events.
func (b *Bus) HistoryForUser(userID uuid.UUID, eventType EventType, limit int) []Event {
	return b.filterHistory(func(evt Event) bool {
		if eventType != "" && evt.Type != eventType {
			return false
		}
		return evt.UserID == userID
	}, limit)
}

func (b *Bus) filterHistory(match func(Event) bool, limit int) []Event {
	b.histMu.Lock()
	defer b.histMu.Unlock()

	out := make([]Event, 0, b.histLen)
	start := b.histNext - b.histLen
	if start < 0 {
		start += len(b.history)
	}
	for i := 0; i < b.histLen; i++ {
		evt := b.history[(start+i)%len(b.history)]
		if !match(evt) {
			continue
		}
		out = append(out, evt)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// handlerKey identifies a handler by its code pointer so duplicate
// subscriptions of the same function collapse to one registration.
func handlerKey(h Handler) uintptr {
	return reflect.ValueOf(h).Pointer()
}
