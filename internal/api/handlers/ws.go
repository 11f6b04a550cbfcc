package handlers

import (
	"context"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dayflow/dayflow-backend/internal/api/middleware"
	"github.com/dayflow/dayflow-backend/internal/events"
)

const clientBuffer = 32

// eventWriter is the slice of the websocket connection the send loop needs.
type eventWriter interface {
	WriteJSON(v interface{}) error
}

type subscriber struct {
	userID uuid.UUID
	ch     chan events.Event
}

// EventHub streams live bus events to websocket clients. The hub holds one
// bus subscription per event type and fans out to per-connection channels,
// each scoped to the connection's authenticated user; a slow client drops
// frames instead of blocking the bus.
type EventHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]subscriber
	log   *logrus.Logger
}

// NewEventHub creates a hub and subscribes it to every event type.
func NewEventHub(bus *events.Bus, log *logrus.Logger) *EventHub {
	if log == nil {
		log = logrus.New()
	}
	hub := &EventHub{
		conns: make(map[*websocket.Conn]subscriber),
		log:   log,
	}
	for _, eventType := range events.AllTypes() {
		bus.Subscribe(eventType, hub.publish)
	}
	return hub
}

func (h *EventHub) publish(_ context.Context, evt events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.conns {
		if sub.userID != evt.UserID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			h.log.WithField("user_id", sub.userID).Debug("websocket client lagging, dropping event")
		}
	}
	return nil
}

// Serve handles one websocket connection until the client disconnects. The
// read pump exists only to notice the close frame; clients never send data.
func (h *EventHub) Serve(conn *websocket.Conn) {
	userID, ok := conn.Locals(middleware.UserIDKey).(uuid.UUID)
	if !ok {
		conn.Close()
		return
	}

	ch := make(chan events.Event, clientBuffer)

	h.mu.Lock()
	h.conns[conn] = subscriber{userID: userID, ch: ch}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.stream(conn, ch, done)
}

func (h *EventHub) stream(w eventWriter, ch <-chan events.Event, done <-chan struct{}) {
	for {
		select {
		case evt := <-ch:
			if err := w.WriteJSON(evt); err != nil {
				h.log.WithError(err).Debug("websocket write failed")
				return
			}
		case <-done:
			return
		}
	}
}
