package events

import (
	"encoding/json"
	"sync"
	"time"

	"tourbook/internal/metrics"
)

const (
	EventSelectionStarted   = "selection_started"
	EventRangeCommitted     = "range_committed"
	EventRangeRejected      = "range_rejected"
	EventSelectionRestarted = "selection_restarted"
	EventSelectionCleared   = "selection_cleared"
	EventLikeToggled        = "like_toggled"
)

// Types lists every event type the services publish.
var Types = []string{
	EventSelectionStarted,
	EventRangeCommitted,
	EventRangeRejected,
	EventSelectionRestarted,
	EventSelectionCleared,
	EventLikeToggled,
}

// SelectionEventPayload is the calendar snapshot published after a click.
type SelectionEventPayload struct {
	SessionID string    `json:"session_id"`
	Clicked   string    `json:"clicked,omitempty"`
	Phase     string    `json:"phase"`
	Start     string    `json:"start,omitempty"`
	End       string    `json:"end,omitempty"`
	Days      int       `json:"days,omitempty"`
	Warning   string    `json:"warning,omitempty"`
	At        time.Time `json:"at"`
}

// LikeEventPayload records a like toggle by a signed-in viewer.
type LikeEventPayload struct {
	PostID string    `json:"post_id"`
	UserID string    `json:"user_id"`
	Liked  bool      `json:"liked"`
	At     time.Time `json:"at"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	metrics.IncEvent(event.Type)

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
