package events

import (
	"context"
	"sync"
	"time"

	"catalog-analytics-api/internal/models"
)

// EventType represents the type of event.
type EventType string

const (
	// EventOfferCreated is emitted after a product offer is durably written
	EventOfferCreated EventType = "offer.created"
	// EventContactCreated is emitted after a contact message is durably written
	EventContactCreated EventType = "contact.created"
)

// Event represents an event in the system.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      interface{}
}

// OfferCreatedData contains data for offer created events.
type OfferCreatedData struct {
	Offer       models.OfferEvent
	ProductName string
}

// ContactCreatedData contains data for contact created events.
type ContactCreatedData struct {
	Message models.ContactMessage
}

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Manager manages event handlers and event publishing. Subscribers run as
// downstream consumers of the store's append, never inside it: a failing or
// slow notifier cannot fail a form submission.
type Manager struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	enabled  bool
}

// NewManager creates a new event manager.
func NewManager(enabled bool) *Manager {
	return &Manager{
		handlers: make(map[EventType][]Handler),
		enabled:  enabled,
	}
}

// Subscribe subscribes a handler to a specific event type.
func (m *Manager) Subscribe(eventType EventType, handler Handler) {
	if !m.enabled {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// Publish publishes an event to all subscribed handlers asynchronously.
func (m *Manager) Publish(ctx context.Context, eventType EventType, data interface{}) {
	if !m.enabled {
		return
	}

	m.mu.RLock()
	handlers := m.handlers[eventType]
	m.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	// Subscribers outlive the request that produced the event: the handler
	// returns right after Publish, canceling its context, which would abort
	// any outbound call a subscriber binds to it.
	ctx = context.WithoutCancel(ctx)

	for _, handler := range handlers {
		go func(h Handler) {
			// Notifier errors are the subscriber's problem to log
			_ = h(ctx, event)
		}(handler)
	}
}

// PublishOfferCreated publishes an offer created event.
func (m *Manager) PublishOfferCreated(ctx context.Context, offer models.OfferEvent, productName string) {
	m.Publish(ctx, EventOfferCreated, OfferCreatedData{Offer: offer, ProductName: productName})
}

// PublishContactCreated publishes a contact created event.
func (m *Manager) PublishContactCreated(ctx context.Context, msg models.ContactMessage) {
	m.Publish(ctx, EventContactCreated, ContactCreatedData{Message: msg})
}

// Shutdown shuts down the event manager.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enabled = false
	m.handlers = make(map[EventType][]Handler)
}
