// util/event_bus.go

package util

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	logger "github.com/tvmsuite/console/logging"
)

// Event types published by the console on successful mutations.
const (
	EventViolationUpdated = "violation.updated"
	EventViolationDeleted = "violation.deleted"
	EventEnforcerCreated  = "enforcer.created"
	EventEnforcerUpdated  = "enforcer.updated"
	EventEnforcerDeleted  = "enforcer.deleted"
	EventSettingsUpdated  = "settings.updated"
	EventSessionChanged   = "session.changed"
)

// Event represents an event in the system
type Event struct {
	Type    string
	Payload interface{}
}

// EventHandler is a function that handles an event
type EventHandler func(context.Context, Event) error

// EventBus manages event subscriptions and publications. Dispatch is
// synchronous and in subscription order: a mutation's side effects
// (audit record, notification) settle before control returns to the
// view, which keeps them exactly-once per publish.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus creates a new EventBus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]EventHandler),
	}
}

// Subscribe adds a new subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType string, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], handler)
}

// Publish sends an event to all subscribers. Handler errors are
// logged, never propagated: a failed side effect must not undo a
// mutation that already succeeded on the backend.
func (eb *EventBus) Publish(ctx context.Context, eventType string, payload interface{}) {
	eb.mu.RLock()
	handlers := append([]EventHandler(nil), eb.subscribers[eventType]...)
	eb.mu.RUnlock()

	event := Event{
		Type:    eventType,
		Payload: payload,
	}

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			logger.Error("Event handler error",
				zap.Error(fmt.Errorf("event handler error: %w", err)),
				zap.String("eventType", eventType))
		}
	}
}

// Unsubscribe removes a subscriber for a specific event type
func (eb *EventBus) Unsubscribe(eventType string, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if handlers, exists := eb.subscribers[eventType]; exists {
		for i, h := range handlers {
			if fmt.Sprintf("%p", h) == fmt.Sprintf("%p", handler) {
				eb.subscribers[eventType] = append(handlers[:i], handlers[i+1:]...)
				break
			}
		}
	}
}
