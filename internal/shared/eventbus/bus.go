package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bus-tracker/internal/shared/logger"
)

// Event types published by the auth and bus modules
const (
	EventTypeUserRegistered    = "user.registered"
	EventTypeUserAuthenticated = "user.authenticated"
	EventTypeUserLoggedOut     = "user.logged_out"
	EventTypeBusCreated        = "bus.created"
	EventTypeBusUpdated        = "bus.updated"
	EventTypeBusDeleted        = "bus.deleted"
)

// Event is a domain occurrence. Attributes carry ids only, never credentials.
type Event struct {
	Type       string
	ActorID    string
	SubjectID  string
	Attributes map[string]string
	Timestamp  time.Time
}

// NewEvent creates an event stamped with the current time
func NewEvent(eventType, actorID, subjectID string) Event {
	return Event{
		Type:      eventType,
		ActorID:   actorID,
		SubjectID: subjectID,
		Timestamp: time.Now().UTC(),
	}
}

// Handler defines the event handler function type
type Handler func(ctx context.Context, event Event) error

// Publisher is the narrow view the usecases depend on
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// BusConfig holds configuration for the event bus
type BusConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultBusConfig returns default configuration
func DefaultBusConfig() BusConfig {
	return BusConfig{
		MaxRetries: 2,
		RetryDelay: 50 * time.Millisecond,
	}
}

// EventBus is an in-process, synchronous event bus
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   logger.Logger
	config   BusConfig
}

// NewEventBus creates a new event bus instance
func NewEventBus(log logger.Logger) *EventBus {
	return NewEventBusWithConfig(log, DefaultBusConfig())
}

// NewEventBusWithConfig creates a new event bus with custom configuration
func NewEventBusWithConfig(log logger.Logger, config BusConfig) *EventBus {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   log.WithComponent("eventbus"),
		config:   config,
	}
}

// Subscribe adds a handler for a specific event type
func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debugf("Subscribed handler for event type: %s", eventType)
}

// SubscribeAll adds one handler for several event types
func (eb *EventBus) SubscribeAll(handler Handler, eventTypes ...string) {
	for _, t := range eventTypes {
		eb.Subscribe(t, handler)
	}
}

// Publish delivers an event to every handler registered for its type.
// Handlers run in subscription order; the first handler to exhaust its
// retries stops delivery and its error is returned.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	handlers := eb.handlers[event.Type]
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	for i, handler := range handlers {
		if err := eb.executeHandler(ctx, event, handler, i); err != nil {
			return err
		}
	}
	return nil
}

// executeHandler executes a handler with retry logic
func (eb *EventBus) executeHandler(ctx context.Context, event Event, handler Handler, handlerIndex int) error {
	var lastErr error

	for attempt := 0; attempt <= eb.config.MaxRetries; attempt++ {
		if attempt > 0 {
			eb.logger.Warnf("Retrying handler %d for event %s (attempt %d/%d)",
				handlerIndex, event.Type, attempt+1, eb.config.MaxRetries+1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(eb.config.RetryDelay):
			}
		}

		if err := handler(ctx, event); err != nil {
			lastErr = err
			eb.logger.Errorf("Handler %d failed for event %s: %v", handlerIndex, event.Type, err)
			continue
		}
		return nil
	}

	return fmt.Errorf("handler failed after %d attempts: %w", eb.config.MaxRetries+1, lastErr)
}

// Unsubscribe removes all handlers for a specific event type
func (eb *EventBus) Unsubscribe(eventType string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	delete(eb.handlers, eventType)
}

// GetSubscriberCount returns the number of handlers for an event type
func (eb *EventBus) GetSubscriberCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}

// AuditHandler returns a handler that writes every event to log
func AuditHandler(log logger.Logger) Handler {
	audit := log.WithComponent("audit")
	return func(ctx context.Context, event Event) error {
		fields := map[string]interface{}{
			"event":   event.Type,
			"actor":   event.ActorID,
			"subject": event.SubjectID,
		}
		for k, v := range event.Attributes {
			fields[k] = v
		}
		audit.WithContext(ctx).WithFields(fields).Info("audit")
		return nil
	}
}

var _ Publisher = (*EventBus)(nil)
