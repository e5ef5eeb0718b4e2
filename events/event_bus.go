// events/event_bus.go

package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	logger "github.com/identityops/idassign/logging"
)

// Event types published by the engine.
const (
	TypeRunStarted    = "run.started"
	TypeRunProgress   = "run.progress"
	TypeRunCompleted  = "run.completed"
	TypeItemCompleted = "item.completed"
)

// Event represents an event in the system
type Event struct {
	Type    string
	Payload interface{}
}

// RunProgress is the payload of run.progress events, emitted once per chunk.
type RunProgress struct {
	OperationID    string
	ProcessedCount int
	TotalCount     int
}

// EventHandler is a function that handles an event
type EventHandler func(context.Context, Event) error

// EventBus manages event subscriptions and publications
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	errorChan   chan error
}

// NewEventBus creates a new EventBus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]EventHandler),
		errorChan:   make(chan error, 100), // Buffer size can be adjusted
	}
}

// Subscribe adds a new subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType string, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], handler)
}

// Publish sends an event to all subscribers. Handlers run synchronously in
// publish order; progress consumers rely on ordered delivery within a run.
func (eb *EventBus) Publish(ctx context.Context, eventType string, payload interface{}) {
	eb.mu.RLock()
	handlers, exists := eb.subscribers[eventType]
	eb.mu.RUnlock()

	if !exists {
		return
	}

	event := Event{
		Type:    eventType,
		Payload: payload,
	}

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			select {
			case eb.errorChan <- fmt.Errorf("event handler error: %w", err):
			default:
				// If error channel is full, log the error
				logger.Error("Error channel full, logging event handler error",
					zap.Error(err),
					zap.String("eventType", eventType))
			}
		}
	}
}

// Start begins processing events and handling errors
func (eb *EventBus) Start(ctx context.Context) {
	go eb.processErrors(ctx)
}

// processErrors handles errors from event handlers
func (eb *EventBus) processErrors(ctx context.Context) {
	for {
		select {
		case err := <-eb.errorChan:
			logger.Error("Event handler error", zap.Error(err))
		case <-ctx.Done():
			return
		}
	}
}
