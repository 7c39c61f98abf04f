package event

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrBusStopped is returned by Publish before Start or after Stop
var ErrBusStopped = errors.New("event bus is not running")

// InMemoryEventBus delivers events synchronously, in publish order, to
// every handler subscribed to their type. A failing or panicking handler
// does not prevent delivery to the others.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	running  atomic.Bool
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish dispatches events and returns the joined handler errors
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if !b.running.Load() {
		return ErrBusStopped
	}

	var errs []error
	for _, event := range events {
		for _, handler := range b.registry.GetHandlers(event.EventType()) {
			if err := b.dispatch(ctx, handler, event); err != nil {
				logger.L(ctx).Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err),
				)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler. Without explicit types the handler's own
// EventTypes are used; an empty list subscribes to everything.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start starts the event bus
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started", zap.Int("handlers", len(b.registry.GetAllHandlers())))
	return nil
}

// Stop stops accepting events. Delivery is synchronous so nothing is in flight
// once the last Publish has returned.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)
	b.logger.Info("event bus stopped")
	return nil
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked on %s: %v", event.EventType(), r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
