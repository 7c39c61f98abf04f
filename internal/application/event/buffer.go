package event

import (
	"context"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Source is anything that accumulates domain events, usually an aggregate root
type Source interface {
	PopDomainEvents() []shared.DomainEvent
}

// Buffer collects events raised inside one unit of work. A buffer from a
// failed unit is simply dropped, so nothing is published for rolled-back work.
type Buffer struct {
	events []shared.DomainEvent
}

// NewBuffer creates an empty buffer
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Add appends events
func (b *Buffer) Add(events ...shared.DomainEvent) {
	b.events = append(b.events, events...)
}

// Collect drains pending events from each source
func (b *Buffer) Collect(sources ...Source) {
	for _, src := range sources {
		b.events = append(b.events, src.PopDomainEvents()...)
	}
}

// Events returns buffered events in the order they were raised
func (b *Buffer) Events() []shared.DomainEvent {
	return b.events
}

// Len returns the number of buffered events
func (b *Buffer) Len() int {
	return len(b.events)
}

// Publish hands buffered events to the publisher after commit. Publishing
// failures are logged: the state change has already happened.
func (b *Buffer) Publish(ctx context.Context, publisher shared.EventPublisher) {
	if publisher == nil || len(b.events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, b.events...); err != nil {
		logger.L(ctx).Error("failed to publish domain events",
			zap.Int("count", len(b.events)),
			zap.Error(err),
		)
	}
	b.events = nil
}
