package interfaces

import (
	"context"

	"github.com/mealmesh/orders/internal/domain"
)

// EventBus publishes a finite, ordered batch of domain events. It is invoked
// once per committed batch; retrying is the caller's concern, not the bus's.
type EventBus interface {
	Publish(ctx context.Context, events []domain.DomainEvent) error
}

// UnitOfWork persists the repository operations staged for the given
// aggregates and, only if persistence succeeds, publishes each aggregate's
// pending events through the bus and clears them. Operations staged for
// aggregates of concurrent commands are not touched. A failed persist
// publishes nothing and leaves every ledger untouched, so a retried command
// can still publish the events.
type UnitOfWork interface {
	SaveChanges(ctx context.Context, bus EventBus, aggregates ...*domain.Order) error
}
