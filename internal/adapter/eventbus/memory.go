package eventbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/mealmesh/orders/internal/domain"
)

// Handler consumes a single committed domain event.
type Handler func(ctx context.Context, evt domain.DomainEvent) error

// MemoryEventBus dispatches committed event batches synchronously to the
// registered handlers, in registration order, preserving the batch order.
// Delivery is exactly one call per committed batch; retry is the caller's
// responsibility.
type MemoryEventBus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewMemoryBus() *MemoryEventBus {
	return &MemoryEventBus{}
}

// Register adds a handler. Handlers registered after a Publish call see only
// subsequent batches.
func (b *MemoryEventBus) Register(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *MemoryEventBus) Publish(ctx context.Context, events []domain.DomainEvent) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, evt := range events {
		for _, h := range handlers {
			if err := h(ctx, evt); err != nil {
				return fmt.Errorf("publish event %s (%s): %w", evt.ID, evt.Type, err)
			}
		}
	}
	return nil
}
