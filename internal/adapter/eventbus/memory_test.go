package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmesh/orders/internal/domain"
)

func batch(types ...domain.EventType) []domain.DomainEvent {
	events := make([]domain.DomainEvent, len(types))
	for i, t := range types {
		events[i] = domain.DomainEvent{ID: string(rune('a' + i)), Type: t}
	}
	return events
}

func TestMemoryBusPreservesOrder(t *testing.T) {
	bus := NewMemoryBus()

	var seen []domain.EventType
	bus.Register(func(ctx context.Context, evt domain.DomainEvent) error {
		seen = append(seen, evt.Type)
		return nil
	})

	err := bus.Publish(context.Background(), batch(domain.EventOrderPlaced, domain.EventOrderConfirmed, domain.EventOrderCanceled))
	require.NoError(t, err)
	assert.Equal(t, []domain.EventType{domain.EventOrderPlaced, domain.EventOrderConfirmed, domain.EventOrderCanceled}, seen)
}

func TestMemoryBusDispatchesToAllHandlers(t *testing.T) {
	bus := NewMemoryBus()

	var first, second int
	bus.Register(func(ctx context.Context, evt domain.DomainEvent) error {
		first++
		return nil
	})
	bus.Register(func(ctx context.Context, evt domain.DomainEvent) error {
		second++
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), batch(domain.EventOrderPlaced, domain.EventOrderConfirmed)))
	assert.Equal(t, 2, first)
	assert.Equal(t, 2, second)
}

func TestMemoryBusStopsOnHandlerError(t *testing.T) {
	bus := NewMemoryBus()
	boom := errors.New("broker down")

	var calls int
	bus.Register(func(ctx context.Context, evt domain.DomainEvent) error {
		calls++
		if evt.Type == domain.EventOrderConfirmed {
			return boom
		}
		return nil
	})

	err := bus.Publish(context.Background(), batch(domain.EventOrderPlaced, domain.EventOrderConfirmed, domain.EventOrderCanceled))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestMemoryBusNoHandlers(t *testing.T) {
	bus := NewMemoryBus()
	assert.NoError(t, bus.Publish(context.Background(), batch(domain.EventOrderPlaced)))
}
