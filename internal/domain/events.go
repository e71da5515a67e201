package domain

import (
	"time"

	"github.com/rs/xid"
)

type EventType string

const (
	EventOrderPlaced         EventType = "order.placed"
	EventOrderConfirmed      EventType = "order.confirmed"
	EventOrderReadyForPickup EventType = "order.ready_for_pickup"
	EventOrderCanceled       EventType = "order.canceled"
	EventOrderFailed         EventType = "order.failed"
)

// DomainEvent is an immutable fact recorded when the aggregate changes state,
// published only after the change has been committed.
type DomainEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	TenantID   string    `json:"tenant_id"`
	OrderID    string    `json:"order_id"`
	ExternalID string    `json:"external_id"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newDomainEvent(t EventType, o *Order, reason string) DomainEvent {
	return DomainEvent{
		ID:         xid.New().String(),
		Type:       t,
		TenantID:   o.TenantID,
		OrderID:    o.ID,
		ExternalID: o.ExternalID,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}
