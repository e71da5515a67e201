package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the aggregate root: a guarded status state machine over a set of
// priced line items, with a ledger of domain events pending publication.
//
// State changes go through the named transition methods only. The ledger is
// owned by the aggregate until the unit of work clears it after a successful
// publish.
type Order struct {
	ID              string
	ExternalID      string
	TenantID        string
	Status          Status
	RestaurantID    string
	RestaurantName  string
	ETAMinutes      int
	Subtotal        Money
	Total           Money
	DeliveryFee     Money
	DeliveryAddress Address
	Customer        CustomerRef
	Items           []OrderItem
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time

	events []DomainEvent
}

// PlaceOrderParams carries the validated-on-entry inputs for the PlaceOrder factory.
type PlaceOrderParams struct {
	ExternalID      string
	Customer        CustomerRef
	DeliveryAddress Address
	Items           []OrderItem
	DeliveryFee     Money
	ETAMinutes      int
	RestaurantID    string
	RestaurantName  string
}

// PlaceOrder is the only way to create an order. It validates all inputs,
// computes subtotal and total, and records an OrderPlaced event.
//
// The subtotal/total currency is taken from the first item; item lists mixing
// currencies are accepted as-is and summed by amount.
func PlaceOrder(tenantID string, p PlaceOrderParams) (*Order, error) {
	if strings.TrimSpace(p.ExternalID) == "" {
		return nil, invalidArgument("external id is required")
	}
	if p.Customer == (CustomerRef{}) {
		return nil, invalidArgument("customer is required")
	}
	if p.DeliveryAddress == (Address{}) {
		return nil, invalidArgument("delivery address is required")
	}
	if len(p.Items) == 0 {
		return nil, invalidArgument("order must contain at least one item")
	}
	for _, item := range p.Items {
		if item.Quantity <= 0 {
			return nil, invalidArgument("item %q quantity must be positive", item.Name)
		}
		if item.UnitPrice.IsNegative() {
			return nil, invalidArgument("item %q unit price must not be negative", item.Name)
		}
	}
	if p.DeliveryFee.IsUnset() {
		return nil, invalidArgument("delivery fee is required")
	}
	if p.ETAMinutes <= 0 {
		return nil, invalidArgument("eta minutes must be positive, got %d", p.ETAMinutes)
	}
	if strings.TrimSpace(p.RestaurantName) == "" {
		return nil, invalidArgument("restaurant name is required")
	}

	currency := p.Items[0].UnitPrice.Currency
	subtotal := decimal.Zero
	for _, item := range p.Items {
		subtotal = subtotal.Add(item.Total.Amount)
	}
	total := subtotal.Add(p.DeliveryFee.Amount)

	now := time.Now().UTC()
	order := &Order{
		ID:              uuid.NewString(),
		ExternalID:      p.ExternalID,
		TenantID:        tenantID,
		Status:          StatusPending,
		RestaurantID:    p.RestaurantID,
		RestaurantName:  p.RestaurantName,
		ETAMinutes:      p.ETAMinutes,
		Subtotal:        Money{Amount: subtotal, Currency: currency},
		Total:           Money{Amount: total, Currency: currency},
		DeliveryFee:     p.DeliveryFee,
		DeliveryAddress: p.DeliveryAddress,
		Customer:        p.Customer,
		Items:           p.Items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.record(newDomainEvent(EventOrderPlaced, order, ""))

	return order, nil
}

// OrderState is the trusted reconstruction payload used by the persistence
// layer. It bypasses factory validation and starts with an empty event ledger.
type OrderState struct {
	ID              string
	ExternalID      string
	TenantID        string
	Status          Status
	RestaurantID    string
	RestaurantName  string
	ETAMinutes      int
	Subtotal        Money
	Total           Money
	DeliveryFee     Money
	DeliveryAddress Address
	Customer        CustomerRef
	Items           []OrderItem
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RestoreOrder rebuilds an aggregate from persisted state.
func RestoreOrder(s OrderState) *Order {
	return &Order{
		ID:              s.ID,
		ExternalID:      s.ExternalID,
		TenantID:        s.TenantID,
		Status:          s.Status,
		RestaurantID:    s.RestaurantID,
		RestaurantName:  s.RestaurantName,
		ETAMinutes:      s.ETAMinutes,
		Subtotal:        s.Subtotal,
		Total:           s.Total,
		DeliveryFee:     s.DeliveryFee,
		DeliveryAddress: s.DeliveryAddress,
		Customer:        s.Customer,
		Items:           s.Items,
		Version:         s.Version,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// Confirm moves a pending order to confirmed.
func (o *Order) Confirm() error {
	if err := o.transition(StatusPending, StatusConfirmed); err != nil {
		return err
	}
	o.record(newDomainEvent(EventOrderConfirmed, o, ""))
	return nil
}

// MarkReadyForPickup moves a confirmed order to ready-for-pickup.
func (o *Order) MarkReadyForPickup() error {
	if err := o.transition(StatusConfirmed, StatusReadyForPickup); err != nil {
		return err
	}
	o.record(newDomainEvent(EventOrderReadyForPickup, o, ""))
	return nil
}

// MoveOutForDelivery hands the order to a courier. No event is emitted.
func (o *Order) MoveOutForDelivery() error {
	return o.transition(StatusReadyForPickup, StatusOutForDelivery)
}

// CompleteDelivery moves the order to its delivered end state. No event is emitted.
func (o *Order) CompleteDelivery() error {
	return o.transition(StatusOutForDelivery, StatusDelivered)
}

// Cancel is allowed from every status except delivered.
func (o *Order) Cancel(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return invalidArgument("cancel reason is required")
	}
	if o.Status == StatusDelivered {
		return &InvalidTransitionError{Current: o.Status, Attempted: StatusCanceled}
	}
	o.Status = StatusCanceled
	o.UpdatedAt = time.Now().UTC()
	o.record(newDomainEvent(EventOrderCanceled, o, reason))
	return nil
}

// Fail forces the order into the failed state from any status, including
// delivered. The missing guard mirrors the observed lifecycle, where a
// post-delivery dispute can still fail an order.
func (o *Order) Fail(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return invalidArgument("fail reason is required")
	}
	o.Status = StatusFailed
	o.UpdatedAt = time.Now().UTC()
	o.record(newDomainEvent(EventOrderFailed, o, reason))
	return nil
}

func (o *Order) transition(required, next Status) error {
	if o.Status != required {
		return &InvalidTransitionError{Current: o.Status, Attempted: next}
	}
	o.Status = next
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (o *Order) record(evt DomainEvent) {
	o.events = append(o.events, evt)
}

// PendingEvents returns the not-yet-published events in append order.
func (o *Order) PendingEvents() []DomainEvent {
	events := make([]DomainEvent, len(o.events))
	copy(events, o.events)
	return events
}

// ClearEvents empties the ledger. Called only by the unit of work after a
// successful publish.
func (o *Order) ClearEvents() {
	o.events = nil
}
