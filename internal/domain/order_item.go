package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderItem is a priced, quantified line item. Total is always
// UnitPrice multiplied by Quantity and is recomputed on any mutation.
type OrderItem struct {
	ID        string
	Name      string
	Quantity  int
	UnitPrice Money
	Total     Money
	UpdatedAt time.Time
}

func NewOrderItem(name string, quantity int, unitPrice Money) (OrderItem, error) {
	if strings.TrimSpace(name) == "" {
		return OrderItem{}, invalidArgument("item name is required")
	}
	if quantity <= 0 {
		return OrderItem{}, invalidArgument("item quantity must be positive, got %d", quantity)
	}
	if unitPrice.IsNegative() {
		return OrderItem{}, invalidArgument("item unit price must not be negative, got %s", unitPrice)
	}

	return OrderItem{
		ID:        uuid.NewString(),
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Total:     unitPrice.MultiplyByScalar(int64(quantity)),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// UpdateQuantity re-validates and recomputes the total. No event is emitted:
// this mutation path is not reachable from the Order aggregate's public API.
func (i *OrderItem) UpdateQuantity(quantity int) error {
	if quantity <= 0 {
		return invalidArgument("item quantity must be positive, got %d", quantity)
	}
	i.Quantity = quantity
	i.Total = i.UnitPrice.MultiplyByScalar(int64(quantity))
	i.UpdatedAt = time.Now().UTC()
	return nil
}

func (i *OrderItem) UpdateUnitPrice(unitPrice Money) error {
	if unitPrice.IsNegative() {
		return invalidArgument("item unit price must not be negative, got %s", unitPrice)
	}
	i.UnitPrice = unitPrice
	i.Total = unitPrice.MultiplyByScalar(int64(i.Quantity))
	i.UpdatedAt = time.Now().UTC()
	return nil
}
