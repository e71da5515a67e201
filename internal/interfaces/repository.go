package interfaces

import (
	"context"

	"github.com/mealmesh/orders/internal/domain"
)

// OrderRepository is the persistence port for the order aggregate. Get and
// GetByExternalID load committed state; Add and Update only stage the
// aggregate for the UnitOfWork.SaveChanges call that is handed the same
// aggregate.
//
// Every lookup is scoped to a tenant by explicit argument.
type OrderRepository interface {
	Get(ctx context.Context, tenantID, id string) (*domain.Order, error)
	GetByExternalID(ctx context.Context, tenantID, externalID string) (*domain.Order, error)
	Add(order *domain.Order)
	Update(order *domain.Order)
}

type CourierRepository interface {
	Create(ctx context.Context, courier *domain.Courier) error
	FindByName(ctx context.Context, tenantID, name string) (*domain.Courier, error)
	Update(ctx context.Context, courier *domain.Courier) error
	UpdateHeartbeat(ctx context.Context, tenantID, name string) error
	ListAll(ctx context.Context, tenantID string) ([]*domain.Courier, error)
	IncrementOrdersDelivered(ctx context.Context, tenantID, name string) error
}
