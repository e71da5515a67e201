package orders

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/mealmesh/orders/internal/domain"
	"github.com/mealmesh/orders/internal/interfaces"
)

// Service hosts one command handler per order use case. Every handler runs a
// single load -> mutate -> persist+publish sequence; persistence and publish
// are made atomic-in-effect by the unit of work.
type Service struct {
	repo interfaces.OrderRepository
	uow  interfaces.UnitOfWork
	bus  interfaces.EventBus
	log  logr.Logger
}

func NewService(repo interfaces.OrderRepository, uow interfaces.UnitOfWork, bus interfaces.EventBus, log logr.Logger) *Service {
	return &Service{
		repo: repo,
		uow:  uow,
		bus:  bus,
		log:  log.WithName("orders"),
	}
}

// PlaceOrder creates the aggregate through the domain factory and returns the
// new order's identity.
func (s *Service) PlaceOrder(ctx context.Context, tenantID string, cmd interfaces.PlaceOrderCommand) (string, error) {
	customer, err := domain.NewCustomerRef(cmd.Customer.UserID, cmd.Customer.Name, cmd.Customer.Phone)
	if err != nil {
		return "", err
	}

	address, err := domain.NewAddress(cmd.Address.Street, cmd.Address.City, cmd.Address.State, cmd.Address.Zip,
		cmd.Address.Latitude, cmd.Address.Longitude)
	if err != nil {
		return "", err
	}

	items := make([]domain.OrderItem, 0, len(cmd.Items))
	for _, it := range cmd.Items {
		item, err := domain.NewOrderItem(it.Name, it.Quantity, domain.Money{Amount: it.UnitPrice, Currency: cmd.Currency})
		if err != nil {
			return "", err
		}
		items = append(items, item)
	}

	order, err := domain.PlaceOrder(tenantID, domain.PlaceOrderParams{
		ExternalID:      cmd.ExternalID,
		Customer:        customer,
		DeliveryAddress: address,
		Items:           items,
		DeliveryFee:     domain.Money{Amount: cmd.DeliveryFee, Currency: cmd.Currency},
		ETAMinutes:      cmd.ETAMinutes,
		RestaurantID:    cmd.RestaurantID,
		RestaurantName:  cmd.RestaurantName,
	})
	if err != nil {
		s.log.Error(err, "order validation failed", "tenant_id", tenantID, "external_id", cmd.ExternalID)
		return "", err
	}

	s.repo.Add(order)
	if err := s.uow.SaveChanges(ctx, s.bus, order); err != nil {
		s.log.Error(err, "failed to save placed order", "tenant_id", tenantID, "external_id", cmd.ExternalID)
		return "", err
	}

	s.log.V(1).Info("order placed", "tenant_id", tenantID, "external_id", cmd.ExternalID,
		"order_id", order.ID, "total", order.Total.String())
	return order.ID, nil
}

func (s *Service) ConfirmOrder(ctx context.Context, tenantID, externalID string) error {
	return s.execute(ctx, tenantID, externalID, "confirm", func(o *domain.Order) error {
		return o.Confirm()
	})
}

func (s *Service) MarkOrderReadyForPickup(ctx context.Context, tenantID, externalID string) error {
	return s.execute(ctx, tenantID, externalID, "mark_ready_for_pickup", func(o *domain.Order) error {
		return o.MarkReadyForPickup()
	})
}

func (s *Service) StartOrderDelivery(ctx context.Context, tenantID, externalID string) error {
	return s.execute(ctx, tenantID, externalID, "start_delivery", func(o *domain.Order) error {
		return o.MoveOutForDelivery()
	})
}

func (s *Service) CompleteOrderDelivery(ctx context.Context, tenantID, externalID string) error {
	return s.execute(ctx, tenantID, externalID, "complete_delivery", func(o *domain.Order) error {
		return o.CompleteDelivery()
	})
}

func (s *Service) CancelOrder(ctx context.Context, tenantID, externalID, reason string) error {
	return s.execute(ctx, tenantID, externalID, "cancel", func(o *domain.Order) error {
		return o.Cancel(reason)
	})
}

func (s *Service) FailOrder(ctx context.Context, tenantID, externalID, reason string) error {
	return s.execute(ctx, tenantID, externalID, "fail", func(o *domain.Order) error {
		return o.Fail(reason)
	})
}

// execute is the shared shape of every mutating handler except PlaceOrder.
// Domain errors pass through unchanged.
func (s *Service) execute(ctx context.Context, tenantID, externalID, operation string, apply func(*domain.Order) error) error {
	order, err := s.repo.GetByExternalID(ctx, tenantID, externalID)
	if err != nil {
		return err
	}

	if err := apply(order); err != nil {
		return err
	}

	s.repo.Update(order)
	if err := s.uow.SaveChanges(ctx, s.bus, order); err != nil {
		s.log.Error(err, "failed to save order", "tenant_id", tenantID, "external_id", externalID, "operation", operation)
		return fmt.Errorf("save order %s: %w", externalID, err)
	}

	s.log.V(1).Info("order updated", "tenant_id", tenantID, "external_id", externalID,
		"operation", operation, "status", string(order.Status))
	return nil
}
