package courier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/mealmesh/orders/internal/domain"
	"github.com/mealmesh/orders/internal/interfaces"
)

// OrderCommands is the slice of the order command handlers a courier drives.
type OrderCommands interface {
	StartOrderDelivery(ctx context.Context, tenantID, externalID string) error
	CompleteOrderDelivery(ctx context.Context, tenantID, externalID string) error
}

// Service is a courier worker: it consumes ready-for-pickup order events,
// takes the order out for delivery and completes it after the travel time.
type Service struct {
	orders            OrderCommands
	courierRepo       interfaces.CourierRepository
	log               logr.Logger
	tenantID          string
	courierName       string
	travelTime        time.Duration
	heartbeatInterval time.Duration
}

func NewService(
	orders OrderCommands,
	courierRepo interfaces.CourierRepository,
	log logr.Logger,
	tenantID string,
	courierName string,
	travelTimeSeconds int,
	heartbeatInterval int,
) *Service {
	return &Service{
		orders:            orders,
		courierRepo:       courierRepo,
		log:               log.WithName("courier"),
		tenantID:          tenantID,
		courierName:       courierName,
		travelTime:        time.Duration(travelTimeSeconds) * time.Second,
		heartbeatInterval: time.Duration(heartbeatInterval) * time.Second,
	}
}

// Start registers the courier and launches the heartbeat loop.
func (s *Service) Start(ctx context.Context) error {
	courier, err := s.courierRepo.FindByName(ctx, s.tenantID, s.courierName)
	if err == nil {
		if courier.Status == domain.CourierStatusOnline {
			return fmt.Errorf("courier %s is already online", s.courierName)
		}
		courier.UpdateHeartbeat()
		if err := s.courierRepo.Update(ctx, courier); err != nil {
			return err
		}
	} else if errors.Is(err, domain.ErrCourierNotFound) {
		courier, err = domain.NewCourier(s.tenantID, s.courierName)
		if err != nil {
			return err
		}
		if err := s.courierRepo.Create(ctx, courier); err != nil {
			return err
		}
	} else {
		return err
	}

	s.log.Info("courier registered", "tenant_id", s.tenantID, "courier", s.courierName)

	go s.heartbeatLoop(ctx)

	return nil
}

func (s *Service) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.courierRepo.UpdateHeartbeat(ctx, s.tenantID, s.courierName); err != nil {
				s.log.Error(err, "failed to update heartbeat", "courier", s.courierName)
			}
		}
	}
}

func (s *Service) Shutdown(ctx context.Context) error {
	courier, err := s.courierRepo.FindByName(ctx, s.tenantID, s.courierName)
	if err != nil {
		return err
	}
	courier.SetOffline()
	return s.courierRepo.Update(ctx, courier)
}

// ProcessReadyOrder handles one ready-for-pickup event end to end.
func (s *Service) ProcessReadyOrder(ctx context.Context, body []byte) error {
	var evt domain.DomainEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return fmt.Errorf("parse event: %w", err)
	}

	if evt.Type != domain.EventOrderReadyForPickup {
		return nil
	}
	if evt.TenantID != s.tenantID {
		// Чужой tenant, возвращаем в очередь для другого воркера
		return fmt.Errorf("courier %s cannot handle tenant %s", s.courierName, evt.TenantID)
	}

	s.log.V(1).Info("picking up order", "external_id", evt.ExternalID)

	if err := s.orders.StartOrderDelivery(ctx, s.tenantID, evt.ExternalID); err != nil {
		// Уже в доставке или завершен: пропускаем
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil
		}
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.travelTime):
	}

	if err := s.orders.CompleteOrderDelivery(ctx, s.tenantID, evt.ExternalID); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil
		}
		return err
	}

	if err := s.courierRepo.IncrementOrdersDelivered(ctx, s.tenantID, s.courierName); err != nil {
		s.log.Error(err, "failed to increment courier stats", "courier", s.courierName)
	}

	s.log.V(1).Info("order delivered", "external_id", evt.ExternalID)
	return nil
}
