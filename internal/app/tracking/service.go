package tracking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-logr/logr"

	"github.com/mealmesh/orders/internal/adapter/cache"
	"github.com/mealmesh/orders/internal/domain"
	"github.com/mealmesh/orders/internal/interfaces"
)

const statusCacheTTL = 10 * time.Second

// Service answers read-only order and courier status queries. Order status is
// read through a short-lived cache; staleness is bounded by the TTL only.
type Service struct {
	orderRepo   interfaces.OrderRepository
	courierRepo interfaces.CourierRepository
	cache       cache.Cache
	log         logr.Logger
}

func NewService(orderRepo interfaces.OrderRepository, courierRepo interfaces.CourierRepository, c cache.Cache, log logr.Logger) *Service {
	return &Service{
		orderRepo:   orderRepo,
		courierRepo: courierRepo,
		cache:       c,
		log:         log.WithName("tracking"),
	}
}

func (s *Service) GetOrderStatus(ctx context.Context, tenantID, externalID string) (*interfaces.TrackingOrderResponse, error) {
	key := s.cache.GenerateKey("order_status", tenantID+":"+externalID)

	if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
		var resp interfaces.TrackingOrderResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return &resp, nil
		}
	}

	order, err := s.orderRepo.GetByExternalID(ctx, tenantID, externalID)
	if err != nil {
		return nil, err
	}

	resp := &interfaces.TrackingOrderResponse{
		ExternalID:     order.ExternalID,
		Status:         order.Status,
		RestaurantName: order.RestaurantName,
		Total:          order.Total.Amount,
		Currency:       order.Total.Currency,
		ETAMinutes:     order.ETAMinutes,
		UpdatedAt:      order.UpdatedAt,
	}

	if body, err := json.Marshal(resp); err == nil {
		if err := s.cache.Set(ctx, key, body, statusCacheTTL); err != nil {
			s.log.Error(err, "failed to cache order status", "tenant_id", tenantID, "external_id", externalID)
		}
	}

	return resp, nil
}

func (s *Service) GetCouriersStatus(ctx context.Context, tenantID string) ([]*interfaces.TrackingCourierResponse, error) {
	couriers, err := s.courierRepo.ListAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// Курьер считается офлайн после двух пропущенных heartbeat
	timeout := 60 * time.Second

	var resp []*interfaces.TrackingCourierResponse
	for _, c := range couriers {
		status := c.Status
		if status == domain.CourierStatusOnline && !c.IsOnline(timeout) {
			status = domain.CourierStatusOffline
		}

		resp = append(resp, &interfaces.TrackingCourierResponse{
			Name:            c.Name,
			Status:          status,
			OrdersDelivered: c.OrdersDelivered,
			LastSeen:        c.LastSeen,
		})
	}

	return resp, nil
}
