package tracking

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmesh/orders/internal/domain"
	"github.com/mealmesh/orders/internal/interfaces"
)

type fakeCache struct {
	store map[string]string
	sets  int
	hits  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string]string{}}
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.sets++
	c.store[key] = string(value.([]byte))
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	if v, ok := c.store[key]; ok {
		c.hits++
		return v, nil
	}
	return "", nil
}

func (c *fakeCache) GenerateKey(operation, key string) string {
	return "test:" + operation + ":" + key
}

type fakeOrderRepo struct {
	order *domain.Order
	calls int
}

func (r *fakeOrderRepo) Get(ctx context.Context, tenantID, id string) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}

func (r *fakeOrderRepo) GetByExternalID(ctx context.Context, tenantID, externalID string) (*domain.Order, error) {
	r.calls++
	if r.order != nil && r.order.TenantID == tenantID && r.order.ExternalID == externalID {
		return r.order, nil
	}
	return nil, domain.ErrOrderNotFound
}

func (r *fakeOrderRepo) Add(order *domain.Order)    {}
func (r *fakeOrderRepo) Update(order *domain.Order) {}

type fakeCourierRepo struct {
	couriers []*domain.Courier
}

func (r *fakeCourierRepo) Create(ctx context.Context, courier *domain.Courier) error { return nil }
func (r *fakeCourierRepo) FindByName(ctx context.Context, tenantID, name string) (*domain.Courier, error) {
	return nil, domain.ErrCourierNotFound
}
func (r *fakeCourierRepo) Update(ctx context.Context, courier *domain.Courier) error       { return nil }
func (r *fakeCourierRepo) UpdateHeartbeat(ctx context.Context, tenantID, name string) error { return nil }
func (r *fakeCourierRepo) ListAll(ctx context.Context, tenantID string) ([]*domain.Courier, error) {
	return r.couriers, nil
}
func (r *fakeCourierRepo) IncrementOrdersDelivered(ctx context.Context, tenantID, name string) error {
	return nil
}

func testOrder(t *testing.T) *domain.Order {
	t.Helper()
	customer, err := domain.NewCustomerRef("u-1", "Ada Lovelace", "+1-555-0100")
	require.NoError(t, err)
	address, err := domain.NewAddress("1 Main St", "Springfield", "IL", "62701", 39.78, -89.65)
	require.NoError(t, err)
	item, err := domain.NewOrderItem("Pizza", 1, domain.Money{Amount: decimal.RequireFromString("15.00"), Currency: "USD"})
	require.NoError(t, err)

	order, err := domain.PlaceOrder("tenant-1", domain.PlaceOrderParams{
		ExternalID:      "ord-1",
		Customer:        customer,
		DeliveryAddress: address,
		Items:           []domain.OrderItem{item},
		DeliveryFee:     domain.Money{Amount: decimal.RequireFromString("2.00"), Currency: "USD"},
		ETAMinutes:      25,
		RestaurantName:  "Pizza Palace",
	})
	require.NoError(t, err)
	order.ClearEvents()
	return order
}

func TestGetOrderStatus(t *testing.T) {
	repo := &fakeOrderRepo{order: testOrder(t)}
	c := newFakeCache()
	svc := NewService(repo, &fakeCourierRepo{}, c, logr.Discard())

	resp, err := svc.GetOrderStatus(context.Background(), "tenant-1", "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", resp.ExternalID)
	assert.Equal(t, domain.StatusPending, resp.Status)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("17.00")))
	assert.Equal(t, "USD", resp.Currency)
	assert.Equal(t, 1, c.sets)
}

func TestGetOrderStatusServedFromCache(t *testing.T) {
	repo := &fakeOrderRepo{order: testOrder(t)}
	c := newFakeCache()
	svc := NewService(repo, &fakeCourierRepo{}, c, logr.Discard())

	_, err := svc.GetOrderStatus(context.Background(), "tenant-1", "ord-1")
	require.NoError(t, err)
	resp, err := svc.GetOrderStatus(context.Background(), "tenant-1", "ord-1")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls, "second read must come from the cache")
	assert.Equal(t, 1, c.hits)
	assert.Equal(t, "ord-1", resp.ExternalID)
}

func TestGetOrderStatusIgnoresCorruptCacheEntry(t *testing.T) {
	repo := &fakeOrderRepo{order: testOrder(t)}
	c := newFakeCache()
	c.store[c.GenerateKey("order_status", "tenant-1:ord-1")] = "{not json"
	svc := NewService(repo, &fakeCourierRepo{}, c, logr.Discard())

	resp, err := svc.GetOrderStatus(context.Background(), "tenant-1", "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", resp.ExternalID)
	assert.Equal(t, 1, repo.calls)
}

func TestGetOrderStatusNotFound(t *testing.T) {
	svc := NewService(&fakeOrderRepo{}, &fakeCourierRepo{}, newFakeCache(), logr.Discard())

	_, err := svc.GetOrderStatus(context.Background(), "tenant-1", "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestGetCouriersStatus(t *testing.T) {
	fresh, err := domain.NewCourier("tenant-1", "alice")
	require.NoError(t, err)
	fresh.OrdersDelivered = 3

	stale, err := domain.NewCourier("tenant-1", "bob")
	require.NoError(t, err)
	stale.LastSeen = time.Now().Add(-5 * time.Minute)

	repo := &fakeCourierRepo{couriers: []*domain.Courier{fresh, stale}}
	svc := NewService(&fakeOrderRepo{}, repo, newFakeCache(), logr.Discard())

	resp, err := svc.GetCouriersStatus(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.Len(t, resp, 2)

	assert.Equal(t, domain.CourierStatusOnline, resp[0].Status)
	assert.Equal(t, 3, resp[0].OrdersDelivered)
	assert.Equal(t, domain.CourierStatusOffline, resp[1].Status, "missed heartbeats demote the courier to offline")
}

func TestCachedStatusRoundTrips(t *testing.T) {
	resp := interfaces.TrackingOrderResponse{
		ExternalID: "ord-9",
		Status:     domain.StatusConfirmed,
		Total:      decimal.RequireFromString("9.99"),
		Currency:   "EUR",
	}
	body, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded interfaces.TrackingOrderResponse
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, resp.ExternalID, decoded.ExternalID)
	assert.True(t, resp.Total.Equal(decoded.Total))
}
