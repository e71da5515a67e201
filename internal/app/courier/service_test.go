package courier

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmesh/orders/internal/domain"
)

type fakeOrderCommands struct {
	started   []string
	completed []string
	startErr  error
}

func (f *fakeOrderCommands) StartOrderDelivery(ctx context.Context, tenantID, externalID string) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, externalID)
	return nil
}

func (f *fakeOrderCommands) CompleteOrderDelivery(ctx context.Context, tenantID, externalID string) error {
	f.completed = append(f.completed, externalID)
	return nil
}

type fakeCourierRepo struct {
	couriers   map[string]*domain.Courier
	increments int
	heartbeats int
}

func newFakeCourierRepo() *fakeCourierRepo {
	return &fakeCourierRepo{couriers: map[string]*domain.Courier{}}
}

func (r *fakeCourierRepo) Create(ctx context.Context, courier *domain.Courier) error {
	r.couriers[courier.Name] = courier
	return nil
}

func (r *fakeCourierRepo) FindByName(ctx context.Context, tenantID, name string) (*domain.Courier, error) {
	if c, ok := r.couriers[name]; ok && c.TenantID == tenantID {
		return c, nil
	}
	return nil, domain.ErrCourierNotFound
}

func (r *fakeCourierRepo) Update(ctx context.Context, courier *domain.Courier) error {
	r.couriers[courier.Name] = courier
	return nil
}

func (r *fakeCourierRepo) UpdateHeartbeat(ctx context.Context, tenantID, name string) error {
	r.heartbeats++
	return nil
}

func (r *fakeCourierRepo) ListAll(ctx context.Context, tenantID string) ([]*domain.Courier, error) {
	var all []*domain.Courier
	for _, c := range r.couriers {
		all = append(all, c)
	}
	return all, nil
}

func (r *fakeCourierRepo) IncrementOrdersDelivered(ctx context.Context, tenantID, name string) error {
	r.increments++
	return nil
}

func readyEvent(t *testing.T, tenantID, externalID string) []byte {
	t.Helper()
	body, err := json.Marshal(domain.DomainEvent{
		ID:         "evt-1",
		Type:       domain.EventOrderReadyForPickup,
		TenantID:   tenantID,
		OrderID:    "o-1",
		ExternalID: externalID,
		OccurredAt: time.Now(),
	})
	require.NoError(t, err)
	return body
}

func newWorker(orders *fakeOrderCommands, repo *fakeCourierRepo) *Service {
	return NewService(orders, repo, logr.Discard(), "tenant-1", "alice", 0, 60)
}

func TestProcessReadyOrderDeliversOrder(t *testing.T) {
	orders := &fakeOrderCommands{}
	repo := newFakeCourierRepo()
	svc := newWorker(orders, repo)

	err := svc.ProcessReadyOrder(context.Background(), readyEvent(t, "tenant-1", "ord-1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"ord-1"}, orders.started)
	assert.Equal(t, []string{"ord-1"}, orders.completed)
	assert.Equal(t, 1, repo.increments)
}

func TestProcessReadyOrderIgnoresOtherEventTypes(t *testing.T) {
	orders := &fakeOrderCommands{}
	svc := newWorker(orders, newFakeCourierRepo())

	body, err := json.Marshal(domain.DomainEvent{Type: domain.EventOrderConfirmed, TenantID: "tenant-1"})
	require.NoError(t, err)

	require.NoError(t, svc.ProcessReadyOrder(context.Background(), body))
	assert.Empty(t, orders.started)
}

func TestProcessReadyOrderRequeuesForeignTenant(t *testing.T) {
	orders := &fakeOrderCommands{}
	svc := newWorker(orders, newFakeCourierRepo())

	err := svc.ProcessReadyOrder(context.Background(), readyEvent(t, "tenant-2", "ord-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot handle tenant")
	assert.Empty(t, orders.started)
}

func TestProcessReadyOrderSkipsAlreadyHandledOrder(t *testing.T) {
	orders := &fakeOrderCommands{startErr: &domain.InvalidTransitionError{
		Current:   domain.StatusOutForDelivery,
		Attempted: domain.StatusOutForDelivery,
	}}
	repo := newFakeCourierRepo()
	svc := newWorker(orders, repo)

	require.NoError(t, svc.ProcessReadyOrder(context.Background(), readyEvent(t, "tenant-1", "ord-1")))
	assert.Empty(t, orders.completed)
	assert.Zero(t, repo.increments)
}

func TestProcessReadyOrderRejectsMalformedBody(t *testing.T) {
	svc := newWorker(&fakeOrderCommands{}, newFakeCourierRepo())

	err := svc.ProcessReadyOrder(context.Background(), []byte("{not json"))
	assert.Error(t, err)
}

func TestStartRegistersNewCourier(t *testing.T) {
	repo := newFakeCourierRepo()
	svc := newWorker(&fakeOrderCommands{}, repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Start(ctx))

	courier, err := repo.FindByName(ctx, "tenant-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.CourierStatusOnline, courier.Status)
}

func TestStartRejectsCourierAlreadyOnline(t *testing.T) {
	repo := newFakeCourierRepo()
	existing, err := domain.NewCourier("tenant-1", "alice")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), existing))

	svc := newWorker(&fakeOrderCommands{}, repo)
	err = svc.Start(context.Background())
	assert.Error(t, err)
}

func TestShutdownSetsCourierOffline(t *testing.T) {
	repo := newFakeCourierRepo()
	svc := newWorker(&fakeOrderCommands{}, repo)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Start(ctx))
	cancel()

	require.NoError(t, svc.Shutdown(context.Background()))
	courier, err := repo.FindByName(context.Background(), "tenant-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.CourierStatusOffline, courier.Status)
}
