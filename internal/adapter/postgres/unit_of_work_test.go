package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmesh/orders/internal/domain"
)

type fakeTag int64

func (t fakeTag) RowsAffected() int64 { return int64(t) }

type execCall struct {
	sql  string
	args []any
}

type fakeTx struct {
	db         *fakeDB
	execs      []execCall
	affected   int64
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return nil, errors.New("not supported")
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) Row { return nil }

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	t.execs = append(t.execs, execCall{sql: sql, args: args})
	return fakeTag(t.affected), nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	t.db.committedExecs += len(t.execs)
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeDB struct {
	nextCommitErr  error
	nextAffected   int64
	txs            []*fakeTx
	committedExecs int
}

func newFakeDB() *fakeDB {
	return &fakeDB{nextAffected: 1}
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return nil, errors.New("not supported")
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row { return nil }

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return fakeTag(0), nil
}

func (db *fakeDB) Begin(ctx context.Context) (Tx, error) {
	tx := &fakeTx{db: db, commitErr: db.nextCommitErr, affected: db.nextAffected}
	db.nextCommitErr = nil
	db.txs = append(db.txs, tx)
	return tx, nil
}

func (db *fakeDB) Close() {}

type recordingBus struct {
	events []domain.DomainEvent
	err    error
}

func (b *recordingBus) Publish(ctx context.Context, events []domain.DomainEvent) error {
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, events...)
	return nil
}

func placeTestOrder(t *testing.T, externalID string) *domain.Order {
	t.Helper()
	customer, err := domain.NewCustomerRef("u-1", "Ada Lovelace", "+1-555-0100")
	require.NoError(t, err)
	address, err := domain.NewAddress("1 Main St", "Springfield", "IL", "62701", 39.78, -89.65)
	require.NoError(t, err)
	item, err := domain.NewOrderItem("Pizza", 1, moneyUSD(t, "10.00"))
	require.NoError(t, err)

	order, err := domain.PlaceOrder("tenant-1", domain.PlaceOrderParams{
		ExternalID:      externalID,
		Customer:        customer,
		DeliveryAddress: address,
		Items:           []domain.OrderItem{item},
		DeliveryFee:     moneyUSD(t, "2.50"),
		ETAMinutes:      30,
		RestaurantName:  "Pizza Palace",
	})
	require.NoError(t, err)
	return order
}

func moneyUSD(t *testing.T, amount string) domain.Money {
	t.Helper()
	m, err := scanMoney(amount, "USD")
	require.NoError(t, err)
	return m
}

func containsArg(execs []execCall, want any) bool {
	for _, e := range execs {
		for _, arg := range e.args {
			if arg == want {
				return true
			}
		}
	}
	return false
}

func TestSaveChangesCommitsAndPublishes(t *testing.T) {
	db := newFakeDB()
	repo := NewOrderRepository(db)
	uow := NewUnitOfWork(db, repo, logr.Discard())
	bus := &recordingBus{}

	order := placeTestOrder(t, "ord-1")
	repo.Add(order)

	require.NoError(t, uow.SaveChanges(context.Background(), bus, order))

	// Одна строка заказа + одна позиция
	require.Len(t, db.txs, 1)
	assert.True(t, db.txs[0].committed)
	assert.Equal(t, 2, db.committedExecs)

	require.Len(t, bus.events, 1)
	assert.Equal(t, domain.EventOrderPlaced, bus.events[0].Type)
	assert.Empty(t, order.PendingEvents())
}

// A SaveChanges call may only drain the operations staged for the aggregates
// it was handed. A concurrent command's staged insert must survive another
// command's transaction, including a failed one.
func TestSaveChangesScopedToOwnAggregates(t *testing.T) {
	db := newFakeDB()
	repo := NewOrderRepository(db)
	uow := NewUnitOfWork(db, repo, logr.Discard())
	bus := &recordingBus{}

	orderA := placeTestOrder(t, "ord-a")
	orderB := placeTestOrder(t, "ord-b")
	repo.Add(orderA)
	repo.Add(orderB)

	db.nextCommitErr = errors.New("commit failed")
	err := uow.SaveChanges(context.Background(), bus, orderB)
	require.Error(t, err)

	// B's failed transaction touched only B's rows and committed nothing
	assert.Zero(t, db.committedExecs)
	assert.Empty(t, bus.events)
	assert.False(t, containsArg(db.txs[0].execs, orderA.ID))
	require.Len(t, orderB.PendingEvents(), 1)

	require.NoError(t, uow.SaveChanges(context.Background(), bus, orderA))

	// A's staged insert was still buffered and went out in A's own transaction
	require.Len(t, db.txs, 2)
	assert.True(t, db.txs[1].committed)
	assert.Equal(t, 2, db.committedExecs)
	assert.True(t, containsArg(db.txs[1].execs, orderA.ID))
	assert.False(t, containsArg(db.txs[1].execs, orderB.ID))

	require.Len(t, bus.events, 1)
	assert.Equal(t, "ord-a", bus.events[0].ExternalID)
	assert.Empty(t, orderA.PendingEvents())
}

func TestSaveChangesVersionConflict(t *testing.T) {
	db := &fakeDB{nextAffected: 0}
	repo := NewOrderRepository(db)
	uow := NewUnitOfWork(db, repo, logr.Discard())
	bus := &recordingBus{}

	order := placeTestOrder(t, "ord-1")
	require.NoError(t, order.Confirm())
	order.ClearEvents()
	require.NoError(t, order.MarkReadyForPickup())

	repo.Update(order)
	err := uow.SaveChanges(context.Background(), bus, order)
	require.ErrorIs(t, err, ErrVersionConflict)

	assert.True(t, db.txs[0].rolledBack)
	assert.Zero(t, db.committedExecs)
	assert.Empty(t, bus.events)
	require.Len(t, order.PendingEvents(), 1, "ledger survives a failed persist")
}
