package postgres

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/mealmesh/orders/internal/domain"
	"github.com/mealmesh/orders/internal/interfaces"
)

// UnitOfWork commits the staged operations of the aggregates it is handed in
// one transaction and publishes their pending events afterwards. Operations
// staged for other aggregates by concurrent commands are left in the buffer.
//
// Ordering guarantee: the transaction commits before any event of the call is
// published, and each aggregate's events go out in append order. A failed
// commit publishes nothing and leaves every ledger untouched. A publish
// failure after the commit is surfaced to the caller; there is no
// compensating action for it.
type UnitOfWork struct {
	db   DB
	repo *OrderRepository
	log  logr.Logger
}

func NewUnitOfWork(db DB, repo *OrderRepository, log logr.Logger) *UnitOfWork {
	return &UnitOfWork{
		db:   db,
		repo: repo,
		log:  log.WithName("uow"),
	}
}

var _ interfaces.UnitOfWork = (*UnitOfWork)(nil)

func (u *UnitOfWork) SaveChanges(ctx context.Context, bus interfaces.EventBus, aggregates ...*domain.Order) error {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := u.repo.flush(ctx, tx, aggregates); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			u.log.Error(rbErr, "rollback failed")
		}
		return fmt.Errorf("failed to persist changes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	var events []domain.DomainEvent
	for _, agg := range aggregates {
		events = append(events, agg.PendingEvents()...)
	}
	if len(events) == 0 {
		return nil
	}

	if err := bus.Publish(ctx, events); err != nil {
		// Состояние уже зафиксировано, события остаются в журнале агрегата
		return fmt.Errorf("changes committed but event publish failed: %w", err)
	}

	for _, agg := range aggregates {
		agg.ClearEvents()
	}

	u.log.V(1).Info("changes saved", "aggregates", len(aggregates), "events", len(events))
	return nil
}
