package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mealmesh/orders/internal/domain"
)

// ErrVersionConflict is returned when an aggregate was modified by a
// concurrent command between load and save. The whole command is safe to retry.
var ErrVersionConflict = errors.New("order was modified concurrently")

type opKind int

const (
	opInsert opKind = iota
	opUpdate
)

type stagedOp struct {
	kind  opKind
	order *domain.Order
}

// OrderRepository loads order aggregates and stages Add/Update operations.
// Nothing is written until the unit of work flushes the staged operations
// inside a transaction.
type OrderRepository struct {
	db DB

	mu     sync.Mutex
	staged []stagedOp
}

func NewOrderRepository(db DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Add(order *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staged = append(r.staged, stagedOp{kind: opInsert, order: order})
}

func (r *OrderRepository) Update(order *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staged = append(r.staged, stagedOp{kind: opUpdate, order: order})
}

const orderColumns = `
	id, external_id, tenant_id, status, restaurant_id, restaurant_name, eta_minutes,
	subtotal::text, delivery_fee::text, total::text, currency,
	street, city, state, zip, latitude, longitude,
	customer_user_id, customer_name, customer_phone,
	version, created_at, updated_at`

func (r *OrderRepository) Get(ctx context.Context, tenantID, id string) (*domain.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE tenant_id = $1 AND id = $2`
	return r.loadOrder(ctx, r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *OrderRepository) GetByExternalID(ctx context.Context, tenantID, externalID string) (*domain.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE tenant_id = $1 AND external_id = $2`
	return r.loadOrder(ctx, r.db.QueryRow(ctx, query, tenantID, externalID))
}

func (r *OrderRepository) loadOrder(ctx context.Context, row Row) (*domain.Order, error) {
	var (
		s                            domain.OrderState
		subtotal, deliveryFee, total string
		currency                     string
	)
	err := row.Scan(
		&s.ID, &s.ExternalID, &s.TenantID, &s.Status, &s.RestaurantID, &s.RestaurantName, &s.ETAMinutes,
		&subtotal, &deliveryFee, &total, &currency,
		&s.DeliveryAddress.Street, &s.DeliveryAddress.City, &s.DeliveryAddress.State, &s.DeliveryAddress.Zip,
		&s.DeliveryAddress.Latitude, &s.DeliveryAddress.Longitude,
		&s.Customer.UserID, &s.Customer.Name, &s.Customer.Phone,
		&s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if s.Subtotal, err = scanMoney(subtotal, currency); err != nil {
		return nil, err
	}
	if s.DeliveryFee, err = scanMoney(deliveryFee, currency); err != nil {
		return nil, err
	}
	if s.Total, err = scanMoney(total, currency); err != nil {
		return nil, err
	}

	if s.Items, err = r.loadItems(ctx, s.ID, currency); err != nil {
		return nil, err
	}

	return domain.RestoreOrder(s), nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderID, currency string) ([]domain.OrderItem, error) {
	query := `
		SELECT id, name, quantity, unit_price::text, total::text, updated_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC
	`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var (
			item             domain.OrderItem
			unitPrice, total string
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.Quantity, &unitPrice, &total, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if item.UnitPrice, err = scanMoney(unitPrice, currency); err != nil {
			return nil, err
		}
		if item.Total, err = scanMoney(total, currency); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}

// flush executes the staged operations belonging to the given aggregates in
// the transaction and removes only those from the staging buffer. Operations
// staged by concurrent commands stay buffered for their own SaveChanges call;
// draining them here would let one request's transaction consume another's
// writes. Called by the unit of work only.
func (r *OrderRepository) flush(ctx context.Context, tx Tx, aggregates []*domain.Order) error {
	owned := make(map[*domain.Order]bool, len(aggregates))
	for _, agg := range aggregates {
		owned[agg] = true
	}

	r.mu.Lock()
	var staged, remaining []stagedOp
	for _, op := range r.staged {
		if owned[op.order] {
			staged = append(staged, op)
		} else {
			remaining = append(remaining, op)
		}
	}
	r.staged = remaining
	r.mu.Unlock()

	for _, op := range staged {
		switch op.kind {
		case opInsert:
			if err := r.insertOrder(ctx, tx, op.order); err != nil {
				return err
			}
		case opUpdate:
			if err := r.updateOrder(ctx, tx, op.order); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *OrderRepository) insertOrder(ctx context.Context, tx Tx, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, external_id, tenant_id, status, restaurant_id, restaurant_name, eta_minutes,
		                    subtotal, delivery_fee, total, currency,
		                    street, city, state, zip, latitude, longitude,
		                    customer_user_id, customer_name, customer_phone,
		                    version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
		        $8::numeric, $9::numeric, $10::numeric, $11,
		        $12, $13, $14, $15, $16, $17,
		        $18, $19, $20,
		        $21, $22, $23)
	`
	_, err := tx.Exec(ctx, query,
		order.ID, order.ExternalID, order.TenantID, order.Status, order.RestaurantID, order.RestaurantName, order.ETAMinutes,
		order.Subtotal.Amount.String(), order.DeliveryFee.Amount.String(), order.Total.Amount.String(), order.Total.Currency,
		order.DeliveryAddress.Street, order.DeliveryAddress.City, order.DeliveryAddress.State, order.DeliveryAddress.Zip,
		order.DeliveryAddress.Latitude, order.DeliveryAddress.Longitude,
		order.Customer.UserID, order.Customer.Name, order.Customer.Phone,
		order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, position, name, quantity, unit_price, total, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8)
	`
	for i, item := range order.Items {
		_, err := tx.Exec(ctx, itemQuery,
			item.ID, order.ID, i, item.Name, item.Quantity,
			item.UnitPrice.Amount.String(), item.Total.Amount.String(), item.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return nil
}

// updateOrder compares-and-bumps the aggregate version: a concurrent update
// between load and save surfaces as ErrVersionConflict instead of silent
// last-write-wins.
func (r *OrderRepository) updateOrder(ctx context.Context, tx Tx, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2, version = version + 1
		WHERE id = $3 AND tenant_id = $4 AND version = $5
	`
	tag, err := tx.Exec(ctx, query, order.Status, order.UpdatedAt, order.ID, order.TenantID, order.Version)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", order.ExternalID, ErrVersionConflict)
	}
	order.Version++
	return nil
}

func scanMoney(amount, currency string) (domain.Money, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Money{}, fmt.Errorf("failed to parse amount %q: %w", amount, err)
	}
	return domain.Money{Amount: value, Currency: currency}, nil
}
