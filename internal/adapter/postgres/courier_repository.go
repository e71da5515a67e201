package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mealmesh/orders/internal/domain"
	"github.com/mealmesh/orders/internal/interfaces"
)

type courierRepository struct {
	db DB
}

func NewCourierRepository(db DB) interfaces.CourierRepository {
	return &courierRepository{db: db}
}

func (r *courierRepository) Create(ctx context.Context, courier *domain.Courier) error {
	query := `
		INSERT INTO couriers (name, tenant_id, status, last_seen, orders_delivered, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		courier.Name, courier.TenantID, courier.Status, courier.LastSeen, courier.OrdersDelivered, courier.CreatedAt,
	).Scan(&courier.ID)
	if err != nil {
		return fmt.Errorf("failed to create courier: %w", err)
	}
	return nil
}

func (r *courierRepository) FindByName(ctx context.Context, tenantID, name string) (*domain.Courier, error) {
	query := `
		SELECT id, name, tenant_id, status, last_seen, orders_delivered, created_at
		FROM couriers
		WHERE tenant_id = $1 AND name = $2
	`

	var courier domain.Courier
	err := r.db.QueryRow(ctx, query, tenantID, name).Scan(
		&courier.ID, &courier.Name, &courier.TenantID, &courier.Status,
		&courier.LastSeen, &courier.OrdersDelivered, &courier.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCourierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find courier: %w", err)
	}

	return &courier, nil
}

func (r *courierRepository) Update(ctx context.Context, courier *domain.Courier) error {
	query := `
		UPDATE couriers
		SET status = $1, last_seen = $2, orders_delivered = $3
		WHERE id = $4
	`
	_, err := r.db.Exec(ctx, query, courier.Status, courier.LastSeen, courier.OrdersDelivered, courier.ID)
	if err != nil {
		return fmt.Errorf("failed to update courier: %w", err)
	}
	return nil
}

func (r *courierRepository) UpdateHeartbeat(ctx context.Context, tenantID, name string) error {
	query := `
		UPDATE couriers
		SET last_seen = $1, status = $2
		WHERE tenant_id = $3 AND name = $4
	`
	_, err := r.db.Exec(ctx, query, time.Now(), domain.CourierStatusOnline, tenantID, name)
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	return nil
}

func (r *courierRepository) ListAll(ctx context.Context, tenantID string) ([]*domain.Courier, error) {
	query := `
		SELECT id, name, tenant_id, status, last_seen, orders_delivered, created_at
		FROM couriers
		WHERE tenant_id = $1
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list couriers: %w", err)
	}
	defer rows.Close()

	var couriers []*domain.Courier
	for rows.Next() {
		var courier domain.Courier
		if err := rows.Scan(
			&courier.ID, &courier.Name, &courier.TenantID, &courier.Status,
			&courier.LastSeen, &courier.OrdersDelivered, &courier.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan courier: %w", err)
		}
		couriers = append(couriers, &courier)
	}

	return couriers, nil
}

func (r *courierRepository) IncrementOrdersDelivered(ctx context.Context, tenantID, name string) error {
	query := `
		UPDATE couriers
		SET orders_delivered = orders_delivered + 1
		WHERE tenant_id = $1 AND name = $2
	`
	_, err := r.db.Exec(ctx, query, tenantID, name)
	if err != nil {
		return fmt.Errorf("failed to increment orders delivered: %w", err)
	}
	return nil
}
