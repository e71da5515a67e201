package domain

import "time"

// Courier represents a delivery worker picking up ready orders.
type Courier struct {
	ID              int
	Name            string
	TenantID        string
	Status          CourierStatus
	LastSeen        time.Time
	OrdersDelivered int
	CreatedAt       time.Time
}

type CourierStatus string

const (
	CourierStatusOnline  CourierStatus = "online"
	CourierStatusOffline CourierStatus = "offline"
)

func NewCourier(tenantID, name string) (*Courier, error) {
	if name == "" {
		return nil, invalidArgument("courier name is required")
	}
	return &Courier{
		Name:      name,
		TenantID:  tenantID,
		Status:    CourierStatusOnline,
		LastSeen:  time.Now(),
		CreatedAt: time.Now(),
	}, nil
}

// UpdateHeartbeat refreshes the courier's last seen timestamp.
func (c *Courier) UpdateHeartbeat() {
	c.LastSeen = time.Now()
	c.Status = CourierStatusOnline
}

func (c *Courier) SetOffline() {
	c.Status = CourierStatusOffline
}

func (c *Courier) IncrementOrdersDelivered() {
	c.OrdersDelivered++
}

// IsOnline checks the courier against the heartbeat timeout.
func (c *Courier) IsOnline(heartbeatTimeout time.Duration) bool {
	if c.Status == CourierStatusOffline {
		return false
	}
	return time.Since(c.LastSeen) <= heartbeatTimeout
}
