package interfaces

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mealmesh/orders/internal/domain"
)

// Команды для сервиса заказов
type PlaceOrderCommand struct {
	ExternalID     string
	Customer       CustomerCommand
	Address        AddressCommand
	Items          []OrderItemCommand
	Currency       string
	DeliveryFee    decimal.Decimal
	ETAMinutes     int
	RestaurantID   string
	RestaurantName string
}

type CustomerCommand struct {
	UserID string
	Name   string
	Phone  string
}

type AddressCommand struct {
	Street    string
	City      string
	State     string
	Zip       string
	Latitude  float64
	Longitude float64
}

type OrderItemCommand struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Ответ Tracking Service
type TrackingOrderResponse struct {
	ExternalID     string          `json:"external_id"`
	Status         domain.Status   `json:"status"`
	RestaurantName string          `json:"restaurant_name"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	ETAMinutes     int             `json:"eta_minutes"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type TrackingCourierResponse struct {
	Name            string               `json:"name"`
	Status          domain.CourierStatus `json:"status"`
	OrdersDelivered int                  `json:"orders_delivered"`
	LastSeen        time.Time            `json:"last_seen"`
}
