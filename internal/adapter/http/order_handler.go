package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"
	"github.com/shopspring/decimal"

	"github.com/mealmesh/orders/internal/adapter/postgres"
	"github.com/mealmesh/orders/internal/app/orders"
	"github.com/mealmesh/orders/internal/domain"
	"github.com/mealmesh/orders/internal/interfaces"
)

type OrderHandler struct {
	service *orders.Service
	log     logr.Logger
}

func NewOrderHandler(service *orders.Service, log logr.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		log:     log.WithName("http"),
	}
}

type PlaceOrderRequest struct {
	ExternalID string `json:"external_id"`
	Customer   struct {
		UserID string `json:"user_id"`
		Name   string `json:"name"`
		Phone  string `json:"phone"`
	} `json:"customer"`
	Address struct {
		Street    string  `json:"street"`
		City      string  `json:"city"`
		State     string  `json:"state"`
		Zip       string  `json:"zip"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"address"`
	Items []struct {
		Name      string          `json:"name"`
		Quantity  int             `json:"quantity"`
		UnitPrice decimal.Decimal `json:"unit_price"`
	} `json:"items"`
	Currency       string          `json:"currency"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	ETAMinutes     int             `json:"eta_minutes"`
	RestaurantID   string          `json:"restaurant_id,omitempty"`
	RestaurantName string          `json:"restaurant_name"`
}

type PlaceOrderResponse struct {
	OrderID string `json:"order_id"`
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := interfaces.PlaceOrderCommand{
		ExternalID: req.ExternalID,
		Customer: interfaces.CustomerCommand{
			UserID: req.Customer.UserID,
			Name:   req.Customer.Name,
			Phone:  req.Customer.Phone,
		},
		Address: interfaces.AddressCommand{
			Street:    req.Address.Street,
			City:      req.Address.City,
			State:     req.Address.State,
			Zip:       req.Address.Zip,
			Latitude:  req.Address.Latitude,
			Longitude: req.Address.Longitude,
		},
		Currency:       req.Currency,
		DeliveryFee:    req.DeliveryFee,
		ETAMinutes:     req.ETAMinutes,
		RestaurantID:   req.RestaurantID,
		RestaurantName: req.RestaurantName,
	}
	for _, it := range req.Items {
		cmd.Items = append(cmd.Items, interfaces.OrderItemCommand{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	orderID, err := h.service.PlaceOrder(r.Context(), tenantID(r), cmd)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(PlaceOrderResponse{OrderID: orderID})
}

func (h *OrderHandler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ConfirmOrder)
}

func (h *OrderHandler) MarkOrderReadyForPickup(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkOrderReadyForPickup)
}

func (h *OrderHandler) StartOrderDelivery(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.StartOrderDelivery)
}

func (h *OrderHandler) CompleteOrderDelivery(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CompleteOrderDelivery)
}

func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transitionWithReason(w, r, h.service.CancelOrder)
}

func (h *OrderHandler) FailOrder(w http.ResponseWriter, r *http.Request) {
	h.transitionWithReason(w, r, h.service.FailOrder)
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, tenantID, externalID string) error) {
	externalID := chi.URLParam(r, "externalID")

	if err := apply(r.Context(), tenantID(r), externalID); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) transitionWithReason(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, tenantID, externalID, reason string) error) {
	externalID := chi.URLParam(r, "externalID")

	var req ReasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := apply(r.Context(), tenantID(r), externalID, req.Reason); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrCurrencyMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, postgres.ErrVersionConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.log.Error(err, "command failed", "path", r.URL.Path)
	}
	respondError(w, err.Error(), status)
}

func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
