package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"

	"github.com/mealmesh/orders/internal/app/tracking"
	"github.com/mealmesh/orders/internal/domain"
)

type TrackingHandler struct {
	service *tracking.Service
	log     logr.Logger
}

func NewTrackingHandler(service *tracking.Service, log logr.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		log:     log.WithName("http"),
	}
}

func (h *TrackingHandler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")

	resp, err := h.service.GetOrderStatus(r.Context(), tenantID(r), externalID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			respondError(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error(err, "failed to get order status", "external_id", externalID)
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *TrackingHandler) GetCouriersStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetCouriersStatus(r.Context(), tenantID(r))
	if err != nil {
		h.log.Error(err, "failed to get couriers status")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
