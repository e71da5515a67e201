package amqp

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/mealmesh/orders/internal/app/courier"
)

type CourierHandler struct {
	service *courier.Service
	log     logr.Logger
}

func NewCourierHandler(service *courier.Service, log logr.Logger) *CourierHandler {
	return &CourierHandler{
		service: service,
		log:     log.WithName("amqp"),
	}
}

func (h *CourierHandler) HandleReadyOrder(ctx context.Context, body []byte) error {
	if err := h.service.ProcessReadyOrder(ctx, body); err != nil {
		h.log.Error(err, "failed to process ready order")
		return err
	}
	return nil
}
