package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"
)

// NewRouter wires the command and query endpoints. Every route requires an
// explicit tenant header.
func NewRouter(orderHandler *OrderHandler, trackingHandler *TrackingHandler, log logr.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware(log))
	r.Use(LoggingMiddleware(log))
	r.Use(RequireTenant)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", orderHandler.PlaceOrder)
		r.Route("/{externalID}", func(r chi.Router) {
			r.Post("/confirm", orderHandler.ConfirmOrder)
			r.Post("/ready", orderHandler.MarkOrderReadyForPickup)
			r.Post("/dispatch", orderHandler.StartOrderDelivery)
			r.Post("/deliver", orderHandler.CompleteOrderDelivery)
			r.Post("/cancel", orderHandler.CancelOrder)
			r.Post("/fail", orderHandler.FailOrder)
			r.Get("/status", trackingHandler.GetOrderStatus)
		})
	})
	r.Get("/couriers/status", trackingHandler.GetCouriersStatus)

	return r
}
