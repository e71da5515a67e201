package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/mealmesh/orders/internal/domain"
)

type NotificationHandler struct {
	log logr.Logger
}

func NewNotificationHandler(log logr.Logger) *NotificationHandler {
	return &NotificationHandler{
		log: log.WithName("notifications"),
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var evt domain.DomainEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		h.log.Error(err, "failed to parse notification")
		return err
	}

	h.log.V(1).Info("notification received", "event_id", evt.ID, "type", string(evt.Type),
		"tenant_id", evt.TenantID, "external_id", evt.ExternalID)

	if evt.Reason != "" {
		fmt.Printf("Order %s: %s (%s)\n", evt.ExternalID, evt.Type, evt.Reason)
	} else {
		fmt.Printf("Order %s: %s\n", evt.ExternalID, evt.Type)
	}

	return nil
}
