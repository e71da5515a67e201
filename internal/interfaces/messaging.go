package interfaces

import "context"

// Интерфейсы Messaging (Adapter/RabbitMQ)
type EventConsumer interface {
	ConsumeReadyOrders(ctx context.Context, handler EventMessageHandler) error
	ConsumeNotifications(ctx context.Context, handler EventMessageHandler) error
}

type EventMessageHandler func(ctx context.Context, body []byte) error
