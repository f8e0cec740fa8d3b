package app

import (
	"encoding/json"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"storefront/internal/services"
)

// OrderEventLogger returns a consumer handler that logs every order event it receives.
// Undecodable messages are logged and acknowledged so they are not redelivered.
func OrderEventLogger(l *zap.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event services.OrderEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			l.Warn("discarding malformed order event",
				zap.Uint64("delivery_tag", msg.DeliveryTag),
				zap.String("routing_key", msg.RoutingKey),
				zap.Error(err),
			)
			return nil
		}

		l.Info("order event received",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.String("user_id", event.UserID),
			zap.String("total_price", event.TotalPrice.StringFixed(2)),
			zap.Strings("product_ids", event.ProductIDs),
			zap.Time("occurred_at", event.OccurredAt),
		)
		return nil
	}
}
