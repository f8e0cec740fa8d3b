package services

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

// OrderEventsExchange is the topic exchange order events are published to.
const OrderEventsExchange = "orders"

// Order event types, used as routing keys.
const (
	EventOrderCreated        = "order.created"
	EventOrderUpdated        = "order.updated"
	EventOrderDeleted        = "order.deleted"
	EventOrderProductAdded   = "order.product_added"
	EventOrderProductRemoved = "order.product_removed"
)

// OrderEvent is the message published after every order mutation.
type OrderEvent struct {
	Type       string          `json:"type"`
	OrderID    string          `json:"orderId"`
	UserID     string          `json:"userId"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	ProductIDs []string        `json:"productIds"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// EventPublisher publishes a message body to an exchange.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

func newOrderEvent(eventType string, order *models.Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		ProductIDs: order.ProductIDs(),
		OccurredAt: at.UTC(),
	}
}
