// Package events carries order events between the relational and the document
// side of the marketplace over RabbitMQ. The order engine publishes
// order.created after commit; PurchaseConsumer turns those events into
// "purchase" activity logs. Delivery is best effort and at-least-once.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RoutingKeyOrderCreated is the topic routing key of order creation events.
const RoutingKeyOrderCreated = "order.created"

// OrderCreatedItem is one purchased line.
type OrderCreatedItem struct {
	GameID   int64 `json:"gameId"`
	Quantity int   `json:"quantity"`
}

// OrderCreated is published once an order transaction has committed.
type OrderCreated struct {
	OrderID   int64              `json:"orderId"`
	UserID    int64              `json:"userId"`
	Total     decimal.Decimal    `json:"total"`
	Items     []OrderCreatedItem `json:"items"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Publisher emits domain events.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, evt OrderCreated) error
	Close() error
}

// NopPublisher discards events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, OrderCreated) error { return nil }
func (NopPublisher) Close() error { return nil }
