package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/LulDrako/playmarket-docker/internal/domain"
)

// PurchaseRecorder stores purchase activity at most once per
// (orderId, gameId) and reports whether a record was written.
type PurchaseRecorder interface {
	RecordPurchase(ctx context.Context, a domain.ActivityLog) (bool, error)
}

// errMalformed marks messages that can never be processed.
var errMalformed = errors.New("malformed order event")

// PurchaseConsumer records a purchase activity per order line. Redelivery
// after a partial failure only writes the lines still missing.
type PurchaseConsumer struct {
	Store PurchaseRecorder
}

// Subscribe declares the durable activity queue, binds it to the exchange on
// order.created and starts consuming with manual acknowledgements.
func Subscribe(conn *amqp.Connection, exchange, queue string) (<-chan amqp.Delivery, *amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := declareExchange(ch, exchange); err != nil {
		_ = ch.Close()
		return nil, nil, err
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		return nil, nil, err
	}
	if err := ch.QueueBind(queue, RoutingKeyOrderCreated, exchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, nil, err
	}
	msgs, err := ch.Consume(
		queue,
		"playmarket-activity", // consumer tag
		false,                 // auto-ack
		false,                 // exclusive
		false,                 // no-local
		false,                 // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, nil, err
	}
	return msgs, ch, nil
}

// Run processes deliveries until ctx is done or the channel closes.
// Malformed messages are rejected without requeue; storage failures are
// requeued.
func (c *PurchaseConsumer) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			c.process(ctx, msg)
		}
	}
}

func (c *PurchaseConsumer) process(ctx context.Context, msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("order event handler panicked")
			_ = msg.Nack(false, false)
		}
	}()

	err := c.handle(ctx, msg.Body)
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.Is(err, errMalformed):
		log.Warn().Err(err).Str("message_id", msg.MessageId).Msg("dropping order event")
		_ = msg.Nack(false, false)
	default:
		log.Error().Err(err).Str("message_id", msg.MessageId).Msg("order event not recorded, requeueing")
		_ = msg.Nack(false, !msg.Redelivered)
	}
}

func (c *PurchaseConsumer) handle(ctx context.Context, body []byte) error {
	var evt OrderCreated
	if err := json.Unmarshal(body, &evt); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if evt.UserID <= 0 || evt.OrderID <= 0 {
		return fmt.Errorf("%w: missing ids", errMalformed)
	}
	orderID := evt.OrderID
	written := 0
	for _, it := range evt.Items {
		gameID := it.GameID
		created, err := c.Store.RecordPurchase(ctx, domain.ActivityLog{
			UserID:    evt.UserID,
			Event:     domain.EventPurchase,
			GameID:    &gameID,
			OrderID:   &orderID,
			CreatedAt: evt.CreatedAt.UTC(),
		})
		if err != nil {
			return err
		}
		if created {
			written++
		}
	}
	log.Debug().Int64("order_id", evt.OrderID).Int("lines", len(evt.Items)).Int("written", written).Msg("purchase activity recorded")
	return nil
}
