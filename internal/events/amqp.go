package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes JSON events to a durable topic exchange. A single
// channel is shared and guarded by a mutex (amqp channels are not safe for
// concurrent publishing).
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// DialPublisher connects to the broker and declares the exchange.
func DialPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := declareExchange(ch, exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func declareExchange(ch *amqp.Channel, exchange string) error {
	return ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
}

// PublishOrderCreated sends evt with persistent delivery.
func (p *AMQPPublisher) PublishOrderCreated(ctx context.Context, evt OrderCreated) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Type:         RoutingKeyOrderCreated,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, RoutingKeyOrderCreated,
		false, // mandatory
		false, // immediate
		msg,
	)
}

// Conn returns the broker connection so consumers can open their own channels.
func (p *AMQPPublisher) Conn() *amqp.Connection { return p.conn }

// Close releases the channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var first error
	if p.ch != nil {
		first = p.ch.Close()
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
