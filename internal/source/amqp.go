package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ginjaninja78/registration-report/internal/types"
)

// Publisher is the part of *amqp.Channel used by AMQPAppender.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPAppender publishes each appended record as a persistent JSON message
// to a queue on the default exchange.
type AMQPAppender struct {
	queue string
	pub   Publisher
	conn  *amqp.Connection
	ch    *amqp.Channel
}

// NewAMQPAppender wraps an existing publisher.
func NewAMQPAppender(pub Publisher, queue string) *AMQPAppender {
	return &AMQPAppender{queue: queue, pub: pub}
}

// DialAMQP connects to the broker at url and declares a durable queue.
func DialAMQP(url, queue string) (*AMQPAppender, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	return &AMQPAppender{queue: queue, pub: ch, conn: conn, ch: ch}, nil
}

// Append publishes one record.
func (a *AMQPAppender) Append(ctx context.Context, rec types.RawRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	err = a.pub.PublishWithContext(ctx,
		"",      // default exchange
		a.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Type:         "registration.add",
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", a.queue, err)
	}
	return nil
}

// Close closes the channel and connection opened by DialAMQP.
func (a *AMQPAppender) Close() error {
	if a.ch != nil {
		a.ch.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}
