package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Event is the message body published by the AMQP channel.
type Event struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// AMQP publishes notifications as persistent JSON messages on a durable queue.
// It dials per message; notifications are at most a few per account per day.
type AMQP struct {
	url   string
	queue string
}

// NewAMQP returns an AMQP channel publishing to queue.
func NewAMQP(url, queue string) *AMQP {
	return &AMQP{url: url, queue: queue}
}

const amqpHandshakeTimeout = 10 * time.Second

// dialContext connects under ctx and bounds the AMQP handshake by the earlier
// of ctx's deadline and amqpHandshakeTimeout. The library clears the deadline
// once the connection is open.
func dialContext(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		deadline := time.Now().Add(amqpHandshakeTimeout)
		if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
			deadline = dl
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

// Notify publishes one Event.
func (a *AMQP) Notify(ctx context.Context, title, message string) error {
	conn, err := amqp.DialConfig(a.url, amqp.Config{
		Dial:      dialContext(ctx),
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		a.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	now := time.Now().UTC()
	body, err := json.Marshal(Event{Title: title, Message: message, SentAt: now})
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",      // default exchange
		a.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    now,
			Body:         body,
		},
	)
}
