// Package service holds outbound integrations used by the HTTP
// handlers, currently the RabbitMQ publisher for confirmation events.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/travel-reservation/internal/queue"
)

const confirmedQueueName = "reservation.confirmed"

// QueuePublisher publishes domain events to RabbitMQ.  A connection is
// dialed per publish; confirmation events are rare enough that
// connection reuse is not worth the reconnect bookkeeping.  Errors are
// logged and returned so callers can ignore failures without
// interrupting the request flow.
type QueuePublisher struct {
	URL string
}

// NewQueuePublisher returns a publisher for the given broker URL.
func NewQueuePublisher(url string) *QueuePublisher {
	return &QueuePublisher{URL: url}
}

// PublishReservationConfirmed publishes a ReservationConfirmedEvent to
// the reservation.confirmed queue.  Messages are marked persistent so
// they survive broker restarts.
func (p *QueuePublisher) PublishReservationConfirmed(ctx context.Context, event q.ReservationConfirmedEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Declare is idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		confirmedQueueName, // name
		true,               // durable
		false,              // autoDelete
		false,              // exclusive
		false,              // noWait
		nil,                // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                 // default exchange
		confirmedQueueName, // routing key = queue name
		false,              // mandatory
		false,              // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
