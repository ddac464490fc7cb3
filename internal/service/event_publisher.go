// Package service provides the RabbitMQ publisher for catalog events.
// Errors are logged and returned so callers can ignore failures without
// interrupting the main request flow; a broken broker never fails an API
// request.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/amrsaid/movie-catalog-api/internal/queue"
)

// EventPublisher publishes movie catalog events.  The zero value is not
// usable; construct with NewEventPublisher.
type EventPublisher struct {
	url string
}

// NewEventPublisher returns a publisher targeting the given AMQP URL.
func NewEventPublisher(url string) *EventPublisher {
	return &EventPublisher{url: url}
}

// Publish sends a MovieEvent to the catalog.events queue.  The connection
// is dialed per publish, which keeps the publisher robust against broker
// restarts at the cost of latency on an already-background path.
// Messages are marked persistent.
func (p *EventPublisher) Publish(ctx context.Context, event q.MovieEvent) error {
	conn, err := amqp.Dial(p.url)
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

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		"catalog.events", // name
		true,             // durable
		false,            // autoDelete
		false,            // exclusive
		false,            // noWait
		nil,              // args
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
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",               // default exchange
		"catalog.events", // routing key = queue name
		false,            // mandatory
		false,            // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
