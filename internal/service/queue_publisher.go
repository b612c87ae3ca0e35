// Package service publishes domain events to RabbitMQ.  Publishing is
// best-effort: errors are logged and returned so callers can ignore them
// without interrupting the request flow.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/swiftbus/bus-booking-api/internal/queue"
)

// Emitter satisfies the booking manager's notifier contract by publishing
// a BookingCreatedEvent after every committed booking.
type Emitter struct{}

// BookingCreated publishes the booking.created event for a committed
// booking.
func (Emitter) BookingCreated(ctx context.Context, scheduleID uint64, seatLabels []string) error {
	return PublishBookingCreated(ctx, queue.BookingCreatedEvent{
		ScheduleID: scheduleID,
		SeatLabels: seatLabels,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	})
}

// PublishBookingCreated publishes an event to the durable booking.created
// queue.  A fresh connection per publish keeps the call self-contained;
// booking volume in this demo does not justify a channel pool.
func PublishBookingCreated(ctx context.Context, event queue.BookingCreatedEvent) error {
	conn, err := amqp.Dial(queue.BrokerURL())
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

	// Idempotent declare; durable so events survive broker restarts.
	if _, err := ch.QueueDeclare("booking.created", true, false, false, false, nil); err != nil {
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
	if err := ch.PublishWithContext(ctx, "", "booking.created", false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
