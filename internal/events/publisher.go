package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchange = "handyswift.events"

// Routing keys mirror the activity entry types.
const (
	KeyJobPosted        = "job.posted"
	KeyJobClosed        = "job.closed"
	KeyOfferSubmitted   = "offer.submitted"
	KeyOfferAccepted    = "offer.accepted"
	KeyOfferRejected    = "offer.rejected"
	KeyBookingCreated   = "booking.created"
	KeyBookingCancelled = "booking.cancelled"
)

type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

var pub *Publisher

// Init connects the process-wide publisher. An empty url disables publishing;
// Publish becomes a no-op so handlers never have to care.
func Init(url string) error {
	if url == "" {
		log.Printf("events: AMQP_URL empty, publishing disabled")
		return nil
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}
	pub = &Publisher{conn: conn, ch: ch}
	log.Printf("events: publishing to exchange %q", exchange)
	return nil
}

// Publish sends a JSON event on the topic exchange. Best-effort: failures are
// logged, never returned to the request path.
func Publish(key string, payload map[string]interface{}) {
	if pub == nil {
		return
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["emitted_at"] = time.Now().UTC().Format(time.RFC3339)
	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("events: marshal %s: %v", key, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pub.ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        b,
	}); err != nil {
		log.Printf("events: publish %s: %v", key, err)
	}
}

func Close() {
	if pub == nil {
		return
	}
	if pub.ch != nil {
		_ = pub.ch.Close()
	}
	if pub.conn != nil {
		_ = pub.conn.Close()
	}
	pub = nil
}
