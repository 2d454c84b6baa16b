package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"delivery-dispatch/internal/domain"
)

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
}

// Publisher fans assignment offers out to candidate delivery partners over
// RabbitMQ. One message per candidate, routed by partner id, so a partner's
// device queue only sees its own offers.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewPublisher connects to RabbitMQ and declares the offers exchange.
// Returns nil when no URL is configured so callers fall back to the nop
// notifier.
func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	if cfg.Exchange == "" {
		cfg.Exchange = "delivery.offers"
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	return &Publisher{conn: conn, channel: ch, exchange: cfg.Exchange}, nil
}

// offerMessage is the payload a partner device receives. Carries no OTP and
// no customer contact data.
type offerMessage struct {
	AssignmentID string    `json:"assignment_id"`
	OrderID      string    `json:"order_id"`
	ShopID       string    `json:"shop_id"`
	DistanceKm   float64   `json:"distance_km"`
	CreatedAt    time.Time `json:"created_at"`
}

// OfferCreated publishes one offer message per candidate.
func (p *Publisher) OfferCreated(_ context.Context, a domain.Assignment, candidateIDs []string) error {
	body, err := json.Marshal(offerMessage{
		AssignmentID: a.ID,
		OrderID:      a.OrderID,
		ShopID:       a.ShopID,
		DistanceKm:   a.DistanceKm,
		CreatedAt:    a.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal offer: %w", err)
	}

	for _, id := range candidateIDs {
		if err := p.channel.Publish(
			p.exchange,
			id,    // routing key: partner id
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
			},
		); err != nil {
			return fmt.Errorf("publish offer to %s: %w", id, err)
		}
	}
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
