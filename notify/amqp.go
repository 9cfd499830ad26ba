/*
amqp.go - RabbitMQ-backed notifier

PURPOSE:
  Publishes notification events to a topic exchange so a downstream
  delivery worker (SMS gateway, mailer) can fan them out. The engine
  only publishes; delivery is someone else's job.

TOPOLOGY:
  Topic exchange (durable), routing key "notify.<subject-ish>". The
  exchange is declared on connect so publisher and consumer can start
  in any order.
*/
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type AMQP struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQP dials the broker and declares the exchange.
func NewAMQP(url, exchange string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp open channel failed: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp declare exchange failed: %w", err)
	}
	return &AMQP{conn: conn, ch: ch, exchange: exchange}, nil
}

type event struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sent_at"`
}

func (a *AMQP) Send(ctx context.Context, recipient, subject, message string) error {
	body, err := json.Marshal(event{
		Recipient: recipient,
		Subject:   subject,
		Message:   message,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return a.ch.PublishWithContext(ctx, a.exchange, routingKey(subject), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (a *AMQP) Close() error {
	if a.ch != nil {
		_ = a.ch.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

func routingKey(subject string) string {
	k := strings.ToLower(subject)
	k = strings.ReplaceAll(k, " ", ".")
	return "notify." + k
}
