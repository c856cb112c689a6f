package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/example/commute-matching/internal/models"
)

const DefaultExchange = "commute_topic"

// Publisher is the part of *amqp.Channel used for publishing.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitNotifier publishes notifications to a topic exchange with the
// routing key "assignment.<driver_id>".
type RabbitNotifier struct {
	pub      Publisher
	exchange string
	conn     *amqp.Connection
}

func NewRabbitNotifier(pub Publisher, exchange string) *RabbitNotifier {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &RabbitNotifier{pub: pub, exchange: exchange}
}

// DialRabbit connects to url and declares a durable topic exchange.
func DialRabbit(url, exchange string) (*RabbitNotifier, error) {
	const op = "DialRabbit"
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.DialConfig(url, amqp.Config{Heartbeat: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to RabbitMQ: %w", op, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: failed to open a channel: %w", op, err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: failed to declare exchange: %w", op, err)
	}
	r := NewRabbitNotifier(ch, exchange)
	r.conn = conn
	return r, nil
}

func (r *RabbitNotifier) Notify(ctx context.Context, n models.Notification) error {
	const op = "RabbitNotifier.Notify"
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%s: failed to marshal message: %w", op, err)
	}
	key := fmt.Sprintf("assignment.%s", n.DriverID)
	if err := r.pub.PublishWithContext(ctx, r.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   n.SentAt,
	}); err != nil {
		return fmt.Errorf("%s: failed to publish: %w", op, err)
	}
	return nil
}

func (r *RabbitNotifier) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}
