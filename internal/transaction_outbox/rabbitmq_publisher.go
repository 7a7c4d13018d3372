package transaction_outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var errNotConnected = errors.New("rabbitmq_publisher: not connected")

// RabbitMQPublisher publishes to a durable topic exchange with routing key ledger.<event name>.
type RabbitMQPublisher struct {
	url      string
	exchange string
	lg       *logging.ZapLogger

	// amqp channels are not safe for concurrent publishing
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbitMQPublisher(cfg *Config, lg *logging.ZapLogger) *RabbitMQPublisher {
	return &RabbitMQPublisher{url: cfg.RabbitMQURL, exchange: cfg.RabbitMQExchange, lg: lg}
}

func (p *RabbitMQPublisher) Connect(ctx context.Context) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Properties: amqp.Table{"connection_name": "transaction_outbox"},
	})
	if err != nil {
		return fmt.Errorf("rabbitmq_publisher: dial error %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq_publisher: open channel error %w", err)
	}

	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq_publisher: declare exchange error %w", err)
	}

	p.mu.Lock()
	p.conn, p.ch = conn, ch
	p.mu.Unlock()

	p.lg.DebugCtx(ctx, "rabbitmq publisher connected", zap.String("exchange", p.exchange))
	return nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, e *models.OutboxEvent, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		return errNotConnected
	}

	err := p.ch.PublishWithContext(ctx,
		p.exchange,
		RoutingKey(e),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/protobuf",
			MessageId:    e.UUID,
			Type:         e.Name,
			Timestamp:    e.CreatedAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq_publisher: publish message error %w", err)
	}

	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}

	err := p.conn.Close()
	p.conn, p.ch = nil, nil

	return err
}

func RoutingKey(e *models.OutboxEvent) string {
	return "ledger." + e.Name
}
