package transaction_outbox

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ArdaAlp/Binary-Power/internal/config"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/segmentio/kafka-go"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg *config.Config, logger *logging.KafkaLogger, errLogger *logging.KafkaErrorLogger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:  kafka.TCP(cfg.KafkaBrokers...),
			Topic: cfg.KafkaLedgerEventsTopic,
			// events of one account share a partition, concurrent workers may still reorder them
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Logger:       logger,
			ErrorLogger:  errLogger,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e *models.OutboxEvent, body []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(e.AggregateID, 10)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_name", Value: []byte(e.Name)},
			{Key: "event_uuid", Value: []byte(e.UUID)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka_publisher: write message error %w", err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
