package transfer_audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ArdaAlp/Binary-Power/internal/config"
	"github.com/ArdaAlp/Binary-Power/internal/events"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Consumer struct {
	lg            *logging.ZapLogger
	reader        MessageReader
	audit         AuditRepository
	retryInterval time.Duration

	cancaller context.CancelFunc
	wg        sync.WaitGroup
}

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type AuditRepository interface {
	Save(ctx context.Context, in *models.AuditRecord) error
}

func NewConsumer(
	lc fx.Lifecycle,
	lg *logging.ZapLogger,
	cfg *Config,
	globalCFG *config.Config,
	errLogger *logging.KafkaErrorLogger,
	logger *logging.KafkaLogger,
	audit AuditRepository,
) *Consumer {
	lg.DebugCtx(context.Background(), "start transfer audit consumer", zap.String("consumer_group", cfg.KafkaGroupID), zap.Any("config", cfg))

	r := kafka.NewReader(kafka.ReaderConfig{
		GroupID:                cfg.KafkaGroupID,
		PartitionWatchInterval: time.Duration(cfg.KafkaPartitionWatchInterval) * time.Millisecond,
		Brokers:                globalCFG.KafkaBrokers,
		Topic:                  globalCFG.KafkaLedgerEventsTopic,
		MinBytes:               10e2, // 1KB
		MaxBytes:               10e6, // 10MB
		ErrorLogger:            errLogger,
		MaxWait:                time.Duration(cfg.KafkaMaxWaitInterval) * time.Millisecond,
		Logger:                 logger,
	})

	cns := newConsumer(r, audit, lg, time.Duration(cfg.SaveRetryInterval)*time.Millisecond)

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				cns.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return cns.Stop()
			},
		},
	)

	return cns
}

func newConsumer(reader MessageReader, audit AuditRepository, lg *logging.ZapLogger, retryInterval time.Duration) *Consumer {
	return &Consumer{lg: lg, reader: reader, audit: audit, retryInterval: retryInterval}
}

func (cns *Consumer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	cns.cancaller = cancel
	ctx = cns.lg.WithContextFields(ctx, zap.String("name", "transfer_audit_consumer"))

	cns.wg.Add(1)
	go func() {
		defer cns.wg.Done()
		cns.consume(ctx)
	}()
}

func (cns *Consumer) Stop() error {
	if cns.cancaller != nil {
		cns.cancaller()
	}
	cns.wg.Wait()

	return cns.reader.Close()
}

func (cns *Consumer) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			cns.lg.DebugCtx(ctx, "consumer graceful shutdown")
			return
		default:
			if err := cns.processMessage(ctx); err != nil && ctx.Err() == nil {
				cns.lg.ErrorCtx(ctx, "transfer_audit/consumer: process message error", zap.Error(err))
			}
		}
	}
}

func (cns *Consumer) processMessage(ctx context.Context) error {
	m, err := cns.reader.FetchMessage(ctx)
	if err != nil {
		return fmt.Errorf("transfer_audit/consumer: fetch message error %w", err)
	}

	ctx = cns.lg.WithContextFields(ctx, zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset))

	record, err := cns.decode(m)
	if err != nil {
		// a message that never decodes would block the partition forever, skip it
		cns.lg.ErrorCtx(ctx, "skip malformed ledger event", zap.Error(err))
		return cns.commit(ctx, m)
	}

	ctx = cns.lg.WithContextFields(ctx, zap.String("event_uuid", record.EventUUID))

	if err := cns.saveWithRetry(ctx, record); err != nil {
		return fmt.Errorf("transfer_audit/consumer: save audit record error %w", err)
	}

	cns.lg.InfoCtx(ctx, "ledger event audited", zap.String("event_name", record.EventName))
	return cns.commit(ctx, m)
}

func (cns *Consumer) decode(m kafka.Message) (*models.AuditRecord, error) {
	e, err := events.Unmarshal(m.Value)
	if err != nil {
		return nil, err
	}

	return auditRecord(e)
}

// saveWithRetry keeps the offset uncommitted until Mongo has the record.
func (cns *Consumer) saveWithRetry(ctx context.Context, record *models.AuditRecord) error {
	for {
		err := cns.audit.Save(ctx, record)
		if err == nil {
			return nil
		}

		cns.lg.WarnCtx(ctx, "audit save failed, retrying", zap.Error(err))

		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(cns.retryInterval):
		}
	}
}

func (cns *Consumer) commit(ctx context.Context, m kafka.Message) error {
	if err := cns.reader.CommitMessages(ctx, m); err != nil {
		return fmt.Errorf("transfer_audit/consumer: failed to commit messages %w", err)
	}

	return nil
}
