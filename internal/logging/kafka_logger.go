package logging

import (
	"context"
	"fmt"

	"github.com/ArdaAlp/Binary-Power/internal/config"
	"go.uber.org/zap"
)

// KafkaLogger satisfies kafka.Logger for readers and writers, routing their chatter to debug.
type KafkaLogger struct {
	ZapLogger
	ctx context.Context
}

func NewKafkaLogger(cfg *config.Config) (*KafkaLogger, error) {
	base, err := NewZapLogger(&config.Config{LogLevel: cfg.KafkaLogLevel})
	if err != nil {
		return nil, err
	}

	return &KafkaLogger{
		ZapLogger: *base,
		ctx:       base.WithContextFields(context.Background(), zap.String("name", "kafka")),
	}, nil
}

func (l *KafkaLogger) Printf(format string, a ...interface{}) {
	l.DebugCtx(l.ctx, fmt.Sprintf(format, a...))
}

// KafkaErrorLogger satisfies kafka.Logger for the ErrorLogger slot, always at error level.
type KafkaErrorLogger struct {
	ZapLogger
	ctx context.Context
}

func NewKafkaErrorLogger(lg *ZapLogger) *KafkaErrorLogger {
	return &KafkaErrorLogger{
		ZapLogger: *lg,
		ctx:       lg.WithContextFields(context.Background(), zap.String("name", "kafka")),
	}
}

func (l *KafkaErrorLogger) Printf(format string, a ...interface{}) {
	l.ErrorCtx(l.ctx, fmt.Sprintf(format, a...))
}
