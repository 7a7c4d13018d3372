package logging

import (
	"context"

	"github.com/ArdaAlp/Binary-Power/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapLogger struct {
	logger *zap.Logger
}

type ctxFieldsKey struct{}

func NewZapLogger(cfg *config.Config) (*ZapLogger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.Level(cfg.LogLevel))

	lg, err := zcfg.Build()
	if err != nil {
		return nil, err
	}

	return &ZapLogger{logger: lg}, nil
}

// NewZapLoggerFrom wraps an already built logger, tests pass zaptest loggers through it.
func NewZapLoggerFrom(lg *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: lg}
}

// WithContextFields returns a child context carrying fields that every *Ctx call made with it
// attaches to the entry.
func (l *ZapLogger) WithContextFields(ctx context.Context, fields ...zap.Field) context.Context {
	existing := contextFields(ctx)
	merged := make([]zap.Field, 0, len(existing)+len(fields))
	merged = append(merged, existing...)
	merged = append(merged, fields...)

	return context.WithValue(ctx, ctxFieldsKey{}, merged)
}

func (l *ZapLogger) DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.DebugLevel, msg, fields...)
}

func (l *ZapLogger) InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.InfoLevel, msg, fields...)
}

func (l *ZapLogger) WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.WarnLevel, msg, fields...)
}

func (l *ZapLogger) ErrorCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, fields...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func (l *ZapLogger) log(ctx context.Context, lvl zapcore.Level, msg string, fields ...zap.Field) {
	ce := l.logger.Check(lvl, msg)
	if ce == nil {
		return
	}

	ce.Write(append(contextFields(ctx), fields...)...)
}

func contextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}

	fields, _ := ctx.Value(ctxFieldsKey{}).([]zap.Field)
	return fields
}
