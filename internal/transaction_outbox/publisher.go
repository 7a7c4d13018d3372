package transaction_outbox

import (
	"context"
	"fmt"

	"github.com/ArdaAlp/Binary-Power/internal/config"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"go.uber.org/fx"
)

// Publisher delivers one encoded outbox event. A nil error means the broker accepted it.
type Publisher interface {
	Publish(ctx context.Context, e *models.OutboxEvent, body []byte) error
}

func NewPublisher(
	lc fx.Lifecycle,
	cfg *Config,
	globalCFG *config.Config,
	lg *logging.ZapLogger,
	logger *logging.KafkaLogger,
	errLogger *logging.KafkaErrorLogger,
) (Publisher, error) {
	switch cfg.Broker {
	case KafkaBroker:
		p := NewKafkaPublisher(globalCFG, logger, errLogger)
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return p.Close()
			},
		})

		return p, nil
	case RabbitMQBroker:
		p := NewRabbitMQPublisher(cfg, lg)
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return p.Connect(ctx)
			},
			OnStop: func(ctx context.Context) error {
				return p.Close()
			},
		})

		return p, nil
	default:
		return nil, fmt.Errorf("transaction_outbox: unknown broker %q", cfg.Broker)
	}
}
