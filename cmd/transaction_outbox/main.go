package main

import (
	main_config "github.com/ArdaAlp/Binary-Power/internal/config"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/repositories"
	"github.com/ArdaAlp/Binary-Power/internal/storage"
	"github.com/ArdaAlp/Binary-Power/internal/transaction_outbox"
	"go.uber.org/fx"
)

func main() {
	fx.New(CreateApp()).Run()
}

func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(
			logging.NewZapLogger,
			logging.NewKafkaErrorLogger,
			logging.NewKafkaLogger,
			storage.NewStorage,

			transaction_outbox.NewDaemon,
			transaction_outbox.NewPublisher,
			fx.Annotate(repositories.NewOutboxEventsRepository, fx.As(new(transaction_outbox.OutboxEventsRepository))),
		),
		fx.Supply(main_config.MustNewConfig(), transaction_outbox.MustNewConfig()),
		fx.Invoke(startDaemon),
	)
}

func startDaemon(*transaction_outbox.Daemon) {}
