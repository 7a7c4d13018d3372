package main

import (
	main_config "github.com/ArdaAlp/Binary-Power/internal/config"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/repositories"
	"github.com/ArdaAlp/Binary-Power/internal/storage"
	"github.com/ArdaAlp/Binary-Power/internal/transfer_audit"
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
			storage.NewMongo,

			transfer_audit.NewConsumer,
			fx.Annotate(repositories.NewAuditRepository, fx.As(new(transfer_audit.AuditRepository))),
		),
		fx.Supply(main_config.MustNewConfig(), transfer_audit.MustNewConfig()),
		fx.Invoke(startConsumer),
	)
}

func startConsumer(*transfer_audit.Consumer) {}
