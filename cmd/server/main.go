package main

import (
	main_config "github.com/ArdaAlp/Binary-Power/internal/config"
	"github.com/ArdaAlp/Binary-Power/internal/ledger"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/repositories"
	"github.com/ArdaAlp/Binary-Power/internal/servers/ledgerapi"
	"github.com/ArdaAlp/Binary-Power/internal/servers/ledgerapi/handlers"
	"github.com/ArdaAlp/Binary-Power/internal/storage"
	"go.uber.org/fx"
)

func main() {
	fx.New(CreateApp()).Run()
}

func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(
			logging.NewZapLogger,
			storage.NewStorage,
			storage.NewRedis,

			fx.Annotate(repositories.NewAccountsRepository, fx.As(new(ledger.AccountStore))),
			fx.Annotate(repositories.NewTransfersRepository, fx.As(new(ledger.TransferLog))),
			fx.Annotate(repositories.NewOutboxEventsRepository, fx.As(new(ledger.EventsOutbox))),

			// GRPC server
			ledgerapi.NewServer,
			fx.Annotate(repositories.NewIdempotencyRepository, fx.As(new(ledgerapi.IdempotencyCache))),
		),
		LedgerHandlers(),
		fx.Supply(
			main_config.MustNewConfig(),
		),
		fx.Invoke(
			startLedgerServer,
		),
	)
}

// LedgerHandlers builds the ledger and the gRPC handler set on top of whatever stores the
// graph provides as ledger.AccountStore, ledger.TransferLog and ledger.EventsOutbox.
func LedgerHandlers() fx.Option {
	return fx.Options(
		fx.Provide(
			ledger.NewLedger,
			func(l *ledger.Ledger) handlers.AccountOpener { return l },
			func(l *ledger.Ledger) handlers.AccountFinder { return l },
			func(l *ledger.Ledger) handlers.AccountCreditor { return l },
			func(l *ledger.Ledger) handlers.MoneyTransferer { return l },
			func(l *ledger.Ledger) handlers.TransfersLister { return l },

			fx.Annotate(ledgerapi.NewHandler, fx.As(new(ledgerapi.LedgerServer))),
			handlers.NewOpenAccountHandler,
			handlers.NewGetAccountHandler,
			handlers.NewTopUpHandler,
			handlers.NewTransferHandler,
			handlers.NewListTransfersHandler,
		),
	)
}

func startLedgerServer(*ledgerapi.Server) {}
