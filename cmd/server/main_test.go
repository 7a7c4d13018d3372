package main

import (
	"context"
	"testing"

	"github.com/ArdaAlp/Binary-Power/internal/config"
	"github.com/ArdaAlp/Binary-Power/internal/ledger"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/servers/ledgerapi"
	"github.com/ArdaAlp/Binary-Power/internal/storage/memory"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestCreateApp(t *testing.T) {
	if err := fx.ValidateApp(CreateApp()); err != nil {
		t.Fatal(err)
	}
}

func TestLedgerHandlersWiredThroughFx(t *testing.T) {
	mem := memory.NewStore()

	var srv ledgerapi.LedgerServer
	app := fxtest.New(
		t,
		LedgerHandlers(),
		fx.Provide(
			func() *logging.ZapLogger { return logging.NewZapLoggerFrom(zaptest.NewLogger(t)) },
			func() ledger.AccountStore { return mem },
			func() ledger.TransferLog { return mem },
			func() ledger.EventsOutbox { return mem },
		),
		fx.Supply(&config.Config{TxTimeout: 5000}),
		fx.Populate(&srv),
	)
	app.RequireStart()
	defer app.RequireStop()

	ctx := context.Background()
	req := func(fields map[string]any) *structpb.Struct {
		s, err := structpb.NewStruct(fields)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}

	a, err := srv.OpenAccount(ctx, req(map[string]any{"name": "Tahir", "phone": "+905551112233", "initial_balance": "100"}))
	if err != nil {
		t.Fatal(err)
	}
	b, err := srv.OpenAccount(ctx, req(map[string]any{"name": "Ayse", "phone": "+905551112234"}))
	if err != nil {
		t.Fatal(err)
	}
	aID, bID := a.GetFields()["id"].GetNumberValue(), b.GetFields()["id"].GetNumberValue()

	if _, err := srv.TopUp(ctx, req(map[string]any{"account_id": bID, "amount": "5"})); err != nil {
		t.Fatal(err)
	}
	if _, err := srv.Transfer(ctx, req(map[string]any{"from_account_id": aID, "to_account_id": bID, "amount": "40"})); err != nil {
		t.Fatal(err)
	}

	got, err := srv.GetAccount(ctx, req(map[string]any{"account_id": bID}))
	if err != nil {
		t.Fatal(err)
	}
	if balance := got.GetFields()["balance"].GetStringValue(); balance != "45.00" {
		t.Fatalf("balance=%s want=45.00", balance)
	}

	if n := len(mem.Events()); n != 2 {
		t.Fatalf("events=%d want=2", n)
	}
}
