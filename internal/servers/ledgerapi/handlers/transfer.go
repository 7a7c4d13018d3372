package handlers

import (
	"context"

	"github.com/ArdaAlp/Binary-Power/internal/ledger"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// IdempotencyKeyHeader is the request metadata key carrying the client chosen idempotency key.
const IdempotencyKeyHeader = "idempotency-key"

type TransferHandler struct {
	lg   *logging.ZapLogger
	core MoneyTransferer
}

type MoneyTransferer interface {
	Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal, opts ...ledger.TransferOption) (*models.Transfer, decimal.Decimal, error)
}

func NewTransferHandler(core MoneyTransferer, lg *logging.ZapLogger) *TransferHandler {
	return &TransferHandler{lg: lg, core: core}
}

func (h TransferHandler) Transfer(ctx context.Context, params *structpb.Struct) (*structpb.Struct, error) {
	from, err := idField(params, "from_account_id")
	if err != nil {
		return nil, statusError(ctx, h.lg, "transfer failed", err)
	}

	to, err := idField(params, "to_account_id")
	if err != nil {
		return nil, statusError(ctx, h.lg, "transfer failed", err)
	}

	amount, err := amountField(params, "amount", true)
	if err != nil {
		return nil, statusError(ctx, h.lg, "transfer failed", err)
	}

	var opts []ledger.TransferOption
	if key := IdempotencyKey(ctx); key != "" {
		opts = append(opts, ledger.WithIdempotencyKey(key))
	}

	t, senderBalance, err := h.core.Transfer(ctx, from, to, amount, opts...)
	if err != nil {
		return nil, statusError(ctx, h.lg, "transfer failed", err)
	}

	m := transferMessage(t)
	m["sender_balance"] = money(senderBalance)

	return structpb.NewStruct(m)
}

// IdempotencyKey reads the idempotency key from incoming metadata.
func IdempotencyKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	if v := md.Get(IdempotencyKeyHeader); len(v) > 0 {
		return v[0]
	}

	return ""
}
