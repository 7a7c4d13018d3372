package handlers

import (
	"context"

	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"
)

type TopUpHandler struct {
	lg   *logging.ZapLogger
	core AccountCreditor
}

type AccountCreditor interface {
	TopUp(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error)
}

func NewTopUpHandler(core AccountCreditor, lg *logging.ZapLogger) *TopUpHandler {
	return &TopUpHandler{lg: lg, core: core}
}

func (h TopUpHandler) TopUp(ctx context.Context, params *structpb.Struct) (*structpb.Struct, error) {
	id, err := idField(params, "account_id")
	if err != nil {
		return nil, statusError(ctx, h.lg, "top up failed", err)
	}

	amount, err := amountField(params, "amount", true)
	if err != nil {
		return nil, statusError(ctx, h.lg, "top up failed", err)
	}

	balance, err := h.core.TopUp(ctx, id, amount)
	if err != nil {
		return nil, statusError(ctx, h.lg, "top up failed", err)
	}

	return structpb.NewStruct(map[string]any{
		"account_id": id,
		"balance":    money(balance),
	})
}
