package handlers

import (
	"context"

	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"
)

type OpenAccountHandler struct {
	lg   *logging.ZapLogger
	core AccountOpener
}

type AccountOpener interface {
	OpenAccount(ctx context.Context, name, phone string, initialBalance decimal.Decimal) (*models.Account, error)
}

func NewOpenAccountHandler(core AccountOpener, lg *logging.ZapLogger) *OpenAccountHandler {
	return &OpenAccountHandler{lg: lg, core: core}
}

func (h OpenAccountHandler) OpenAccount(ctx context.Context, params *structpb.Struct) (*structpb.Struct, error) {
	name, err := stringField(params, "name")
	if err != nil {
		return nil, statusError(ctx, h.lg, "open account failed", err)
	}

	phone, err := stringField(params, "phone")
	if err != nil {
		return nil, statusError(ctx, h.lg, "open account failed", err)
	}

	initial, err := amountField(params, "initial_balance", false)
	if err != nil {
		return nil, statusError(ctx, h.lg, "open account failed", err)
	}

	account, err := h.core.OpenAccount(ctx, name, phone, initial)
	if err != nil {
		return nil, statusError(ctx, h.lg, "open account failed", err)
	}

	return accountMessage(account)
}
