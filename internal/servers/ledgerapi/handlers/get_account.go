package handlers

import (
	"context"

	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"google.golang.org/protobuf/types/known/structpb"
)

type GetAccountHandler struct {
	lg   *logging.ZapLogger
	core AccountFinder
}

type AccountFinder interface {
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
}

func NewGetAccountHandler(core AccountFinder, lg *logging.ZapLogger) *GetAccountHandler {
	return &GetAccountHandler{lg: lg, core: core}
}

func (h GetAccountHandler) GetAccount(ctx context.Context, params *structpb.Struct) (*structpb.Struct, error) {
	id, err := idField(params, "account_id")
	if err != nil {
		return nil, statusError(ctx, h.lg, "get account failed", err)
	}

	account, err := h.core.GetAccount(ctx, id)
	if err != nil {
		return nil, statusError(ctx, h.lg, "get account failed", err)
	}

	return accountMessage(account)
}
