package ledgerapi

import (
	"github.com/ArdaAlp/Binary-Power/internal/servers/ledgerapi/handlers"
)

type Handler struct {
	handlers.OpenAccountHandler
	handlers.GetAccountHandler
	handlers.TopUpHandler
	handlers.TransferHandler
	handlers.ListTransfersHandler
}

func NewHandler(
	openAccount *handlers.OpenAccountHandler,
	getAccount *handlers.GetAccountHandler,
	topUp *handlers.TopUpHandler,
	transfer *handlers.TransferHandler,
	listTransfers *handlers.ListTransfersHandler,
) *Handler {
	return &Handler{
		OpenAccountHandler:   *openAccount,
		GetAccountHandler:    *getAccount,
		TopUpHandler:         *topUp,
		TransferHandler:      *transfer,
		ListTransfersHandler: *listTransfers,
	}
}
