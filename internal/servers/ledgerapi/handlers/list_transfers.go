package handlers

import (
	"context"
	"iter"

	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

type ListTransfersHandler struct {
	lg   *logging.ZapLogger
	core TransfersLister
}

type TransfersLister interface {
	ListTransfers(ctx context.Context, accountID int64) iter.Seq2[*models.Transfer, error]
}

func NewListTransfersHandler(core TransfersLister, lg *logging.ZapLogger) *ListTransfersHandler {
	return &ListTransfersHandler{lg: lg, core: core}
}

// ListTransfers streams the history one message per transfer, oldest first.
func (h ListTransfersHandler) ListTransfers(params *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()

	id, err := idField(params, "account_id")
	if err != nil {
		return statusError(ctx, h.lg, "list transfers failed", err)
	}

	sent := 0
	for t, err := range h.core.ListTransfers(ctx, id) {
		if err != nil {
			return statusError(ctx, h.lg, "list transfers failed", err)
		}

		msg, err := structpb.NewStruct(transferMessage(t))
		if err != nil {
			return statusError(ctx, h.lg, "list transfers failed", err)
		}

		if err := stream.Send(msg); err != nil {
			return err
		}
		sent++
	}

	h.lg.DebugCtx(ctx, "transfers streamed", zap.Int64("account_id", id), zap.Int("count", sent))
	return nil
}
