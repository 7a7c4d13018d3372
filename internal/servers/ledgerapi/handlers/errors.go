package handlers

import (
	"context"
	"errors"

	"github.com/ArdaAlp/Binary-Power/internal/ledger"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StatusCode maps ledger errors to grpc codes.
func StatusCode(err error) codes.Code {
	var ferr *fieldError

	switch {
	case err == nil:
		return codes.OK
	case errors.As(err, &ferr),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidAccount),
		errors.Is(err, ledger.ErrSameAccount):
		return codes.InvalidArgument
	case errors.Is(err, ledger.ErrAccountNotFound):
		return codes.NotFound
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return codes.FailedPrecondition
	case errors.Is(err, ledger.ErrIdempotencyConflict):
		return codes.AlreadyExists
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, ledger.ErrStorageFailure):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// statusError logs err and converts it. Internal details of storage failures stay in the log.
func statusError(ctx context.Context, lg *logging.ZapLogger, msg string, err error) error {
	code := StatusCode(err)

	switch code {
	case codes.Internal, codes.Unavailable:
		lg.ErrorCtx(ctx, msg, zap.Error(err))
		return status.Error(code, msg)
	default:
		lg.DebugCtx(ctx, msg, zap.Error(err), zap.Stringer("code", code))
		return status.Error(code, err.Error())
	}
}
