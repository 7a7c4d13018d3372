package ledgerapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/ArdaAlp/Binary-Power/internal/servers/ledgerapi/handlers"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// IdempotencyHitHeader is set on responses replayed from the cache.
const IdempotencyHitHeader = "x-idempotency-hit"

type IdempotencyCache interface {
	Get(ctx context.Context, key string) (*models.CachedResponse, error)
	Save(ctx context.Context, key string, in *models.CachedResponse) error
}

// codes worth replaying. Anything else, Unavailable in particular, may succeed on retry.
var cacheableCodes = map[codes.Code]bool{
	codes.OK:                 true,
	codes.InvalidArgument:    true,
	codes.NotFound:           true,
	codes.FailedPrecondition: true,
	codes.AlreadyExists:      true,
}

// IdempotencyInterceptor replays the stored outcome of unary calls that carry an
// idempotency-key. The cache is best effort: while it fails, requests reach the handlers, and
// Transfer still deduplicates in the ledger itself.
func IdempotencyInterceptor(cache IdempotencyCache, lg *logging.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		key := handlers.IdempotencyKey(ctx)
		if key == "" {
			return handler(ctx, req)
		}

		msg, ok := req.(proto.Message)
		if !ok {
			return handler(ctx, req)
		}

		ctx = lg.WithContextFields(ctx, zap.String("idempotency_key", key))
		cacheKey := info.FullMethod + ":" + key

		hash, err := requestHash(info.FullMethod, msg)
		if err != nil {
			lg.ErrorCtx(ctx, "idempotency fingerprint failed", zap.Error(err))
			return handler(ctx, req)
		}

		cached, err := cache.Get(ctx, cacheKey)
		if err != nil {
			lg.ErrorCtx(ctx, "idempotency cache lookup failed", zap.Error(err))
			return handler(ctx, req)
		}

		if cached != nil {
			return replay(ctx, lg, cached, hash)
		}

		resp, herr := handler(ctx, req)

		code := status.Code(herr)
		if !cacheableCodes[code] {
			return resp, herr
		}

		entry := &models.CachedResponse{Code: uint32(code), RequestHash: hash}
		if herr != nil {
			entry.Message = status.Convert(herr).Message()
		} else if pm, ok := resp.(proto.Message); ok {
			if entry.Body, err = proto.Marshal(pm); err != nil {
				lg.ErrorCtx(ctx, "idempotency response marshal failed", zap.Error(err))
				return resp, nil
			}
		}

		if err := cache.Save(ctx, cacheKey, entry); err != nil {
			lg.ErrorCtx(ctx, "idempotency cache save failed", zap.Error(err))
		}

		return resp, herr
	}
}

func replay(ctx context.Context, lg *logging.ZapLogger, cached *models.CachedResponse, hash string) (any, error) {
	if cached.RequestHash != hash {
		return nil, status.Error(codes.AlreadyExists, "idempotency key already used for a different request")
	}

	if err := grpc.SetHeader(ctx, metadata.Pairs(IdempotencyHitHeader, "true")); err != nil {
		lg.DebugCtx(ctx, "set idempotency header failed", zap.Error(err))
	}

	lg.InfoCtx(ctx, "idempotency cache hit", zap.Uint32("code", cached.Code))

	if code := codes.Code(cached.Code); code != codes.OK {
		return nil, status.Error(code, cached.Message)
	}

	out := &structpb.Struct{}
	if err := proto.Unmarshal(cached.Body, out); err != nil {
		return nil, status.Error(codes.Internal, "cached response is corrupted")
	}

	return out, nil
}

func requestHash(method string, msg proto.Message) (string, error) {
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(msg)
	if err != nil {
		return "", err
	}

	sum := sha256.New()
	sum.Write([]byte(method))
	sum.Write(b)

	return hex.EncodeToString(sum.Sum(nil)), nil
}
