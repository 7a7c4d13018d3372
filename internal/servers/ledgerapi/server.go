package ledgerapi

import (
	"context"
	"net"
	"time"

	"github.com/ArdaAlp/Binary-Power/internal/config"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

type Server struct {
	handler LedgerServer
	cfg     *config.Config
	srv     *grpc.Server
}

func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.cfg.LedgerServerAddress)
	if err != nil {
		return err
	}

	go s.Serve(lis)

	return nil
}

func (s *Server) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

func (s *Server) Stop() {
	s.srv.GracefulStop()
}

func NewServer(h LedgerServer, cache IdempotencyCache, lc fx.Lifecycle, cfg *config.Config, lg *logging.ZapLogger) *Server {
	srv := newServer(h, cache, cfg, lg)

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				lg.InfoCtx(
					ctx,
					"start processing ledger GRPC requests",
					zap.String("address", cfg.LedgerServerAddress),
				)

				return srv.Start()
			},
			OnStop: func(ctx context.Context) error {
				srv.Stop()
				return nil
			},
		},
	)

	return srv
}

// newServer builds the grpc server with its interceptors. cache may be nil.
func newServer(h LedgerServer, cache IdempotencyCache, cfg *config.Config, lg *logging.ZapLogger) *Server {
	interceptors := []grpc.UnaryServerInterceptor{requestLogInterceptor(lg)}
	if cache != nil {
		interceptors = append(interceptors, IdempotencyInterceptor(cache, lg))
	}

	srv := &Server{
		cfg:     cfg,
		handler: h,
		srv: grpc.NewServer(
			grpc.ChainUnaryInterceptor(interceptors...),
			grpc.ChainStreamInterceptor(streamLogInterceptor(lg)),
		),
	}
	RegisterLedgerServer(srv.srv, h)

	return srv
}

func requestLogInterceptor(lg *logging.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = lg.WithContextFields(ctx, zap.String("method", info.FullMethod))
		started := time.Now()

		resp, err := handler(ctx, req)

		lg.DebugCtx(ctx, "request finished",
			zap.Stringer("code", status.Code(err)),
			zap.Duration("duration", time.Since(started)),
		)

		return resp, err
	}
}

func streamLogInterceptor(lg *logging.ZapLogger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := lg.WithContextFields(ss.Context(), zap.String("method", info.FullMethod))
		started := time.Now()

		err := handler(srv, &loggedStream{ServerStream: ss, ctx: ctx})

		lg.DebugCtx(ctx, "stream finished",
			zap.Stringer("code", status.Code(err)),
			zap.Duration("duration", time.Since(started)),
		)

		return err
	}
}

type loggedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *loggedStream) Context() context.Context {
	return s.ctx
}
