package ledgerapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	Ledger_OpenAccount_FullMethodName   = "/ledger.v1.Ledger/OpenAccount"
	Ledger_GetAccount_FullMethodName    = "/ledger.v1.Ledger/GetAccount"
	Ledger_TopUp_FullMethodName         = "/ledger.v1.Ledger/TopUp"
	Ledger_Transfer_FullMethodName      = "/ledger.v1.Ledger/Transfer"
	Ledger_ListTransfers_FullMethodName = "/ledger.v1.Ledger/ListTransfers"
)

// LedgerServer is the server API of ledger.v1.Ledger. Every message is a google.protobuf.Struct.
type LedgerServer interface {
	OpenAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TopUp(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Transfer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTransfers(*structpb.Struct, grpc.ServerStreamingServer[structpb.Struct]) error
}

func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&Ledger_ServiceDesc, srv)
}

func unaryHandler(
	fullMethod string,
	call func(srv LedgerServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(LedgerServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LedgerServer), ctx, req.(*structpb.Struct))
		}

		return interceptor(ctx, in, info, handler)
	}
}

func listTransfersHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	return srv.(LedgerServer).ListTransfers(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

var Ledger_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "ledger.v1.Ledger",
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "OpenAccount",
			Handler: unaryHandler(Ledger_OpenAccount_FullMethodName, func(srv LedgerServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.OpenAccount(ctx, in)
			}),
		},
		{
			MethodName: "GetAccount",
			Handler: unaryHandler(Ledger_GetAccount_FullMethodName, func(srv LedgerServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.GetAccount(ctx, in)
			}),
		},
		{
			MethodName: "TopUp",
			Handler: unaryHandler(Ledger_TopUp_FullMethodName, func(srv LedgerServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.TopUp(ctx, in)
			}),
		},
		{
			MethodName: "Transfer",
			Handler: unaryHandler(Ledger_Transfer_FullMethodName, func(srv LedgerServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.Transfer(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ListTransfers",
			Handler:       listTransfersHandler,
			ServerStreams: true,
		},
	},
	Metadata: "ledger/v1/ledger.proto",
}
