package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ServiceName is the fully qualified name of the ledger service
const ServiceName = "wealthflow.ledger.v1.LedgerService"

// LedgerServiceServer is the server API of the ledger service
type LedgerServiceServer interface {
	ListAssets(context.Context, *emptypb.Empty) (*ListAssetsResponse, error)
	GetAsset(context.Context, *GetAssetRequest) (*GetAssetResponse, error)
	CreateAsset(context.Context, *CreateAssetRequest) (*CreateAssetResponse, error)
	UpdatePrice(context.Context, *UpdatePriceRequest) (*UpdatePriceResponse, error)
	PriceHistory(context.Context, *PriceHistoryRequest) (*PriceHistoryResponse, error)
	ListTransactions(context.Context, *ListTransactionsRequest) (*ListTransactionsResponse, error)
	InsertTransaction(context.Context, *InsertTransactionRequest) (*MutationResponse, error)
	EditTransaction(context.Context, *EditTransactionRequest) (*MutationResponse, error)
	DeleteTransaction(context.Context, *DeleteTransactionRequest) (*MutationResponse, error)
	GetSummary(context.Context, *emptypb.Empty) (*GetSummaryResponse, error)
	ListIssues(context.Context, *emptypb.Empty) (*ListIssuesResponse, error)
	Reconcile(context.Context, *emptypb.Empty) (*ReconcileResponse, error)
}

// LedgerServiceDesc describes the ledger service for grpc.Server.RegisterService.
// Messages are plain structs, so the service only speaks the "json" content-subtype
// (application/grpc+json) and carries no file descriptor for server reflection.
// Clients call it with grpc.CallContentSubtype(CodecName), as LedgerClient does.
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListAssets", LedgerServiceServer.ListAssets),
		unary("GetAsset", LedgerServiceServer.GetAsset),
		unary("CreateAsset", LedgerServiceServer.CreateAsset),
		unary("UpdatePrice", LedgerServiceServer.UpdatePrice),
		unary("PriceHistory", LedgerServiceServer.PriceHistory),
		unary("ListTransactions", LedgerServiceServer.ListTransactions),
		unary("InsertTransaction", LedgerServiceServer.InsertTransaction),
		unary("EditTransaction", LedgerServiceServer.EditTransaction),
		unary("DeleteTransaction", LedgerServiceServer.DeleteTransaction),
		unary("GetSummary", LedgerServiceServer.GetSummary),
		unary("ListIssues", LedgerServiceServer.ListIssues),
		unary("Reconcile", LedgerServiceServer.Reconcile),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterLedgerServiceServer registers srv on s
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary builds the method descriptor of one RPC, running the server's
// interceptor chain around call
func unary[Req, Resp any](name string, call func(LedgerServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LedgerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(LedgerServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
