package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
)

// LedgerClient calls the ledger service over a client connection
type LedgerClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerClient creates a new client on cc
func NewLedgerClient(cc grpc.ClientConnInterface) *LedgerClient {
	return &LedgerClient{cc: cc}
}

// TokenInterceptor returns a unary client interceptor that sends token in the
// authorization header expected by AuthInterceptor
func TokenInterceptor(token string) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", token)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in interface{}, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LedgerClient) ListAssets(ctx context.Context, opts ...grpc.CallOption) (*ListAssetsResponse, error) {
	return invoke[ListAssetsResponse](ctx, c.cc, "ListAssets", &emptypb.Empty{}, opts)
}

func (c *LedgerClient) GetAsset(ctx context.Context, in *GetAssetRequest, opts ...grpc.CallOption) (*GetAssetResponse, error) {
	return invoke[GetAssetResponse](ctx, c.cc, "GetAsset", in, opts)
}

func (c *LedgerClient) CreateAsset(ctx context.Context, in *CreateAssetRequest, opts ...grpc.CallOption) (*CreateAssetResponse, error) {
	return invoke[CreateAssetResponse](ctx, c.cc, "CreateAsset", in, opts)
}

func (c *LedgerClient) UpdatePrice(ctx context.Context, in *UpdatePriceRequest, opts ...grpc.CallOption) (*UpdatePriceResponse, error) {
	return invoke[UpdatePriceResponse](ctx, c.cc, "UpdatePrice", in, opts)
}

func (c *LedgerClient) PriceHistory(ctx context.Context, in *PriceHistoryRequest, opts ...grpc.CallOption) (*PriceHistoryResponse, error) {
	return invoke[PriceHistoryResponse](ctx, c.cc, "PriceHistory", in, opts)
}

func (c *LedgerClient) ListTransactions(ctx context.Context, in *ListTransactionsRequest, opts ...grpc.CallOption) (*ListTransactionsResponse, error) {
	return invoke[ListTransactionsResponse](ctx, c.cc, "ListTransactions", in, opts)
}

func (c *LedgerClient) InsertTransaction(ctx context.Context, in *InsertTransactionRequest, opts ...grpc.CallOption) (*MutationResponse, error) {
	return invoke[MutationResponse](ctx, c.cc, "InsertTransaction", in, opts)
}

func (c *LedgerClient) EditTransaction(ctx context.Context, in *EditTransactionRequest, opts ...grpc.CallOption) (*MutationResponse, error) {
	return invoke[MutationResponse](ctx, c.cc, "EditTransaction", in, opts)
}

func (c *LedgerClient) DeleteTransaction(ctx context.Context, in *DeleteTransactionRequest, opts ...grpc.CallOption) (*MutationResponse, error) {
	return invoke[MutationResponse](ctx, c.cc, "DeleteTransaction", in, opts)
}

func (c *LedgerClient) GetSummary(ctx context.Context, opts ...grpc.CallOption) (*GetSummaryResponse, error) {
	return invoke[GetSummaryResponse](ctx, c.cc, "GetSummary", &emptypb.Empty{}, opts)
}

func (c *LedgerClient) ListIssues(ctx context.Context, opts ...grpc.CallOption) (*ListIssuesResponse, error) {
	return invoke[ListIssuesResponse](ctx, c.cc, "ListIssues", &emptypb.Empty{}, opts)
}

func (c *LedgerClient) Reconcile(ctx context.Context, opts ...grpc.CallOption) (*ReconcileResponse, error) {
	return invoke[ReconcileResponse](ctx, c.cc, "Reconcile", &emptypb.Empty{}, opts)
}
