package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/simaogato/wealthflow-ledger/internal/domain"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/ledger"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/summary"
)

// Ledger is the application service the server exposes
type Ledger interface {
	ListAssets(ctx context.Context) ([]domain.Asset, error)
	GetAsset(ctx context.Context, id uuid.UUID) (*domain.Asset, error)
	CreateAsset(ctx context.Context, input ledger.CreateAssetInput) (*domain.Asset, error)
	UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (*domain.Asset, error)
	PriceHistory(ctx context.Context, id uuid.UUID, limit int) ([]domain.PricePoint, error)
	ListTransactions(ctx context.Context, assetID *uuid.UUID) ([]domain.Transaction, error)
	InsertTransaction(ctx context.Context, input ledger.TransactionInput) (*domain.Transaction, []domain.Asset, error)
	EditTransaction(ctx context.Context, id uuid.UUID, input ledger.TransactionInput) (*domain.Transaction, []domain.Asset, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) ([]domain.Asset, error)
	Summary(ctx context.Context) (*summary.Summary, error)
	Issues(ctx context.Context) ([]domain.Issue, error)
	Reconcile(ctx context.Context) (*ledger.ReconcileReport, error)
}

// Server implements the LedgerService gRPC server
type Server struct {
	Ledger Ledger
}

// NewServer creates a new gRPC server instance
func NewServer(l Ledger) *Server {
	return &Server{
		Ledger: l,
	}
}

// ListAssets handles the ListAssets RPC
func (s *Server) ListAssets(ctx context.Context, _ *emptypb.Empty) (*ListAssetsResponse, error) {
	assets, err := s.Ledger.ListAssets(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return &ListAssetsResponse{
		Assets: assetsToWire(assets),
	}, nil
}

// GetAsset handles the GetAsset RPC
func (s *Server) GetAsset(ctx context.Context, req *GetAssetRequest) (*GetAssetResponse, error) {
	assetID, err := uuid.Parse(req.AssetId)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid asset_id format: %v", err)
	}

	asset, err := s.Ledger.GetAsset(ctx, assetID)
	if err != nil {
		return nil, mapError(err)
	}

	return &GetAssetResponse{
		Asset: assetToWire(asset),
	}, nil
}

// CreateAsset handles the CreateAsset RPC
func (s *Server) CreateAsset(ctx context.Context, req *CreateAssetRequest) (*CreateAssetResponse, error) {
	price := decimal.Zero
	if req.CurrentPrice != "" {
		parsed, err := decimal.NewFromString(req.CurrentPrice)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid current_price format: %v", err)
		}
		price = parsed
	}

	asset, err := s.Ledger.CreateAsset(ctx, ledger.CreateAssetInput{
		Symbol:       req.Symbol,
		Name:         req.Name,
		AssetClass:   domain.AssetClass(strings.ToUpper(req.AssetClass)),
		Currency:     strings.ToUpper(req.Currency),
		CurrentPrice: price,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return &CreateAssetResponse{
		Asset: assetToWire(asset),
	}, nil
}

// UpdatePrice handles the UpdatePrice RPC
func (s *Server) UpdatePrice(ctx context.Context, req *UpdatePriceRequest) (*UpdatePriceResponse, error) {
	assetID, err := uuid.Parse(req.AssetId)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid asset_id format: %v", err)
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid price format: %v", err)
	}

	asset, err := s.Ledger.UpdatePrice(ctx, assetID, price)
	if err != nil {
		return nil, mapError(err)
	}

	return &UpdatePriceResponse{
		Asset: assetToWire(asset),
	}, nil
}

// PriceHistory handles the PriceHistory RPC
func (s *Server) PriceHistory(ctx context.Context, req *PriceHistoryRequest) (*PriceHistoryResponse, error) {
	assetID, err := uuid.Parse(req.AssetId)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid asset_id format: %v", err)
	}

	if req.Limit < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "limit must be non-negative")
	}

	points, err := s.Ledger.PriceHistory(ctx, assetID, int(req.Limit))
	if err != nil {
		return nil, mapError(err)
	}

	resp := &PriceHistoryResponse{Points: make([]*PricePoint, 0, len(points))}
	for _, p := range points {
		resp.Points = append(resp.Points, pricePointToWire(p))
	}
	return resp, nil
}

// ListTransactions handles the ListTransactions RPC
func (s *Server) ListTransactions(ctx context.Context, req *ListTransactionsRequest) (*ListTransactionsResponse, error) {
	// Parse optional asset ID filter
	var assetID *uuid.UUID
	if req.AssetId != "" {
		parsedID, err := uuid.Parse(req.AssetId)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid asset_id format: %v", err)
		}
		assetID = &parsedID
	}

	transactions, err := s.Ledger.ListTransactions(ctx, assetID)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListTransactionsResponse{Transactions: make([]*Transaction, 0, len(transactions))}
	for i := range transactions {
		resp.Transactions = append(resp.Transactions, transactionToWire(&transactions[i]))
	}
	return resp, nil
}

// InsertTransaction handles the InsertTransaction RPC
func (s *Server) InsertTransaction(ctx context.Context, req *InsertTransactionRequest) (*MutationResponse, error) {
	input, err := parseTransactionInput(req.Transaction)
	if err != nil {
		return nil, err
	}

	tx, assets, err := s.Ledger.InsertTransaction(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return &MutationResponse{
		Transaction: transactionToWire(tx),
		Assets:      assetsToWire(assets),
	}, nil
}

// EditTransaction handles the EditTransaction RPC
func (s *Server) EditTransaction(ctx context.Context, req *EditTransactionRequest) (*MutationResponse, error) {
	id, err := uuid.Parse(req.TransactionId)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid transaction_id format: %v", err)
	}

	input, err := parseTransactionInput(req.Transaction)
	if err != nil {
		return nil, err
	}

	tx, assets, err := s.Ledger.EditTransaction(ctx, id, input)
	if err != nil {
		return nil, mapError(err)
	}

	return &MutationResponse{
		Transaction: transactionToWire(tx),
		Assets:      assetsToWire(assets),
	}, nil
}

// DeleteTransaction handles the DeleteTransaction RPC
func (s *Server) DeleteTransaction(ctx context.Context, req *DeleteTransactionRequest) (*MutationResponse, error) {
	id, err := uuid.Parse(req.TransactionId)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid transaction_id format: %v", err)
	}

	assets, err := s.Ledger.DeleteTransaction(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}

	return &MutationResponse{
		Assets: assetsToWire(assets),
	}, nil
}

// GetSummary handles the GetSummary RPC
func (s *Server) GetSummary(ctx context.Context, _ *emptypb.Empty) (*GetSummaryResponse, error) {
	result, err := s.Ledger.Summary(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return summaryToWire(result), nil
}

// ListIssues handles the ListIssues RPC
func (s *Server) ListIssues(ctx context.Context, _ *emptypb.Empty) (*ListIssuesResponse, error) {
	issues, err := s.Ledger.Issues(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return &ListIssuesResponse{
		Issues: issuesToWire(issues),
	}, nil
}

// Reconcile handles the Reconcile RPC
func (s *Server) Reconcile(ctx context.Context, _ *emptypb.Empty) (*ReconcileResponse, error) {
	report, err := s.Ledger.Reconcile(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ReconcileResponse{
		Assets:       int32(report.Assets),
		Transactions: int32(report.Transactions),
		Drifts:       make([]*Drift, 0, len(report.Drifts)),
		Issues:       issuesToWire(report.Issues),
	}
	for _, d := range report.Drifts {
		resp.Drifts = append(resp.Drifts, &Drift{
			AssetId:  d.AssetID.String(),
			Symbol:   d.Symbol,
			Held:     assetToWire(d.Held),
			Replayed: assetToWire(d.Replayed),
		})
	}
	return resp, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch domain.KindOf(err) {
	case domain.ErrorKindInvalidTransaction, domain.ErrorKindInconsistentTotal:
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.ErrorKindOrphanTransaction, domain.ErrorKindOverdraftPosition:
		return status.Error(codes.FailedPrecondition, err.Error())
	case domain.ErrorKindUnknownTransaction:
		return status.Error(codes.NotFound, err.Error())
	}

	switch {
	case errors.Is(err, domain.ErrAssetNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateAsset), errors.Is(err, domain.ErrDuplicateTransaction):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, domain.ErrEmptySymbol),
		errors.Is(err, domain.ErrInvalidAssetClass),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrNegativePrice):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, summary.ErrUnknownRate):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	// Default to Internal error for unknown errors
	return status.Error(codes.Internal, err.Error())
}
