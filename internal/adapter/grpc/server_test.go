package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/simaogato/wealthflow-ledger/internal/domain"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/ledger"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/summary"
)

// MockLedger is a mock implementation of Ledger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Asset), args.Error(1)
}

func (m *MockLedger) GetAsset(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *MockLedger) CreateAsset(ctx context.Context, input ledger.CreateAssetInput) (*domain.Asset, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *MockLedger) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (*domain.Asset, error) {
	args := m.Called(ctx, id, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *MockLedger) PriceHistory(ctx context.Context, id uuid.UUID, limit int) ([]domain.PricePoint, error) {
	args := m.Called(ctx, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PricePoint), args.Error(1)
}

func (m *MockLedger) ListTransactions(ctx context.Context, assetID *uuid.UUID) ([]domain.Transaction, error) {
	args := m.Called(ctx, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockLedger) InsertTransaction(ctx context.Context, input ledger.TransactionInput) (*domain.Transaction, []domain.Asset, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Transaction), args.Get(1).([]domain.Asset), args.Error(2)
}

func (m *MockLedger) EditTransaction(ctx context.Context, id uuid.UUID, input ledger.TransactionInput) (*domain.Transaction, []domain.Asset, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Transaction), args.Get(1).([]domain.Asset), args.Error(2)
}

func (m *MockLedger) DeleteTransaction(ctx context.Context, id uuid.UUID) ([]domain.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Asset), args.Error(1)
}

func (m *MockLedger) Summary(ctx context.Context) (*summary.Summary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*summary.Summary), args.Error(1)
}

func (m *MockLedger) Issues(ctx context.Context) ([]domain.Issue, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Issue), args.Error(1)
}

func (m *MockLedger) Reconcile(ctx context.Context) (*ledger.ReconcileReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ReconcileReport), args.Error(1)
}

const testToken = "test-token"

// startServer serves a Server backed by l over an in-memory listener and
// returns a client connection authenticated with token
func startServer(t *testing.T, l Ledger, token string) *grpc.ClientConn {
	t.Helper()

	logger, _ := test.NewNullLogger()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		LoggingInterceptor(logger),
		AuthInterceptor(testToken),
	))
	RegisterLedgerServiceServer(srv, NewServer(l))
	healthpb.RegisterHealthServer(srv, health.NewServer())

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(TokenInterceptor(token)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func fixtureAsset() domain.Asset {
	updated := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	asset := domain.NewAsset(domain.AssetMetadata{
		ID:              uuid.MustParse("6f1b8d8e-59a4-4a8e-9d1e-1f6c1d3f0a01"),
		Symbol:          "ACME",
		Name:            "Acme Corp",
		AssetClass:      domain.AssetClassStock,
		Currency:        "EUR",
		CurrentPrice:    decimal.NewFromInt(120),
		LastPriceUpdate: &updated,
	})
	asset.Quantity = decimal.NewFromInt(10)
	asset.TotalCostBasis = decimal.NewFromInt(1000)
	asset.AvgCost = decimal.NewFromInt(100)
	asset.Derive()
	return asset
}

func statusCode(t *testing.T, err error) codes.Code {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "error should be a gRPC status")
	return st.Code()
}

func TestLedgerServiceDesc_Registration(t *testing.T) {
	srv := grpc.NewServer()
	RegisterLedgerServiceServer(srv, NewServer(new(MockLedger)))

	info, ok := srv.GetServiceInfo()[ServiceName]
	require.True(t, ok)
	assert.Nil(t, info.Metadata, "no file descriptor is advertised")
	assert.Len(t, info.Methods, 12)
	for _, m := range info.Methods {
		assert.False(t, m.IsClientStream || m.IsServerStream, "%s is unary", m.Name)
	}
}

func TestServer_ListAssets(t *testing.T) {
	mockLedger := new(MockLedger)
	asset := fixtureAsset()
	mockLedger.On("ListAssets", mock.Anything).Return([]domain.Asset{asset}, nil)

	client := NewLedgerClient(startServer(t, mockLedger, testToken))
	resp, err := client.ListAssets(context.Background())

	require.NoError(t, err)
	require.Len(t, resp.Assets, 1)
	got := resp.Assets[0]
	assert.Equal(t, asset.ID.String(), got.Id)
	assert.Equal(t, "STOCK", got.AssetClass)
	assert.Equal(t, "10", got.Quantity)
	assert.Equal(t, "100", got.AvgCost)
	assert.Equal(t, "1200", got.CurrentValue)
	assert.Equal(t, "200", got.UnrealizedPnl)
	assert.Equal(t, "20.00", got.UnrealizedPnlPercent)
	require.NotNil(t, got.LastPriceUpdate)
	assert.True(t, got.LastPriceUpdate.AsTime().Equal(*asset.LastPriceUpdate))
	mockLedger.AssertExpectations(t)
}

func TestServer_RejectsInvalidToken(t *testing.T) {
	mockLedger := new(MockLedger)

	client := NewLedgerClient(startServer(t, mockLedger, "wrong-token"))
	_, err := client.ListAssets(context.Background())

	assert.Equal(t, codes.Unauthenticated, statusCode(t, err))
	mockLedger.AssertNotCalled(t, "ListAssets", mock.Anything)
}

func TestServer_HealthCheckWithoutToken(t *testing.T) {
	conn := startServer(t, new(MockLedger), "")

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})

	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestServer_InsertTransaction(t *testing.T) {
	asset := fixtureAsset()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		total         string
		expectedTotal *decimal.Decimal
	}{
		{name: "Computed Total", total: "", expectedTotal: nil},
		{name: "Explicit Total", total: "599", expectedTotal: func() *decimal.Decimal { d := decimal.NewFromInt(599); return &d }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLedger := new(MockLedger)
			stored := &domain.Transaction{
				ID:             uuid.New(),
				AssetID:        asset.ID,
				Kind:           domain.TransactionKindSell,
				Date:           date,
				Sequence:       7,
				QuantityChange: decimal.NewFromInt(-5),
				PricePerUnit:   decimal.NewFromInt(120),
				Fee:            decimal.NewFromInt(1),
				Total:          decimal.NewFromInt(599),
				Note:           "trim",
			}

			mockLedger.On("InsertTransaction", mock.Anything, mock.MatchedBy(func(in ledger.TransactionInput) bool {
				if (in.Total == nil) != (tt.expectedTotal == nil) {
					return false
				}
				if in.Total != nil && !in.Total.Equal(*tt.expectedTotal) {
					return false
				}
				return in.AssetID == asset.ID &&
					in.Kind == domain.TransactionKindSell &&
					in.Date.Equal(date) &&
					in.QuantityChange.Equal(decimal.NewFromInt(-5)) &&
					in.PricePerUnit.Equal(decimal.NewFromInt(120)) &&
					in.Fee.Equal(decimal.NewFromInt(1)) &&
					in.Note == "trim"
			})).Return(stored, []domain.Asset{asset}, nil)

			client := NewLedgerClient(startServer(t, mockLedger, testToken))
			resp, err := client.InsertTransaction(context.Background(), &InsertTransactionRequest{
				Transaction: &TransactionInput{
					AssetId:        asset.ID.String(),
					Kind:           "sell",
					Date:           "2024-03-01",
					QuantityChange: "-5",
					PricePerUnit:   "120",
					Fee:            "1",
					Total:          tt.total,
					Note:           "trim",
				},
			})

			require.NoError(t, err)
			require.NotNil(t, resp.Transaction)
			assert.Equal(t, stored.ID.String(), resp.Transaction.Id)
			assert.Equal(t, int64(7), resp.Transaction.Sequence)
			assert.Equal(t, "599", resp.Transaction.Total)
			assert.True(t, resp.Transaction.Date.AsTime().Equal(date))
			assert.Len(t, resp.Assets, 1)
			mockLedger.AssertExpectations(t)
		})
	}
}

func TestServer_InvalidArguments(t *testing.T) {
	mockLedger := new(MockLedger)
	client := NewLedgerClient(startServer(t, mockLedger, testToken))
	ctx := context.Background()
	validInput := func() *TransactionInput {
		return &TransactionInput{
			AssetId:        uuid.NewString(),
			Kind:           "BUY",
			Date:           "2024-03-01",
			QuantityChange: "1",
			PricePerUnit:   "10",
		}
	}

	tests := []struct {
		name string
		call func() error
	}{
		{name: "Bad Asset ID", call: func() error {
			_, err := client.GetAsset(ctx, &GetAssetRequest{AssetId: "not-a-uuid"})
			return err
		}},
		{name: "Missing Transaction", call: func() error {
			_, err := client.InsertTransaction(ctx, &InsertTransactionRequest{})
			return err
		}},
		{name: "Bad Date", call: func() error {
			in := validInput()
			in.Date = "01/03/2024"
			_, err := client.InsertTransaction(ctx, &InsertTransactionRequest{Transaction: in})
			return err
		}},
		{name: "Bad Quantity", call: func() error {
			in := validInput()
			in.QuantityChange = "ten"
			_, err := client.InsertTransaction(ctx, &InsertTransactionRequest{Transaction: in})
			return err
		}},
		{name: "Bad Price", call: func() error {
			_, err := client.UpdatePrice(ctx, &UpdatePriceRequest{AssetId: uuid.NewString(), Price: "1,5"})
			return err
		}},
		{name: "Negative History Limit", call: func() error {
			_, err := client.PriceHistory(ctx, &PriceHistoryRequest{AssetId: uuid.NewString(), Limit: -1})
			return err
		}},
		{name: "Bad Transaction ID", call: func() error {
			_, err := client.DeleteTransaction(ctx, &DeleteTransactionRequest{TransactionId: "42"})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, codes.InvalidArgument, statusCode(t, tt.call()))
		})
	}

	// Nothing reached the ledger
	mockLedger.AssertExpectations(t)
	assert.Empty(t, mockLedger.Calls)
}

func TestServer_MutationErrorsAreMapped(t *testing.T) {
	mockLedger := new(MockLedger)
	id := uuid.New()
	overdraft := &domain.LedgerError{Kind: domain.ErrorKindOverdraftPosition, TransactionID: id, Message: "sells 20, holds 10"}
	mockLedger.On("DeleteTransaction", mock.Anything, id).Return(nil, overdraft)

	client := NewLedgerClient(startServer(t, mockLedger, testToken))
	_, err := client.DeleteTransaction(context.Background(), &DeleteTransactionRequest{TransactionId: id.String()})

	assert.Equal(t, codes.FailedPrecondition, statusCode(t, err))
	assert.Contains(t, status.Convert(err).Message(), "OVERDRAFT_POSITION")
	mockLedger.AssertExpectations(t)
}

func TestServer_EditAndDelete(t *testing.T) {
	mockLedger := new(MockLedger)
	asset := fixtureAsset()
	id := uuid.New()
	edited := &domain.Transaction{
		ID:             id,
		AssetID:        asset.ID,
		Kind:           domain.TransactionKindBuy,
		Date:           time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Sequence:       3,
		QuantityChange: decimal.NewFromInt(2),
		PricePerUnit:   decimal.NewFromInt(50),
		Fee:            decimal.Zero,
		Total:          decimal.NewFromInt(100),
	}
	mockLedger.On("EditTransaction", mock.Anything, id, mock.AnythingOfType("ledger.TransactionInput")).
		Return(edited, []domain.Asset{asset}, nil)
	mockLedger.On("DeleteTransaction", mock.Anything, id).Return([]domain.Asset{}, nil)

	client := NewLedgerClient(startServer(t, mockLedger, testToken))
	ctx := context.Background()

	resp, err := client.EditTransaction(ctx, &EditTransactionRequest{
		TransactionId: id.String(),
		Transaction: &TransactionInput{
			AssetId:        asset.ID.String(),
			Kind:           "BUY",
			Date:           "2024-01-02",
			QuantityChange: "2",
			PricePerUnit:   "50",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Transaction.Sequence)

	resp, err = client.DeleteTransaction(ctx, &DeleteTransactionRequest{TransactionId: id.String()})
	require.NoError(t, err)
	assert.Nil(t, resp.Transaction)
	assert.Empty(t, resp.Assets)
	mockLedger.AssertExpectations(t)
}

func TestServer_ListTransactionsFilter(t *testing.T) {
	mockLedger := new(MockLedger)
	assetID := uuid.New()
	mockLedger.On("ListTransactions", mock.Anything, (*uuid.UUID)(nil)).Return([]domain.Transaction{}, nil)
	mockLedger.On("ListTransactions", mock.Anything, &assetID).Return([]domain.Transaction{{
		ID:       uuid.New(),
		AssetID:  assetID,
		Kind:     domain.TransactionKindDividend,
		Date:     time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Sequence: 1,
		Total:    decimal.RequireFromString("12.5"),
	}}, nil)

	client := NewLedgerClient(startServer(t, mockLedger, testToken))
	ctx := context.Background()

	all, err := client.ListTransactions(ctx, &ListTransactionsRequest{})
	require.NoError(t, err)
	assert.Empty(t, all.Transactions)

	filtered, err := client.ListTransactions(ctx, &ListTransactionsRequest{AssetId: assetID.String()})
	require.NoError(t, err)
	require.Len(t, filtered.Transactions, 1)
	assert.Equal(t, "DIVIDEND", filtered.Transactions[0].Kind)
	assert.Equal(t, "12.5", filtered.Transactions[0].Total)
	mockLedger.AssertExpectations(t)
}

func TestServer_CreateAssetAndPrices(t *testing.T) {
	mockLedger := new(MockLedger)
	asset := fixtureAsset()
	recorded := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

	mockLedger.On("CreateAsset", mock.Anything, ledger.CreateAssetInput{
		Symbol:       "ACME",
		Name:         "Acme Corp",
		AssetClass:   domain.AssetClassStock,
		Currency:     "EUR",
		CurrentPrice: decimal.RequireFromString("120"),
	}).Return(&asset, nil)
	mockLedger.On("UpdatePrice", mock.Anything, asset.ID, decimal.RequireFromString("125.5")).Return(&asset, nil)
	mockLedger.On("PriceHistory", mock.Anything, asset.ID, 0).Return([]domain.PricePoint{
		{Price: decimal.RequireFromString("125.5"), RecordedAt: recorded},
	}, nil)

	client := NewLedgerClient(startServer(t, mockLedger, testToken))
	ctx := context.Background()

	created, err := client.CreateAsset(ctx, &CreateAssetRequest{
		Symbol:       "ACME",
		Name:         "Acme Corp",
		AssetClass:   "stock",
		Currency:     "eur",
		CurrentPrice: "120",
	})
	require.NoError(t, err)
	assert.Equal(t, asset.ID.String(), created.Asset.Id)

	_, err = client.UpdatePrice(ctx, &UpdatePriceRequest{AssetId: asset.ID.String(), Price: "125.5"})
	require.NoError(t, err)

	history, err := client.PriceHistory(ctx, &PriceHistoryRequest{AssetId: asset.ID.String()})
	require.NoError(t, err)
	require.Len(t, history.Points, 1)
	assert.Equal(t, "125.5", history.Points[0].Price)
	assert.True(t, history.Points[0].RecordedAt.AsTime().Equal(recorded))
	mockLedger.AssertExpectations(t)
}

func TestServer_SummaryIssuesAndReconcile(t *testing.T) {
	mockLedger := new(MockLedger)
	asset := fixtureAsset()
	txID := uuid.New()

	mockLedger.On("Summary", mock.Anything).Return(&summary.Summary{
		Currency: "EUR",
		Totals: summary.Totals{
			MarketValue:          decimal.NewFromInt(1200),
			CostBasis:            decimal.NewFromInt(1000),
			UnrealizedPnL:        decimal.NewFromInt(200),
			RealizedPnL:          decimal.Zero,
			UnrealizedPnLPercent: decimal.NewFromInt(20),
		},
		NetWorth: decimal.NewFromInt(1200),
		ByClass: []summary.ClassTotals{{
			AssetClass: domain.AssetClassStock,
			Assets:     1,
			Totals:     summary.Totals{MarketValue: decimal.NewFromInt(1200)},
		}},
	}, nil)
	issue := domain.Issue{
		Kind:          domain.ErrorKindOrphanTransaction,
		TransactionID: txID,
		AssetID:       uuid.New(),
		Message:       "asset is not known",
	}
	mockLedger.On("Issues", mock.Anything).Return([]domain.Issue{issue}, nil)
	mockLedger.On("Reconcile", mock.Anything).Return(&ledger.ReconcileReport{
		Assets:       1,
		Transactions: 4,
		Drifts:       []ledger.Drift{{AssetID: asset.ID, Symbol: "ACME", Replayed: &asset}},
		Issues:       []domain.Issue{issue},
	}, nil)

	client := NewLedgerClient(startServer(t, mockLedger, testToken))
	ctx := context.Background()

	sum, err := client.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EUR", sum.Currency)
	assert.Equal(t, "1200.00", sum.NetWorth)
	assert.Equal(t, "200.00", sum.Totals.UnrealizedPnl)
	require.Len(t, sum.ByClass, 1)
	assert.Equal(t, "STOCK", sum.ByClass[0].AssetClass)

	issues, err := client.ListIssues(ctx)
	require.NoError(t, err)
	require.Len(t, issues.Issues, 1)
	assert.Equal(t, "ORPHAN_TRANSACTION", issues.Issues[0].Kind)
	assert.Equal(t, txID.String(), issues.Issues[0].TransactionId)

	report, err := client.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(4), report.Transactions)
	require.Len(t, report.Drifts, 1)
	assert.Nil(t, report.Drifts[0].Held)
	require.NotNil(t, report.Drifts[0].Replayed)
	assert.Equal(t, "10", report.Drifts[0].Replayed.Quantity)
	mockLedger.AssertExpectations(t)
}

func TestMapError(t *testing.T) {
	txID := uuid.New()

	tests := []struct {
		name         string
		err          error
		expectedCode codes.Code
	}{
		{name: "Invalid Transaction", err: &domain.LedgerError{Kind: domain.ErrorKindInvalidTransaction, TransactionID: txID}, expectedCode: codes.InvalidArgument},
		{name: "Inconsistent Total", err: &domain.LedgerError{Kind: domain.ErrorKindInconsistentTotal, TransactionID: txID}, expectedCode: codes.InvalidArgument},
		{name: "Orphan", err: &domain.LedgerError{Kind: domain.ErrorKindOrphanTransaction, TransactionID: txID}, expectedCode: codes.FailedPrecondition},
		{name: "Overdraft", err: &domain.LedgerError{Kind: domain.ErrorKindOverdraftPosition, TransactionID: txID}, expectedCode: codes.FailedPrecondition},
		{name: "Unknown Transaction", err: &domain.LedgerError{Kind: domain.ErrorKindUnknownTransaction, TransactionID: txID}, expectedCode: codes.NotFound},
		{name: "Asset Not Found", err: fmt.Errorf("%w: %s", domain.ErrAssetNotFound, txID), expectedCode: codes.NotFound},
		{name: "Duplicate Asset", err: domain.ErrDuplicateAsset, expectedCode: codes.AlreadyExists},
		{name: "Duplicate Transaction", err: fmt.Errorf("%w: %s", domain.ErrDuplicateTransaction, txID), expectedCode: codes.AlreadyExists},
		{name: "Invalid Currency", err: domain.ErrInvalidCurrency, expectedCode: codes.InvalidArgument},
		{name: "Negative Price", err: domain.ErrNegativePrice, expectedCode: codes.InvalidArgument},
		{name: "Unknown Rate", err: fmt.Errorf("%w: JPY", summary.ErrUnknownRate), expectedCode: codes.FailedPrecondition},
		{name: "Deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), expectedCode: codes.DeadlineExceeded},
		{name: "Storage Failure", err: errors.New("connection refused"), expectedCode: codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(tt.err)
			assert.Equal(t, tt.expectedCode, status.Code(err))
			assert.Equal(t, tt.err.Error(), status.Convert(err).Message())
		})
	}

	assert.NoError(t, mapError(nil))
}
