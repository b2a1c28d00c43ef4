//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *DB

// TestMain starts a disposable PostgreSQL container and applies the migrations
func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(120*time.Second),
		),
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to start postgres container: %v", err))
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(fmt.Sprintf("Failed to get connection string: %v", err))
	}

	testDB, err = NewDB(connStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	if err := testDB.Migrate(); err != nil {
		panic(fmt.Sprintf("Failed to migrate database: %v", err))
	}

	code := m.Run()

	testDB.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func reset(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec("TRUNCATE TABLE ledger_transactions, price_history, assets CASCADE")
	require.NoError(t, err)
}

func newMeta(symbol string) *domain.AssetMetadata {
	return &domain.AssetMetadata{
		ID:           uuid.New(),
		Symbol:       symbol,
		Name:         symbol + " Inc",
		AssetClass:   domain.AssetClassStock,
		Currency:     "USD",
		CurrentPrice: decimal.RequireFromString("101.25"),
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	assert.NoError(t, testDB.Migrate())
}

func TestAssetRepository_CreateGetList(t *testing.T) {
	reset(t)
	ctx := context.Background()
	repo := NewAssetRepository(testDB)

	zeta, alpha := newMeta("ZETA"), newMeta("ALPHA")
	require.NoError(t, repo.Create(ctx, zeta))
	require.NoError(t, repo.Create(ctx, alpha))

	got, err := repo.GetByID(ctx, zeta.ID)
	require.NoError(t, err)
	assert.Equal(t, "ZETA", got.Symbol)
	assert.Equal(t, domain.AssetClassStock, got.AssetClass)
	assert.True(t, got.CurrentPrice.Equal(decimal.RequireFromString("101.25")))
	assert.Nil(t, got.LastPriceUpdate)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ALPHA", list[0].Symbol, "ordered by symbol")

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)

	dup := newMeta("ZETA")
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrDuplicateAsset)
}

func TestAssetRepository_UpdatePriceRecordsHistory(t *testing.T) {
	reset(t)
	ctx := context.Background()
	repo := NewAssetRepository(testDB)
	meta := newMeta("ACME")
	require.NoError(t, repo.Create(ctx, meta))

	first := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)
	require.NoError(t, repo.UpdatePrice(ctx, meta.ID, decimal.RequireFromString("110"), first))
	require.NoError(t, repo.UpdatePrice(ctx, meta.ID, decimal.RequireFromString("99.5"), second))

	got, err := repo.GetByID(ctx, meta.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentPrice.Equal(decimal.RequireFromString("99.5")))
	require.NotNil(t, got.LastPriceUpdate)
	assert.True(t, got.LastPriceUpdate.Equal(second))

	history, err := repo.PriceHistory(ctx, meta.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].RecordedAt.Equal(second), "newest first")
	assert.True(t, history[1].Price.Equal(decimal.RequireFromString("110")))

	err = repo.UpdatePrice(ctx, uuid.New(), decimal.NewFromInt(1), second)
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
}

func TestTransactionRepository_Lifecycle(t *testing.T) {
	reset(t)
	ctx := context.Background()
	repo := NewTransactionRepository(testDB)
	assetID := uuid.New()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	later := &domain.Transaction{
		ID:             uuid.New(),
		AssetID:        assetID,
		Kind:           domain.TransactionKindSell,
		Date:           day.AddDate(0, 0, 1),
		Sequence:       1,
		QuantityChange: decimal.RequireFromString("-0.00000125"),
		PricePerUnit:   decimal.RequireFromString("64000"),
		Fee:            decimal.RequireFromString("0.01"),
		Total:          decimal.RequireFromString("0.07"),
		Note:           "dust",
	}
	earlier := &domain.Transaction{
		ID:             uuid.New(),
		AssetID:        uuid.New(),
		Kind:           domain.TransactionKindBuy,
		Date:           day,
		Sequence:       2,
		QuantityChange: decimal.RequireFromString("1"),
		PricePerUnit:   decimal.RequireFromString("60000"),
		Fee:            decimal.Zero,
		Total:          decimal.RequireFromString("60000"),
	}
	require.NoError(t, repo.Create(ctx, later))
	require.NoError(t, repo.Create(ctx, earlier))
	assert.ErrorIs(t, repo.Create(ctx, earlier), domain.ErrDuplicateTransaction)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, earlier.ID, all[0].ID, "ordered by date before sequence")
	assert.True(t, all[1].QuantityChange.Equal(later.QuantityChange), "decimals round-trip exactly")
	assert.Equal(t, "dust", all[1].Note)

	filtered, err := repo.List(ctx, &assetID)
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	later.Note = "edited"
	later.Date = day.AddDate(0, 0, 5)
	require.NoError(t, repo.Update(ctx, later))
	filtered, err = repo.List(ctx, &assetID)
	require.NoError(t, err)
	assert.Equal(t, "edited", filtered[0].Note)
	assert.Equal(t, int64(1), filtered[0].Sequence, "sequence is never rewritten")
	assert.True(t, filtered[0].Date.Equal(later.Date))

	require.NoError(t, repo.Delete(ctx, later.ID))
	assert.ErrorIs(t, repo.Delete(ctx, later.ID), domain.ErrUnknownTransaction)
	assert.ErrorIs(t, repo.Update(ctx, later), domain.ErrUnknownTransaction)
}
