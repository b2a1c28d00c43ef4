package grpc

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/simaogato/wealthflow-ledger/internal/domain"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/ledger"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/summary"
)

// parseTransactionInput converts a wire input into a ledger input.
// Parse failures are returned as InvalidArgument status errors.
func parseTransactionInput(in *TransactionInput) (ledger.TransactionInput, error) {
	if in == nil {
		return ledger.TransactionInput{}, status.Error(codes.InvalidArgument, "transaction is required")
	}

	assetID, err := uuid.Parse(in.AssetId)
	if err != nil {
		return ledger.TransactionInput{}, status.Errorf(codes.InvalidArgument, "invalid asset_id format: %v", err)
	}

	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return ledger.TransactionInput{}, status.Errorf(codes.InvalidArgument, "invalid date format: %v", err)
	}

	quantity, err := parseAmount("quantity_change", in.QuantityChange)
	if err != nil {
		return ledger.TransactionInput{}, err
	}
	price, err := parseAmount("price_per_unit", in.PricePerUnit)
	if err != nil {
		return ledger.TransactionInput{}, err
	}
	fee, err := parseAmount("fee", in.Fee)
	if err != nil {
		return ledger.TransactionInput{}, err
	}

	input := ledger.TransactionInput{
		AssetID:        assetID,
		Kind:           domain.TransactionKind(strings.ToUpper(in.Kind)),
		Date:           date,
		QuantityChange: quantity,
		PricePerUnit:   price,
		Fee:            fee,
		Note:           in.Note,
	}

	// An empty total is computed by the ledger
	if in.Total != "" {
		total, err := parseAmount("total", in.Total)
		if err != nil {
			return ledger.TransactionInput{}, err
		}
		input.Total = &total
	}

	return input, nil
}

// parseAmount parses a decimal string; empty means zero
func parseAmount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", field, err)
	}
	return d, nil
}

// assetToWire converts a domain Asset to a wire Asset; nil stays nil
func assetToWire(a *domain.Asset) *Asset {
	if a == nil {
		return nil
	}

	out := &Asset{
		Id:                   a.ID.String(),
		Symbol:               a.Symbol,
		Name:                 a.Name,
		AssetClass:           string(a.AssetClass),
		Currency:             a.Currency,
		CurrentPrice:         a.CurrentPrice.String(),
		Quantity:             a.Quantity.String(),
		AvgCost:              a.AvgCost.String(),
		TotalCostBasis:       a.TotalCostBasis.String(),
		RealizedPnl:          a.RealizedPnL.String(),
		CurrentValue:         a.CurrentValue.String(),
		UnrealizedPnl:        a.UnrealizedPnL.String(),
		UnrealizedPnlPercent: a.UnrealizedPnLPercent.StringFixed(2),
	}

	// Set last_price_update if it exists
	if a.LastPriceUpdate != nil {
		out.LastPriceUpdate = timestamppb.New(*a.LastPriceUpdate)
	}

	return out
}

func assetsToWire(assets []domain.Asset) []*Asset {
	out := make([]*Asset, 0, len(assets))
	for i := range assets {
		out = append(out, assetToWire(&assets[i]))
	}
	return out
}

func transactionToWire(tx *domain.Transaction) *Transaction {
	return &Transaction{
		Id:             tx.ID.String(),
		AssetId:        tx.AssetID.String(),
		Kind:           string(tx.Kind),
		Date:           timestamppb.New(tx.Date),
		Sequence:       tx.Sequence,
		QuantityChange: tx.QuantityChange.String(),
		PricePerUnit:   tx.PricePerUnit.String(),
		Fee:            tx.Fee.String(),
		Total:          tx.Total.String(),
		Note:           tx.Note,
	}
}

func pricePointToWire(p domain.PricePoint) *PricePoint {
	return &PricePoint{
		Price:      p.Price.String(),
		RecordedAt: timestamppb.New(p.RecordedAt),
	}
}

func issuesToWire(issues []domain.Issue) []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, issue := range issues {
		out = append(out, &Issue{
			Kind:            string(issue.Kind),
			TransactionId:   issue.TransactionID.String(),
			TransactionKind: string(issue.TransactionKind),
			AssetId:         issue.AssetID.String(),
			Message:         issue.Message,
		})
	}
	return out
}

func totalsToWire(t summary.Totals) *Totals {
	return &Totals{
		MarketValue:          t.MarketValue.StringFixed(2),
		CostBasis:            t.CostBasis.StringFixed(2),
		UnrealizedPnl:        t.UnrealizedPnL.StringFixed(2),
		RealizedPnl:          t.RealizedPnL.StringFixed(2),
		UnrealizedPnlPercent: t.UnrealizedPnLPercent.StringFixed(2),
	}
}

func summaryToWire(s *summary.Summary) *GetSummaryResponse {
	resp := &GetSummaryResponse{
		Currency: s.Currency,
		Totals:   totalsToWire(s.Totals),
		NetWorth: s.NetWorth.StringFixed(2),
		ByClass:  make([]*ClassTotals, 0, len(s.ByClass)),
	}
	for _, c := range s.ByClass {
		resp.ByClass = append(resp.ByClass, &ClassTotals{
			AssetClass: string(c.AssetClass),
			Assets:     int32(c.Assets),
			Totals:     totalsToWire(c.Totals),
		})
	}
	return resp
}
