package grpc

import "google.golang.org/protobuf/types/known/timestamppb"

// Wire messages of the LedgerService. Amounts travel as decimal strings.

// Asset is a projected position
type Asset struct {
	Id                   string                 `json:"id"`
	Symbol               string                 `json:"symbol"`
	Name                 string                 `json:"name"`
	AssetClass           string                 `json:"asset_class"`
	Currency             string                 `json:"currency"`
	CurrentPrice         string                 `json:"current_price"`
	LastPriceUpdate      *timestamppb.Timestamp `json:"last_price_update,omitempty"`
	Quantity             string                 `json:"quantity"`
	AvgCost              string                 `json:"avg_cost"`
	TotalCostBasis       string                 `json:"total_cost_basis"`
	RealizedPnl          string                 `json:"realized_pnl"`
	CurrentValue         string                 `json:"current_value"`
	UnrealizedPnl        string                 `json:"unrealized_pnl"`
	UnrealizedPnlPercent string                 `json:"unrealized_pnl_percent"`
}

// Transaction is a logged transaction
type Transaction struct {
	Id             string                 `json:"id"`
	AssetId        string                 `json:"asset_id"`
	Kind           string                 `json:"kind"`
	Date           *timestamppb.Timestamp `json:"date"`
	Sequence       int64                  `json:"sequence"`
	QuantityChange string                 `json:"quantity_change"`
	PricePerUnit   string                 `json:"price_per_unit"`
	Fee            string                 `json:"fee"`
	Total          string                 `json:"total"`
	Note           string                 `json:"note,omitempty"`
}

// TransactionInput carries the fields of an inserted or edited transaction.
// Date is an ISO-8601 date or an RFC 3339 timestamp; an empty Total is computed.
type TransactionInput struct {
	AssetId        string `json:"asset_id"`
	Kind           string `json:"kind"`
	Date           string `json:"date"`
	QuantityChange string `json:"quantity_change"`
	PricePerUnit   string `json:"price_per_unit"`
	Fee            string `json:"fee,omitempty"`
	Total          string `json:"total,omitempty"`
	Note           string `json:"note,omitempty"`
}

// Issue is a problem reported by the projection
type Issue struct {
	Kind            string `json:"kind"`
	TransactionId   string `json:"transaction_id"`
	TransactionKind string `json:"transaction_kind,omitempty"`
	AssetId         string `json:"asset_id"`
	Message         string `json:"message"`
}

// PricePoint is one recorded market price
type PricePoint struct {
	Price      string                 `json:"price"`
	RecordedAt *timestamppb.Timestamp `json:"recorded_at"`
}

// Totals are summed amounts in the reporting currency
type Totals struct {
	MarketValue          string `json:"market_value"`
	CostBasis            string `json:"cost_basis"`
	UnrealizedPnl        string `json:"unrealized_pnl"`
	RealizedPnl          string `json:"realized_pnl"`
	UnrealizedPnlPercent string `json:"unrealized_pnl_percent"`
}

// ClassTotals are the totals of one asset class
type ClassTotals struct {
	AssetClass string  `json:"asset_class"`
	Assets     int32   `json:"assets"`
	Totals     *Totals `json:"totals"`
}

// Drift is an asset whose held projection differed from storage
type Drift struct {
	AssetId  string `json:"asset_id"`
	Symbol   string `json:"symbol"`
	Held     *Asset `json:"held,omitempty"`
	Replayed *Asset `json:"replayed,omitempty"`
}

type ListAssetsResponse struct {
	Assets []*Asset `json:"assets"`
}

type GetAssetRequest struct {
	AssetId string `json:"asset_id"`
}

type GetAssetResponse struct {
	Asset *Asset `json:"asset"`
}

type CreateAssetRequest struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"name,omitempty"`
	AssetClass   string `json:"asset_class"`
	Currency     string `json:"currency"`
	CurrentPrice string `json:"current_price,omitempty"`
}

type CreateAssetResponse struct {
	Asset *Asset `json:"asset"`
}

type UpdatePriceRequest struct {
	AssetId string `json:"asset_id"`
	Price   string `json:"price"`
}

type UpdatePriceResponse struct {
	Asset *Asset `json:"asset"`
}

type PriceHistoryRequest struct {
	AssetId string `json:"asset_id"`
	Limit   int32  `json:"limit,omitempty"`
}

type PriceHistoryResponse struct {
	Points []*PricePoint `json:"points"`
}

type ListTransactionsRequest struct {
	AssetId string `json:"asset_id,omitempty"` // Empty lists every transaction
}

type ListTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}

type InsertTransactionRequest struct {
	Transaction *TransactionInput `json:"transaction"`
}

type EditTransactionRequest struct {
	TransactionId string            `json:"transaction_id"`
	Transaction   *TransactionInput `json:"transaction"`
}

type DeleteTransactionRequest struct {
	TransactionId string `json:"transaction_id"`
}

// MutationResponse is returned by insert, edit and delete.
// Transaction is empty for deletes.
type MutationResponse struct {
	Transaction *Transaction `json:"transaction,omitempty"`
	Assets      []*Asset     `json:"assets"`
}

type GetSummaryResponse struct {
	Currency string         `json:"currency"`
	Totals   *Totals        `json:"totals"`
	NetWorth string         `json:"net_worth"`
	ByClass  []*ClassTotals `json:"by_class"`
}

type ListIssuesResponse struct {
	Issues []*Issue `json:"issues"`
}

type ReconcileResponse struct {
	Assets       int32    `json:"assets"`
	Transactions int32    `json:"transactions"`
	Drifts       []*Drift `json:"drifts"`
	Issues       []*Issue `json:"issues"`
}
