package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	grpcadapter "github.com/simaogato/wealthflow-ledger/internal/adapter/grpc"
	"github.com/simaogato/wealthflow-ledger/internal/usecase/summary"
)

const dateLayout = "2006-01-02"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

// money formats a decimal string in currency; unparsable values are shown as-is
func money(amount, currency string) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}
	return summary.Format(d, currency)
}

func percent(value string) string {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return value
	}
	return d.StringFixed(2) + "%"
}

func renderAssets(w io.Writer, assets []*grpcadapter.Asset) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "SYMBOL\tCLASS\tQUANTITY\tAVG COST\tCOST BASIS\tVALUE\tUNREALIZED\t%\tREALIZED\tID\t")
	for _, a := range assets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			a.Symbol,
			a.AssetClass,
			a.Quantity,
			money(a.AvgCost, a.Currency),
			money(a.TotalCostBasis, a.Currency),
			money(a.CurrentValue, a.Currency),
			money(a.UnrealizedPnl, a.Currency),
			percent(a.UnrealizedPnlPercent),
			money(a.RealizedPnl, a.Currency),
			a.Id,
		)
	}
	return tw.Flush()
}

func renderTransactions(w io.Writer, txs []*grpcadapter.Transaction) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tSEQ\tKIND\tQUANTITY\tPRICE\tFEE\tTOTAL\tID\tNOTE\t")
	for _, tx := range txs {
		date := ""
		if tx.Date != nil {
			date = tx.Date.AsTime().Format(dateLayout)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			date, tx.Sequence, tx.Kind, tx.QuantityChange, tx.PricePerUnit, tx.Fee, tx.Total, tx.Id, tx.Note)
	}
	return tw.Flush()
}

func renderHistory(w io.Writer, points []*grpcadapter.PricePoint, currency string) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "RECORDED AT\tPRICE\t")
	for _, p := range points {
		at := ""
		if p.RecordedAt != nil {
			at = p.RecordedAt.AsTime().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", at, money(p.Price, currency))
	}
	return tw.Flush()
}

func renderSummary(w io.Writer, s *grpcadapter.GetSummaryResponse) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "CLASS\tASSETS\tVALUE\tCOST BASIS\tUNREALIZED\t%\tREALIZED\t")
	for _, c := range s.ByClass {
		writeTotalsRow(tw, c.AssetClass, fmt.Sprint(c.Assets), c.Totals, s.Currency)
	}
	writeTotalsRow(tw, "TOTAL", "", s.Totals, s.Currency)
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nNet worth: %s\n", money(s.NetWorth, s.Currency))
	return err
}

func writeTotalsRow(w io.Writer, label, count string, t *grpcadapter.Totals, currency string) {
	if t == nil {
		t = &grpcadapter.Totals{}
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
		label,
		count,
		money(t.MarketValue, currency),
		money(t.CostBasis, currency),
		money(t.UnrealizedPnl, currency),
		percent(t.UnrealizedPnlPercent),
		money(t.RealizedPnl, currency),
	)
}

func renderIssues(w io.Writer, issues []*grpcadapter.Issue) error {
	if len(issues) == 0 {
		_, err := fmt.Fprintln(w, "No issues.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tTRANSACTION\tASSET\tMESSAGE")
	for _, i := range issues {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", i.Kind, i.TransactionId, i.AssetId, i.Message)
	}
	return tw.Flush()
}
