package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	grpcadapter "github.com/simaogato/wealthflow-ledger/internal/adapter/grpc"
)

// txFlags are the fields of an inserted or edited transaction
type txFlags struct {
	asset    string
	kind     string
	date     string
	quantity string
	price    string
	fee      string
	total    string
	note     string
}

func (t *txFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&t.asset, "a", "", "asset ID")
	f.StringVar(&t.kind, "k", "", "kind: BUY, SELL, DEPOSIT, WITHDRAWAL, BORROW, REPAY, BALANCE_ADJUSTMENT, DIVIDEND")
	f.StringVar(&t.date, "d", "", "date (YYYY-MM-DD or RFC 3339)")
	f.StringVar(&t.quantity, "q", "0", "signed quantity change (negative for SELL, WITHDRAWAL, REPAY)")
	f.StringVar(&t.price, "p", "0", "price per unit")
	f.StringVar(&t.fee, "fee", "0", "fee")
	f.StringVar(&t.total, "t", "", "total; computed from quantity, price and fee when empty")
	f.StringVar(&t.note, "note", "", "free-form note")
}

// input validates the required flags and builds the wire input
func (t *txFlags) input() (*grpcadapter.TransactionInput, string) {
	switch {
	case t.asset == "":
		return nil, "missing -a <asset-id>"
	case t.kind == "":
		return nil, "missing -k <kind>"
	case t.date == "":
		return nil, "missing -d <date>"
	}

	return &grpcadapter.TransactionInput{
		AssetId:        t.asset,
		Kind:           t.kind,
		Date:           t.date,
		QuantityChange: t.quantity,
		PricePerUnit:   t.price,
		Fee:            t.fee,
		Total:          t.total,
		Note:           t.note,
	}, ""
}

// txsCmd lists the log
type txsCmd struct {
	app   *app
	asset string
}

func (*txsCmd) Name() string     { return "txs" }
func (*txsCmd) Synopsis() string { return "list transactions in replay order" }
func (*txsCmd) Usage() string {
	return `ledgerctl txs [-a <asset-id>]

  Lists the transaction log by date, then insertion sequence.
`
}

func (c *txsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asset, "a", "", "only list transactions of this asset")
}

func (c *txsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.run(ctx, func(ctx context.Context, client *grpcadapter.LedgerClient) error {
		resp, err := client.ListTransactions(ctx, &grpcadapter.ListTransactionsRequest{AssetId: c.asset})
		if err != nil {
			return err
		}
		return renderTransactions(c.app.out, resp.Transactions)
	})
}

// insertCmd adds a transaction anywhere in history
type insertCmd struct {
	app *app
	txFlags
}

func (*insertCmd) Name() string     { return "insert" }
func (*insertCmd) Synopsis() string { return "insert a transaction" }
func (*insertCmd) Usage() string {
	return `ledgerctl insert -a <asset-id> -k <kind> -d <date> [-q <qty>] [-p <price>] [-fee <fee>] [-t <total>] [-note <text>]

  Inserts a transaction, possibly backdated, and prints the updated assets.
  Inserts that would sell more than is held are rejected.
`
}

func (c *insertCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, problem := c.input()
	if problem != "" {
		return usageError("insert: %s", problem)
	}

	return c.app.run(ctx, func(ctx context.Context, client *grpcadapter.LedgerClient) error {
		resp, err := client.InsertTransaction(ctx, &grpcadapter.InsertTransactionRequest{Transaction: in})
		if err != nil {
			return err
		}
		if err := renderTransactions(c.app.out, []*grpcadapter.Transaction{resp.Transaction}); err != nil {
			return err
		}
		return renderAssets(c.app.out, resp.Assets)
	})
}

// editCmd replaces a transaction, keeping its ID and sequence
type editCmd struct {
	app *app
	txFlags
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "replace a transaction" }
func (*editCmd) Usage() string {
	return `ledgerctl edit -a <asset-id> -k <kind> -d <date> [-q <qty>] [-p <price>] [-fee <fee>] [-t <total>] [-note <text>] <transaction-id>

  Replaces every field of a transaction. Its ID and insertion sequence are kept.
`
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("edit requires <transaction-id>")
	}
	in, problem := c.input()
	if problem != "" {
		return usageError("edit: %s", problem)
	}

	return c.app.run(ctx, func(ctx context.Context, client *grpcadapter.LedgerClient) error {
		resp, err := client.EditTransaction(ctx, &grpcadapter.EditTransactionRequest{
			TransactionId: f.Arg(0),
			Transaction:   in,
		})
		if err != nil {
			return err
		}
		if err := renderTransactions(c.app.out, []*grpcadapter.Transaction{resp.Transaction}); err != nil {
			return err
		}
		return renderAssets(c.app.out, resp.Assets)
	})
}

// deleteCmd removes a transaction
type deleteCmd struct {
	app *app
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a transaction" }
func (*deleteCmd) Usage() string {
	return `ledgerctl delete <transaction-id>

  Deletes a transaction and prints the updated assets.
`
}

func (*deleteCmd) SetFlags(*flag.FlagSet) {}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("delete requires <transaction-id>")
	}

	return c.app.run(ctx, func(ctx context.Context, client *grpcadapter.LedgerClient) error {
		resp, err := client.DeleteTransaction(ctx, &grpcadapter.DeleteTransactionRequest{TransactionId: f.Arg(0)})
		if err != nil {
			return err
		}
		return renderAssets(c.app.out, resp.Assets)
	})
}
