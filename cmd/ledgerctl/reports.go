package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	grpcadapter "github.com/simaogato/wealthflow-ledger/internal/adapter/grpc"
)

// summaryCmd prints portfolio totals
type summaryCmd struct {
	app *app
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show portfolio totals in the reporting currency" }
func (*summaryCmd) Usage() string {
	return `ledgerctl summary

  Shows market value, cost basis and P&L per asset class and in total.
`
}

func (*summaryCmd) SetFlags(*flag.FlagSet) {}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.run(ctx, func(ctx context.Context, client *grpcadapter.LedgerClient) error {
		resp, err := client.GetSummary(ctx)
		if err != nil {
			return err
		}
		return renderSummary(c.app.out, resp)
	})
}

// issuesCmd prints projection issues
type issuesCmd struct {
	app *app
}

func (*issuesCmd) Name() string     { return "issues" }
func (*issuesCmd) Synopsis() string { return "list orphan and overdraft transactions" }
func (*issuesCmd) Usage() string {
	return `ledgerctl issues

  Lists the problems found while projecting the stored log.
`
}

func (*issuesCmd) SetFlags(*flag.FlagSet) {}

func (c *issuesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.run(ctx, func(ctx context.Context, client *grpcadapter.LedgerClient) error {
		resp, err := client.ListIssues(ctx)
		if err != nil {
			return err
		}
		return renderIssues(c.app.out, resp.Issues)
	})
}

// reconcileCmd asks the server to replay storage
type reconcileCmd struct {
	app *app
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "replay storage and report projection drift" }
func (*reconcileCmd) Usage() string {
	return `ledgerctl reconcile

  Reloads the log from storage, replays it and reports assets that drifted.
`
}

func (*reconcileCmd) SetFlags(*flag.FlagSet) {}

func (c *reconcileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.run(ctx, func(ctx context.Context, client *grpcadapter.LedgerClient) error {
		resp, err := client.Reconcile(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(c.app.out, "Replayed %d transactions over %d assets, %d drifted.\n",
			resp.Transactions, resp.Assets, len(resp.Drifts))
		for _, d := range resp.Drifts {
			fmt.Fprintf(c.app.out, "  %s (%s)\n", d.Symbol, d.AssetId)
		}
		return renderIssues(c.app.out, resp.Issues)
	})
}
