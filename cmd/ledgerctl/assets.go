package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	grpcadapter "github.com/simaogato/wealthflow-ledger/internal/adapter/grpc"
)

// assetsCmd lists the projected assets
type assetsCmd struct {
	app *app
}

func (*assetsCmd) Name() string     { return "assets" }
func (*assetsCmd) Synopsis() string { return "list assets with their projected positions" }
func (*assetsCmd) Usage() string {
	return `ledgerctl assets

  Lists every asset with quantity, average cost, cost basis, market value and P&L.
`
}

func (*assetsCmd) SetFlags(*flag.FlagSet) {}

func (c *assetsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.run(ctx, func(ctx context.Context, client *grpcadapter.LedgerClient) error {
		resp, err := client.ListAssets(ctx)
		if err != nil {
			return err
		}
		return renderAssets(c.app.out, resp.Assets)
	})
}

// addAssetCmd registers a new asset
type addAssetCmd struct {
	app      *app
	symbol   string
	name     string
	class    string
	currency string
	price    string
}

func (*addAssetCmd) Name() string     { return "add-asset" }
func (*addAssetCmd) Synopsis() string { return "register a new asset" }
func (*addAssetCmd) Usage() string {
	return `ledgerctl add-asset -s <symbol> -class <class> -c <currency> [-n <name>] [-p <price>]

  Registers an asset. Classes: STOCK, CRYPTO, FUND, CASH, REAL_ESTATE, LIABILITY, OTHER.
  Transactions already logged against the new asset's ID are attached to it.
`
}

func (c *addAssetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "ticker or short symbol of the asset")
	f.StringVar(&c.name, "n", "", "display name (defaults to the symbol)")
	f.StringVar(&c.class, "class", "STOCK", "asset class")
	f.StringVar(&c.currency, "c", "EUR", "ISO-4217 currency of the asset's prices")
	f.StringVar(&c.price, "p", "", "current market price per unit")
}

func (c *addAssetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" {
		return usageError("add-asset requires -s <symbol>")
	}

	return c.app.run(ctx, func(ctx context.Context, client *grpcadapter.LedgerClient) error {
		resp, err := client.CreateAsset(ctx, &grpcadapter.CreateAssetRequest{
			Symbol:       c.symbol,
			Name:         c.name,
			AssetClass:   c.class,
			Currency:     c.currency,
			CurrentPrice: c.price,
		})
		if err != nil {
			return err
		}
		return renderAssets(c.app.out, []*grpcadapter.Asset{resp.Asset})
	})
}

// priceCmd records a market price
type priceCmd struct {
	app *app
}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "record the current market price of an asset" }
func (*priceCmd) Usage() string {
	return `ledgerctl price <asset-id> <price>

  Updates the asset's price and its market value. The transaction log is untouched.
`
}

func (*priceCmd) SetFlags(*flag.FlagSet) {}

func (c *priceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return usageError("price requires <asset-id> <price>")
	}

	return c.app.run(ctx, func(ctx context.Context, client *grpcadapter.LedgerClient) error {
		resp, err := client.UpdatePrice(ctx, &grpcadapter.UpdatePriceRequest{
			AssetId: f.Arg(0),
			Price:   f.Arg(1),
		})
		if err != nil {
			return err
		}
		return renderAssets(c.app.out, []*grpcadapter.Asset{resp.Asset})
	})
}

// historyCmd lists recorded prices
type historyCmd struct {
	app   *app
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "show the recorded prices of an asset" }
func (*historyCmd) Usage() string {
	return `ledgerctl history [-n <limit>] <asset-id>

  Lists the prices recorded for an asset, newest first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 0, "maximum number of prices (0 uses the server default)")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("history requires <asset-id>")
	}
	if c.limit < 0 {
		return usageError("invalid limit %d", c.limit)
	}

	return c.app.run(ctx, func(ctx context.Context, client *grpcadapter.LedgerClient) error {
		asset, err := client.GetAsset(ctx, &grpcadapter.GetAssetRequest{AssetId: f.Arg(0)})
		if err != nil {
			return err
		}

		resp, err := client.PriceHistory(ctx, &grpcadapter.PriceHistoryRequest{
			AssetId: f.Arg(0),
			Limit:   int32(c.limit),
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(c.app.out, "%s (%s)\n\n", asset.Asset.Symbol, asset.Asset.Currency)
		return renderHistory(c.app.out, resp.Points, asset.Asset.Currency)
	})
}
