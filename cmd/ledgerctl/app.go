package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	grpcadapter "github.com/simaogato/wealthflow-ledger/internal/adapter/grpc"
	"github.com/simaogato/wealthflow-ledger/internal/config"
)

// app holds what every subcommand needs to reach the server
type app struct {
	cfg *config.Client
	out io.Writer

	// dial opens a client; replaced in tests
	dial func(ctx context.Context) (*grpcadapter.LedgerClient, io.Closer, error)
}

type registered struct {
	cmd   subcommands.Command
	group string
}

func newApp(cfg *config.Client, out io.Writer) *app {
	a := &app{cfg: cfg, out: out}
	a.dial = a.dialServer
	return a
}

func (a *app) commands() []registered {
	return []registered{
		{&assetsCmd{app: a}, "assets"},
		{&addAssetCmd{app: a}, "assets"},
		{&priceCmd{app: a}, "assets"},
		{&historyCmd{app: a}, "assets"},
		{&txsCmd{app: a}, "transactions"},
		{&insertCmd{app: a}, "transactions"},
		{&editCmd{app: a}, "transactions"},
		{&deleteCmd{app: a}, "transactions"},
		{&summaryCmd{app: a}, "reports"},
		{&issuesCmd{app: a}, "reports"},
		{&reconcileCmd{app: a}, "reports"},
	}
}

func (a *app) dialServer(context.Context) (*grpcadapter.LedgerClient, io.Closer, error) {
	conn, err := grpc.NewClient(a.cfg.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(grpcadapter.TokenInterceptor(a.cfg.Token)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", a.cfg.Addr, err)
	}
	return grpcadapter.NewLedgerClient(conn), conn, nil
}

// run dials the server and calls fn with a timeout-bound context.
// Errors are reported on stderr and turned into an exit status.
func (a *app) run(ctx context.Context, fn func(ctx context.Context, client *grpcadapter.LedgerClient) error) subcommands.ExitStatus {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	client, closer, err := a.dial(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closer.Close()

	if err := fn(ctx, client); err != nil {
		if st, ok := status.FromError(err); ok {
			fmt.Fprintf(os.Stderr, "Error (%s): %s\n", st.Code(), st.Message())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// usageError reports a bad invocation on stderr
func usageError(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitUsageError
}
