// Command ledgerctl is a command-line client of the ledger gRPC service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/simaogato/wealthflow-ledger/internal/config"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}

	a := newApp(cfg, os.Stdout)
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range a.commands() {
		commander.Register(c.cmd, c.group)
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
