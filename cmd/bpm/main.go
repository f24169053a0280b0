package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"bpm/internal/cli"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(new(cli.Daemon), "")

	subcommands.Register(new(cli.List), "")
	subcommands.Register(new(cli.Status), "")
	subcommands.Register(new(cli.Start), "")
	subcommands.Register(new(cli.Stop), "")
	subcommands.Register(new(cli.Restart), "")
	subcommands.Register(new(cli.Enable), "")
	subcommands.Register(new(cli.Disable), "")
	subcommands.Register(new(cli.Delete), "")
	subcommands.Register(new(cli.Logs), "")
	subcommands.Register(new(cli.Flush), "")
	subcommands.Register(new(cli.Save), "")
	subcommands.Register(new(cli.Resurrect), "")

	subcommands.Register(new(cli.Startup), "")
	subcommands.Register(new(cli.Monit), "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
