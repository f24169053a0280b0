package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"bpm/internal/transport"
)

// Disable implements subcommands.Command for the "disable" command.
type Disable struct{}

func (*Disable) Name() string     { return "disable" }
func (*Disable) Synopsis() string { return "clear a process's auto-restart flag without stopping it" }
func (*Disable) Usage() string    { return "disable <name> - clear auto-restart without stopping\n" }
func (*Disable) SetFlags(*flag.FlagSet) {}

func (*Disable) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	reply, err := sendCommand(transport.KindDisable, f.Arg(0), defaultTimeout)
	if printReply(reply, err) != 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
