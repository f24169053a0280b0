package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"bpm/internal/transport"
)

// Restart implements subcommands.Command for the "restart" command.
type Restart struct{}

func (*Restart) Name() string     { return "restart" }
func (*Restart) Synopsis() string { return "stop then respawn a managed process" }
func (*Restart) Usage() string    { return "restart <name> - stop then respawn a managed process\n" }
func (*Restart) SetFlags(*flag.FlagSet) {}

func (*Restart) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	reply, err := sendCommand(transport.KindRestart, f.Arg(0), defaultTimeout)
	if printReply(reply, err) != 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
