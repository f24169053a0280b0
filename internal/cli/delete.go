package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"bpm/internal/transport"
)

// Delete implements subcommands.Command for the "delete" command.
type Delete struct{}

func (*Delete) Name() string     { return "delete" }
func (*Delete) Synopsis() string { return "stop and deregister a managed process" }
func (*Delete) Usage() string    { return "delete <name> - stop and deregister a managed process\n" }
func (*Delete) SetFlags(*flag.FlagSet) {}

func (*Delete) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	reply, err := sendCommand(transport.KindDelete, f.Arg(0), defaultTimeout)
	if printReply(reply, err) != 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
