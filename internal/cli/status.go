package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"bpm/internal/transport"
)

// Status implements subcommands.Command for the "status" command.
type Status struct{}

func (*Status) Name() string     { return "status" }
func (*Status) Synopsis() string { return "print the record for one managed process as JSON" }
func (*Status) Usage() string    { return "status <name> - print the record for one managed process\n" }
func (*Status) SetFlags(*flag.FlagSet) {}

func (*Status) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	reply, err := sendCommand(transport.KindStatus, f.Arg(0), defaultTimeout)
	if printReply(reply, err) != 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
