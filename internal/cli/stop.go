package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"bpm/internal/transport"
)

// Stop implements subcommands.Command for the "stop" command.
type Stop struct{}

func (*Stop) Name() string     { return "stop" }
func (*Stop) Synopsis() string { return "stop a running managed process" }
func (*Stop) Usage() string    { return "stop <name> - stop a running managed process\n" }
func (*Stop) SetFlags(*flag.FlagSet) {}

func (*Stop) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	reply, err := sendCommand(transport.KindStop, f.Arg(0), defaultTimeout)
	if printReply(reply, err) != 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
