package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"bpm/internal/transport"
)

// List implements subcommands.Command for the "list" command.
type List struct{}

func (*List) Name() string     { return "list" }
func (*List) Synopsis() string { return "list every managed process and its state" }
func (*List) Usage() string    { return "list - list every managed process and its state\n" }
func (*List) SetFlags(*flag.FlagSet) {}

func (*List) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	reply, err := sendCommand(transport.KindList, "", defaultTimeout)
	if printReply(reply, err) != 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
