package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"bpm/internal/transport"
)

// Start implements subcommands.Command for the "start" command.
type Start struct{}

func (*Start) Name() string     { return "start" }
func (*Start) Synopsis() string { return "launch every process declared in a config descriptor" }
func (*Start) Usage() string    { return "start <path> - launch every process declared in a config descriptor\n" }
func (*Start) SetFlags(*flag.FlagSet) {}

func (*Start) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	reply, err := sendCommand(transport.KindStart, f.Arg(0), defaultTimeout)
	if printReply(reply, err) != 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// Enable implements subcommands.Command for the "enable" command, an alias
// of Start: the daemon runs the same handler for both. An app whose name is
// already registered keeps its existing record, auto-restart flag included,
// and is spawned again.
type Enable struct{}

func (*Enable) Name() string     { return "enable" }
func (*Enable) Synopsis() string { return "alias of start: (re)launch a config descriptor's processes" }
func (*Enable) Usage() string    { return "enable <path> - alias of start\n" }
func (*Enable) SetFlags(*flag.FlagSet) {}

func (*Enable) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	reply, err := sendCommand(transport.KindEnable, f.Arg(0), defaultTimeout)
	if printReply(reply, err) != 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
