package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"bpm/internal/transport"
)

// Flush implements subcommands.Command for the "flush" command. With no
// argument it truncates every managed process's logs.
type Flush struct{}

func (*Flush) Name() string     { return "flush" }
func (*Flush) Synopsis() string { return "truncate a process's logs, or every process's if no name is given" }
func (*Flush) Usage() string    { return "flush [name] - truncate logs\n" }
func (*Flush) SetFlags(*flag.FlagSet) {}

func (*Flush) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	var name string
	if f.NArg() == 1 {
		name = f.Arg(0)
	}
	reply, err := sendCommand(transport.KindFlush, name, defaultTimeout)
	if printReply(reply, err) != 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
