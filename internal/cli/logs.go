package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"bpm/internal/transport"
)

// Logs implements subcommands.Command for the "logs" command. Its -n and -f
// flags are packed into the wire argument as "name:lines:follow" since a
// Command carries a single string.
type Logs struct {
	lines  int
	follow bool
}

func (*Logs) Name() string     { return "logs" }
func (*Logs) Synopsis() string { return "print the tail of a process's stdout and stderr logs" }
func (*Logs) Usage() string {
	return "logs [-n lines] [-f] <name> - print the tail of a process's logs\n"
}

func (l *Logs) SetFlags(f *flag.FlagSet) {
	f.IntVar(&l.lines, "n", 20, "number of trailing lines to print")
	f.BoolVar(&l.follow, "f", false, "follow the log as it grows (not yet implemented)")
}

func (l *Logs) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	arg := fmt.Sprintf("%s:%d:%t", f.Arg(0), l.lines, l.follow)
	reply, err := sendCommand(transport.KindLogs, arg, defaultTimeout)
	if printReply(reply, err) != 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
