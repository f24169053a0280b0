package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"bpm/internal/dashboard"
	"bpm/internal/transport"
)

// Monit implements subcommands.Command for the "monit" command: a
// non-interactive snapshot of the daemon's List reply. The live,
// auto-refreshing terminal UI this is named after is out of scope.
type Monit struct{}

func (*Monit) Name() string     { return "monit" }
func (*Monit) Synopsis() string { return "print a snapshot of every managed process's state" }
func (*Monit) Usage() string    { return "monit - print a snapshot of every managed process's state\n" }
func (*Monit) SetFlags(*flag.FlagSet) {}

func (*Monit) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	reply, err := sendCommand(transport.KindList, "", dashboardTimeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := dashboard.Render(os.Stdout, reply); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
