package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"bpm/internal/startup"
)

// Startup implements subcommands.Command for the "startup" command. Unlike
// every other client verb it never talks to the daemon: installing or
// removing the login unit is a local filesystem operation.
type Startup struct {
	remove bool
}

func (*Startup) Name() string     { return "startup" }
func (*Startup) Synopsis() string { return "install (or remove) the user systemd unit that runs the daemon at login" }
func (*Startup) Usage() string {
	return "startup [-remove] - install or remove the login systemd unit\n"
}

func (s *Startup) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&s.remove, "remove", false, "remove the unit instead of installing it")
}

func (s *Startup) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if s.remove {
		if err := startup.Remove(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Println("Removed login unit")
		return subcommands.ExitSuccess
	}

	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := startup.Install(exe); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Println("Installed login unit")
	return subcommands.ExitSuccess
}
