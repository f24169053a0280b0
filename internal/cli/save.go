package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"bpm/internal/transport"
)

// Save implements subcommands.Command for the "save" command.
type Save struct{}

func (*Save) Name() string     { return "save" }
func (*Save) Synopsis() string { return "persist the registry's current state to disk" }
func (*Save) Usage() string    { return "save - persist the registry's current state to disk\n" }
func (*Save) SetFlags(*flag.FlagSet) {}

func (*Save) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	reply, err := sendCommand(transport.KindSave, "", defaultTimeout)
	if printReply(reply, err) != 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// Resurrect implements subcommands.Command for the "resurrect" command.
type Resurrect struct{}

func (*Resurrect) Name() string     { return "resurrect" }
func (*Resurrect) Synopsis() string { return "reload persisted state and respawn its processes" }
func (*Resurrect) Usage() string    { return "resurrect - reload persisted state and respawn its processes\n" }
func (*Resurrect) SetFlags(*flag.FlagSet) {}

func (*Resurrect) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	reply, err := sendCommand(transport.KindResurrect, "", defaultTimeout)
	if printReply(reply, err) != 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
