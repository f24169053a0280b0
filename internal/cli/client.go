// Package cli declares the subcommands.Command implementations bpm's
// cmd/bpm entrypoint registers: one per client-facing verb, plus the
// daemon command itself. Client commands are thin collaborators that
// encode a transport.Command, send it over internal/ipc, and print
// whatever the daemon replies.
package cli

import (
	"fmt"
	"os"
	"time"

	"bpm/internal/ipc"
	"bpm/internal/transport"
)

// defaultTimeout is the reply-assembly budget for ordinary client
// commands; monit uses a shorter budget so a wedged daemon doesn't hang
// an interactive dashboard refresh.
const defaultTimeout = 5 * time.Second

// dashboardTimeout is the reply-assembly budget used by the monit
// subcommand.
const dashboardTimeout = 2 * time.Second

// sendCommand builds a Command of kind carrying arg, sends it to the
// daemon and returns its decoded reply body.
func sendCommand(kind transport.Kind, arg string, timeout time.Duration) (string, error) {
	cmd, err := transport.NewCommand(kind, arg)
	if err != nil {
		return "", fmt.Errorf("cli: build command: %w", err)
	}
	body, err := ipc.Client{}.Send(cmd, timeout)
	if err != nil {
		return "", fmt.Errorf("cli: %w", err)
	}
	return string(body), nil
}

// printReply writes a reply to stdout and returns the process exit
// status it implies (ExitSuccess unless err is non-nil).
func printReply(reply string, err error) int {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(reply)
	return 0
}
