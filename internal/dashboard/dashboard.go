// Package dashboard renders the non-interactive process table used by the
// monit subcommand. A terminal UI is declared out of scope; this package
// only formats what the daemon's List handler would already return.
package dashboard

import (
	"fmt"
	"io"
)

// Render writes table, the formatted output of a List reply, to w with a
// header line identifying it as a point-in-time snapshot (the live,
// auto-refreshing TUI itself is an out-of-scope collaborator).
func Render(w io.Writer, table string) error {
	if _, err := fmt.Fprintln(w, "bpm monit (snapshot)"); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, table)
	return err
}
