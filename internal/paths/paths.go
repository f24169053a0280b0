// Package paths resolves the daemon's on-disk locations: its data
// directory, state file, and per-process log directories.
package paths

import (
	"os"
	"path/filepath"
)

// DataDir returns the daemon's data directory, creating it on demand. It
// prefers the local-data directory ($XDG_DATA_HOME, else ~/.local/share)
// and falls back to /tmp/bpm if that cannot be determined.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			base = filepath.Join(home, ".local", "share")
		}
	}
	if base == "" {
		base = filepath.Join(os.TempDir(), "bpm")
	} else {
		base = filepath.Join(base, "bpm")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	return base, nil
}

// StatePath returns the path to the persisted registry state file.
func StatePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.json"), nil
}

// LogsDir returns (creating on demand) the log directory for the named
// process.
func LogsDir(name string) (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, "logs", name)
	if err := os.MkdirAll(p, 0o755); err != nil {
		return "", err
	}
	return p, nil
}

// RuntimeDir returns the directory the IPC socket and daemon lock file live
// in: $XDG_RUNTIME_DIR/bpm, falling back to /tmp/bpm-<user>.
func RuntimeDir() (string, error) {
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		p := filepath.Join(xdg, "bpm")
		if err := os.MkdirAll(p, 0o700); err == nil {
			return p, nil
		}
	}
	user := os.Getenv("USER")
	if user == "" {
		user = "default"
	}
	p := filepath.Join(os.TempDir(), "bpm-"+user)
	if err := os.MkdirAll(p, 0o700); err != nil {
		return "", err
	}
	return p, nil
}
