// Package logmanager rotates, truncates, tails and streams the stdout/stderr
// log files owned by managed processes (C8).
package logmanager

import (
	"fmt"
	"os"
)

// DefaultMaxSize is the size threshold, in bytes, above which RotateIfNeeded
// rotates a log file.
const DefaultMaxSize = 10 * 1024 * 1024

// DefaultMaxFiles is the number of rotated siblings kept alongside the
// active log file.
const DefaultMaxFiles = 5

// RotateIfNeeded rotates path if its current size exceeds maxSize: numbered
// siblings are shifted N -> N+1 downward from maxFiles-1, the active file
// becomes .1, and a fresh empty file replaces it. Siblings numbered above
// maxFiles are deleted. A missing file is not rotated.
func RotateIfNeeded(path string, maxSize int64, maxFiles int) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("logmanager: stat %s: %w", path, err)
	}
	if info.Size() <= maxSize {
		return nil
	}

	for n := maxFiles + 1; ; n++ {
		old := numbered(path, n)
		if err := os.Remove(old); err != nil {
			if os.IsNotExist(err) {
				break
			}
			return fmt.Errorf("logmanager: remove %s: %w", old, err)
		}
	}

	for n := maxFiles - 1; n >= 1; n-- {
		src := numbered(path, n)
		dst := numbered(path, n+1)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("logmanager: rename %s to %s: %w", src, dst, err)
		}
	}

	if err := os.Rename(path, numbered(path, 1)); err != nil {
		return fmt.Errorf("logmanager: rotate %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("logmanager: recreate %s: %w", path, err)
	}
	return f.Close()
}

func numbered(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}

// Truncate opens path for write with truncation, creating it if absent.
func Truncate(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("logmanager: truncate %s: %w", path, err)
	}
	return f.Close()
}
