// Package watcher implements the periodic stat-based file-change detector
// the monitor loop polls for restart-on-change records (C5).
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// defaultIgnore names directories never descended into, regardless of
// pattern match.
var defaultIgnore = map[string]bool{
	"node_modules": true,
	".git":         true,
	"target":       true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
}

// Watcher tracks a snapshot of matching files under a set of directories
// and reports what changed between polls.
type Watcher struct {
	dirs     []string
	patterns []string
	ignore   map[string]bool
	snapshot map[string]time.Time
}

// New returns a Watcher with an empty initial snapshot. Call Init before
// the first CheckChanges.
func New(dirs, patterns []string) *Watcher {
	ig := make(map[string]bool, len(defaultIgnore))
	for k := range defaultIgnore {
		ig[k] = true
	}
	return &Watcher{
		dirs:     append([]string(nil), dirs...),
		patterns: append([]string(nil), patterns...),
		ignore:   ig,
		snapshot: make(map[string]time.Time),
	}
}

// Ignore extends the set of directory basenames never descended into.
func (w *Watcher) Ignore(name string) {
	w.ignore[name] = true
}

// Init populates the snapshot by recursively stat-ing every regular file
// under each configured directory that matches a pattern.
func (w *Watcher) Init() {
	w.snapshot = w.scan()
}

// CheckChanges rescans and returns every path that is newly present,
// missing, or has a different mtime since the last scan or Init, then
// replaces the stored snapshot with the fresh one.
func (w *Watcher) CheckChanges() []string {
	fresh := w.scan()

	var changed []string
	for path, mtime := range fresh {
		prev, ok := w.snapshot[path]
		if !ok || !prev.Equal(mtime) {
			changed = append(changed, path)
		}
	}
	for path := range w.snapshot {
		if _, ok := fresh[path]; !ok {
			changed = append(changed, path)
		}
	}

	w.snapshot = fresh
	return changed
}

func (w *Watcher) scan() map[string]time.Time {
	out := make(map[string]time.Time)
	for _, dir := range w.dirs {
		_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if path != dir && w.ignore[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if !w.matches(d.Name()) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			out[path] = info.ModTime()
			return nil
		})
	}
	return out
}

// matches reports whether name satisfies the configured pattern set.
// *.ext matches by extension; a literal pattern matches the file name
// exactly; anything else matches as a substring after stripping leading and
// trailing asterisks. An empty pattern set matches every file.
func (w *Watcher) matches(name string) bool {
	if len(w.patterns) == 0 {
		return true
	}
	for _, p := range w.patterns {
		if strings.HasPrefix(p, "*.") {
			if strings.HasSuffix(name, p[1:]) {
				return true
			}
			continue
		}
		if p == name {
			return true
		}
		stripped := strings.Trim(p, "*")
		if stripped != "" && strings.Contains(name, stripped) {
			return true
		}
	}
	return false
}
