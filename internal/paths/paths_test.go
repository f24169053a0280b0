package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDataDirIsCreated(t *testing.T) {
	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected %s to exist as a directory", dir)
	}
	if filepath.Base(dir) != "bpm" {
		t.Errorf("expected data dir to be named bpm, got %s", dir)
	}
}

func TestStatePathUnderDataDir(t *testing.T) {
	dataDir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	statePath, err := StatePath()
	if err != nil {
		t.Fatalf("StatePath: %v", err)
	}
	if filepath.Dir(statePath) != dataDir || filepath.Base(statePath) != "state.json" {
		t.Errorf("unexpected state path %s for data dir %s", statePath, dataDir)
	}
}

func TestLogsDirIsPerProcess(t *testing.T) {
	dir, err := LogsDir("myapp")
	if err != nil {
		t.Fatalf("LogsDir: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected %s to exist as a directory", dir)
	}
	if filepath.Base(dir) != "myapp" {
		t.Errorf("expected logs dir to be named after the process, got %s", dir)
	}
}

func TestRuntimeDirRespectsXDG(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", tmp)

	dir, err := RuntimeDir()
	if err != nil {
		t.Fatalf("RuntimeDir: %v", err)
	}
	if filepath.Dir(dir) != tmp {
		t.Errorf("expected runtime dir under %s, got %s", tmp, dir)
	}
}
