package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// persistedRecord is the on-disk shape of a ProcessRecord. Healthcheck and
// HealthStatus are deliberately omitted (invariant 6): a loaded record has
// no Healthcheck and its health status is Unknown. Resurrect does not
// re-read the originating config descriptor, so a resurrected record runs
// without health checks.
type persistedRecord struct {
	Name string `json:"name"`

	State State `json:"state"`
	PID   int   `json:"pid"`

	ConfigPath string            `json:"configPath"`
	Script     string            `json:"script"`
	Args       []string          `json:"args,omitempty"`
	Cwd        string            `json:"cwd,omitempty"`
	Env        map[string]string `json:"env,omitempty"`

	StdoutLog string `json:"stdoutLog"`
	StderrLog string `json:"stderrLog"`

	AutoRestart  bool `json:"autoRestart"`
	RestartCount int  `json:"restartCount"`

	StartedAt *time.Time `json:"startedAt,omitempty"`

	CPUUsage    float64 `json:"cpuUsage"`
	MemoryUsage uint64  `json:"memoryUsage"`

	LastHealthCheck *time.Time `json:"lastHealthCheck,omitempty"`
	HealthFailures  int        `json:"healthFailures"`

	WatchDirs     []string `json:"watchDirs,omitempty"`
	WatchPatterns []string `json:"watchPatterns,omitempty"`
}

func toPersisted(r *ProcessRecord) persistedRecord {
	return persistedRecord{
		Name: r.Name, State: r.State, PID: r.PID,
		ConfigPath: r.ConfigPath, Script: r.Script, Args: r.Args, Cwd: r.Cwd, Env: r.Env,
		StdoutLog: r.StdoutLog, StderrLog: r.StderrLog,
		AutoRestart: r.AutoRestart, RestartCount: r.RestartCount,
		StartedAt: r.StartedAt, CPUUsage: r.CPUUsage, MemoryUsage: r.MemoryUsage,
		LastHealthCheck: r.LastHealthCheck, HealthFailures: r.HealthFailures,
		WatchDirs: r.WatchDirs, WatchPatterns: r.WatchPatterns,
	}
}

func fromPersisted(p persistedRecord) *ProcessRecord {
	return &ProcessRecord{
		Name: p.Name, State: p.State, PID: p.PID,
		ConfigPath: p.ConfigPath, Script: p.Script, Args: p.Args, Cwd: p.Cwd, Env: p.Env,
		StdoutLog: p.StdoutLog, StderrLog: p.StderrLog,
		AutoRestart: p.AutoRestart, RestartCount: p.RestartCount,
		StartedAt: p.StartedAt, CPUUsage: p.CPUUsage, MemoryUsage: p.MemoryUsage,
		LastHealthCheck: p.LastHealthCheck, HealthFailures: p.HealthFailures,
		WatchDirs: p.WatchDirs, WatchPatterns: p.WatchPatterns,
		HealthStatus: HealthStatus{State: HealthUnknown},
	}
}

// SaveState writes every record as a pretty-printed JSON array to path,
// creating path's parent directory on demand.
func (r *Registry) SaveState(path string) error {
	r.mu.RLock()
	persisted := make([]persistedRecord, 0, len(r.records))
	for _, rec := range r.records {
		persisted = append(persisted, toPersisted(rec))
	}
	r.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("registry: create state directory: %w", err)
	}
	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("registry: create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("registry: write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("registry: sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("registry: close state: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("registry: rename state: %w", err)
	}
	tmp = nil
	return nil
}

// LoadState merges every record found at path into the registry, upserting
// by name. A missing file is not an error — the registry is left
// unchanged.
func (r *Registry) LoadState(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("registry: read state: %w", err)
	}

	var persisted []persistedRecord
	if err := json.Unmarshal(data, &persisted); err != nil {
		return fmt.Errorf("registry: parse state: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range persisted {
		r.records[p.Name] = fromPersisted(p)
	}
	return nil
}
