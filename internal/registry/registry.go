package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrAlreadyExists is returned by Register when name is already present.
type ErrAlreadyExists struct{ Name string }

func (e ErrAlreadyExists) Error() string { return fmt.Sprintf("process %q already exists", e.Name) }

// ErrNotFound is returned by operations addressing a name the registry does
// not hold.
type ErrNotFound struct{ Name string }

func (e ErrNotFound) Error() string { return fmt.Sprintf("process %q not found", e.Name) }

// MetricsSampler is implemented by the child launcher (internal/launcher):
// given a root pid, it returns CPU% and RSS summed over the process and all
// of its transitive descendants. An unknown root pid returns an error.
type MetricsSampler interface {
	Sample(pid int) (cpuPercent float64, rssBytes uint64, err error)
}

// Registry is a thread-safe, name-keyed map of ProcessRecord, the only
// mutable state the daemon's dispatcher and monitor loop share.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*ProcessRecord
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{records: make(map[string]*ProcessRecord)}
}

// Register inserts rec under rec.Name. Fails with ErrAlreadyExists if the
// name is present (invariant 1).
func (r *Registry) Register(rec *ProcessRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[rec.Name]; exists {
		return ErrAlreadyExists{Name: rec.Name}
	}
	r.records[rec.Name] = rec.Clone()
	return nil
}

// Get returns a copy of the named record.
func (r *Registry) Get(name string) (*ProcessRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[name]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Remove deletes the named record and returns a copy of what was removed.
// The caller is responsible for cancelling any signals, timers and file
// watchers associated with the record before treating removal as complete
// (invariant 5) — Remove itself only retires the registry entry.
func (r *Registry) Remove(name string) (*ProcessRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[name]
	if !ok {
		return nil, false
	}
	delete(r.records, name)
	return rec.Clone(), true
}

// List returns a snapshot of every record, sorted by name for stable
// output (table rendering, JSON export).
func (r *Registry) List() []*ProcessRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ProcessRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UpdateState transitions the named record to state.
func (r *Registry) UpdateState(name string, state State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[name]
	if !ok {
		return ErrNotFound{Name: name}
	}
	rec.State = state
	return nil
}

// UpdatePID sets or clears the named record's pid. Setting a pid
// atomically assigns StartedAt and transitions the record to Running.
// Clearing a pid (pid == nil) only clears it — the caller owns the
// accompanying state transition.
func (r *Registry) UpdatePID(name string, pid *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[name]
	if !ok {
		return ErrNotFound{Name: name}
	}
	if pid == nil {
		rec.PID = 0
		return nil
	}
	now := time.Now()
	rec.PID = *pid
	rec.StartedAt = &now
	rec.State = Running
	return nil
}

// SetAutoRestart sets the named record's restart policy flag, backing the
// Disable handler.
func (r *Registry) SetAutoRestart(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[name]
	if !ok {
		return ErrNotFound{Name: name}
	}
	rec.AutoRestart = enabled
	return nil
}

// UpdateHealthStatus records the outcome of a health check.
func (r *Registry) UpdateHealthStatus(name string, status HealthStatus, checkedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[name]
	if !ok {
		return ErrNotFound{Name: name}
	}
	rec.HealthStatus = status
	rec.LastHealthCheck = &checkedAt
	return nil
}

// IncrementRestartCount bumps the named record's monotonic restart
// counter.
func (r *Registry) IncrementRestartCount(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[name]
	if !ok {
		return ErrNotFound{Name: name}
	}
	rec.RestartCount++
	return nil
}

// IncrementHealthFailures bumps the consecutive-failure counter and
// returns its new value.
func (r *Registry) IncrementHealthFailures(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[name]
	if !ok {
		return 0, ErrNotFound{Name: name}
	}
	rec.HealthFailures++
	return rec.HealthFailures, nil
}

// ResetHealthFailures zeroes the consecutive-failure counter.
func (r *Registry) ResetHealthFailures(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[name]
	if !ok {
		return ErrNotFound{Name: name}
	}
	rec.HealthFailures = 0
	return nil
}

// GetRunning returns copies of every record currently in state Running.
func (r *Registry) GetRunning() []*ProcessRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*ProcessRecord
	for _, rec := range r.records {
		if rec.State == Running {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// CheckDead returns the names of every record in state Errored with
// AutoRestart set.
func (r *Registry) CheckDead() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for name, rec := range r.records {
		if rec.State == Errored && rec.AutoRestart {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// RefreshMetrics takes an exclusive lock and, for every record holding a
// pid, resamples combined CPU% and RSS via sampler. A record whose pid can
// no longer be found while in state Running transitions to Errored and has
// its pid cleared.
func (r *Registry) RefreshMetrics(sampler MetricsSampler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.PID == 0 {
			continue
		}
		cpu, rss, err := sampler.Sample(rec.PID)
		if err != nil {
			if rec.State == Running {
				rec.State = Errored
				rec.PID = 0
			}
			continue
		}
		rec.CPUUsage = cpu
		rec.MemoryUsage = rss
	}
}

// FormatTable renders every record as a fixed-width text table, the body
// of the List command's reply.
func (r *Registry) FormatTable() string {
	recs := r.List()
	if len(recs) == 0 {
		return "No managed processes.\n"
	}
	out := fmt.Sprintf("%-20s %-10s %-8s %-10s %-10s %s\n", "NAME", "STATE", "PID", "RESTARTS", "CPU%", "MEMORY")
	for _, rec := range recs {
		out += fmt.Sprintf("%-20s %-10s %-8d %-10d %-10.1f %s\n",
			rec.Name, rec.State.String(), rec.PID, rec.RestartCount, rec.CPUUsage, formatBytes(rec.MemoryUsage))
	}
	return out
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
