// Package monitor runs the daemon's periodic supervision loop (C6): metrics
// refresh, dead-process restart, health-check scheduling, and file-watch
// polling and restarts, in a fixed order every tick.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"bpm/internal/health"
	"bpm/internal/launcher"
	"bpm/internal/registry"
	"bpm/internal/watcher"
)

// Interval is the pause between monitor iterations.
const Interval = 5 * time.Second

// fanOutLimit bounds how many records a single step processes concurrently.
const fanOutLimit = 8

// Monitor drives the supervision loop against a shared registry.
type Monitor struct {
	reg     *registry.Registry
	sampler registry.MetricsSampler
	log     logrus.FieldLogger

	mu       sync.Mutex
	watchers map[string]*watcher.Watcher
}

// New returns a Monitor ready to Run. log may be nil to discard monitor
// diagnostics entirely.
func New(reg *registry.Registry, sampler registry.MetricsSampler, log logrus.FieldLogger) *Monitor {
	return &Monitor{
		reg:      reg,
		sampler:  sampler,
		log:      log,
		watchers: make(map[string]*watcher.Watcher),
	}
}

// Run blocks, executing one iteration every Interval, until ctx is
// cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.iterate(ctx)
		}
	}
}

// iterate runs the six supervision steps in order. Each step processes its
// eligible records concurrently (bounded), but steps themselves run
// strictly sequentially.
func (m *Monitor) iterate(ctx context.Context) {
	m.refreshMetrics()
	m.restartDead(ctx)
	m.scheduleHealthChecks(ctx)
	m.initWatchers()
	changed := m.pollWatchers(ctx)
	m.restartChanged(ctx, changed)
}

func (m *Monitor) refreshMetrics() {
	m.reg.RefreshMetrics(m.sampler)
}

func (m *Monitor) restartDead(ctx context.Context) {
	names := m.reg.CheckDead()
	m.forEach(ctx, names, func(name string) error {
		return m.respawn(name)
	})
}

// respawn implements the shared "transition to Restarting, bump the
// restart counter, spawn" sequence used by dead-process restart, health
// retry exhaustion, and file-watch restarts.
func (m *Monitor) respawn(name string) error {
	rec, ok := m.reg.Get(name)
	if !ok {
		return nil
	}
	if err := m.reg.UpdateState(name, registry.Restarting); err != nil {
		return err
	}
	if err := m.reg.IncrementRestartCount(name); err != nil {
		return err
	}

	pid, err := launcher.Spawn(rec)
	if err != nil {
		m.logf("restart failed for %s: %v", name, err)
		_ = m.reg.UpdateState(name, registry.Errored)
		return err
	}
	return m.reg.UpdatePID(name, &pid)
}

func (m *Monitor) scheduleHealthChecks(ctx context.Context) {
	running := m.reg.GetRunning()
	var eligible []*registry.ProcessRecord
	now := time.Now()
	for _, rec := range running {
		if rec.Healthcheck == nil {
			continue
		}
		if rec.LastHealthCheck == nil {
			if rec.StartedAt == nil || now.Sub(*rec.StartedAt) < rec.Healthcheck.StartPeriod {
				continue
			}
		} else if now.Sub(*rec.LastHealthCheck) < rec.Healthcheck.Interval {
			continue
		}
		eligible = append(eligible, rec)
	}

	m.forEachRecord(ctx, eligible, func(rec *registry.ProcessRecord) error {
		return m.runHealthCheck(rec)
	})
}

func (m *Monitor) runHealthCheck(rec *registry.ProcessRecord) error {
	hc := rec.Healthcheck
	status := health.Check(hc.Kind, hc.Target, hc.Args, hc.ExpectStatus, hc.Timeout)
	if err := m.reg.UpdateHealthStatus(rec.Name, status, time.Now()); err != nil {
		return err
	}

	if status.State == registry.HealthHealthy {
		return m.reg.ResetHealthFailures(rec.Name)
	}

	failures, err := m.reg.IncrementHealthFailures(rec.Name)
	if err != nil {
		return err
	}
	if failures >= hc.Retries {
		if err := m.reg.ResetHealthFailures(rec.Name); err != nil {
			return err
		}
		return m.respawn(rec.Name)
	}
	return nil
}

func (m *Monitor) initWatchers() {
	for _, rec := range m.reg.GetRunning() {
		if len(rec.WatchDirs) == 0 {
			continue
		}
		m.mu.Lock()
		_, exists := m.watchers[rec.Name]
		m.mu.Unlock()
		if exists {
			continue
		}

		w := watcher.New(rec.WatchDirs, rec.WatchPatterns)
		w.Init()
		m.mu.Lock()
		m.watchers[rec.Name] = w
		m.mu.Unlock()
	}
}

func (m *Monitor) pollWatchers(ctx context.Context) []string {
	m.mu.Lock()
	snapshot := make(map[string]*watcher.Watcher, len(m.watchers))
	for name, w := range m.watchers {
		snapshot[name] = w
	}
	m.mu.Unlock()

	var changed []string
	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	sem := make(chan struct{}, fanOutLimit)
	for name, w := range snapshot {
		name, w := name, w
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			if paths := w.CheckChanges(); len(paths) > 0 {
				mu.Lock()
				changed = append(changed, name)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return changed
}

func (m *Monitor) restartChanged(ctx context.Context, names []string) {
	m.forEach(ctx, names, func(name string) error {
		return m.respawn(name)
	})
}

func (m *Monitor) forEach(ctx context.Context, names []string, fn func(string) error) {
	g, _ := errgroup.WithContext(ctx)
	sem := make(chan struct{}, fanOutLimit)
	for _, name := range names {
		name := name
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := fn(name); err != nil {
				m.logf("monitor: %s: %v", name, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (m *Monitor) forEachRecord(ctx context.Context, recs []*registry.ProcessRecord, fn func(*registry.ProcessRecord) error) {
	g, _ := errgroup.WithContext(ctx)
	sem := make(chan struct{}, fanOutLimit)
	for _, rec := range recs {
		rec := rec
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := fn(rec); err != nil {
				m.logf("monitor: %s: %v", rec.Name, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (m *Monitor) logf(format string, args ...interface{}) {
	if m.log == nil {
		return
	}
	m.log.Errorf(format, args...)
}
