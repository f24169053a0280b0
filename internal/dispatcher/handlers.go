package dispatcher

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"bpm/internal/config"
	"bpm/internal/launcher"
	"bpm/internal/logmanager"
	"bpm/internal/registry"
)

const defaultLogLines = 20

const startFanOutLimit = 8

func (d *Dispatcher) handleList() string {
	d.reg.RefreshMetrics(d.sampler)
	return d.reg.FormatTable()
}

func (d *Dispatcher) handleStatus(name string) string {
	rec, ok := d.reg.Get(name)
	if !ok {
		return fmt.Sprintf("not found: %s", name)
	}
	body, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Sprintf("error serializing %s: %v", name, err)
	}
	return string(body)
}

func (d *Dispatcher) handleStart(path string) string {
	desc, err := config.Load(path)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}

	outcomes := make([]string, len(desc.Apps))
	g := new(errgroup.Group)
	sem := make(chan struct{}, startFanOutLimit)
	for i, app := range desc.Apps {
		i, app := i, app
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = d.startApp(path, app)
			return nil
		})
	}
	_ = g.Wait()

	return strings.Join(outcomes, "\n")
}

func (d *Dispatcher) startApp(configPath string, app config.App) string {
	rec, err := app.ToProcessRecord(configPath, d.dataDir)
	if err != nil {
		return fmt.Sprintf("error building %s: %v", app.Name, err)
	}

	if err := d.reg.Register(rec); err != nil {
		if _, dup := err.(registry.ErrAlreadyExists); dup {
			d.logf("start: %s already registered", app.Name)
		} else {
			return fmt.Sprintf("error registering %s: %v", app.Name, err)
		}
	}

	if err := d.reg.UpdateState(app.Name, registry.Starting); err != nil {
		return fmt.Sprintf("error starting %s: %v", app.Name, err)
	}

	pid, err := launcher.Spawn(rec)
	if err != nil {
		_ = d.reg.UpdateState(app.Name, registry.Errored)
		return fmt.Sprintf("error spawning %s: %v", app.Name, err)
	}
	if err := d.reg.UpdatePID(app.Name, &pid); err != nil {
		return fmt.Sprintf("error recording pid for %s: %v", app.Name, err)
	}
	return fmt.Sprintf("Started: %s", app.Name)
}

func (d *Dispatcher) handleStop(name string) string {
	rec, ok := d.reg.Get(name)
	if !ok || rec.PID == 0 {
		return fmt.Sprintf("not running: %s", name)
	}

	if err := d.reg.UpdateState(name, registry.Stopping); err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	if err := launcher.Stop(rec.PID); err != nil {
		d.logf("stop: %s: %v", name, err)
	}
	_ = d.reg.UpdatePID(name, nil)
	_ = d.reg.UpdateState(name, registry.Stopped)
	return fmt.Sprintf("Stopped: %s", name)
}

func (d *Dispatcher) handleRestart(name string) string {
	rec, ok := d.reg.Get(name)
	if !ok {
		return fmt.Sprintf("not found: %s", name)
	}

	if rec.PID != 0 {
		_ = d.reg.UpdateState(name, registry.Stopping)
		if err := launcher.Stop(rec.PID); err != nil {
			d.logf("restart: stop %s: %v", name, err)
		}
		_ = d.reg.UpdatePID(name, nil)
	}
	time.Sleep(launcher.RestartDelay())

	pid, err := launcher.Spawn(rec)
	if err != nil {
		_ = d.reg.UpdateState(name, registry.Errored)
		return fmt.Sprintf("error restarting %s: %v", name, err)
	}
	if err := d.reg.UpdatePID(name, &pid); err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return fmt.Sprintf("Restarted: %s", name)
}

func (d *Dispatcher) handleDelete(name string) string {
	stopLine := d.handleStop(name)
	if _, ok := d.reg.Remove(name); !ok {
		return fmt.Sprintf("not found: %s", name)
	}
	return fmt.Sprintf("%s\nDeleted: %s", stopLine, name)
}

func (d *Dispatcher) handleDisable(name string) string {
	if err := d.reg.SetAutoRestart(name, false); err != nil {
		return fmt.Sprintf("not found: %s", name)
	}
	return fmt.Sprintf("Disabled: %s", name)
}

func (d *Dispatcher) handleLogs(arg string) string {
	parts := strings.SplitN(arg, ":", 3)
	name := parts[0]
	lines := defaultLogLines
	if len(parts) > 1 && parts[1] != "" {
		if n, err := strconv.Atoi(parts[1]); err == nil {
			lines = n
		}
	}
	// parts[2], if present, is the follow flag; follow mode is not
	// implemented and is intentionally ignored.

	rec, ok := d.reg.Get(name)
	if !ok {
		return fmt.Sprintf("not found: %s", name)
	}

	outLines, err := logmanager.Tail(rec.StdoutLog, lines)
	if err != nil {
		outLines = []string{fmt.Sprintf("error reading stdout: %v", err)}
	}
	errLines, err := logmanager.Tail(rec.StderrLog, lines)
	if err != nil {
		errLines = []string{fmt.Sprintf("error reading stderr: %v", err)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "== stdout: %s ==\n", name)
	for _, l := range outLines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "== stderr: %s ==\n", name)
	for _, l := range errLines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

func (d *Dispatcher) handleFlush(name string) string {
	if name == "" {
		var errs []string
		for _, rec := range d.reg.List() {
			if err := flushRecord(rec); err != nil {
				errs = append(errs, err.Error())
			}
		}
		if len(errs) > 0 {
			return "flush errors: " + strings.Join(errs, "; ")
		}
		return "Flushed all logs"
	}

	rec, ok := d.reg.Get(name)
	if !ok {
		return fmt.Sprintf("not found: %s", name)
	}
	if err := flushRecord(rec); err != nil {
		return fmt.Sprintf("error flushing %s: %v", name, err)
	}
	return fmt.Sprintf("Flushed: %s", name)
}

func flushRecord(rec *registry.ProcessRecord) error {
	if err := logmanager.Truncate(rec.StdoutLog); err != nil {
		return err
	}
	return logmanager.Truncate(rec.StderrLog)
}

func (d *Dispatcher) handleSave() string {
	path := filepath.Join(d.dataDir, "state.json")
	if err := d.reg.SaveState(path); err != nil {
		return fmt.Sprintf("error saving state: %v", err)
	}
	return "Saved state"
}

func (d *Dispatcher) handleResurrect() string {
	path := filepath.Join(d.dataDir, "state.json")
	if err := d.reg.LoadState(path); err != nil {
		return fmt.Sprintf("error loading state: %v", err)
	}

	var lines []string
	for _, rec := range d.reg.List() {
		if rec.State != registry.Running && rec.State != registry.Stopped {
			continue
		}
		pid, err := launcher.Spawn(rec)
		if err != nil {
			lines = append(lines, fmt.Sprintf("error resurrecting %s: %v", rec.Name, err))
			continue
		}
		if err := d.reg.UpdatePID(rec.Name, &pid); err != nil {
			lines = append(lines, fmt.Sprintf("error: %v", err))
			continue
		}
		lines = append(lines, fmt.Sprintf("Resurrected: %s", rec.Name))
	}
	return strings.Join(lines, "\n")
}
