// Package config reads JSON application descriptors — the declaration of
// how to launch and supervise one or more programs — and maps them onto
// registry.ProcessRecord values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bpm/internal/registry"
)

// App is the JSON shape of a single application descriptor entry.
type App struct {
	Name string `json:"name"`

	Script string            `json:"script"`
	Args   []string          `json:"args,omitempty"`
	Cwd    string            `json:"cwd,omitempty"`
	Env    map[string]string `json:"env,omitempty"`

	Log *LogPaths `json:"log,omitempty"`

	Restart *RestartPolicy `json:"restart,omitempty"`

	Healthcheck *HealthcheckSpec `json:"healthcheck,omitempty"`

	Schedule string `json:"schedule,omitempty"` // reserved; not interpreted
}

// LogPaths names the stdout/stderr/combined log destinations. "stdout" and
// "stderr" select the default log directory; absolute paths are honored
// verbatim; any other relative value falls back to the default.
type LogPaths struct {
	Out      string `json:"out,omitempty"`
	Error    string `json:"error,omitempty"`
	Combined string `json:"combined,omitempty"`
}

// RestartPolicy controls whether a record auto-restarts on failure.
type RestartPolicy struct {
	Policy       string `json:"policy,omitempty"` // "always" | "on-failure" | "never"
	MaxRestarts  int    `json:"max_restarts,omitempty"`
	RestartDelay string `json:"restart_delay,omitempty"`
}

// HealthcheckSpec is the JSON shape of a healthcheck declaration.
type HealthcheckSpec struct {
	Type        string `json:"type"` // "http" | "tcp" | "command"
	Interval    string `json:"interval,omitempty"`
	Timeout     string `json:"timeout,omitempty"`
	Retries     int    `json:"retries,omitempty"`
	StartPeriod string `json:"start_period,omitempty"`

	URL     string   `json:"url,omitempty"`
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
	Host    string   `json:"host,omitempty"`
	Port    int      `json:"port,omitempty"`
}

// Descriptor is a fully-parsed config file: a project name (empty for a
// bare single-app document) and its apps in declaration order.
type Descriptor struct {
	ProjectName string
	Apps        []App
}

// Load reads and parses the descriptor at path. The document is either a
// single app object or a {project_name: [app, ...]} object.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var single App
	if err := json.Unmarshal(data, &single); err == nil && single.Name != "" {
		return &Descriptor{Apps: []App{single}}, nil
	}

	var projects map[string][]App
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	for name, apps := range projects {
		return &Descriptor{ProjectName: name, Apps: apps}, nil
	}
	return nil, fmt.Errorf("config: %s declares no applications", path)
}

// ParseDuration accepts <n>s, <n>m, <n>min, <n>h, <n>hr. "min" and "hr" are
// checked before the single-letter suffixes so "5min" and "5m" both parse
// as 5 minutes.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasSuffix(s, "min"):
		return parseUnit(s, "min", time.Minute)
	case strings.HasSuffix(s, "hr"):
		return parseUnit(s, "hr", time.Hour)
	case strings.HasSuffix(s, "s"):
		return parseUnit(s, "s", time.Second)
	case strings.HasSuffix(s, "m"):
		return parseUnit(s, "m", time.Minute)
	case strings.HasSuffix(s, "h"):
		return parseUnit(s, "h", time.Hour)
	default:
		return 0, fmt.Errorf("config: unrecognized duration suffix in %q", s)
	}
}

func parseUnit(s, suffix string, unit time.Duration) (time.Duration, error) {
	n, err := strconv.ParseFloat(strings.TrimSuffix(s, suffix), 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	return time.Duration(n * float64(unit)), nil
}

// ToProcessRecord builds the registry record for app, recording configPath
// as its originating descriptor and resolving log paths under dataDir.
func (a App) ToProcessRecord(configPath, dataDir string) (*registry.ProcessRecord, error) {
	rec := &registry.ProcessRecord{
		Name:       a.Name,
		State:      registry.Stopped,
		ConfigPath: configPath,
		Script:     a.Script,
		Args:       a.Args,
		Cwd:        a.Cwd,
		Env:        a.Env,
	}

	rec.StdoutLog, rec.StderrLog = resolveLogPaths(a.Log, a.Name, dataDir)

	if a.Cwd != "" {
		rec.WatchDirs = []string{a.Cwd}
	}

	if a.Restart != nil {
		switch a.Restart.Policy {
		case "always", "on-failure":
			rec.AutoRestart = true
		case "never", "":
			rec.AutoRestart = false
		default:
			return nil, fmt.Errorf("config: unknown restart policy %q", a.Restart.Policy)
		}
	}

	if a.Healthcheck != nil {
		hc, err := toHealthcheck(a.Healthcheck)
		if err != nil {
			return nil, fmt.Errorf("config: app %q: %w", a.Name, err)
		}
		rec.Healthcheck = hc
	}

	return rec, nil
}

func resolveLogPaths(lp *LogPaths, name, dataDir string) (string, string) {
	defaultDir := filepath.Join(dataDir, "logs", name)
	defaultOut := filepath.Join(defaultDir, "out.log")
	defaultErr := filepath.Join(defaultDir, "error.log")

	if lp == nil {
		return defaultOut, defaultErr
	}
	out := resolveLogPath(lp.Out, defaultOut)
	errPath := resolveLogPath(lp.Error, defaultErr)
	if lp.Combined != "" {
		combined := resolveLogPath(lp.Combined, defaultOut)
		return combined, combined
	}
	return out, errPath
}

func resolveLogPath(value, fallback string) string {
	switch value {
	case "", "stdout", "stderr":
		return fallback
	}
	if filepath.IsAbs(value) {
		return value
	}
	return fallback
}

func toHealthcheck(spec *HealthcheckSpec) (*registry.Healthcheck, error) {
	var kind registry.ProbeKind
	var target string
	switch spec.Type {
	case "http":
		kind = registry.ProbeHTTP
		target = spec.URL
	case "tcp":
		kind = registry.ProbeTCP
		target = fmt.Sprintf("%s:%d", spec.Host, spec.Port)
	case "command":
		kind = registry.ProbeCommand
		target = spec.Command
	default:
		return nil, fmt.Errorf("unknown healthcheck type %q", spec.Type)
	}

	hc := &registry.Healthcheck{
		Kind:    kind,
		Target:  target,
		Args:    spec.Args,
		Retries: spec.Retries,
	}

	if spec.Interval != "" {
		d, err := ParseDuration(spec.Interval)
		if err != nil {
			return nil, err
		}
		hc.Interval = d
	}
	if spec.Timeout != "" {
		d, err := ParseDuration(spec.Timeout)
		if err != nil {
			return nil, err
		}
		hc.Timeout = d
	}
	if spec.StartPeriod != "" {
		d, err := ParseDuration(spec.StartPeriod)
		if err != nil {
			return nil, err
		}
		hc.StartPeriod = d
	}
	return hc, nil
}
