package dispatcher

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bpm/internal/registry"
	"bpm/internal/transport"
)

type fakeSampler struct{}

func (fakeSampler) Sample(pid int) (float64, uint64, error) { return 0.5, 1024, nil }

func newTestDispatcher(t *testing.T) (*Dispatcher, *registry.Registry, string) {
	t.Helper()
	dataDir := t.TempDir()
	reg := registry.New()
	return New(reg, fakeSampler{}, dataDir, nil), reg, dataDir
}

func writeDescriptor(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
	return path
}

func TestHandleListEmptyRegistry(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	out := d.Handle(transport.Command{Kind: transport.KindList})
	if !strings.Contains(out, "No managed processes") {
		t.Fatalf("unexpected list output: %q", out)
	}
}

func TestHandleStartThenListThenStop(t *testing.T) {
	d, reg, _ := newTestDispatcher(t)
	path := writeDescriptor(t, `{"name":"t","script":"/bin/sh","args":["-c","sleep 5"]}`)

	out := d.Handle(transport.Command{Kind: transport.KindStart, Arg: path})
	if !strings.Contains(out, "Started: t") {
		t.Fatalf("expected Started line, got %q", out)
	}

	rec, ok := reg.Get("t")
	if !ok || rec.State != registry.Running || rec.PID == 0 {
		t.Fatalf("expected running record with pid, got %+v", rec)
	}

	listOut := d.Handle(transport.Command{Kind: transport.KindList})
	if !strings.Contains(listOut, "running") {
		t.Fatalf("expected list to show t running, got %q", listOut)
	}

	stopOut := d.Handle(transport.Command{Kind: transport.KindStop, Arg: "t"})
	if !strings.Contains(stopOut, "Stopped: t") {
		t.Fatalf("expected Stopped line, got %q", stopOut)
	}
	rec, _ = reg.Get("t")
	if rec.State != registry.Stopped || rec.PID != 0 {
		t.Fatalf("expected stopped record with no pid, got %+v", rec)
	}
}

func TestHandleStatusNotFound(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	out := d.Handle(transport.Command{Kind: transport.KindStatus, Arg: "ghost"})
	if !strings.Contains(out, "not found") {
		t.Fatalf("expected not-found line, got %q", out)
	}
}

func TestHandleStatusReturnsJSON(t *testing.T) {
	d, reg, _ := newTestDispatcher(t)
	_ = reg.Register(&registry.ProcessRecord{Name: "t", Script: "sleep"})

	out := d.Handle(transport.Command{Kind: transport.KindStatus, Arg: "t"})
	var decoded registry.ProcessRecord
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("expected valid JSON, got %q: %v", out, err)
	}
	if decoded.Name != "t" {
		t.Fatalf("unexpected decoded record: %+v", decoded)
	}
}

func TestHandleDisableClearsAutoRestart(t *testing.T) {
	d, reg, _ := newTestDispatcher(t)
	_ = reg.Register(&registry.ProcessRecord{Name: "t", AutoRestart: true})

	out := d.Handle(transport.Command{Kind: transport.KindDisable, Arg: "t"})
	if !strings.Contains(out, "Disabled: t") {
		t.Fatalf("unexpected output: %q", out)
	}
	rec, _ := reg.Get("t")
	if rec.AutoRestart {
		t.Fatalf("expected AutoRestart false after Disable")
	}
}

func TestHandleSaveAndResurrect(t *testing.T) {
	d, reg, dataDir := newTestDispatcher(t)
	_ = reg.Register(&registry.ProcessRecord{
		Name: "t", State: registry.Stopped, Script: "/bin/sh", Args: []string{"-c", "sleep 5"},
		StdoutLog: filepath.Join(dataDir, "out.log"), StderrLog: filepath.Join(dataDir, "err.log"),
	})

	saveOut := d.Handle(transport.Command{Kind: transport.KindSave})
	if !strings.Contains(saveOut, "Saved") {
		t.Fatalf("unexpected save output: %q", saveOut)
	}

	reg2 := registry.New()
	d2 := New(reg2, fakeSampler{}, dataDir, nil)
	resurrectOut := d2.Handle(transport.Command{Kind: transport.KindResurrect})
	if !strings.Contains(resurrectOut, "Resurrected: t") {
		t.Fatalf("unexpected resurrect output: %q", resurrectOut)
	}
}

func TestHandleFlushSingleApp(t *testing.T) {
	d, reg, dataDir := newTestDispatcher(t)
	outPath := filepath.Join(dataDir, "out.log")
	if err := os.WriteFile(outPath, []byte("content"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = reg.Register(&registry.ProcessRecord{Name: "t", StdoutLog: outPath, StderrLog: filepath.Join(dataDir, "err.log")})

	out := d.Handle(transport.Command{Kind: transport.KindFlush, Arg: "t"})
	if !strings.Contains(out, "Flushed: t") {
		t.Fatalf("unexpected output: %q", out)
	}
	info, err := os.Stat(outPath)
	if err != nil || info.Size() != 0 {
		t.Fatalf("expected log truncated, size=%v err=%v", info, err)
	}
}
