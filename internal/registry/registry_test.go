package registry

import (
	"path/filepath"
	"testing"
)

func TestRegisterDuplicateFails(t *testing.T) {
	r := New()
	if err := r.Register(&ProcessRecord{Name: "t"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := r.Register(&ProcessRecord{Name: "t"})
	if _, ok := err.(ErrAlreadyExists); !ok {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdatePIDSetAndClear(t *testing.T) {
	r := New()
	_ = r.Register(&ProcessRecord{Name: "t", State: Starting})

	pid := 4242
	if err := r.UpdatePID("t", &pid); err != nil {
		t.Fatalf("UpdatePID: %v", err)
	}
	rec, _ := r.Get("t")
	if rec.PID != pid || rec.State != Running || rec.StartedAt == nil {
		t.Fatalf("unexpected record after set: %+v", rec)
	}

	if err := r.UpdatePID("t", nil); err != nil {
		t.Fatalf("UpdatePID clear: %v", err)
	}
	rec, _ = r.Get("t")
	if rec.PID != 0 {
		t.Fatalf("expected pid cleared, got %d", rec.PID)
	}
	// Caller owns the state transition on clear.
	if rec.State != Running {
		t.Fatalf("clearing pid must not change state, got %v", rec.State)
	}
}

func TestSetAutoRestart(t *testing.T) {
	r := New()
	_ = r.Register(&ProcessRecord{Name: "t", AutoRestart: true})

	if err := r.SetAutoRestart("t", false); err != nil {
		t.Fatalf("SetAutoRestart: %v", err)
	}
	rec, _ := r.Get("t")
	if rec.AutoRestart {
		t.Fatalf("expected AutoRestart false after disable")
	}
}

func TestCheckDeadFiltersAutoRestart(t *testing.T) {
	r := New()
	_ = r.Register(&ProcessRecord{Name: "auto", State: Errored, AutoRestart: true})
	_ = r.Register(&ProcessRecord{Name: "manual", State: Errored, AutoRestart: false})
	_ = r.Register(&ProcessRecord{Name: "running", State: Running, AutoRestart: true})

	dead := r.CheckDead()
	if len(dead) != 1 || dead[0] != "auto" {
		t.Fatalf("expected [auto], got %v", dead)
	}
}

func TestHealthFailuresIncrementReset(t *testing.T) {
	r := New()
	_ = r.Register(&ProcessRecord{Name: "t"})

	for i := 1; i <= 3; i++ {
		n, err := r.IncrementHealthFailures("t")
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if n != i {
			t.Fatalf("expected %d, got %d", i, n)
		}
	}
	if err := r.ResetHealthFailures("t"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	rec, _ := r.Get("t")
	if rec.HealthFailures != 0 {
		t.Fatalf("expected reset to 0, got %d", rec.HealthFailures)
	}
}

type fakeSampler struct {
	cpu float64
	rss uint64
	err error
}

func (f fakeSampler) Sample(pid int) (float64, uint64, error) { return f.cpu, f.rss, f.err }

func TestRefreshMetricsErrorsRecordToErrored(t *testing.T) {
	r := New()
	pid := 123
	_ = r.Register(&ProcessRecord{Name: "t", State: Running})
	_ = r.UpdatePID("t", &pid)

	r.RefreshMetrics(fakeSampler{err: errSampleFailed{}})
	rec, _ := r.Get("t")
	if rec.State != Errored || rec.PID != 0 {
		t.Fatalf("expected Errored with cleared pid, got state=%v pid=%d", rec.State, rec.PID)
	}
}

type errSampleFailed struct{}

func (errSampleFailed) Error() string { return "no such process" }

func TestRefreshMetricsUpdatesUsage(t *testing.T) {
	r := New()
	pid := 123
	_ = r.Register(&ProcessRecord{Name: "t", State: Running})
	_ = r.UpdatePID("t", &pid)

	r.RefreshMetrics(fakeSampler{cpu: 12.5, rss: 4096})
	rec, _ := r.Get("t")
	if rec.CPUUsage != 12.5 || rec.MemoryUsage != 4096 {
		t.Fatalf("unexpected usage: %+v", rec)
	}
}

func TestSaveLoadStateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	r := New()
	pid := 999
	_ = r.Register(&ProcessRecord{Name: "t", State: Running, Script: "sleep", Args: []string{"10"}})
	_ = r.UpdatePID("t", &pid)
	_ = r.Register(&ProcessRecord{
		Name: "hc", State: Running,
		Healthcheck:  &Healthcheck{Kind: ProbeTCP, Target: "127.0.0.1:1"},
		HealthStatus: HealthStatus{State: HealthHealthy},
	})

	if err := r.SaveState(path); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	r2 := New()
	if err := r2.LoadState(path); err != nil {
		t.Fatalf("LoadState: %v", err)
	}

	rec, ok := r2.Get("t")
	if !ok || rec.Script != "sleep" || rec.PID != pid {
		t.Fatalf("round trip lost fields: %+v", rec)
	}

	hc, ok := r2.Get("hc")
	if !ok {
		t.Fatalf("expected hc record to exist after load")
	}
	if hc.Healthcheck != nil {
		t.Fatalf("healthcheck must not round-trip, got %+v", hc.Healthcheck)
	}
	if hc.HealthStatus.State != HealthUnknown {
		t.Fatalf("health status must reset to Unknown, got %v", hc.HealthStatus)
	}
}

func TestLoadStateMissingFileSucceeds(t *testing.T) {
	r := New()
	if err := r.LoadState(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Fatalf("missing state file should not error: %v", err)
	}
}
