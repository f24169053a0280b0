package startup

import (
	"strings"
	"testing"
)

func TestUnitContentsIncludesExecPathAndRestartPolicy(t *testing.T) {
	out := UnitContents("/usr/local/bin/bpm")
	if !strings.Contains(out, "ExecStart=/usr/local/bin/bpm daemon") {
		t.Fatalf("expected ExecStart line, got:\n%s", out)
	}
	if !strings.Contains(out, "Restart=on-failure") || !strings.Contains(out, "RestartSec=5") {
		t.Fatalf("expected restart policy, got:\n%s", out)
	}
}

func TestUnitPathUnderConfigSystemdUser(t *testing.T) {
	p, err := UnitPath()
	if err != nil {
		t.Fatalf("UnitPath: %v", err)
	}
	if !strings.HasSuffix(p, ".config/systemd/user/bpm.service") {
		t.Fatalf("unexpected unit path: %s", p)
	}
}
