package ipc

import (
	"testing"
	"time"

	"bpm/internal/transport"
)

func TestBindSendReplyRoundTrip(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("USER", "tester")

	svc, err := Bind()
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer svc.Close()

	go func() {
		req := <-svc.Requests()
		_ = req.Reply([]byte("hello from daemon, command was " + req.Command.Kind.String()))
	}()

	cmd, err := transport.NewCommand(transport.KindStatus, "myapp")
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}

	var client Client
	reply, err := client.Send(cmd, time.Second)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	want := "hello from daemon, command was Status"
	if string(reply) != want {
		t.Fatalf("got %q, want %q", reply, want)
	}
}

func TestBindRefusesSecondInstance(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("USER", "tester")

	svc, err := Bind()
	if err != nil {
		t.Fatalf("first Bind: %v", err)
	}
	defer svc.Close()

	_, err = Bind()
	if _, ok := err.(ErrAlreadyRunning); !ok {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestSendFailsWithoutDaemon(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("USER", "tester")

	cmd, err := transport.NewCommand(transport.KindList, "")
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}

	var client Client
	_, err = client.Send(cmd, 100*time.Millisecond)
	if err == nil {
		t.Fatalf("expected error dialing a socket with no listener")
	}
}
