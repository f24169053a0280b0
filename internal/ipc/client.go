package ipc

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"bpm/internal/paths"
	"bpm/internal/transport"
)

// ErrTimedOut is returned by Client.Send when no is_last chunk is observed
// before the caller's timeout elapses.
type ErrTimedOut struct{}

func (ErrTimedOut) Error() string { return "transport: timed out waiting for reply" }

// pollInterval is the idle sleep between reply-chunk drains, per the
// framing contract's 10 ms poll.
const pollInterval = 10 * time.Millisecond

// Client connects to the daemon's socket, sends one Command and collects
// its framed reply.
type Client struct{}

// Send dials the per-user daemon socket, writes cmd's wire encoding, then
// collects and reassembles the chunked reply within timeout.
func (Client) Send(cmd transport.Command, timeout time.Duration) ([]byte, error) {
	sockPath, err := socketPath()
	if err != nil {
		return nil, err
	}

	conn, err := net.DialTimeout("unix", sockPath, timeout)
	if err != nil {
		return nil, fmt.Errorf("ipc: dial %s: %w", sockPath, err)
	}
	defer conn.Close()

	wire, err := cmd.MarshalWire()
	if err != nil {
		return nil, fmt.Errorf("ipc: encode command: %w", err)
	}
	if _, err := conn.Write(wire[:]); err != nil {
		return nil, fmt.Errorf("ipc: send command: %w", err)
	}

	return receiveReply(conn, timeout)
}

func receiveReply(conn net.Conn, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	var chunks []transport.MessageChunk
	haveLast := false

	for time.Now().Before(deadline) {
		if err := conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			return nil, fmt.Errorf("ipc: set read deadline: %w", err)
		}

		var wire [transport.MaxPayloadSize]byte
		_, err := readFullOrTimeout(conn, wire[:])
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if haveLast {
				break
			}
			continue
		}

		chunk := transport.UnmarshalChunkBinary(wire)
		chunks = append(chunks, chunk)
		if chunk.IsLast {
			haveLast = true
			break
		}
		time.Sleep(pollInterval)
	}

	if !haveLast {
		return nil, ErrTimedOut{}
	}
	return transport.Reassemble(chunks)
}

func readFullOrTimeout(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

func socketPath() (string, error) {
	runtimeDir, err := paths.RuntimeDir()
	if err != nil {
		return "", fmt.Errorf("ipc: resolve runtime dir: %w", err)
	}
	user := os.Getenv("USER")
	if user == "" {
		user = "default"
	}
	return filepath.Join(runtimeDir, user+".sock"), nil
}
