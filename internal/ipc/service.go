// Package ipc binds the daemon's request/reply channel to a host-local
// Unix-domain socket and guards it with a flock-protected pid file so a
// second daemon invocation can detect the first unambiguously.
package ipc

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"

	"bpm/internal/paths"
	"bpm/internal/transport"
)

// ErrAlreadyRunning is returned by Bind when another daemon already holds
// the per-user pid-file lock.
type ErrAlreadyRunning struct{}

func (ErrAlreadyRunning) Error() string { return "another instance is already running" }

// Request is one decoded command awaiting a reply.
type Request struct {
	Command transport.Command
	conn    net.Conn
}

// Reply sends body back to the client that issued req, framed per the
// transport's chunking contract, then closes the connection.
func (r *Request) Reply(body []byte) error {
	defer r.conn.Close()
	for _, chunk := range transport.Split(body) {
		wire := chunk.MarshalBinary()
		if _, err := r.conn.Write(wire[:]); err != nil {
			return fmt.Errorf("ipc: write reply chunk: %w", err)
		}
	}
	return nil
}

// Service owns the bound socket and its companion lock file.
type Service struct {
	listener net.Listener
	lock     *flock.Flock
	sockPath string
	lockPath string
	requests chan *Request
	done     chan struct{}
}

// Bind acquires the per-user daemon lock and starts listening on the
// per-user socket, refusing to start if another daemon already holds the
// lock.
func Bind() (*Service, error) {
	runtimeDir, err := paths.RuntimeDir()
	if err != nil {
		return nil, fmt.Errorf("ipc: resolve runtime dir: %w", err)
	}

	user := os.Getenv("USER")
	if user == "" {
		user = "default"
	}
	lockPath := filepath.Join(runtimeDir, user+".pid")
	sockPath := filepath.Join(runtimeDir, user+".sock")

	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("ipc: acquire lock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning{}
	}

	if err := os.Remove(sockPath); err != nil && !os.IsNotExist(err) {
		lock.Unlock()
		return nil, fmt.Errorf("ipc: remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("ipc: listen on %s: %w", sockPath, err)
	}

	if err := os.WriteFile(lockPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		ln.Close()
		lock.Unlock()
		return nil, fmt.Errorf("ipc: write pid file: %w", err)
	}

	svc := &Service{
		listener: ln,
		lock:     lock,
		sockPath: sockPath,
		lockPath: lockPath,
		requests: make(chan *Request),
		done:     make(chan struct{}),
	}
	go svc.acceptLoop()
	return svc, nil
}

func (s *Service) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}
		go s.readRequest(conn)
	}
}

func (s *Service) readRequest(conn net.Conn) {
	var wire [1 + transport.CAP]byte
	if _, err := readFull(conn, wire[:]); err != nil {
		conn.Close()
		return
	}
	cmd := transport.UnmarshalCommandWire(wire)
	select {
	case s.requests <- &Request{Command: cmd, conn: conn}:
	case <-s.done:
		conn.Close()
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
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

// Requests returns the channel new incoming requests are delivered on.
func (s *Service) Requests() <-chan *Request {
	return s.requests
}

// Close stops accepting connections and releases the socket and lock file.
func (s *Service) Close() error {
	close(s.done)
	s.listener.Close()
	s.lock.Unlock()
	os.Remove(s.sockPath)
	os.Remove(s.lockPath)
	return nil
}
