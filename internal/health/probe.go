// Package health implements the stateless HTTP/TCP/command liveness probes
// the monitor loop invokes against running records.
package health

import (
	"bufio"
	"fmt"
	"net"
	"net/url"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"bpm/internal/registry"
)

// Check runs a single probe of the given kind against target (and args, for
// ProbeCommand) bounded by timeout, and returns the resulting tri-valued
// status. Check is stateless and safe to call concurrently.
func Check(kind registry.ProbeKind, target string, args []string, expectStatus *int, timeout time.Duration) registry.HealthStatus {
	switch kind {
	case registry.ProbeHTTP:
		return checkHTTP(target, expectStatus, timeout)
	case registry.ProbeTCP:
		return checkTCP(target, timeout)
	case registry.ProbeCommand:
		return checkCommand(target, args, timeout)
	default:
		return unhealthy(fmt.Sprintf("unknown probe kind %q", kind))
	}
}

func unhealthy(reason string) registry.HealthStatus {
	return registry.HealthStatus{State: registry.HealthUnhealthy, Reason: reason}
}

func healthy() registry.HealthStatus {
	return registry.HealthStatus{State: registry.HealthHealthy}
}

// checkHTTP speaks a minimal HTTP/1.1 GET directly over a raw TCP socket
// rather than going through net/http's client, matching the probe's literal
// "open TCP with timeout; send raw request line" contract.
func checkHTTP(rawURL string, expectStatus *int, timeout time.Duration) registry.HealthStatus {
	u, err := url.Parse(rawURL)
	if err != nil {
		return unhealthy(fmt.Sprintf("invalid url: %v", err))
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "80"
	}
	path := u.RequestURI()
	if path == "" {
		path = "/"
	}

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), timeout)
	if err != nil {
		return unhealthy(fmt.Sprintf("connect failed: %v", err))
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if err := conn.SetDeadline(deadline); err != nil {
		return unhealthy(fmt.Sprintf("set deadline: %v", err))
	}

	req := fmt.Sprintf("GET %s HTTP/1.1\r\nHost: %s\r\nConnection: close\r\n\r\n", path, host)
	if _, err := conn.Write([]byte(req)); err != nil {
		return unhealthy(fmt.Sprintf("write request: %v", err))
	}

	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		return unhealthy(fmt.Sprintf("read response: %v", err))
	}
	// Drain the rest of the response so the connection closes cleanly.
	for {
		if _, err := reader.Discard(4096); err != nil {
			break
		}
	}

	code, err := parseStatusCode(statusLine)
	if err != nil {
		return unhealthy(err.Error())
	}

	if expectStatus != nil {
		if code == *expectStatus {
			return healthy()
		}
		return unhealthy(fmt.Sprintf("status %d, expected %d", code, *expectStatus))
	}
	if code >= 200 && code < 400 {
		return healthy()
	}
	return unhealthy(fmt.Sprintf("status %d", code))
}

func parseStatusCode(statusLine string) (int, error) {
	fields := strings.Fields(statusLine)
	if len(fields) < 2 {
		return 0, fmt.Errorf("malformed status line %q", strings.TrimSpace(statusLine))
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("malformed status code %q", fields[1])
	}
	return code, nil
}

func checkTCP(hostPort string, timeout time.Duration) registry.HealthStatus {
	conn, err := net.DialTimeout("tcp", hostPort, timeout)
	if err != nil {
		return unhealthy(fmt.Sprintf("connect failed: %v", err))
	}
	conn.Close()
	return healthy()
}

func checkCommand(cmd string, args []string, timeout time.Duration) registry.HealthStatus {
	start := time.Now()
	c := exec.Command(cmd, args...)
	err := c.Run()
	elapsed := time.Since(start)

	if elapsed > timeout {
		return unhealthy("timed out")
	}
	if err != nil {
		return unhealthy(err.Error())
	}
	return healthy()
}
