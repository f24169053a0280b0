package logmanager

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

const tailChunkSize = 32 * 1024

// Tail returns the last n lines of path, oldest first. A missing file
// yields an empty slice rather than an error.
func Tail(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("logmanager: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("logmanager: stat %s: %w", path, err)
	}

	var lines []string
	var remainder []byte
	off := info.Size()

	for off > 0 && len(lines) <= n {
		toRead := tailChunkSize
		if int64(toRead) > off {
			toRead = int(off)
		}
		off -= int64(toRead)

		buf := make([]byte, toRead)
		if _, err := f.ReadAt(buf, off); err != nil && err != io.EOF {
			break
		}

		seg := append(buf, remainder...)
		parts := splitLines(seg)
		if len(parts) == 0 {
			continue
		}
		remainder = []byte(parts[0])
		for i := len(parts) - 1; i >= 1; i-- {
			lines = append(lines, parts[i])
			if len(lines) >= n {
				break
			}
		}
	}
	if len(remainder) > 0 && len(lines) < n {
		lines = append(lines, string(remainder))
	}

	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

func splitLines(b []byte) []string {
	s := bufio.NewScanner(bytes.NewReader(b))
	s.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	var out []string
	for s.Scan() {
		out = append(out, s.Text())
	}
	return out
}
