package logmanager

import (
	"bufio"
	"io"
	"os"
	"time"
)

const streamPollInterval = 200 * time.Millisecond

// Stream follows path from fromOffset, emitting each newly appended line on
// the returned channel. If the file's length drops below the tracked
// offset — a rotation — the offset resets to 0 and streaming continues from
// the start of the new file. The returned func stops the stream and closes
// the channel.
func Stream(path string, fromOffset int64) (<-chan string, func()) {
	out := make(chan string)
	done := make(chan struct{})

	go func() {
		defer close(out)
		offset := fromOffset
		ticker := time.NewTicker(streamPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}

			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.Size() < offset {
				offset = 0
			}
			if info.Size() <= offset {
				continue
			}

			f, err := os.Open(path)
			if err != nil {
				continue
			}
			if _, err := f.Seek(offset, io.SeekStart); err != nil {
				f.Close()
				continue
			}

			scanner := bufio.NewScanner(f)
			var read int64
			for scanner.Scan() {
				line := scanner.Text()
				read += int64(len(line)) + 1
				select {
				case out <- line:
				case <-done:
					f.Close()
					return
				}
			}
			offset += read
			f.Close()
		}
	}()

	stop := func() {
		close(done)
	}
	return out, stop
}
