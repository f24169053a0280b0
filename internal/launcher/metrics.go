package launcher

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrInvalidPID is returned by Sample when pid names no running process.
type ErrInvalidPID struct{ PID int }

func (e ErrInvalidPID) Error() string { return fmt.Sprintf("invalid pid %d", e.PID) }

// MetricsSampler implements registry.MetricsSampler by summing CPU% and RSS
// over a process and all of its transitive descendants via a BFS of the
// system process table.
type MetricsSampler struct{}

// Sample returns the combined CPU percentage and resident memory, in bytes,
// of pid and every process reachable from it by repeatedly following
// Children().
func (MetricsSampler) Sample(pid int) (float64, uint64, error) {
	root, err := process.NewProcess(int32(pid))
	if err != nil {
		return 0, 0, ErrInvalidPID{PID: pid}
	}

	var totalCPU float64
	var totalRSS uint64

	queue := []*process.Process{root}
	seen := map[int32]bool{int32(pid): true}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		if cpu, err := p.CPUPercent(); err == nil {
			totalCPU += cpu
		}
		if mem, err := p.MemoryInfo(); err == nil && mem != nil {
			totalRSS += mem.RSS
		}

		children, err := p.Children()
		if err != nil {
			continue
		}
		for _, c := range children {
			if seen[c.Pid] {
				continue
			}
			seen[c.Pid] = true
			queue = append(queue, c)
		}
	}

	return totalCPU, totalRSS, nil
}
