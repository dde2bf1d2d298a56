// Package observability exposes process self-stats for the debug
// endpoint.
package observability

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

type ProcessStats struct {
	PID           int32   `json:"pid"`
	RSSMb         uint64  `json:"rss_mb"`
	CPUPercent    float64 `json:"cpu_percent"`
	AllocMemMb    uint64  `json:"alloc_mem_mb"`
	NumGC         uint32  `json:"num_gc"`
	Goroutines    int     `json:"goroutines"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

// Collector samples the running process. One instance per process.
type Collector struct {
	proc    *process.Process
	started time.Time
}

func NewCollector() (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Collector{proc: proc, started: time.Now()}, nil
}

// Snapshot returns current memory, CPU, and runtime counters.
func (c *Collector) Snapshot() (ProcessStats, error) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := ProcessStats{
		PID:           c.proc.Pid,
		AllocMemMb:    memStats.Alloc / 1024 / 1024,
		NumGC:         memStats.NumGC,
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(c.started).Seconds()),
	}

	if mem, err := c.proc.MemoryInfo(); err == nil {
		stats.RSSMb = mem.RSS / 1024 / 1024
	}
	if cpu, err := c.proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	return stats, nil
}
