package monitor

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemMetrics holds machine-wide figures shown next to the process table.
type SystemMetrics struct {
	CPUPercent  float64 `json:"cpu_percent"`
	Cores       int     `json:"cores"`
	MemTotalMB  float64 `json:"mem_total_mb"`
	MemUsedMB   float64 `json:"mem_used_mb"`
	MemPercent  float64 `json:"mem_percent"`
	LoadAvg1    float64 `json:"load_avg_1"`
	LoadAvg5    float64 `json:"load_avg_5"`
	LoadAvg15   float64 `json:"load_avg_15"`
	UptimeSecs  uint64  `json:"uptime_secs"`
	NumProcs    int     `json:"num_procs"`
	TrackedCPU  float64 `json:"tracked_cpu"`
	PollSamples int     `json:"poll_samples"`
}

// GetSystemMetrics gathers system-wide figures. Individual failures leave the
// matching fields zero.
func GetSystemMetrics(ctx context.Context) *SystemMetrics {
	m := &SystemMetrics{}

	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		m.Cores = n
	}
	// Zero interval compares against the previous call.
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		m.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		m.MemTotalMB = float64(vm.Total) / 1024 / 1024
		m.MemUsedMB = float64(vm.Used) / 1024 / 1024
		m.MemPercent = vm.UsedPercent
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		m.LoadAvg1 = avg.Load1
		m.LoadAvg5 = avg.Load5
		m.LoadAvg15 = avg.Load15
	}
	if up, err := host.UptimeWithContext(ctx); err == nil {
		m.UptimeSecs = up
	}
	return m
}
