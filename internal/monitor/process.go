package monitor

import (
	"fmt"
	"strings"
)

// Metric selects the figure a ranked view is ordered by.
type Metric int

const (
	MetricCPU Metric = iota
	MetricMemory
	MetricGPU
	MetricName
)

func (m Metric) String() string {
	switch m {
	case MetricCPU:
		return "cpu"
	case MetricMemory:
		return "memory"
	case MetricGPU:
		return "gpu"
	case MetricName:
		return "name"
	default:
		return "unknown"
	}
}

// ParseMetric accepts the names used on the command line and in the API.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cpu":
		return MetricCPU, nil
	case "mem", "memory", "ram":
		return MetricMemory, nil
	case "gpu":
		return MetricGPU, nil
	case "name", "alpha", "alphabetical":
		return MetricName, nil
	default:
		return MetricCPU, fmt.Errorf("unknown metric %q", s)
	}
}

// ProcessRecord is the identity of one observed process.
type ProcessRecord struct {
	PID         int    `json:"pid"`
	Name        string `json:"name"`
	Owner       string `json:"owner,omitempty"`
	ExePath     string `json:"exe_path,omitempty"`
	SystemOwned bool   `json:"system_owned"`
	// CreateTime is the process start time in ms since epoch. Together with
	// Name it tells a recycled pid apart from the process seen before.
	CreateTime int64 `json:"create_time"`
}

// SameProcess reports whether o describes the same OS process as r.
func (r ProcessRecord) SameProcess(o ProcessRecord) bool {
	return r.PID == o.PID && r.CreateTime == o.CreateTime && strings.EqualFold(r.Name, o.Name)
}

// DisplayName is the name with the system-owned annotation, for output only.
func (r ProcessRecord) DisplayName() string {
	if r.SystemOwned {
		return r.Name + " (SYSTEM)"
	}
	return r.Name
}

// UsageSample is one poll's reading for one process. CPU is a percentage of a
// single logical core; Memory is a percentage of physical memory.
type UsageSample struct {
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory"`
}

// Observation is what the snapshot source yields per live process. Sample is
// nil on the first sighting of a pid while its CPU baseline is primed.
type Observation struct {
	Record ProcessRecord
	Sample *UsageSample
	GPU    *float64
}

// Usage is the smoothed view of a process.
type Usage struct {
	CPU     float64  `json:"cpu"`
	Memory  float64  `json:"memory"`
	GPU     *float64 `json:"gpu,omitempty"`
	Samples int      `json:"samples"`
}

// Entry pairs a tracked record with its smoothed usage.
type Entry struct {
	Record ProcessRecord `json:"record"`
	Usage  Usage         `json:"usage"`
}

// FormatEntryLine formats an entry for text output.
func FormatEntryLine(e Entry, verdict string) string {
	gpu := "   N/A"
	if e.Usage.GPU != nil {
		gpu = fmt.Sprintf("%5.1f%%", *e.Usage.GPU)
	}
	return fmt.Sprintf("%7d %-32s %-14s %6.1f%% %6.1f%% %s %-11s",
		e.Record.PID, truncate(e.Record.DisplayName(), 32), truncate(e.Record.Owner, 14),
		e.Usage.CPU, e.Usage.Memory, gpu, verdict)
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
