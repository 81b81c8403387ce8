package monitor

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// GPUSource reports per-process GPU utilisation as a percentage. Pids missing
// from the map have no reading.
type GPUSource interface {
	Usage(ctx context.Context) (map[int]float64, error)
}

// NvidiaSMI samples GPU utilisation with `nvidia-smi pmon`.
type NvidiaSMI struct {
	Binary string
}

// NewNvidiaSMI returns a sampler, or nil when nvidia-smi is not installed.
func NewNvidiaSMI() *NvidiaSMI {
	path, err := exec.LookPath("nvidia-smi")
	if err != nil {
		return nil
	}
	return &NvidiaSMI{Binary: path}
}

// Usage implements GPUSource.
func (n *NvidiaSMI) Usage(ctx context.Context) (map[int]float64, error) {
	out, err := exec.CommandContext(ctx, n.Binary, "pmon", "-c", "1", "-s", "u").Output()
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi pmon: %w", err)
	}
	return parsePmon(string(out)), nil
}

// parsePmon reads `gpu pid type sm mem enc dec command` rows. A pid listed on
// several GPUs gets the sum of its readings.
func parsePmon(out string) map[int]float64 {
	usage := make(map[int]float64)
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		pid, err := strconv.Atoi(fields[1])
		if err != nil || pid <= 0 {
			continue
		}
		sm, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			continue
		}
		usage[pid] += sm
	}
	return usage
}
