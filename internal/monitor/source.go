package monitor

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// Source produces one snapshot of the live process table per call.
type Source interface {
	// Sample enumerates live processes. The returned sequence is single-use.
	// Processes that vanish or deny access while being read are skipped.
	Sample(ctx context.Context) (iter.Seq[Observation], error)
}

type cpuBaseline struct {
	createTime int64
	total      float64 // user+system seconds
	at         time.Time
}

// PsutilSource reads the process table through gopsutil. CPU usage is derived
// from the change in cumulative CPU time between consecutive calls, so the
// first sighting of a pid carries no sample.
type PsutilSource struct {
	mu        sync.Mutex
	baselines map[int32]cpuBaseline
	cores     int
	gpu       GPUSource
	now       func() time.Time
}

// NewPsutilSource creates a source. gpu may be nil.
func NewPsutilSource(gpu GPUSource) *PsutilSource {
	cores, err := cpu.Counts(true)
	if err != nil || cores < 1 {
		cores = runtime.NumCPU()
	}
	return &PsutilSource{
		baselines: make(map[int32]cpuBaseline),
		cores:     cores,
		gpu:       gpu,
		now:       time.Now,
	}
}

// Cores returns the logical core count used to bound CPU readings.
func (s *PsutilSource) Cores() int {
	return s.cores
}

// Sample implements Source.
func (s *PsutilSource) Sample(ctx context.Context) (iter.Seq[Observation], error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	var gpu map[int]float64
	if s.gpu != nil {
		// GPU data is optional enrichment; a failing read leaves it absent.
		gpu, _ = s.gpu.Usage(ctx)
	}

	return func(yield func(Observation) bool) {
		s.mu.Lock()
		defer s.mu.Unlock()

		seen := make(map[int32]struct{}, len(pids))
		complete := true
		for _, pid := range pids {
			if ctx.Err() != nil {
				return
			}
			obs, ok := s.observe(ctx, pid)
			if !ok {
				continue
			}
			seen[pid] = struct{}{}
			if v, ok := gpu[int(pid)]; ok {
				v := v
				obs.GPU = &v
			}
			if !yield(obs) {
				complete = false
				break
			}
		}
		if complete {
			for pid := range s.baselines {
				if _, ok := seen[pid]; !ok {
					delete(s.baselines, pid)
				}
			}
		}
	}, nil
}

func (s *PsutilSource) observe(ctx context.Context, pid int32) (Observation, bool) {
	if pid == 0 {
		return Observation{}, false
	}
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return Observation{}, false
	}
	name, err := p.NameWithContext(ctx)
	if err != nil || name == "" {
		return Observation{}, false
	}
	created, err := p.CreateTimeWithContext(ctx)
	if err != nil {
		return Observation{}, false
	}

	rec := ProcessRecord{PID: int(pid), Name: name, CreateTime: created}
	if owner, err := p.UsernameWithContext(ctx); err == nil {
		rec.Owner = owner
	}
	if exe, err := p.ExeWithContext(ctx); err == nil {
		rec.ExePath = exe
	}
	rec.SystemOwned = IsSystemOwned(rec.Name, rec.Owner, rec.ExePath)

	obs := Observation{Record: rec}

	times, err := p.TimesWithContext(ctx)
	if err != nil {
		if isGone(err) {
			return Observation{}, false
		}
		return obs, true
	}
	cur := cpuBaseline{createTime: created, total: times.User + times.System, at: s.now()}
	prev, known := s.baselines[pid]
	s.baselines[pid] = cur
	if !known || prev.createTime != created {
		return obs, true
	}

	mem, err := p.MemoryPercentWithContext(ctx)
	if err != nil {
		return obs, true
	}
	obs.Sample = &UsageSample{
		CPU:    cpuPercent(prev, cur, s.cores),
		Memory: float64(mem),
	}
	return obs, true
}

// cpuPercent converts a CPU time delta into a percentage of one core, bounded
// to [0, cores*100].
func cpuPercent(prev, cur cpuBaseline, cores int) float64 {
	elapsed := cur.at.Sub(prev.at).Seconds()
	if elapsed <= 0 {
		return 0
	}
	pct := (cur.total - prev.total) / elapsed * 100
	upper := float64(cores) * 100
	switch {
	case pct < 0:
		return 0
	case pct > upper:
		return upper
	}
	return pct
}

func isGone(err error) bool {
	return errors.Is(err, process.ErrorProcessNotRunning)
}
