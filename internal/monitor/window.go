package monitor

// DefaultWindowSize is the number of samples averaged per process.
const DefaultWindowSize = 3

// RollingWindow is a fixed-capacity FIFO of usage samples.
type RollingWindow struct {
	samples  []UsageSample
	capacity int
}

// NewRollingWindow creates an empty window. Capacities below 1 become 1.
func NewRollingWindow(capacity int) *RollingWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &RollingWindow{
		samples:  make([]UsageSample, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a sample, evicting the oldest one past capacity.
func (w *RollingWindow) Push(s UsageSample) {
	if len(w.samples) == w.capacity {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:len(w.samples)-1]
	}
	w.samples = append(w.samples, s)
}

// Len returns the number of samples present.
func (w *RollingWindow) Len() int {
	return len(w.samples)
}

// Mean returns the arithmetic mean of the present samples. An empty window has
// no mean.
func (w *RollingWindow) Mean() (UsageSample, bool) {
	if len(w.samples) == 0 {
		return UsageSample{}, false
	}
	var sum UsageSample
	for _, s := range w.samples {
		sum.CPU += s.CPU
		sum.Memory += s.Memory
	}
	n := float64(len(w.samples))
	return UsageSample{CPU: sum.CPU / n, Memory: sum.Memory / n}, true
}
