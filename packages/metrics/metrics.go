// Package metrics aggregates request latencies for one collection run.
package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// RunMetrics collects per-request durations during a collection run.
// Latencies are tracked in microseconds from 1µs to 60s at 3 significant
// figures.
type RunMetrics struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
	requests  int64
	failures  int64
}

func NewRunMetrics() *RunMetrics {
	return &RunMetrics{
		histogram: hdrhistogram.New(1, 60_000_000, 3),
	}
}

func (m *RunMetrics) Record(d time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.histogram.RecordValue(d.Microseconds())
	m.requests++
	if failed {
		m.failures++
	}
}

// Summary is a point-in-time view of the run's latency distribution.
type Summary struct {
	Requests int64
	Failures int64
	Min      time.Duration
	Max      time.Duration
	Mean     time.Duration
	P50      time.Duration
	P95      time.Duration
	P99      time.Duration
}

func (m *RunMetrics) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Summary{
		Requests: m.requests,
		Failures: m.failures,
		Min:      time.Duration(m.histogram.Min()) * time.Microsecond,
		Max:      time.Duration(m.histogram.Max()) * time.Microsecond,
		Mean:     time.Duration(m.histogram.Mean()) * time.Microsecond,
		P50:      time.Duration(m.histogram.ValueAtQuantile(50)) * time.Microsecond,
		P95:      time.Duration(m.histogram.ValueAtQuantile(95)) * time.Microsecond,
		P99:      time.Duration(m.histogram.ValueAtQuantile(99)) * time.Microsecond,
	}
}
