package pipeline

import (
	"slices"
	"sync"
	"time"
)

// outcome is one finished conversion.
type outcome struct {
	at     time.Time
	took   time.Duration
	bytes  int
	failed bool
}

// StatsSnapshot aggregates the conversions inside the window. Latency
// figures cover successful conversions only.
type StatsSnapshot struct {
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	OutputBytes int64   `json:"output_bytes"`
	MinMs       int64   `json:"min_ms"`
	MaxMs       int64   `json:"max_ms"`
	AvgMs       float64 `json:"avg_ms"`
	P50Ms       float64 `json:"p50_ms"`
	P95Ms       float64 `json:"p95_ms"`
	P99Ms       float64 `json:"p99_ms"`
	WindowSecs  int64   `json:"window_seconds"`
}

// ConversionStats records conversion outcomes over a rolling window.
type ConversionStats struct {
	mu       sync.Mutex
	outcomes []outcome
	window   time.Duration
	now      func() time.Time
}

func NewConversionStats(window time.Duration) *ConversionStats {
	if window <= 0 {
		window = time.Hour
	}
	return &ConversionStats{window: window, now: time.Now}
}

// Record adds a finished conversion. A non-nil err counts as a failure
// and size is ignored.
func (s *ConversionStats) Record(took time.Duration, size int, err error) {
	o := outcome{took: max(took, 0), bytes: size, failed: err != nil}

	s.mu.Lock()
	defer s.mu.Unlock()
	o.at = s.now()
	s.pruneLocked(o.at)
	s.outcomes = append(s.outcomes, o)
}

func (s *ConversionStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())

	snap := StatsSnapshot{WindowSecs: int64(s.window / time.Second)}
	var (
		latencies []int64
		total     int64
	)
	for _, o := range s.outcomes {
		if o.failed {
			snap.Failed++
			continue
		}
		ms := o.took.Milliseconds()
		latencies = append(latencies, ms)
		total += ms
		snap.OutputBytes += int64(o.bytes)
	}
	snap.Completed = len(latencies)
	if snap.Completed == 0 {
		return snap
	}

	slices.Sort(latencies)
	snap.MinMs = latencies[0]
	snap.MaxMs = latencies[len(latencies)-1]
	snap.AvgMs = float64(total) / float64(len(latencies))
	snap.P50Ms = percentile(latencies, 50)
	snap.P95Ms = percentile(latencies, 95)
	snap.P99Ms = percentile(latencies, 99)
	return snap
}

// pruneLocked drops outcomes older than the window. Outcomes are kept in
// arrival order, so the expired ones form a prefix.
func (s *ConversionStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.outcomes) && s.outcomes[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.outcomes = slices.Delete(s.outcomes, 0, i)
	}
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	a, b := float64(sorted[lo]), float64(sorted[lo+1])
	return a + (b-a)*(rank-float64(lo))
}
