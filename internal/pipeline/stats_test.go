package pipeline

import (
	"errors"
	"testing"
	"time"
)

func TestConversionStats_Snapshot(t *testing.T) {
	stats := NewConversionStats(time.Hour)
	for _, ms := range []int64{300, 100, 500, 200, 400} {
		stats.Record(time.Duration(ms)*time.Millisecond, 1000, nil)
	}
	stats.Record(50*time.Millisecond, 0, errors.New("bad branding"))

	snap := stats.Snapshot()
	if snap.Completed != 5 || snap.Failed != 1 {
		t.Fatalf("expected 5 completed and 1 failed, got %d and %d", snap.Completed, snap.Failed)
	}
	if snap.OutputBytes != 5000 {
		t.Errorf("expected 5000 output bytes, got %d", snap.OutputBytes)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Errorf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Errorf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 || snap.P95Ms != 480 || snap.P99Ms != 496 {
		t.Errorf("expected p50/p95/p99 = 300/480/496, got %v/%v/%v", snap.P50Ms, snap.P95Ms, snap.P99Ms)
	}
	if snap.WindowSecs != 3600 {
		t.Errorf("expected window of 3600s, got %d", snap.WindowSecs)
	}
}

func TestConversionStats_Window(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stats := NewConversionStats(time.Minute)
	stats.now = func() time.Time { return now }

	stats.Record(100*time.Millisecond, 10, nil)
	stats.Record(0, 0, errors.New("timeout"))
	now = now.Add(2 * time.Minute)

	if snap := stats.Snapshot(); snap.Completed != 0 || snap.Failed != 0 {
		t.Fatalf("expected empty window, got %+v", snap)
	}

	stats.Record(200*time.Millisecond, 10, nil)
	snap := stats.Snapshot()
	if snap.Completed != 1 || snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected a single 200ms conversion, got %+v", snap)
	}
}

func TestConversionStats_NegativeDuration(t *testing.T) {
	stats := NewConversionStats(0)
	stats.Record(-10*time.Millisecond, 1, nil)
	snap := stats.Snapshot()
	if snap.Completed != 1 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got %+v", snap)
	}
}

func TestPercentileEdges(t *testing.T) {
	tests := []struct {
		values []int64
		pct    float64
		want   float64
	}{
		{nil, 50, 0},
		{[]int64{7}, 99, 7},
		{[]int64{1, 2}, 0, 1},
		{[]int64{1, 2}, 100, 2},
		{[]int64{0, 10}, 50, 5},
	}
	for _, tt := range tests {
		if got := percentile(tt.values, tt.pct); got != tt.want {
			t.Errorf("percentile(%v, %v): expected %v, got %v", tt.values, tt.pct, tt.want, got)
		}
	}
}
