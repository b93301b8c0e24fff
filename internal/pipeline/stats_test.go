package pipeline

import (
	"testing"
	"time"
)

func TestAnalysisStatsSnapshotPercentiles(t *testing.T) {
	stats := NewAnalysisStats(time.Hour)
	for i := 1; i <= 5; i++ {
		stats.Record(time.Duration(i*100)*time.Millisecond, i)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.Keys != 15 {
		t.Fatalf("expected keys=15, got %d", snap.Keys)
	}
	if snap.MinMs != 100 {
		t.Fatalf("expected min=100, got %f", snap.MinMs)
	}
	if snap.MaxMs != 500 {
		t.Fatalf("expected max=500, got %f", snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestAnalysisStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewAnalysisStats(10 * time.Millisecond)
	stats.Record(100*time.Millisecond, 1)
	stats.RecordCacheHit()
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Count != 0 || snap.CacheHits != 0 {
		t.Fatalf("expected empty snapshot after prune, got count=%d hits=%d", snap.Count, snap.CacheHits)
	}

	stats.Record(200*time.Millisecond, 1)
	snap = stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%f max=%f", snap.MinMs, snap.MaxMs)
	}
}

func TestAnalysisStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewAnalysisStats(time.Hour)
	stats.Record(-time.Second, 0)

	snap := stats.Snapshot()
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration 0, got min=%f max=%f", snap.MinMs, snap.MaxMs)
	}
}

func TestPercentileEdges(t *testing.T) {
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("expected 0 for empty input, got %f", got)
	}
	values := []float64{1, 2, 3}
	if got := percentile(values, 0); got != 1 {
		t.Errorf("expected p0=1, got %f", got)
	}
	if got := percentile(values, 100); got != 3 {
		t.Errorf("expected p100=3, got %f", got)
	}
}
