package monitor

import (
	"testing"
	"time"
)

func TestMetricsSnapshotCounts(t *testing.T) {
	m := NewMetrics()
	m.RecordPredictions([]int{0, 1, 0}, 30*time.Millisecond)
	m.RecordPredictions([]int{1}, 10*time.Millisecond)
	m.RecordAlert()

	snap := m.Snapshot()
	if got := snap["windows_scored"].(int64); got != 4 {
		t.Fatalf("windows_scored = %d, want 4", got)
	}
	if got := snap["high_risk_windows"].(int64); got != 2 {
		t.Fatalf("high_risk_windows = %d, want 2", got)
	}
	if got := snap["high_risk_rate"].(float64); got != 0.5 {
		t.Fatalf("high_risk_rate = %v, want 0.5", got)
	}
	if got := snap["alerts_fired"].(int64); got != 1 {
		t.Fatalf("alerts_fired = %d, want 1", got)
	}
	if got := snap["avg_inference_ms"].(float64); got != 20.0 {
		t.Fatalf("avg_inference_ms = %v, want 20", got)
	}
	if snap["uptime"].(string) == "" {
		t.Fatal("empty uptime")
	}
}

func TestMetricsEmptySnapshot(t *testing.T) {
	snap := NewMetrics().Snapshot()
	if got := snap["windows_scored"].(int64); got != 0 {
		t.Fatalf("windows_scored = %d, want 0", got)
	}
	if got := snap["high_risk_rate"].(float64); got != 0 {
		t.Fatalf("high_risk_rate = %v, want 0", got)
	}
	if got := snap["avg_inference_ms"].(float64); got != 0 {
		t.Fatalf("avg_inference_ms = %v, want 0", got)
	}
}
