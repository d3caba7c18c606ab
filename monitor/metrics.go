package monitor

import (
	"sync"
	"time"
)

// Metrics accumulates inference counters for the /api/metrics endpoint.
type Metrics struct {
	mu sync.RWMutex

	startTime       time.Time
	windowsScored   int64
	highRiskWindows int64
	alertsFired     int64
	inferenceTotal  time.Duration
	inferenceCount  int64
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordPredictions counts one classify call covering len(labels) windows.
func (m *Metrics) RecordPredictions(labels []int, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.windowsScored += int64(len(labels))
	for _, label := range labels {
		if label == 1 {
			m.highRiskWindows++
		}
	}
	m.inferenceTotal += elapsed
	m.inferenceCount++
}

// RecordAlert counts one fired alert.
func (m *Metrics) RecordAlert() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.alertsFired++
}

// Snapshot returns the current counters in a JSON-friendly map.
func (m *Metrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	highRiskRate := 0.0
	if m.windowsScored > 0 {
		highRiskRate = float64(m.highRiskWindows) / float64(m.windowsScored)
	}

	avgInferenceMs := 0.0
	if m.inferenceCount > 0 {
		avgInferenceMs = float64(m.inferenceTotal.Microseconds()) / 1000.0 / float64(m.inferenceCount)
	}

	return map[string]interface{}{
		"windows_scored":    m.windowsScored,
		"high_risk_windows": m.highRiskWindows,
		"high_risk_rate":    highRiskRate,
		"alerts_fired":      m.alertsFired,
		"avg_inference_ms":  avgInferenceMs,
		"uptime":            time.Since(m.startTime).String(),
	}
}
