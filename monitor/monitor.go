// Package monitor tracks live classification activity: inference
// counters, per-session history, streak-based risk alerts, and a
// websocket hub pushing updates to connected dashboards.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const heartbeatInterval = 30 * time.Second

// Config sizes the monitor and sets the alert rule.
type Config struct {
	Alert             AlertRule
	MaxSessions       int
	WindowsPerSession int
}

// Monitor bundles the hub, metrics, alert manager, and history behind
// one facade used by the HTTP layer.
type Monitor struct {
	hub     *Hub
	metrics *Metrics
	alerts  *AlertManager
	history *History
	logger  *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	running bool
}

// New creates a stopped monitor.
func New(cfg Config, logger *zap.Logger) (*Monitor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	history, err := NewHistory(cfg.MaxSessions, cfg.WindowsPerSession)
	if err != nil {
		return nil, fmt.Errorf("create session history: %w", err)
	}

	hub := NewHub(logger)
	metrics := NewMetrics()
	ctx, cancel := context.WithCancel(context.Background())

	return &Monitor{
		hub:     hub,
		metrics: metrics,
		alerts:  NewAlertManager(cfg.Alert, hub, metrics, logger),
		history: history,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start launches the hub loop and the heartbeat.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("monitor is already running")
	}

	go m.hub.Start()
	go m.heartbeatLoop()

	m.running = true
	m.logger.Info("monitor started")
	return nil
}

// Stop shuts down the hub and the heartbeat.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return fmt.Errorf("monitor is not running")
	}

	m.running = false
	m.cancel()
	m.hub.Stop()

	m.logger.Info("monitor stopped")
	return nil
}

// RecordPredictions counts a one-shot classify call with no session.
func (m *Monitor) RecordPredictions(labels []int, elapsed time.Duration) {
	m.metrics.RecordPredictions(labels, elapsed)
}

// RecordSession records scored windows for a session: counters, history,
// a risk update per window, and alert evaluation. It returns the alerts
// that fired.
func (m *Monitor) RecordSession(sessionID string, startIdx int, risks []float64, labels []int, elapsed time.Duration) []AlertMessage {
	m.metrics.RecordPredictions(labels, elapsed)

	now := time.Now()
	results := make([]WindowResult, len(risks))
	for i, risk := range risks {
		results[i] = WindowResult{
			WindowIdx: startIdx + i,
			RiskProb:  risk,
			Label:     labels[i],
			At:        now,
		}
	}
	m.history.Append(sessionID, results...)

	fired := make([]AlertMessage, 0)
	for _, r := range results {
		update := RiskUpdateMessage{
			SessionID: sessionID,
			WindowIdx: r.WindowIdx,
			RiskProb:  r.RiskProb,
			Label:     r.Label,
			Timestamp: r.At,
		}
		if err := m.hub.Publish(TypeRiskUpdate, update); err != nil {
			m.logger.Warn("failed to publish risk update", zap.Error(err))
		}

		if alert := m.alerts.Observe(sessionID, r.WindowIdx, r.RiskProb); alert != nil {
			fired = append(fired, *alert)
		}
	}
	return fired
}

// PublishStatus broadcasts a component state change.
func (m *Monitor) PublishStatus(component, status, message string) {
	payload := SystemStatusMessage{
		Component: component,
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	}
	if err := m.hub.Publish(TypeSystemStatus, payload); err != nil {
		m.logger.Warn("failed to publish system status", zap.Error(err))
	}
}

// Snapshot merges inference counters with hub and history gauges.
func (m *Monitor) Snapshot() map[string]interface{} {
	snap := m.metrics.Snapshot()
	snap["connected_clients"] = m.hub.ClientCount()
	snap["tracked_sessions"] = m.history.Len()
	return snap
}

// Hub exposes the websocket hub for the /api/ws handler.
func (m *Monitor) Hub() *Hub {
	return m.hub
}

// Metrics exposes the counter collector.
func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

// History exposes the per-session result history.
func (m *Monitor) History() *History {
	return m.history
}

func (m *Monitor) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			beat := HeartbeatMessage{Timestamp: time.Now(), Status: "alive"}
			if err := m.hub.Publish(TypeHeartbeat, beat); err != nil {
				m.logger.Warn("failed to publish heartbeat", zap.Error(err))
			}
		case <-m.ctx.Done():
			return
		}
	}
}
