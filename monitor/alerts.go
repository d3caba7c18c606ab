package monitor

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

// AlertRule decides when a streak of high-risk windows becomes an alert.
// Zero fields fall back to the defaults below.
type AlertRule struct {
	RiskThreshold float64
	Consecutive   int
	Cooldown      time.Duration
}

const (
	defaultRiskThreshold = 0.7
	defaultConsecutive   = 3
	defaultCooldown      = 5 * time.Minute
)

func (r AlertRule) normalized() AlertRule {
	if r.RiskThreshold <= 0 || r.RiskThreshold >= 1 {
		r.RiskThreshold = defaultRiskThreshold
	}
	if r.Consecutive <= 0 {
		r.Consecutive = defaultConsecutive
	}
	if r.Cooldown <= 0 {
		r.Cooldown = defaultCooldown
	}
	return r
}

// AlertMessage is broadcast when a session crosses the alert rule.
type AlertMessage struct {
	SessionID   string    `json:"session_id"`
	Level       string    `json:"level"`
	Message     string    `json:"message"`
	WindowIdx   int       `json:"window_idx"`
	RiskProb    float64   `json:"risk_prob"`
	Threshold   float64   `json:"threshold"`
	Consecutive int       `json:"consecutive"`
	Timestamp   time.Time `json:"timestamp"`
}

// AlertManager tracks per-session high-risk streaks and fires alerts
// through the hub. Hub and metrics may be nil.
type AlertManager struct {
	mu        sync.Mutex
	rule      AlertRule
	hub       *Hub
	metrics   *Metrics
	logger    *zap.Logger
	streaks   map[string]int
	lastFired map[string]time.Time
}

// NewAlertManager creates a manager with the given rule.
func NewAlertManager(rule AlertRule, hub *Hub, metrics *Metrics, logger *zap.Logger) *AlertManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertManager{
		rule:      rule.normalized(),
		hub:       hub,
		metrics:   metrics,
		logger:    logger,
		streaks:   make(map[string]int),
		lastFired: make(map[string]time.Time),
	}
}

// Rule returns the normalized rule in effect.
func (am *AlertManager) Rule() AlertRule {
	return am.rule
}

// Observe feeds one scored window into the streak tracker. It returns
// the alert that fired, or nil.
func (am *AlertManager) Observe(sessionID string, windowIdx int, risk float64) *AlertMessage {
	return am.observeAt(sessionID, windowIdx, risk, time.Now())
}

func (am *AlertManager) observeAt(sessionID string, windowIdx int, risk float64, now time.Time) *AlertMessage {
	am.mu.Lock()
	defer am.mu.Unlock()

	if risk <= am.rule.RiskThreshold {
		delete(am.streaks, sessionID)
		return nil
	}

	am.streaks[sessionID]++
	streak := am.streaks[sessionID]
	if streak < am.rule.Consecutive {
		return nil
	}

	// The streak keeps growing during cooldown so a persisting condition
	// fires again as soon as the window reopens.
	if last, ok := am.lastFired[sessionID]; ok && now.Sub(last) < am.rule.Cooldown {
		return nil
	}

	am.streaks[sessionID] = 0
	am.lastFired[sessionID] = now

	level := LevelWarning
	if risk >= (1+am.rule.RiskThreshold)/2 {
		level = LevelCritical
	}

	alert := &AlertMessage{
		SessionID:   sessionID,
		Level:       level,
		Message:     fmt.Sprintf("%d consecutive windows above risk %.2f", streak, am.rule.RiskThreshold),
		WindowIdx:   windowIdx,
		RiskProb:    risk,
		Threshold:   am.rule.RiskThreshold,
		Consecutive: streak,
		Timestamp:   now,
	}

	if am.metrics != nil {
		am.metrics.RecordAlert()
	}
	if am.hub != nil {
		if err := am.hub.Publish(TypeAlert, alert); err != nil {
			am.logger.Warn("failed to publish alert", zap.Error(err))
		}
	}
	am.logger.Warn("risk alert fired",
		zap.String("session_id", sessionID),
		zap.String("level", level),
		zap.Int("window_idx", windowIdx),
		zap.Float64("risk_prob", risk),
		zap.Int("consecutive", streak))

	return alert
}

// Reset clears the streak and cooldown state for a session.
func (am *AlertManager) Reset(sessionID string) {
	am.mu.Lock()
	defer am.mu.Unlock()

	delete(am.streaks, sessionID)
	delete(am.lastFired, sessionID)
}
