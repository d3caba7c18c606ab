package monitor

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultMaxSessions       = 256
	defaultWindowsPerSession = 512
)

// WindowResult is one scored window kept in the in-memory history.
type WindowResult struct {
	WindowIdx int       `json:"window_idx"`
	RiskProb  float64   `json:"risk_prob"`
	Label     int       `json:"label"`
	At        time.Time `json:"at"`
}

// History keeps the most recent results per session, evicting the least
// recently used session when the cap is reached.
type History struct {
	mu         sync.Mutex
	cache      *lru.Cache[string, []WindowResult]
	perSession int
}

// NewHistory creates a history holding up to maxSessions sessions with
// perSession windows each. Non-positive caps use the defaults.
func NewHistory(maxSessions, perSession int) (*History, error) {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	if perSession <= 0 {
		perSession = defaultWindowsPerSession
	}

	cache, err := lru.New[string, []WindowResult](maxSessions)
	if err != nil {
		return nil, err
	}
	return &History{cache: cache, perSession: perSession}, nil
}

// Append records results for a session, trimming the oldest windows
// beyond the per-session cap.
func (h *History) Append(sessionID string, results ...WindowResult) {
	if len(results) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	existing, _ := h.cache.Get(sessionID)
	next := append(existing, results...)
	if len(next) > h.perSession {
		next = append([]WindowResult(nil), next[len(next)-h.perSession:]...)
	}
	h.cache.Add(sessionID, next)
}

// Get returns a copy of the recorded results for a session, oldest
// first, or nil when the session is unknown or evicted.
func (h *History) Get(sessionID string) []WindowResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	results, ok := h.cache.Get(sessionID)
	if !ok {
		return nil
	}
	return append([]WindowResult(nil), results...)
}

// Sessions lists tracked session IDs from least to most recently used.
func (h *History) Sessions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cache.Keys()
}

// Len reports the number of tracked sessions.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cache.Len()
}
