package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"pulsewatch/monitor"
	"pulsewatch/msrf"
	"pulsewatch/registry"
	"pulsewatch/store"
)

// Handlers binds the API routes to the model registry and monitor.
type Handlers struct {
	registry *registry.Registry
	monitor  *monitor.Monitor
	logger   *zap.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(reg *registry.Registry, mon *monitor.Monitor, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{registry: reg, monitor: mon, logger: logger}
}

// Register installs all API routes on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/model", h.handleModel)
	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("POST /api/predict/batch", h.handlePredictBatch)
	mux.HandleFunc("POST /api/sessions/{id}/classify", h.handleClassifySession)
	mux.HandleFunc("GET /api/sessions/{id}/history", h.handleSessionHistory)
	mux.HandleFunc("GET /api/metrics", h.handleMetrics)
	mux.HandleFunc("GET /api/ws", h.handleWebSocket)
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

type batchRequest struct {
	Windows [][]float64 `json:"windows"`
}

type classifyRequest struct {
	Subject  string      `json:"subject"`
	StartIdx int         `json:"start_idx"`
	Windows  [][]float64 `json:"windows"`
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, err := h.registry.Current()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"model_loaded": err == nil,
	})
}

func (h *Handlers) handleModel(w http.ResponseWriter, r *http.Request) {
	bundle, ok := h.currentBundle(w)
	if !ok {
		return
	}

	clf := bundle.Classifier
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"n_states":   clf.NStates(),
		"mode":       clf.Mode(),
		"n_features": clf.NFeatures(),
		"model_dir":  bundle.Dir,
		"loaded_at":  bundle.LoadedAt,
	})
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bundle, ok := h.currentBundle(w)
	if !ok {
		return
	}
	threshold, ok := parseThreshold(w, r)
	if !ok {
		return
	}

	start := time.Now()
	probs, err := bundle.Classifier.PredictProba(req.Features)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	label := 0
	if probs[1] > threshold {
		label = 1
	}
	h.monitor.RecordPredictions([]int{label}, time.Since(start))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stable_prob": probs[0],
		"risk_prob":   probs[1],
		"label":       label,
		"threshold":   threshold,
	})
}

func (h *Handlers) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bundle, ok := h.currentBundle(w)
	if !ok {
		return
	}
	threshold, ok := parseThreshold(w, r)
	if !ok {
		return
	}

	start := time.Now()
	probs, err := bundle.Classifier.PredictProbaBatch(req.Windows)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	risks, labels := splitRisks(probs, threshold)
	h.monitor.RecordPredictions(labels, time.Since(start))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"risks":     risks,
		"labels":    labels,
		"count":     len(risks),
		"threshold": threshold,
	})
}

// handleClassifySession scores a session segment with the smoothed
// sequence path, persists the rows, and pushes monitor updates.
func (h *Handlers) handleClassifySession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StartIdx < 0 {
		writeError(w, http.StatusBadRequest, "start_idx must not be negative")
		return
	}

	bundle, ok := h.currentBundle(w)
	if !ok {
		return
	}
	threshold, ok := parseThreshold(w, r)
	if !ok {
		return
	}

	start := time.Now()
	probs, err := bundle.Classifier.PredictSequenceProba(req.Windows)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	elapsed := time.Since(start)

	risks, labels := splitRisks(probs, threshold)

	if err := store.CreateSession(sessionID, req.Subject, bundle.Classifier.Mode()); err != nil {
		h.logger.Error("create session failed", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to persist session")
		return
	}
	if err := store.SaveWindowPredictions(sessionID, req.StartIdx, risks, labels); err != nil {
		h.logger.Error("save predictions failed", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to persist predictions")
		return
	}

	alerts := h.monitor.RecordSession(sessionID, req.StartIdx, risks, labels, elapsed)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"start_idx":  req.StartIdx,
		"risks":      risks,
		"labels":     labels,
		"threshold":  threshold,
		"alerts":     alerts,
	})
}

// handleSessionHistory serves recent windows from the in-memory history
// when the session is still tracked, falling back to the database for
// evicted or pre-restart sessions.
func (h *Handlers) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	if tracked := h.monitor.History().Get(sessionID); tracked != nil {
		if limit > 0 && limit < len(tracked) {
			tracked = tracked[:limit]
		}
		predictions := make([]store.WindowPrediction, len(tracked))
		for i, res := range tracked {
			predictions[i] = store.WindowPrediction{
				SessionID: sessionID,
				WindowIdx: res.WindowIdx,
				RiskProb:  res.RiskProb,
				Label:     res.Label,
				CreatedAt: res.At,
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"session_id":  sessionID,
			"predictions": predictions,
			"count":       len(predictions),
		})
		return
	}

	exists, err := store.SessionExists(sessionID)
	if err != nil {
		h.logger.Error("session lookup failed", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to query session")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	predictions, err := store.QuerySessionPredictions(sessionID, limit)
	if err != nil {
		h.logger.Error("history query failed", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to query history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":  sessionID,
		"predictions": predictions,
		"count":       len(predictions),
	})
}

func (h *Handlers) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Snapshot())
}

func (h *Handlers) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.monitor.Hub().HandleWebSocket(w, r)
}

// currentBundle writes a 503 when no model is loaded.
func (h *Handlers) currentBundle(w http.ResponseWriter) (*registry.Bundle, bool) {
	bundle, err := h.registry.Current()
	if err != nil {
		if errors.Is(err, registry.ErrNoModel) {
			writeError(w, http.StatusServiceUnavailable, "no model loaded")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return bundle, true
}

// parseThreshold reads the optional ?threshold= override and writes a
// 400 when it is not a probability.
func parseThreshold(w http.ResponseWriter, r *http.Request) (float64, bool) {
	raw := r.URL.Query().Get("threshold")
	if raw == "" {
		return msrf.DefaultThreshold, true
	}

	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		writeError(w, http.StatusBadRequest, "threshold must be a number in [0, 1]")
		return 0, false
	}
	return threshold, true
}

func splitRisks(probs [][]float64, threshold float64) ([]float64, []int) {
	risks := make([]float64, len(probs))
	labels := make([]int, len(probs))
	for i, p := range probs {
		risks[i] = p[1]
		if p[1] > threshold {
			labels[i] = 1
		}
	}
	return risks, labels
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
