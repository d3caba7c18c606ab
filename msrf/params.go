package msrf

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

const (
	ModeConfidence = "confidence"
	ModeRisk       = "risk"
)

// exportedModelType is the type tag the training pipeline writes into
// hmm_params.json.
const exportedModelType = "MSRF_Classifier"

// rowSumTolerance bounds how far a probability row may drift from 1
// before the parameters are rejected.
const rowSumTolerance = 1e-6

var ErrInvalidParams = errors.New("invalid msrf params")

// Params holds the gating and transition parameters exported alongside
// the expert models. The JSON field names match the training pipeline's
// hmm_params.json export.
type Params struct {
	ModelType string      `json:"model_type"`
	NStates   int         `json:"n_states"`
	Mode      string      `json:"mode"`
	NFeatures int         `json:"n_features"`
	StartProb []float64   `json:"startprob"`
	TransMat  [][]float64 `json:"transmat"`
}

// LoadParams reads and validates an exported parameter file.
func LoadParams(path string) (Params, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Params{}, err
	}
	var p Params
	if err := json.Unmarshal(payload, &p); err != nil {
		return Params{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate checks dimensions and probability rows. Every failure wraps
// ErrInvalidParams so callers can distinguish configuration problems
// from runtime input problems.
func (p Params) Validate() error {
	if p.ModelType != "" && p.ModelType != exportedModelType {
		return fmt.Errorf("%w: unknown model type %q", ErrInvalidParams, p.ModelType)
	}
	if p.NStates < 1 {
		return fmt.Errorf("%w: n_states must be >= 1, got %d", ErrInvalidParams, p.NStates)
	}
	if p.Mode != ModeConfidence && p.Mode != ModeRisk {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidParams, p.Mode)
	}
	if p.NFeatures < 0 {
		return fmt.Errorf("%w: n_features must be >= 0, got %d", ErrInvalidParams, p.NFeatures)
	}
	if len(p.StartProb) != p.NStates {
		return fmt.Errorf("%w: startprob has %d entries, want %d", ErrInvalidParams, len(p.StartProb), p.NStates)
	}
	if err := checkProbRow("startprob", p.StartProb); err != nil {
		return err
	}
	if len(p.TransMat) != p.NStates {
		return fmt.Errorf("%w: transmat has %d rows, want %d", ErrInvalidParams, len(p.TransMat), p.NStates)
	}
	for i, row := range p.TransMat {
		if len(row) != p.NStates {
			return fmt.Errorf("%w: transmat row %d has %d entries, want %d", ErrInvalidParams, i, len(row), p.NStates)
		}
		if err := checkProbRow(fmt.Sprintf("transmat row %d", i), row); err != nil {
			return err
		}
	}
	return nil
}

func checkProbRow(name string, row []float64) error {
	sum := 0.0
	for _, v := range row {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("%w: %s contains invalid entry %v", ErrInvalidParams, name, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > rowSumTolerance {
		return fmt.Errorf("%w: %s sums to %v, want 1", ErrInvalidParams, name, sum)
	}
	return nil
}
