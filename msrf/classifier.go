// Package msrf implements the multi-state random forest classifier: a
// fixed set of binary expert classifiers combined by confidence-based
// soft gating, with optional forward-backward smoothing of the gate
// across the windows of one session.
package msrf

import (
	"errors"
	"fmt"
	"math"
)

// DefaultThreshold is the decision boundary applied when a caller does
// not override it. A window is labeled high-risk only when its fused
// risk probability is strictly greater than the threshold.
const DefaultThreshold = 0.5

var ErrFeatureLength = errors.New("feature vector length mismatch")

// Classifier fuses the expert distributions with the exported gating
// parameters. Instances are immutable after construction and safe for
// concurrent use; every prediction allocates only call-local state.
type Classifier struct {
	params   Params
	experts  []Expert
	logStart []float64
	logTrans [][]float64
}

// NewClassifier validates params and binds one expert per state. The
// expert at index k covers state k.
func NewClassifier(params Params, experts []Expert) (*Classifier, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(experts) != params.NStates {
		return nil, fmt.Errorf("%w: got %d experts for %d states", ErrInvalidParams, len(experts), params.NStates)
	}
	for k, e := range experts {
		if e == nil {
			return nil, fmt.Errorf("%w: expert %d is nil", ErrInvalidParams, k)
		}
	}

	c := &Classifier{
		params:   params,
		experts:  append([]Expert(nil), experts...),
		logStart: make([]float64, params.NStates),
		logTrans: make([][]float64, params.NStates),
	}
	for k, v := range params.StartProb {
		c.logStart[k] = math.Log(v + logGuard)
	}
	for i, row := range params.TransMat {
		c.logTrans[i] = make([]float64, params.NStates)
		for j, v := range row {
			c.logTrans[i][j] = math.Log(v + logGuard)
		}
	}
	return c, nil
}

func (c *Classifier) NStates() int   { return c.params.NStates }
func (c *Classifier) Mode() string   { return c.params.Mode }
func (c *Classifier) NFeatures() int { return c.params.NFeatures }

// expertProbs invokes every expert exactly once for the window and
// returns the per-expert class distributions.
func (c *Classifier) expertProbs(features []float64) ([][]float64, error) {
	if c.params.NFeatures > 0 && len(features) != c.params.NFeatures {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrFeatureLength, len(features), c.params.NFeatures)
	}
	probs := make([][]float64, len(c.experts))
	for k, expert := range c.experts {
		p, err := expert.Score(features)
		if err != nil {
			return nil, fmt.Errorf("expert %d: %w", k, err)
		}
		if len(p) != 2 {
			return nil, fmt.Errorf("expert %d: returned %d class probabilities, want 2", k, len(p))
		}
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) {
			return nil, fmt.Errorf("expert %d: returned NaN probability", k)
		}
		probs[k] = p
	}
	return probs, nil
}

func fuseRisk(weights []float64, expertProbs [][]float64) float64 {
	risk := 0.0
	for k, w := range weights {
		risk += w * expertProbs[k][1]
	}
	return risk
}

// PredictProba returns the fused [pStable, pRisk] distribution for one
// window, weighting each expert's risk output by its gate weight.
func (c *Classifier) PredictProba(features []float64) ([]float64, error) {
	probs, err := c.expertProbs(features)
	if err != nil {
		return nil, err
	}
	weights := normalizeScores(scoreExperts(c.params.Mode, c.params.NStates, probs))
	risk := fuseRisk(weights, probs)
	return []float64{1 - risk, risk}, nil
}

// PredictLabel classifies one window against the given threshold. A
// fused risk exactly equal to the threshold resolves to the stable
// class.
func (c *Classifier) PredictLabel(features []float64, threshold float64) (int, error) {
	probs, err := c.PredictProba(features)
	if err != nil {
		return 0, err
	}
	if probs[1] > threshold {
		return 1, nil
	}
	return 0, nil
}

// PredictProbaBatch scores windows independently, preserving order. An
// empty batch returns an empty slice.
func (c *Classifier) PredictProbaBatch(windows [][]float64) ([][]float64, error) {
	out := make([][]float64, 0, len(windows))
	for i, w := range windows {
		probs, err := c.PredictProba(w)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		out = append(out, probs)
	}
	return out, nil
}

// PredictLabelBatch classifies windows independently against the given
// threshold.
func (c *Classifier) PredictLabelBatch(windows [][]float64, threshold float64) ([]int, error) {
	probs, err := c.PredictProbaBatch(windows)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(probs))
	for i, p := range probs {
		if p[1] > threshold {
			labels[i] = 1
		}
	}
	return labels, nil
}

// PredictSequenceProba treats windows as consecutive measurements of one
// session: the per-window gate weights are smoothed with
// forward-backward before fusing, so isolated disagreements between
// neighboring windows are damped by the transition structure. Returns
// one [pStable, pRisk] row per window; an empty session returns an
// empty slice.
func (c *Classifier) PredictSequenceProba(windows [][]float64) ([][]float64, error) {
	if len(windows) == 0 {
		return [][]float64{}, nil
	}
	probs := make([][][]float64, len(windows))
	conf := make([][]float64, len(windows))
	for t, w := range windows {
		ep, err := c.expertProbs(w)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", t, err)
		}
		probs[t] = ep
		conf[t] = normalizeScores(scoreExperts(c.params.Mode, c.params.NStates, ep))
	}

	gamma := forwardBackward(c.logStart, c.logTrans, conf)

	out := make([][]float64, len(windows))
	for t := range windows {
		risk := fuseRisk(gamma[t], probs[t])
		out[t] = []float64{1 - risk, risk}
	}
	return out, nil
}

// PredictSequence classifies a session with smoothed probabilities.
func (c *Classifier) PredictSequence(windows [][]float64, threshold float64) ([]int, error) {
	probs, err := c.PredictSequenceProba(windows)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(probs))
	for t, p := range probs {
		if p[1] > threshold {
			labels[t] = 1
		}
	}
	return labels, nil
}
