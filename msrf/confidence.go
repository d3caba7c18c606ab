package msrf

import "math"

// Epsilon guards shared by the gate scorer and the smoother. They match
// the constants baked into the exported parameters: degenerate inputs
// (zero variance, all-zero score rows, zero probabilities under a log)
// decay toward zero weight instead of dividing by zero.
const (
	varianceGuard = 1e-5
	normGuard     = 1e-10
	logGuard      = 1e-10
	riskDecay     = 5.0
)

// scoreExperts computes the unnormalized gate score of every expert for
// one window. In confidence mode an expert is trusted when its predicted
// distribution is far from uniform, so the score is the reciprocal of
// the Bernoulli variance p1*(1-p1). In risk mode expert k owns the risk
// band around prototype k/(nStates-1) and its score decays
// exponentially with the distance of its p1 from that prototype.
func scoreExperts(mode string, nStates int, expertProbs [][]float64) []float64 {
	scores := make([]float64, nStates)
	if mode == ModeRisk {
		for k := 0; k < nStates; k++ {
			proto := 0.0
			if nStates > 1 {
				proto = float64(k) / float64(nStates-1)
			}
			scores[k] = math.Exp(-riskDecay * math.Abs(expertProbs[k][1]-proto))
		}
		return scores
	}
	for k := 0; k < nStates; k++ {
		p := expertProbs[k][1]
		scores[k] = 1.0 / (p*(1-p) + varianceGuard)
	}
	return scores
}

// normalizeScores converts scores to weights summing to at most one. An
// all-zero row yields all-zero weights.
func normalizeScores(scores []float64) []float64 {
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	weights := make([]float64, len(scores))
	for k, s := range scores {
		weights[k] = s / (sum + normGuard)
	}
	return weights
}
