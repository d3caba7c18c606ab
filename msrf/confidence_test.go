package msrf

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestScoreExpertsConfidenceMode(t *testing.T) {
	probs := [][]float64{{0.9, 0.1}, {0.6, 0.4}, {0.3, 0.7}}
	weights := normalizeScores(scoreExperts(ModeConfidence, 3, probs))

	want := []float64{0.5544390758129588, 0.20792909134587903, 0.23763183283617173}
	for k := range want {
		if !almostEqual(weights[k], want[k], 1e-12) {
			t.Fatalf("weight %d = %v, want %v", k, weights[k], want[k])
		}
	}
}

func TestScoreExpertsRiskMode(t *testing.T) {
	probs := [][]float64{{0.9, 0.1}, {0.6, 0.4}, {0.3, 0.7}}
	weights := normalizeScores(scoreExperts(ModeRisk, 3, probs))

	want := []float64{0.4223187982221127, 0.42231879822211277, 0.1553624034861459}
	for k := range want {
		if !almostEqual(weights[k], want[k], 1e-12) {
			t.Fatalf("weight %d = %v, want %v", k, weights[k], want[k])
		}
	}
}

func TestScoreExpertsRiskModeSingleState(t *testing.T) {
	weights := normalizeScores(scoreExperts(ModeRisk, 1, [][]float64{{0.58, 0.42}}))
	if len(weights) != 1 {
		t.Fatalf("expected 1 weight, got %d", len(weights))
	}
	// single state: the prototype is 0, so the score is exp(-5*0.42)
	// normalized against itself
	if !almostEqual(weights[0], 0.999999999183383, 1e-12) {
		t.Fatalf("weight = %v", weights[0])
	}
}

func TestScoreExpertsConfidencePrefersDecisive(t *testing.T) {
	probs := [][]float64{{0.99, 0.01}, {0.5, 0.5}, {0.55, 0.45}}
	weights := normalizeScores(scoreExperts(ModeConfidence, 3, probs))
	if weights[0] <= weights[1] || weights[0] <= weights[2] {
		t.Fatalf("decisive expert should dominate: %v", weights)
	}
	if weights[1] >= weights[2] {
		t.Fatalf("uniform expert should score lowest: %v", weights)
	}
}

func TestNormalizeScoresWeightsBounded(t *testing.T) {
	weights := normalizeScores([]float64{3, 1, 6})
	sum := 0.0
	for _, w := range weights {
		if w < 0 || w >= 1 {
			t.Fatalf("weight out of range: %v", w)
		}
		sum += w
	}
	if sum > 1 {
		t.Fatalf("weights sum above 1: %v", sum)
	}
	if !almostEqual(sum, 1, 1e-9) {
		t.Fatalf("weights sum far from 1: %v", sum)
	}
}

func TestNormalizeScoresZeroRow(t *testing.T) {
	weights := normalizeScores([]float64{0, 0, 0})
	for k, w := range weights {
		if w != 0 {
			t.Fatalf("weight %d = %v, want 0", k, w)
		}
	}
}
