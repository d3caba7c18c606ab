package ml

import (
	"fmt"
	"math"
)

// BinaryClassifier is the contract every expert model fulfills: score
// one feature window and return [p0, p1].
type BinaryClassifier interface {
	PredictSingle(features []float64) ([]float64, error)
}

// PredictBatch scores windows independently, preserving order.
func PredictBatch(model BinaryClassifier, windows [][]float64) ([][]float64, error) {
	out := make([][]float64, 0, len(windows))
	for i, w := range windows {
		probs, err := model.PredictSingle(w)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		out = append(out, probs)
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
