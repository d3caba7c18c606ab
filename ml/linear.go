package ml

import (
	"encoding/json"
	"errors"
	"os"
)

type LogisticRegression struct {
	weights []float64
	bias    float64
}

type logisticRegressionFile struct {
	ModelType string    `json:"model_type"`
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
}

func NewLogisticRegression(weights []float64, bias float64) *LogisticRegression {
	return &LogisticRegression{weights: weights, bias: bias}
}

func (lr *LogisticRegression) PredictSingle(features []float64) ([]float64, error) {
	if len(lr.weights) == 0 {
		return nil, errors.New("model not trained")
	}
	if len(features) != len(lr.weights) {
		return nil, errors.New("feature count mismatch")
	}
	z := lr.bias
	for i, w := range lr.weights {
		z += w * features[i]
	}
	p1 := sigmoid(z)
	return []float64{1 - p1, p1}, nil
}

func (lr *LogisticRegression) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file logisticRegressionFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return err
	}
	if len(file.Weights) == 0 {
		return errors.New("model file has no weights")
	}
	lr.weights = file.Weights
	lr.bias = file.Bias
	return nil
}
