package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadModel loads a model file of a known type.
func LoadModel(modelType, path string) (BinaryClassifier, error) {
	switch modelType {
	case "decision_tree":
		model := &DecisionTree{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	case "random_forest":
		model := &RandomForest{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	case "logistic_regression":
		model := &LogisticRegression{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	case "gradient_boosting":
		model := &GradientBoosting{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
}

// LoadModelFile reads the model_type tag from the file and dispatches
// to the matching loader, so callers do not need to know the export
// type in advance.
func LoadModelFile(path string) (BinaryClassifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var header struct {
		ModelType string `json:"model_type"`
	}
	if err := json.Unmarshal(payload, &header); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if header.ModelType == "" {
		return nil, fmt.Errorf("%s: missing model_type", path)
	}
	return LoadModel(header.ModelType, path)
}
