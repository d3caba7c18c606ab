package ml

import (
	"encoding/json"
	"errors"
	"os"
)

// RegressionNode is one entry of a flattened regression tree. Leaves
// carry an additive score contribution.
type RegressionNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// GradientBoosting sums regression tree scores on top of a base score
// and squashes the margin through a sigmoid.
type GradientBoosting struct {
	baseScore float64
	trees     [][]RegressionNode
}

type gradientBoostingFile struct {
	ModelType string             `json:"model_type"`
	BaseScore float64            `json:"base_score"`
	Trees     [][]RegressionNode `json:"trees"`
}

func NewGradientBoosting(baseScore float64, trees [][]RegressionNode) *GradientBoosting {
	return &GradientBoosting{baseScore: baseScore, trees: trees}
}

func (gb *GradientBoosting) PredictSingle(features []float64) ([]float64, error) {
	if len(gb.trees) == 0 {
		return nil, errors.New("model not trained")
	}
	score := gb.baseScore
	for _, tree := range gb.trees {
		value, err := walkRegressionTree(tree, features)
		if err != nil {
			return nil, err
		}
		score += value
	}
	p1 := sigmoid(score)
	return []float64{1 - p1, p1}, nil
}

func walkRegressionTree(nodes []RegressionNode, features []float64) (float64, error) {
	if len(nodes) == 0 {
		return 0, errors.New("model file has empty tree")
	}
	idx := 0
	for {
		node := nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func (gb *GradientBoosting) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file gradientBoostingFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return err
	}
	if len(file.Trees) == 0 {
		return errors.New("model file has no trees")
	}
	gb.baseScore = file.BaseScore
	gb.trees = file.Trees
	return nil
}
