package ml

import (
	"encoding/json"
	"errors"
	"os"
)

// RandomForest averages the leaf distributions of its trees. This is
// the deployment format the training pipeline exports for the experts.
type RandomForest struct {
	trees []*DecisionTree
}

type randomForestFile struct {
	ModelType string       `json:"model_type"`
	Trees     [][]TreeNode `json:"trees"`
}

func NewRandomForest(trees []*DecisionTree) *RandomForest {
	return &RandomForest{trees: trees}
}

func (rf *RandomForest) PredictSingle(features []float64) ([]float64, error) {
	if len(rf.trees) == 0 {
		return nil, errors.New("model not trained")
	}
	sum := []float64{0, 0}
	for _, tree := range rf.trees {
		probs, err := tree.PredictSingle(features)
		if err != nil {
			return nil, err
		}
		if len(probs) != 2 {
			return nil, errors.New("tree returned malformed distribution")
		}
		sum[0] += probs[0]
		sum[1] += probs[1]
	}
	n := float64(len(rf.trees))
	return []float64{sum[0] / n, sum[1] / n}, nil
}

func (rf *RandomForest) Save(path string) error {
	if len(rf.trees) == 0 {
		return errors.New("model not trained")
	}
	file := randomForestFile{ModelType: "random_forest", Trees: make([][]TreeNode, len(rf.trees))}
	for i, tree := range rf.trees {
		file.Trees[i] = tree.nodes
	}
	payload, err := json.Marshal(file)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (rf *RandomForest) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file randomForestFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return err
	}
	if len(file.Trees) == 0 {
		return errors.New("model file has no trees")
	}
	trees := make([]*DecisionTree, len(file.Trees))
	for i, nodes := range file.Trees {
		if len(nodes) == 0 {
			return errors.New("model file has empty tree")
		}
		trees[i] = NewDecisionTree(nodes)
	}
	rf.trees = trees
	return nil
}
