package ml

import (
	"encoding/json"
	"errors"
	"math"
	"os"
)

type DecisionTree struct {
	nodes []TreeNode
}

// TreeNode is one entry of the flattened tree. Leaves carry the class
// distribution observed at training time instead of a single label, so
// the gate can weigh how decided each expert is.
type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	ClassProbs []float64 `json:"class_probs,omitempty"`
	IsLeaf     bool      `json:"is_leaf"`
}

type decisionTreeFile struct {
	ModelType string     `json:"model_type"`
	Nodes     []TreeNode `json:"nodes"`
}

func NewDecisionTree(nodes []TreeNode) *DecisionTree {
	return &DecisionTree{nodes: nodes}
}

func (dt *DecisionTree) Train(features [][]float64, labels []int, maxDepth int) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	for _, label := range labels {
		if label != 0 && label != 1 {
			return errors.New("labels must be 0 or 1")
		}
	}
	if maxDepth <= 0 {
		maxDepth = 3
	}

	dt.nodes = buildNodes(features, labels, 0, maxDepth)
	return nil
}

func (dt *DecisionTree) PredictSingle(features []float64) ([]float64, error) {
	if len(dt.nodes) == 0 {
		return nil, errors.New("model not trained")
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return append([]float64(nil), node.ClassProbs...), nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return nil, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return nil, errors.New("invalid tree state")
		}
	}
}

func (dt *DecisionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return errors.New("model not trained")
	}
	payload, err := json.Marshal(decisionTreeFile{ModelType: "decision_tree", Nodes: dt.nodes})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (dt *DecisionTree) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file decisionTreeFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return err
	}
	if len(file.Nodes) == 0 {
		return errors.New("model file has no nodes")
	}
	dt.nodes = file.Nodes
	return nil
}

func buildNodes(features [][]float64, labels []int, depth int, maxDepth int) []TreeNode {
	if depth >= maxDepth || isPure(labels) {
		return []TreeNode{leafNode(labels)}
	}

	bestFeature, threshold, ok := findBestSplit(features, labels)
	if !ok {
		return []TreeNode{leafNode(labels)}
	}

	leftFeatures, leftLabels, rightFeatures, rightLabels := splitData(features, labels, bestFeature, threshold)
	if len(leftLabels) == 0 || len(rightLabels) == 0 {
		return []TreeNode{leafNode(labels)}
	}

	leftNodes := buildNodes(leftFeatures, leftLabels, depth+1, maxDepth)
	rightNodes := buildNodes(rightFeatures, rightLabels, depth+1, maxDepth)

	// child references inside the subtrees are relative to the subtree
	// start, shift them to their final positions
	shiftChildren(leftNodes, 1)
	shiftChildren(rightNodes, 1+len(leftNodes))

	root := TreeNode{
		FeatureIdx: bestFeature,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
	}

	nodes := make([]TreeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, root)
	nodes = append(nodes, leftNodes...)
	nodes = append(nodes, rightNodes...)
	return nodes
}

func shiftChildren(nodes []TreeNode, offset int) {
	for i := range nodes {
		if nodes[i].IsLeaf {
			continue
		}
		nodes[i].LeftChild += offset
		nodes[i].RightChild += offset
	}
}

func leafNode(labels []int) TreeNode {
	return TreeNode{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		ClassProbs: classProbs(labels),
		IsLeaf:     true,
	}
}

func classProbs(labels []int) []float64 {
	if len(labels) == 0 {
		return []float64{0.5, 0.5}
	}
	positives := 0
	for _, label := range labels {
		if label == 1 {
			positives++
		}
	}
	p1 := float64(positives) / float64(len(labels))
	return []float64{1 - p1, p1}
}

func findBestSplit(features [][]float64, labels []int) (int, float64, bool) {
	featureCount := len(features[0])
	bestFeature := -1
	bestThreshold := 0.0
	bestImpurity := math.MaxFloat64

	for featureIdx := 0; featureIdx < featureCount; featureIdx++ {
		values := make([]float64, len(features))
		for i := range features {
			values[i] = features[i][featureIdx]
		}
		threshold := median(values)
		leftLabels, rightLabels := splitLabels(features, labels, featureIdx, threshold)
		if len(leftLabels) == 0 || len(rightLabels) == 0 {
			continue
		}
		impurity := weightedGini(leftLabels, rightLabels)
		if impurity < bestImpurity {
			bestImpurity = impurity
			bestFeature = featureIdx
			bestThreshold = threshold
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func splitData(features [][]float64, labels []int, featureIdx int, threshold float64) ([][]float64, []int, [][]float64, []int) {
	leftFeatures := make([][]float64, 0)
	leftLabels := make([]int, 0)
	rightFeatures := make([][]float64, 0)
	rightLabels := make([]int, 0)
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftFeatures = append(leftFeatures, feature)
			leftLabels = append(leftLabels, labels[i])
		} else {
			rightFeatures = append(rightFeatures, feature)
			rightLabels = append(rightLabels, labels[i])
		}
	}
	return leftFeatures, leftLabels, rightFeatures, rightLabels
}

func splitLabels(features [][]float64, labels []int, featureIdx int, threshold float64) ([]int, []int) {
	leftLabels := make([]int, 0)
	rightLabels := make([]int, 0)
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftLabels = append(leftLabels, labels[i])
		} else {
			rightLabels = append(rightLabels, labels[i])
		}
	}
	return leftLabels, rightLabels
}

func weightedGini(leftLabels, rightLabels []int) float64 {
	leftWeight := float64(len(leftLabels))
	rightWeight := float64(len(rightLabels))
	total := leftWeight + rightWeight
	return (leftWeight/total)*gini(leftLabels) + (rightWeight/total)*gini(rightLabels)
}

func gini(labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	counts := make(map[int]int)
	for _, label := range labels {
		counts[label]++
	}
	impurity := 1.0
	for _, count := range counts {
		prob := float64(count) / float64(len(labels))
		impurity -= prob * prob
	}
	return impurity
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sortFloats(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func sortFloats(values []float64) {
	for i := 1; i < len(values); i++ {
		j := i
		for j > 0 && values[j-1] > values[j] {
			values[j-1], values[j] = values[j], values[j-1]
			j--
		}
	}
}

func isPure(labels []int) bool {
	if len(labels) == 0 {
		return true
	}
	first := labels[0]
	for _, label := range labels[1:] {
		if label != first {
			return false
		}
	}
	return true
}
