package ml

import (
	"path/filepath"
	"testing"
)

func TestDecisionTreeTrainPredict(t *testing.T) {
	features := [][]float64{
		{0.1, 0.2},
		{0.2, 0.1},
		{0.9, 0.8},
		{0.8, 0.9},
	}
	labels := []int{0, 0, 1, 1}

	model := &DecisionTree{}
	if err := model.Train(features, labels, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	probs, err := model.PredictSingle([]float64{0.15, 0.15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(probs) != 2 {
		t.Fatalf("expected 2 probabilities, got %d", len(probs))
	}
	if probs[1] != 0 {
		t.Fatalf("expected pure stable leaf, got %v", probs)
	}
	probs, err = model.PredictSingle([]float64{0.85, 0.85})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probs[1] != 1 {
		t.Fatalf("expected pure risk leaf, got %v", probs)
	}
}

func TestDecisionTreeNestedSplits(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}}
	labels := []int{0, 0, 0, 1}

	model := &DecisionTree{}
	if err := model.Train(features, labels, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	probs, err := model.PredictSingle([]float64{3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probs[1] != 0 {
		t.Fatalf("sample 3 should reach the stable leaf, got %v", probs)
	}
	probs, err = model.PredictSingle([]float64{4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probs[1] != 1 {
		t.Fatalf("sample 4 should reach the risk leaf, got %v", probs)
	}
}

func TestDecisionTreeMixedLeaf(t *testing.T) {
	// depth 1 stops after the root split, leaving a mixed leaf on the
	// low side
	features := [][]float64{{1}, {2}, {3}, {4}}
	labels := []int{0, 1, 1, 1}

	model := &DecisionTree{}
	if err := model.Train(features, labels, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	probs, err := model.PredictSingle([]float64{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probs[0] < 0 || probs[1] < 0 || probs[0]+probs[1] != 1 {
		t.Fatalf("leaf distribution malformed: %v", probs)
	}
}

func TestDecisionTreeSaveLoad(t *testing.T) {
	features := [][]float64{{0.1}, {0.2}, {0.8}, {0.9}}
	labels := []int{0, 0, 1, 1}

	model := &DecisionTree{}
	if err := model.Train(features, labels, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "tree.json")
	if err := model.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded := &DecisionTree{}
	if err := loaded.Load(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, x := range [][]float64{{0.15}, {0.85}} {
		want, err := model.PredictSingle(x)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := loaded.PredictSingle(x)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got[0] != want[0] || got[1] != want[1] {
			t.Fatalf("loaded model disagrees: %v vs %v", got, want)
		}
	}
}

func TestDecisionTreeRejectsBadLabels(t *testing.T) {
	model := &DecisionTree{}
	err := model.Train([][]float64{{1}, {2}}, []int{0, 2}, 2)
	if err == nil {
		t.Fatalf("expected error for non-binary labels")
	}
}

func TestDecisionTreeUntrained(t *testing.T) {
	model := &DecisionTree{}
	if _, err := model.PredictSingle([]float64{1}); err == nil {
		t.Fatalf("expected error for untrained model")
	}
}

func TestDecisionTreeFeatureIndexOutOfRange(t *testing.T) {
	model := NewDecisionTree([]TreeNode{
		{FeatureIdx: 5, Threshold: 0.5, LeftChild: 1, RightChild: 2},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassProbs: []float64{1, 0}, IsLeaf: true},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassProbs: []float64{0, 1}, IsLeaf: true},
	})
	if _, err := model.PredictSingle([]float64{0.1, 0.2}); err == nil {
		t.Fatalf("expected feature index error")
	}
}
