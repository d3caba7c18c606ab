package ml

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func leafTree(p0, p1 float64) *DecisionTree {
	return NewDecisionTree([]TreeNode{
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassProbs: []float64{p0, p1}, IsLeaf: true},
	})
}

func TestRandomForestAveragesTrees(t *testing.T) {
	rf := NewRandomForest([]*DecisionTree{
		leafTree(0.9, 0.1),
		leafTree(0.5, 0.5),
	})
	probs, err := rf.PredictSingle([]float64{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(probs[0]-0.7) > 1e-12 || math.Abs(probs[1]-0.3) > 1e-12 {
		t.Fatalf("expected [0.7 0.3], got %v", probs)
	}
}

func TestRandomForestSaveLoad(t *testing.T) {
	features := [][]float64{{0.1}, {0.2}, {0.8}, {0.9}}
	labels := []int{0, 0, 1, 1}
	tree := &DecisionTree{}
	if err := tree.Train(features, labels, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rf := NewRandomForest([]*DecisionTree{tree, leafTree(0.6, 0.4)})

	path := filepath.Join(t.TempDir(), "forest.json")
	if err := rf.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loaded := &RandomForest{}
	if err := loaded.Load(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, x := range [][]float64{{0.15}, {0.85}} {
		want, err := rf.PredictSingle(x)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := loaded.PredictSingle(x)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got[0] != want[0] || got[1] != want[1] {
			t.Fatalf("loaded forest disagrees: %v vs %v", got, want)
		}
	}
}

func TestRandomForestEmpty(t *testing.T) {
	rf := &RandomForest{}
	if _, err := rf.PredictSingle([]float64{1}); err == nil {
		t.Fatalf("expected error for empty forest")
	}
}

func TestRandomForestLoadRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forest.json")
	if err := os.WriteFile(path, []byte(`{"model_type":"random_forest","trees":[]}`), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rf := &RandomForest{}
	if err := rf.Load(path); err == nil {
		t.Fatalf("expected error for empty trees")
	}
}
