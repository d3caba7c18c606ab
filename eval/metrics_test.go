package eval

import (
	"math"
	"testing"
)

func TestConfuseAndMetrics(t *testing.T) {
	predicted := []int{0, 1, 0, 0, 0}
	actual := []int{0, 1, 1, 0, 1}

	c, err := Confuse(predicted, actual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.TruePositive != 1 || c.FalsePositive != 0 || c.TrueNegative != 2 || c.FalseNegative != 2 {
		t.Fatalf("unexpected confusion: %+v", c)
	}
	if c.Accuracy() != 0.6 {
		t.Fatalf("accuracy = %v, want 0.6", c.Accuracy())
	}
	if c.Precision() != 1 {
		t.Fatalf("precision = %v, want 1", c.Precision())
	}
	if math.Abs(c.Recall()-1.0/3) > 1e-15 {
		t.Fatalf("recall = %v, want 1/3", c.Recall())
	}
	if c.F1() != 0.5 {
		t.Fatalf("f1 = %v, want 0.5", c.F1())
	}
}

func TestConfuseSizeMismatch(t *testing.T) {
	if _, err := Confuse([]int{0}, []int{0, 1}); err == nil {
		t.Fatalf("expected size mismatch error")
	}
}

func TestMetricsZeroGuards(t *testing.T) {
	var c Confusion
	if c.Accuracy() != 0 || c.Precision() != 0 || c.Recall() != 0 || c.F1() != 0 {
		t.Fatalf("empty confusion should score zero: %+v", c)
	}

	// all-negative predictions on all-negative truth: precision and
	// recall have no positives to divide by
	c, err := Confuse([]int{0, 0}, []int{0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Accuracy() != 1 || c.Precision() != 0 || c.Recall() != 0 {
		t.Fatalf("unexpected metrics: %+v", c)
	}
}

func TestSweepThresholds(t *testing.T) {
	probs := []float64{0.4, 0.9, 0.6, 0.1, 0.55}
	actual := []int{0, 1, 1, 0, 1}

	best, score, err := SweepThresholds(probs, actual, []float64{0.3, 0.5, 0.7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best != 0.5 {
		t.Fatalf("best threshold = %v, want 0.5", best)
	}
	if score != 1 {
		t.Fatalf("best score = %v, want 1", score)
	}
}

func TestSweepThresholdsStrictComparison(t *testing.T) {
	// a probability exactly at the threshold stays stable
	probs := []float64{0.5, 0.9}
	actual := []int{0, 1}
	best, score, err := SweepThresholds(probs, actual, []float64{0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best != 0.5 || score != 1 {
		t.Fatalf("best = %v score = %v, want 0.5 and 1", best, score)
	}
}

func TestSweepThresholdsTieKeepsFirst(t *testing.T) {
	probs := []float64{0.9, 0.1}
	actual := []int{1, 0}
	best, score, err := SweepThresholds(probs, actual, []float64{0.3, 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best != 0.3 || score != 1 {
		t.Fatalf("expected first perfect threshold to win, got %v (%v)", best, score)
	}
}

func TestSweepThresholdsValidation(t *testing.T) {
	if _, _, err := SweepThresholds([]float64{0.5}, []int{0, 1}, []float64{0.5}); err == nil {
		t.Fatalf("expected size mismatch error")
	}
	if _, _, err := SweepThresholds([]float64{0.5}, []int{0}, nil); err == nil {
		t.Fatalf("expected empty thresholds error")
	}
}
