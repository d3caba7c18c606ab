// Package eval computes validation metrics for binary risk labels.
package eval

import "errors"

type Confusion struct {
	TruePositive  int `json:"true_positive"`
	FalsePositive int `json:"false_positive"`
	TrueNegative  int `json:"true_negative"`
	FalseNegative int `json:"false_negative"`
}

// Confuse tallies predictions against ground truth. The high-risk
// class (1) is the positive class.
func Confuse(predicted, actual []int) (Confusion, error) {
	if len(predicted) != len(actual) {
		return Confusion{}, errors.New("predicted and actual size mismatch")
	}
	var c Confusion
	for i := range predicted {
		switch {
		case predicted[i] == 1 && actual[i] == 1:
			c.TruePositive++
		case predicted[i] == 1 && actual[i] == 0:
			c.FalsePositive++
		case predicted[i] == 0 && actual[i] == 0:
			c.TrueNegative++
		default:
			c.FalseNegative++
		}
	}
	return c, nil
}

func (c Confusion) Total() int {
	return c.TruePositive + c.FalsePositive + c.TrueNegative + c.FalseNegative
}

func (c Confusion) Accuracy() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.TruePositive+c.TrueNegative) / float64(total)
}

func (c Confusion) Precision() float64 {
	predicted := c.TruePositive + c.FalsePositive
	if predicted == 0 {
		return 0
	}
	return float64(c.TruePositive) / float64(predicted)
}

func (c Confusion) Recall() float64 {
	actual := c.TruePositive + c.FalseNegative
	if actual == 0 {
		return 0
	}
	return float64(c.TruePositive) / float64(actual)
}

func (c Confusion) F1() float64 {
	p := c.Precision()
	r := c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// SweepThresholds scores every candidate threshold by F1 against the
// ground truth and returns the best one. Ties keep the earliest
// candidate. Labeling follows the classifier rule: a window is
// high-risk only when its risk probability is strictly greater than
// the threshold.
func SweepThresholds(riskProbs []float64, actual []int, thresholds []float64) (float64, float64, error) {
	if len(riskProbs) != len(actual) {
		return 0, 0, errors.New("probabilities and actual size mismatch")
	}
	if len(thresholds) == 0 {
		return 0, 0, errors.New("no thresholds to sweep")
	}

	best := thresholds[0]
	bestScore := -1.0
	predicted := make([]int, len(riskProbs))
	for _, threshold := range thresholds {
		for i, p := range riskProbs {
			if p > threshold {
				predicted[i] = 1
			} else {
				predicted[i] = 0
			}
		}
		c, err := Confuse(predicted, actual)
		if err != nil {
			return 0, 0, err
		}
		if score := c.F1(); score > bestScore {
			bestScore = score
			best = threshold
		}
	}
	return best, bestScore, nil
}
