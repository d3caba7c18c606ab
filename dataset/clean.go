package dataset

import (
	"fmt"
	"math"
)

// RowRule validates one feature row before it reaches the classifier.
type RowRule interface {
	Apply(row []float64) error
	Name() string
}

// CleanStats reports what the cleaner did to a batch.
type CleanStats struct {
	TotalProcessed int              `json:"total_processed"`
	Passed         int              `json:"passed"`
	Rejected       int              `json:"rejected"`
	Issues         map[string]int64 `json:"issues"`
}

type Cleaner struct {
	rules []RowRule
}

// NewCleaner builds a cleaner with the default rules: finite values and
// a broad magnitude bound that catches unit mistakes in exported
// windows.
func NewCleaner() *Cleaner {
	c := &Cleaner{}
	c.AddRule(FiniteValuesRule{})
	c.AddRule(MagnitudeRule{Limit: 1e9})
	return c
}

func (c *Cleaner) AddRule(rule RowRule) {
	c.rules = append(c.rules, rule)
}

// Clean drops rows that violate any rule and reports per-rule drop
// counts. Surviving rows keep their relative order.
func (c *Cleaner) Clean(rows [][]float64) ([][]float64, CleanStats) {
	stats := CleanStats{Issues: make(map[string]int64)}
	cleaned := make([][]float64, 0, len(rows))
	for _, row := range rows {
		stats.TotalProcessed++
		rejected := false
		for _, rule := range c.rules {
			if err := rule.Apply(row); err != nil {
				stats.Issues[rule.Name()]++
				rejected = true
				break
			}
		}
		if rejected {
			stats.Rejected++
			continue
		}
		stats.Passed++
		cleaned = append(cleaned, row)
	}
	return cleaned, stats
}

type FiniteValuesRule struct{}

func (FiniteValuesRule) Name() string { return "finite_values" }

func (FiniteValuesRule) Apply(row []float64) error {
	for j, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("column %d is not finite", j)
		}
	}
	return nil
}

type MagnitudeRule struct {
	Limit float64
}

func (MagnitudeRule) Name() string { return "magnitude" }

func (r MagnitudeRule) Apply(row []float64) error {
	for j, v := range row {
		if math.Abs(v) > r.Limit {
			return fmt.Errorf("column %d exceeds magnitude limit: %v", j, v)
		}
	}
	return nil
}
