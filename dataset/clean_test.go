package dataset

import (
	"errors"
	"math"
	"testing"
)

func TestCleanDropsNonFiniteRows(t *testing.T) {
	rows := [][]float64{
		{1, 2, 3},
		{1, math.NaN(), 3},
		{4, 5, 6},
		{math.Inf(1), 5, 6},
	}
	cleaned, stats := NewCleaner().Clean(rows)
	if len(cleaned) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(cleaned))
	}
	if cleaned[0][0] != 1 || cleaned[1][0] != 4 {
		t.Fatalf("row order lost: %v", cleaned)
	}
	if stats.TotalProcessed != 4 || stats.Passed != 2 || stats.Rejected != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Issues["finite_values"] != 2 {
		t.Fatalf("unexpected issue counts: %v", stats.Issues)
	}
}

func TestCleanMagnitudeRule(t *testing.T) {
	rows := [][]float64{
		{1, 2},
		{1, 5e12},
	}
	cleaned, stats := NewCleaner().Clean(rows)
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 row, got %d", len(cleaned))
	}
	if stats.Issues["magnitude"] != 1 {
		t.Fatalf("unexpected issue counts: %v", stats.Issues)
	}
}

func TestCleanPassesEverything(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}}
	cleaned, stats := NewCleaner().Clean(rows)
	if len(cleaned) != 2 || stats.Rejected != 0 {
		t.Fatalf("expected all rows to pass: %+v", stats)
	}
}

func TestCleanCustomRule(t *testing.T) {
	c := NewCleaner()
	c.AddRule(widthRule{want: 2})
	rows := [][]float64{{1, 2}, {1, 2, 3}}
	cleaned, stats := c.Clean(rows)
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 row, got %d", len(cleaned))
	}
	if stats.Issues["width"] != 1 {
		t.Fatalf("unexpected issue counts: %v", stats.Issues)
	}
}

type widthRule struct {
	want int
}

func (widthRule) Name() string { return "width" }

func (r widthRule) Apply(row []float64) error {
	if len(row) != r.want {
		return errors.New("row width mismatch")
	}
	return nil
}
