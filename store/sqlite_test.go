package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "store_test")
	if err != nil {
		panic(err)
	}
	if err := Init(filepath.Join(dir, "test.db")); err != nil {
		panic(err)
	}
	code := m.Run()
	Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

func TestSessionLifecycle(t *testing.T) {
	if err := CreateSession("s-100", "subject-a", "confidence"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exists, err := SessionExists("s-100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatalf("expected session to exist")
	}
	exists, err = SessionExists("s-missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Fatalf("unexpected session")
	}
	// repeated registration is a no-op
	if err := CreateSession("s-100", "subject-a", "confidence"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateSessionRequiresID(t *testing.T) {
	if err := CreateSession("", "subject-a", "risk"); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestSaveAndQueryWindowPredictions(t *testing.T) {
	if err := CreateSession("s-200", "subject-b", "confidence"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	risks := []float64{0.1, 0.6, 0.3}
	labels := []int{0, 1, 0}
	if err := SaveWindowPredictions("s-200", 0, risks, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := QuerySessionPredictions("s-200", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	for i, p := range got {
		if p.WindowIdx != i {
			t.Fatalf("window %d has idx %d", i, p.WindowIdx)
		}
		if p.RiskProb != risks[i] || p.Label != labels[i] {
			t.Fatalf("row %d mismatch: %+v", i, p)
		}
	}
}

func TestSaveWindowPredictionsReplaces(t *testing.T) {
	if err := SaveWindowPredictions("s-300", 0, []float64{0.9}, []int{1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := SaveWindowPredictions("s-300", 0, []float64{0.2}, []int{0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := QuerySessionPredictions("s-300", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row after replace, got %d", len(got))
	}
	if got[0].RiskProb != 0.2 || got[0].Label != 0 {
		t.Fatalf("replace did not take: %+v", got[0])
	}
}

func TestSaveWindowPredictionsValidation(t *testing.T) {
	if err := SaveWindowPredictions("", 0, []float64{0.1}, []int{0}); err == nil {
		t.Fatalf("expected error for empty session id")
	}
	if err := SaveWindowPredictions("s-400", 0, []float64{0.1}, []int{0, 1}); err == nil {
		t.Fatalf("expected error for length mismatch")
	}
	if err := SaveWindowPredictions("s-400", 0, nil, nil); err != nil {
		t.Fatalf("empty save should be a no-op: %v", err)
	}
}

func TestQuerySessionPredictionsLimit(t *testing.T) {
	risks := []float64{0.1, 0.2, 0.3, 0.4}
	labels := []int{0, 0, 0, 0}
	if err := SaveWindowPredictions("s-500", 0, risks, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := QuerySessionPredictions("s-500", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
}

func TestValidationRunsRoundTrip(t *testing.T) {
	run := ValidationRun{
		Dataset:   "bench.csv",
		Threshold: 0.5,
		Windows:   120,
		Accuracy:  0.91,
		Precision: 0.88,
		Recall:    0.79,
		F1:        0.832,
	}
	if err := SaveValidationRun(run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runs, err := LoadValidationRuns(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) == 0 {
		t.Fatalf("expected at least one run")
	}
	got := runs[0]
	if got.Dataset != "bench.csv" || got.Windows != 120 || got.F1 != 0.832 {
		t.Fatalf("unexpected run: %+v", got)
	}
	if got.RunAt.IsZero() {
		t.Fatalf("run_at should be filled in")
	}
}

func TestUninitializedGuards(t *testing.T) {
	saved := database
	database = nil
	defer func() { database = saved }()

	if err := CreateSession("s-900", "", ""); err == nil {
		t.Fatalf("expected error when database is nil")
	}
	if _, err := QuerySessionPredictions("s-900", 0); err == nil {
		t.Fatalf("expected error when database is nil")
	}
	if err := SaveValidationRun(ValidationRun{}); err == nil {
		t.Fatalf("expected error when database is nil")
	}
}
