package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"pulsewatch/dataset"
	"pulsewatch/eval"
	"pulsewatch/msrf"
	"pulsewatch/registry"
	"pulsewatch/store"
)

func main() {
	modelDir := flag.String("models", "", "directory holding hmm_params.json and expert_*.json")
	inputPath := flag.String("input", "", "feature CSV with one window per row")
	outPath := flag.String("out", "", "CSV path for predicted labels")
	probsPath := flag.String("probs", "", "CSV path for risk probabilities")
	sequence := flag.Bool("sequence", false, "smooth the windows as one session instead of scoring them independently")
	threshold := flag.Float64("threshold", msrf.DefaultThreshold, "risk probability above which a window is labeled high risk")
	labelsPath := flag.String("labels", "", "ground-truth label CSV to score against")
	dbPath := flag.String("db", "", "sqlite path to record the validation run")
	flag.Parse()

	if *modelDir == "" {
		log.Fatal("models is required")
	}
	if *inputPath == "" {
		log.Fatal("input is required")
	}

	bundle, err := registry.Load(*modelDir)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}

	rows, err := dataset.ReadFeatureCSV(*inputPath)
	if err != nil {
		log.Fatalf("failed to read features: %v", err)
	}

	windows, stats := dataset.NewCleaner().Clean(rows)
	if stats.Rejected > 0 {
		log.Printf("dropped %d of %d rows: %v", stats.Rejected, stats.TotalProcessed, stats.Issues)
	}

	var probs [][]float64
	if *sequence {
		probs, err = bundle.Classifier.PredictSequenceProba(windows)
	} else {
		probs, err = bundle.Classifier.PredictProbaBatch(windows)
	}
	if err != nil {
		log.Fatalf("failed to score windows: %v", err)
	}

	labels := predictedLabels(probs, *threshold)

	if *probsPath != "" {
		if err := dataset.WriteProbabilitiesCSV(*probsPath, probs); err != nil {
			log.Fatalf("failed to write probabilities: %v", err)
		}
	}
	if *outPath != "" {
		if err := dataset.WritePredictionsCSV(*outPath, labels); err != nil {
			log.Fatalf("failed to write predictions: %v", err)
		}
	}

	if *labelsPath != "" {
		actual, err := dataset.ReadLabelCSV(*labelsPath)
		if err != nil {
			log.Fatalf("failed to read labels: %v", err)
		}
		confusion, err := eval.Confuse(labels, actual)
		if err != nil {
			log.Fatalf("failed to score predictions: %v", err)
		}
		log.Printf("accuracy=%.3f precision=%.3f recall=%.3f f1=%.3f",
			confusion.Accuracy(), confusion.Precision(), confusion.Recall(), confusion.F1())

		risks := make([]float64, len(probs))
		for i, p := range probs {
			risks[i] = p[1]
		}
		best, bestF1, err := eval.SweepThresholds(risks, actual, sweepGrid())
		if err != nil {
			log.Fatalf("failed to sweep thresholds: %v", err)
		}
		log.Printf("best threshold=%.2f f1=%.3f", best, bestF1)

		if *dbPath != "" {
			if err := saveRun(*dbPath, *inputPath, *threshold, confusion); err != nil {
				log.Fatalf("failed to record validation run: %v", err)
			}
		}
	}

	highRisk := 0
	for _, label := range labels {
		highRisk += label
	}

	fmt.Printf("scored %d windows, %d high risk\n", len(labels), highRisk)
}

func sweepGrid() []float64 {
	grid := make([]float64, 0, 19)
	for i := 1; i < 20; i++ {
		grid = append(grid, float64(i)/20)
	}
	return grid
}

func predictedLabels(probs [][]float64, threshold float64) []int {
	labels := make([]int, len(probs))
	for i, p := range probs {
		if p[1] > threshold {
			labels[i] = 1
		}
	}
	return labels
}

func saveRun(dbPath, inputPath string, threshold float64, confusion eval.Confusion) error {
	if err := store.Init(dbPath); err != nil {
		return err
	}
	defer store.Close()

	return store.SaveValidationRun(store.ValidationRun{
		Dataset:   filepath.Base(inputPath),
		Threshold: threshold,
		Windows:   confusion.Total(),
		Accuracy:  confusion.Accuracy(),
		Precision: confusion.Precision(),
		Recall:    confusion.Recall(),
		F1:        confusion.F1(),
	})
}
