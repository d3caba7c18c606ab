package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadFeatureCSV loads one feature window per row. Files exported from
// spreadsheets often carry a UTF-8 or UTF-16 byte order mark, so the
// reader normalizes the encoding before parsing. A single header row is
// detected and skipped.
func ReadFeatureCSV(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := csv.NewReader(transform.NewReader(f, decoder))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	records = skipHeader(records)
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no feature rows", path)
	}

	rows := make([][]float64, len(records))
	for i, record := range records {
		row := make([]float64, len(record))
		for j, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %d: %w", path, i+1, j+1, err)
			}
			row[j] = v
		}
		rows[i] = row
	}
	return rows, nil
}

// ReadLabelCSV loads a single column of 0/1 labels.
func ReadLabelCSV(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := csv.NewReader(transform.NewReader(f, decoder))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	records = skipHeader(records)
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no label rows", path)
	}

	labels := make([]int, len(records))
	for i, record := range records {
		if len(record) != 1 {
			return nil, fmt.Errorf("%s: row %d: expected a single label column", path, i+1)
		}
		v, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i+1, err)
		}
		if v != 0 && v != 1 {
			return nil, fmt.Errorf("%s: row %d: label must be 0 or 1, got %d", path, i+1, v)
		}
		labels[i] = v
	}
	return labels, nil
}

// skipHeader drops the first record when any of its cells fails to
// parse as a number.
func skipHeader(records [][]string) [][]string {
	if len(records) == 0 {
		return records
	}
	for _, cell := range records[0] {
		if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
			return records[1:]
		}
	}
	return records
}

// WritePredictionsCSV writes one label per line, matching the batch
// export format of the training pipeline.
func WritePredictionsCSV(path string, labels []int) error {
	var b strings.Builder
	for _, label := range labels {
		fmt.Fprintf(&b, "%d\n", label)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// WriteProbabilitiesCSV writes the risk column of the [pStable, pRisk]
// rows, one value per line with six decimal places, matching the batch
// export format of the training pipeline.
func WriteProbabilitiesCSV(path string, probs [][]float64) error {
	var b strings.Builder
	for _, row := range probs {
		if len(row) != 2 {
			return errors.New("probability rows must have two columns")
		}
		fmt.Fprintf(&b, "%.6f\n", row[1])
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
