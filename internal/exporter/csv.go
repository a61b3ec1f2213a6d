package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gapfill/internal/dataset"
	"gapfill/internal/impute"
)

// CSVWriter provides CSV export for datasets and replica sets.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	// MissingToken is the literal written for cells that are still
	// missing. Defaults to the empty field.
	MissingToken string
	// BOMPrefix adds a UTF-8 BOM for Excel compatibility.
	BOMPrefix bool
}

// WriteDataset writes a dataset to a CSV file, header first, creating
// the parent directory as needed.
func (w *CSVWriter) WriteDataset(path string, ds *dataset.Dataset, options WriteOptions) error {
	w.logger.Info("writing dataset CSV",
		slog.String("path", path),
		slog.Int("rows", ds.Rows()),
		slog.Int("columns", ds.Cols()))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(ds.Names()); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	cols := ds.Columns()
	record := make([]string, len(cols))
	for row := 0; row < ds.Rows(); row++ {
		for j, c := range cols {
			record[j] = formatCell(c, row, options.MissingToken)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write CSV record %d: %w", row, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteReplicas writes each imputed replica to its own numbered CSV file
// under dir and returns the written paths in replica order.
func (w *CSVWriter) WriteReplicas(dir, base string, replicas []*impute.Result, options WriteOptions) ([]string, error) {
	if len(replicas) == 0 {
		return nil, fmt.Errorf("no replicas to write")
	}
	paths := make([]string, len(replicas))
	for i, replica := range replicas {
		path := filepath.Join(dir, fmt.Sprintf("%s_replica_%02d.csv", base, i+1))
		if err := w.WriteDataset(path, replica.Data, options); err != nil {
			return nil, fmt.Errorf("replica %d: %w", i, err)
		}
		paths[i] = path
	}
	return paths, nil
}

func formatCell(c *dataset.Column, row int, missingToken string) string {
	switch c.Kind() {
	case dataset.Numeric:
		v, ok := c.Float(row)
		if !ok {
			return missingToken
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		v, ok := c.Label(row)
		if !ok {
			return missingToken
		}
		return v
	}
}
