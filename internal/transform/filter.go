package transform

import (
	"errors"
	"fmt"

	"gapfill/internal/dataset"
)

// ErrInvalidConfig is wrapped by every configuration error in this package
var ErrInvalidConfig = errors.New("invalid configuration")

// DropIncompleteRows returns a new dataset containing only the rows that
// have zero missing cells across all columns.
func DropIncompleteRows(ds *dataset.Dataset) (*dataset.Dataset, error) {
	return DropRowsWithMissing(ds, 1)
}

// DropRowsWithMissing returns a new dataset containing only the rows with
// fewer than maxMissing missing cells. maxMissing must be at least 1;
// maxMissing == 1 keeps complete rows only.
func DropRowsWithMissing(ds *dataset.Dataset, maxMissing int) (*dataset.Dataset, error) {
	if maxMissing < 1 {
		return nil, fmt.Errorf("%w: max missing per row must be >= 1, got %d", ErrInvalidConfig, maxMissing)
	}

	keep := make([]int, 0, ds.Rows())
	for row := 0; row < ds.Rows(); row++ {
		count := 0
		for _, c := range ds.Columns() {
			if c.IsMissing(row) {
				count++
			}
		}
		if count < maxMissing {
			keep = append(keep, row)
		}
	}
	return selectRows(ds, keep)
}

// DropSparseColumns returns a new dataset omitting every column whose
// missing fraction is greater than or equal to threshold. A dataset where
// every column exceeds the threshold yields a zero-column dataset; callers
// must detect that degenerate result before downstream use.
func DropSparseColumns(ds *dataset.Dataset, threshold float64) (*dataset.Dataset, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold must be in [0,1], got %g", ErrInvalidConfig, threshold)
	}

	descs, err := dataset.Profile(ds)
	if err != nil {
		return nil, fmt.Errorf("profile dataset: %w", err)
	}

	kept := make([]*dataset.Column, 0, ds.Cols())
	for i, d := range descs {
		if d.MissingFraction < threshold {
			kept = append(kept, ds.ColumnAt(i).Clone())
		}
	}
	return dataset.New(kept...)
}

// selectRows builds a new dataset restricted to the given row indices,
// preserving column order and per-cell missing marks.
func selectRows(ds *dataset.Dataset, rows []int) (*dataset.Dataset, error) {
	cols := make([]*dataset.Column, 0, ds.Cols())
	for _, c := range ds.Columns() {
		var missing []int
		switch c.Kind() {
		case dataset.Numeric:
			values := make([]float64, len(rows))
			for i, row := range rows {
				v, ok := c.Float(row)
				if !ok {
					missing = append(missing, i)
					continue
				}
				values[i] = v
			}
			cols = append(cols, dataset.NewNumeric(c.Name(), values, missing))
		case dataset.Categorical:
			values := make([]string, len(rows))
			for i, row := range rows {
				v, ok := c.Label(row)
				if !ok {
					missing = append(missing, i)
					continue
				}
				values[i] = v
			}
			cols = append(cols, dataset.NewCategorical(c.Name(), values, missing))
		}
	}
	return dataset.New(cols...)
}
