package transform

import (
	"errors"
	"fmt"

	"gapfill/internal/dataset"
	"gapfill/internal/stats"
)

// ErrDegenerate marks inputs that leave a fill rule with nothing to
// compute from, such as deriving a mean over an entirely missing column
var ErrDegenerate = errors.New("degenerate input")

// FillMethod selects how a missing cell in a target column is replaced
type FillMethod int

const (
	// FillConstant replaces missing cells with a fixed value
	FillConstant FillMethod = iota
	// FillMean replaces missing cells with the mean of observed values
	FillMean
	// FillMedian replaces missing cells with the median of observed values
	FillMedian
	// FillMode replaces missing cells with the most frequent observed value
	FillMode
)

// String returns the string representation of the method
func (m FillMethod) String() string {
	switch m {
	case FillConstant:
		return "constant"
	case FillMean:
		return "mean"
	case FillMedian:
		return "median"
	case FillMode:
		return "mode"
	default:
		return "unknown"
	}
}

// ParseFillMethod converts a string into a FillMethod
func ParseFillMethod(s string) (FillMethod, error) {
	switch s {
	case "constant":
		return FillConstant, nil
	case "mean":
		return FillMean, nil
	case "median":
		return FillMedian, nil
	case "mode":
		return FillMode, nil
	default:
		return 0, fmt.Errorf("%w: unknown fill method %q", ErrInvalidConfig, s)
	}
}

// FillRule describes the replacement for one target column. Constant is
// used for numeric columns, Label for categorical ones; only the field
// matching the column kind is read, and only when Method is FillConstant.
type FillRule struct {
	Method   FillMethod
	Constant float64
	Label    string
}

// Fill replaces missing cells in the named target columns according to
// their rules and returns a new dataset. Columns without a rule are left
// untouched, missing marks included. Mean and median derive from observed
// values only; mode ties break on the first value encountered in column
// order.
func Fill(ds *dataset.Dataset, rules map[string]FillRule) (*dataset.Dataset, error) {
	for name := range rules {
		if _, ok := ds.Column(name); !ok {
			return nil, fmt.Errorf("%w: no such column %q", ErrInvalidConfig, name)
		}
	}

	out := ds.Clone()
	// Apply in dataset order so errors are reproducible regardless of map
	// iteration.
	for _, name := range out.Names() {
		rule, ok := rules[name]
		if !ok {
			continue
		}
		col, _ := out.Column(name)
		if err := fillColumn(col, rule); err != nil {
			return nil, fmt.Errorf("fill column %q: %w", name, err)
		}
	}
	return out, nil
}

func fillColumn(col *dataset.Column, rule FillRule) error {
	rows := col.MissingRows()
	if len(rows) == 0 {
		return nil
	}

	switch col.Kind() {
	case dataset.Numeric:
		value, err := numericFillValue(col, rule)
		if err != nil {
			return err
		}
		for _, row := range rows {
			col.SetFloat(row, value)
		}
	case dataset.Categorical:
		value, err := labelFillValue(col, rule)
		if err != nil {
			return err
		}
		for _, row := range rows {
			col.SetLabel(row, value)
		}
	}
	return nil
}

func numericFillValue(col *dataset.Column, rule FillRule) (float64, error) {
	if rule.Method == FillConstant {
		return rule.Constant, nil
	}
	observed := col.ObservedFloats()
	if len(observed) == 0 {
		return 0, fmt.Errorf("%w: no observed values to derive %s from", ErrDegenerate, rule.Method)
	}
	switch rule.Method {
	case FillMean:
		return stats.Mean(observed), nil
	case FillMedian:
		return stats.Median(observed), nil
	case FillMode:
		return stats.Mode(observed), nil
	default:
		return 0, fmt.Errorf("%w: unknown fill method %d", ErrInvalidConfig, rule.Method)
	}
}

func labelFillValue(col *dataset.Column, rule FillRule) (string, error) {
	switch rule.Method {
	case FillConstant:
		return rule.Label, nil
	case FillMode:
		observed := col.ObservedLabels()
		if len(observed) == 0 {
			return "", fmt.Errorf("%w: no observed labels to derive mode from", ErrDegenerate)
		}
		return stats.LabelMode(observed), nil
	default:
		return "", fmt.Errorf("%w: %s fill is not defined for categorical columns", ErrInvalidConfig, rule.Method)
	}
}
