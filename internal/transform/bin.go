package transform

import (
	"fmt"
	"sort"
	"strconv"

	"gapfill/internal/dataset"
	"gapfill/internal/stats"
)

// MissingLabel is the explicit category assigned to cells that were
// missing in the source column. Binning preserves missingness as its own
// label instead of dropping or binning those rows.
const MissingLabel = "missing"

// BinResult is the outcome of an equal-frequency binning pass.
//
// Degenerate is set when the column held fewer distinct observed values
// than the requested bin count: the result then carries fewer bins than
// requested and should be surfaced as a warning, not treated as a failure.
type BinResult struct {
	Column     *dataset.Column `json:"-"`
	Requested  int             `json:"requested_bins"`
	Bins       int             `json:"actual_bins"`
	Cuts       []float64       `json:"cuts"`
	Labels     []string        `json:"labels"`
	Degenerate bool            `json:"degenerate"`
}

// EqualFrequencyBins converts a numeric column into n ordered categorical
// bins holding as close as possible to equal counts of the observed
// values. Bin boundaries are the n-1 quantile cut points of the observed
// distribution; a value exactly on a boundary is assigned to the lower
// bin, which keeps the operation deterministic. Missing cells map to
// MissingLabel.
func EqualFrequencyBins(col *dataset.Column, n int) (*BinResult, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: bin count must be >= 2, got %d", ErrInvalidConfig, n)
	}
	if col.Kind() != dataset.Numeric {
		return nil, fmt.Errorf("%w: cannot bin %s column %q", ErrInvalidConfig, col.Kind(), col.Name())
	}

	observed := col.ObservedFloats()
	distinct := distinctCount(observed)

	// Quantile cut points over the observed distribution. Duplicate cuts
	// collapse when the data has heavy ties, leaving fewer bins.
	cuts := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		q := stats.Quantile(observed, float64(i)/float64(n))
		if len(cuts) == 0 || q > cuts[len(cuts)-1] {
			cuts = append(cuts, q)
		}
	}
	// The top quantile can coincide with the maximum, which would leave
	// the last bin empty; drop such a cut.
	if len(observed) > 0 {
		_, max := stats.MinMax(observed)
		if len(cuts) > 0 && cuts[len(cuts)-1] >= max {
			cuts = cuts[:len(cuts)-1]
		}
	}

	labels := binLabels(cuts)
	result := &BinResult{
		Requested:  n,
		Bins:       len(labels),
		Cuts:       cuts,
		Labels:     labels,
		Degenerate: distinct < n,
	}

	values := make([]string, col.Len())
	for row := 0; row < col.Len(); row++ {
		v, ok := col.Float(row)
		if !ok {
			values[row] = MissingLabel
			continue
		}
		values[row] = labels[binIndex(cuts, v)]
	}
	result.Column = dataset.NewCategorical(col.Name(), values, nil)
	return result, nil
}

// binIndex returns the bin for v: the first cut that is >= v bounds the
// bin from above, so boundary values land in the lower bin.
func binIndex(cuts []float64, v float64) int {
	return sort.SearchFloat64s(cuts, v)
}

// binLabels builds the ordered range labels, one per bin.
func binLabels(cuts []float64) []string {
	if len(cuts) == 0 {
		return []string{"(-inf, +inf]"}
	}
	labels := make([]string, 0, len(cuts)+1)
	lo := "-inf"
	for _, cut := range cuts {
		hi := strconv.FormatFloat(cut, 'g', -1, 64)
		labels = append(labels, "("+lo+", "+hi+"]")
		lo = hi
	}
	labels = append(labels, "("+lo+", +inf]")
	return labels
}

func distinctCount(x []float64) int {
	seen := make(map[float64]struct{}, len(x))
	for _, v := range x {
		seen[v] = struct{}{}
	}
	return len(seen)
}
