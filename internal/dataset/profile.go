package dataset

import "errors"

// ErrNoRows is returned when an operation needs at least one row
var ErrNoRows = errors.New("dataset has no rows")

// Descriptor summarizes the missingness of a single column. It is a
// snapshot: it goes stale if the dataset it was computed from changes.
type Descriptor struct {
	Name            string  `json:"name"`
	Kind            Kind    `json:"-"`
	KindName        string  `json:"kind"`
	MissingCount    int     `json:"missing_count"`
	MissingFraction float64 `json:"missing_fraction"`
}

// Profile computes a missingness descriptor per column, in dataset order.
// The fraction is undefined for an empty dataset, so zero rows is an error.
func Profile(ds *Dataset) ([]Descriptor, error) {
	if ds.Rows() == 0 {
		return nil, ErrNoRows
	}
	out := make([]Descriptor, 0, ds.Cols())
	for _, c := range ds.Columns() {
		n := c.MissingCount()
		out = append(out, Descriptor{
			Name:            c.Name(),
			Kind:            c.Kind(),
			KindName:        c.Kind().String(),
			MissingCount:    n,
			MissingFraction: float64(n) / float64(ds.Rows()),
		})
	}
	return out, nil
}
