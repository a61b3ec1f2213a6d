package dataset

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Kind identifies the value domain of a column
type Kind int

const (
	// Numeric columns hold float64 values
	Numeric Kind = iota
	// Categorical columns hold string labels
	Categorical
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// ParseKind converts a string into a Kind
func ParseKind(s string) (Kind, error) {
	switch s {
	case "numeric":
		return Numeric, nil
	case "categorical":
		return Categorical, nil
	default:
		return 0, fmt.Errorf("unknown column kind %q", s)
	}
}

// Column is a single named column of a Dataset. Missing cells are tracked
// in a separate bitmap; the backing value at a missing position is
// undefined and must never be read as data.
type Column struct {
	name    string
	kind    Kind
	nums    []float64
	cats    []string
	missing *roaring.Bitmap
}

// NewNumeric creates a numeric column. Rows listed in missing are marked
// as missing regardless of the value stored at that position.
func NewNumeric(name string, values []float64, missing []int) *Column {
	c := &Column{
		name:    name,
		kind:    Numeric,
		nums:    append([]float64(nil), values...),
		missing: roaring.New(),
	}
	for _, row := range missing {
		if row >= 0 && row < len(values) {
			c.missing.Add(uint32(row))
		}
	}
	return c
}

// NewCategorical creates a categorical column. Rows listed in missing are
// marked as missing regardless of the label stored at that position.
func NewCategorical(name string, values []string, missing []int) *Column {
	c := &Column{
		name:    name,
		kind:    Categorical,
		cats:    append([]string(nil), values...),
		missing: roaring.New(),
	}
	for _, row := range missing {
		if row >= 0 && row < len(values) {
			c.missing.Add(uint32(row))
		}
	}
	return c
}

// Name returns the column name
func (c *Column) Name() string { return c.name }

// Kind returns the column kind
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of rows in the column
func (c *Column) Len() int {
	if c.kind == Numeric {
		return len(c.nums)
	}
	return len(c.cats)
}

// IsMissing reports whether the cell at row is missing
func (c *Column) IsMissing(row int) bool {
	return c.missing.Contains(uint32(row))
}

// MissingCount returns the number of missing cells in the column
func (c *Column) MissingCount() int {
	return int(c.missing.GetCardinality())
}

// MissingRows returns the row indices of missing cells in ascending order
func (c *Column) MissingRows() []int {
	out := make([]int, 0, c.missing.GetCardinality())
	it := c.missing.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Float returns the numeric value at row. The second return is false when
// the cell is missing or the column is not numeric.
func (c *Column) Float(row int) (float64, bool) {
	if c.kind != Numeric || row < 0 || row >= len(c.nums) || c.IsMissing(row) {
		return 0, false
	}
	return c.nums[row], true
}

// Label returns the categorical label at row. The second return is false
// when the cell is missing or the column is not categorical.
func (c *Column) Label(row int) (string, bool) {
	if c.kind != Categorical || row < 0 || row >= len(c.cats) || c.IsMissing(row) {
		return "", false
	}
	return c.cats[row], true
}

// SetFloat stores a numeric value at row and clears its missing mark.
// It panics on a categorical column; callers dispatch on Kind first.
func (c *Column) SetFloat(row int, v float64) {
	if c.kind != Numeric {
		panic(fmt.Sprintf("dataset: SetFloat on %s column %q", c.kind, c.name))
	}
	c.nums[row] = v
	c.missing.Remove(uint32(row))
}

// SetLabel stores a categorical label at row and clears its missing mark.
// It panics on a numeric column; callers dispatch on Kind first.
func (c *Column) SetLabel(row int, v string) {
	if c.kind != Categorical {
		panic(fmt.Sprintf("dataset: SetLabel on %s column %q", c.kind, c.name))
	}
	c.cats[row] = v
	c.missing.Remove(uint32(row))
}

// ObservedFloats returns the non-missing numeric values in row order
func (c *Column) ObservedFloats() []float64 {
	if c.kind != Numeric {
		return nil
	}
	out := make([]float64, 0, len(c.nums)-c.MissingCount())
	for i, v := range c.nums {
		if !c.IsMissing(i) {
			out = append(out, v)
		}
	}
	return out
}

// ObservedLabels returns the non-missing labels in row order
func (c *Column) ObservedLabels() []string {
	if c.kind != Categorical {
		return nil
	}
	out := make([]string, 0, len(c.cats)-c.MissingCount())
	for i, v := range c.cats {
		if !c.IsMissing(i) {
			out = append(out, v)
		}
	}
	return out
}

// Clone returns a deep copy of the column
func (c *Column) Clone() *Column {
	out := &Column{
		name:    c.name,
		kind:    c.kind,
		missing: c.missing.Clone(),
	}
	if c.nums != nil {
		out.nums = append([]float64(nil), c.nums...)
	}
	if c.cats != nil {
		out.cats = append([]string(nil), c.cats...)
	}
	return out
}

// Dataset is an ordered collection of aligned columns. All columns share
// the same row count. Transformations never mutate their input Dataset;
// they return new datasets or operate on a Clone.
type Dataset struct {
	columns []*Column
	byName  map[string]int
	rows    int
}

// New builds a Dataset from the given columns. All columns must have the
// same length and distinct names.
func New(columns ...*Column) (*Dataset, error) {
	ds := &Dataset{
		columns: make([]*Column, 0, len(columns)),
		byName:  make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if col == nil {
			return nil, fmt.Errorf("dataset: column %d is nil", i)
		}
		if _, dup := ds.byName[col.name]; dup {
			return nil, fmt.Errorf("dataset: duplicate column name %q", col.name)
		}
		if i == 0 {
			ds.rows = col.Len()
		} else if col.Len() != ds.rows {
			return nil, fmt.Errorf("dataset: column %q has %d rows, want %d", col.name, col.Len(), ds.rows)
		}
		ds.byName[col.name] = len(ds.columns)
		ds.columns = append(ds.columns, col)
	}
	return ds, nil
}

// Rows returns the number of rows
func (ds *Dataset) Rows() int { return ds.rows }

// Cols returns the number of columns
func (ds *Dataset) Cols() int { return len(ds.columns) }

// Names returns the column names in dataset order
func (ds *Dataset) Names() []string {
	out := make([]string, len(ds.columns))
	for i, c := range ds.columns {
		out[i] = c.name
	}
	return out
}

// Column returns the named column, or false when absent
func (ds *Dataset) Column(name string) (*Column, bool) {
	i, ok := ds.byName[name]
	if !ok {
		return nil, false
	}
	return ds.columns[i], true
}

// ColumnAt returns the column at position i
func (ds *Dataset) ColumnAt(i int) *Column { return ds.columns[i] }

// Columns returns the columns in dataset order. The slice is a copy but
// the columns themselves are shared; use Clone for an isolated dataset.
func (ds *Dataset) Columns() []*Column {
	return append([]*Column(nil), ds.columns...)
}

// MissingCells returns the total number of missing cells across all columns
func (ds *Dataset) MissingCells() int {
	total := 0
	for _, c := range ds.columns {
		total += c.MissingCount()
	}
	return total
}

// Clone returns a deep copy of the dataset
func (ds *Dataset) Clone() *Dataset {
	cols := make([]*Column, len(ds.columns))
	for i, c := range ds.columns {
		cols[i] = c.Clone()
	}
	out, _ := New(cols...)
	return out
}
