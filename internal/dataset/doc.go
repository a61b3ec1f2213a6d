// Package dataset defines the in-memory tabular model shared by every
// transformation in gapfill.
//
// A Dataset is an ordered collection of named columns with aligned rows.
// Each column is either numeric (float64) or categorical (string), and
// tracks its missing cells in a roaring bitmap kept separate from the
// backing values. A missing cell is a distinguished state: it is never
// represented by a sentinel such as 0, NaN or the empty string, all of
// which remain valid domain values.
//
// Datasets handed to a transformation are treated as immutable input.
// Operations that need to write (the iterative imputer in particular)
// work on a Clone and leave the source untouched.
package dataset
