// Package transform implements the single-pass, stateless dataset
// transformations: threshold-based row and column exclusion, constant and
// derived-statistic fills, and equal-frequency binning with missingness
// preserved as an explicit category.
//
// Every transformation takes its input dataset as read-only and returns a
// fresh one. Configuration mistakes (thresholds outside [0,1], bin counts
// below 2, unknown columns) wrap ErrInvalidConfig and fail before any
// work starts; data degeneracies either wrap ErrDegenerate or come back
// as a warnable flag on the result, matching how much of the run can
// still be salvaged.
package transform
