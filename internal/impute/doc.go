// Package impute implements iterative multivariate imputation over mixed
// numeric/categorical datasets, in the style of chained equations.
//
// # Algorithm
//
// Every column with missing cells first receives a simple placeholder
// (mean for numeric columns, mode for categorical ones), producing a
// fully observed working copy. The imputer then cycles over those columns
// in fixed dataset order: for each, it fits a random forest on the rows
// where the column was originally observed, using the current values of
// all other columns as predictors, and overwrites only the estimates at
// the originally-missing rows. Originally-observed cells are never
// altered and never predicted; originally-missing cells never serve as
// training targets, in any iteration.
//
// After each full pass the aggregate normalized change of the estimates
// is compared against the configured tolerance; refinement stops at
// convergence or once the iteration cap is exhausted, and the diagnostics
// report which condition fired. Hitting the cap is a warning, not a
// failure.
//
// # Multiple imputation
//
// With Replicas > 1 the whole initialization and refinement sequence is
// repeated once per replica under an independently derived seed, yielding
// independent completed copies whose spread quantifies imputation
// uncertainty. PoolCoefficients combines coefficient vectors fit
// downstream on each replica.
//
// # Reproducibility
//
// The column processing order is the dataset's column order and all
// stochasticity derives from the configured seed, so a run is fully
// reproducible: equal seed, equal output.
package impute
