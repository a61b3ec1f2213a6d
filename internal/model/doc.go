// Package model provides the per-column predictive models used by the
// iterative imputer: CART trees and random forests in a regression
// variant for numeric targets and a classification variant for
// categorical targets. Both accept an arbitrary mix of numeric and
// categorical predictors, the latter as integer codes flagged through a
// catFeature mask. All randomness derives from an explicit seed so that
// repeated fits reproduce bit-identical forests.
package model
