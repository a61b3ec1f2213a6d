package impute

import (
	"errors"
	"fmt"

	"gapfill/internal/dataset"
)

// ErrInvalidConfig is wrapped by every configuration error in this
// package. Configuration errors are fatal and surface before any
// computation starts.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config controls one imputation run. All randomness in a run derives
// from Seed, so two runs with equal configuration over the same dataset
// produce bit-identical output.
type Config struct {
	// MaxIterations is the iteration cap K over full column passes.
	MaxIterations int
	// Tolerance is the convergence threshold on the aggregate normalized
	// change of imputed estimates between consecutive passes.
	Tolerance float64
	// Replicas is the number of independently imputed copies M.
	Replicas int
	// Seed drives placeholder draws and model stochasticity. Replica m
	// derives its own seed deterministically from this value.
	Seed int64
	// Trees is the forest size of each per-column model.
	Trees int
	// MaxDepth bounds each tree in the per-column forests. 0 means no
	// explicit limit.
	MaxDepth int
	// MaxConcurrency caps how many replicas compute in parallel.
	MaxConcurrency int
}

// DefaultConfig returns the recommended defaults for a single-imputation
// run.
func DefaultConfig() Config {
	return Config{
		MaxIterations:  10,
		Tolerance:      1e-3,
		Replicas:       1,
		Seed:           1,
		Trees:          25,
		MaxDepth:       8,
		MaxConcurrency: 4,
	}
}

// Validate checks the configuration. All violations wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations must be >= 1, got %d", ErrInvalidConfig, c.MaxIterations)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be > 0, got %g", ErrInvalidConfig, c.Tolerance)
	}
	if c.Replicas < 1 {
		return fmt.Errorf("%w: replicas must be >= 1, got %d", ErrInvalidConfig, c.Replicas)
	}
	if c.Trees < 1 {
		return fmt.Errorf("%w: trees must be >= 1, got %d", ErrInvalidConfig, c.Trees)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("%w: max concurrency must be >= 1, got %d", ErrInvalidConfig, c.MaxConcurrency)
	}
	return nil
}

// Termination identifies which condition ended the iterative refinement.
type Termination string

const (
	// TerminatedConverged means the convergence signal fell below tolerance.
	TerminatedConverged Termination = "converged"
	// TerminatedIterationCap means the iteration budget ran out first.
	TerminatedIterationCap Termination = "iteration_cap"
	// TerminatedNoMissing means the input had nothing to impute.
	TerminatedNoMissing Termination = "no_missing"
)

// ColumnNote records a per-column degeneracy encountered during a run.
// Degeneracies do not abort the run; the affected column falls back to
// its initialization placeholder.
type ColumnNote struct {
	Column string `json:"column"`
	Note   string `json:"note"`
}

// Diagnostics describes how a run went. NonConvergence is reported here
// as a warning (Converged == false with the last achieved signal), never
// as a hard failure: the best-effort result is still usable.
type Diagnostics struct {
	RunID        string       `json:"run_id"`
	Seed         int64        `json:"seed"`
	Iterations   int          `json:"iterations"`
	Converged    bool         `json:"converged"`
	Termination  Termination  `json:"termination"`
	FinalDelta   float64      `json:"final_delta"`
	DeltaHistory []float64    `json:"delta_history"`
	Degeneracies []ColumnNote `json:"degeneracies,omitempty"`
}

// Result is one completed imputation: a dataset with zero missing cells
// (given at least one observed training row per imputed column) plus the
// diagnostics of the run that produced it. With M > 1 each replica is one
// Result.
type Result struct {
	Data        *dataset.Dataset
	Diagnostics Diagnostics
}
