package impute

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"gapfill/internal/dataset"
	"gapfill/internal/model"
	"gapfill/internal/stats"
)

// Imputer fills every missing cell of a mixed numeric/categorical dataset
// with model-based estimates refined over multiple passes.
type Imputer struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an imputer. The configuration is validated up front;
// invalid configuration is fatal before any computation starts.
func New(cfg Config, logger *slog.Logger) (*Imputer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Imputer{cfg: cfg, logger: logger}, nil
}

// target is one column undergoing imputation: the originally-missing rows
// never change across iterations, and only originally-observed rows ever
// serve as training targets.
type target struct {
	index       int
	name        string
	kind        dataset.Kind
	missingRows []int
	// normalizer for the convergence signal of numeric columns: the
	// observed value range, floored at 1 to keep the signal bounded.
	scale float64
}

// Impute produces one completed copy of ds. The source dataset is never
// mutated. Cancellation is honored only at iteration boundaries so the
// working copy can never be left mid-pass.
func (im *Imputer) Impute(ctx context.Context, ds *dataset.Dataset) (*Result, error) {
	return im.impute(ctx, ds, im.cfg.Seed)
}

func (im *Imputer) impute(ctx context.Context, ds *dataset.Dataset, seed int64) (*Result, error) {
	if ds.Rows() == 0 {
		return nil, fmt.Errorf("impute: %w", dataset.ErrNoRows)
	}

	diag := Diagnostics{
		RunID: uuid.New().String(),
		Seed:  seed,
	}
	logger := im.logger.With(slog.String("run_id", diag.RunID))

	working := ds.Clone()
	targets := im.initialize(working, &diag)

	logger.InfoContext(ctx, "imputation initialized",
		slog.Int("rows", ds.Rows()),
		slog.Int("columns", ds.Cols()),
		slog.Int("columns_to_impute", len(targets)),
		slog.Int("missing_cells", ds.MissingCells()),
	)

	if len(targets) == 0 {
		diag.Converged = true
		diag.Termination = TerminatedNoMissing
		return &Result{Data: working, Diagnostics: diag}, nil
	}

	for iter := 1; iter <= im.cfg.MaxIterations; iter++ {
		// Only stop between full passes; a partial column pass would
		// leave the working copy inconsistent.
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("imputation cancelled after %d iterations: %w", diag.Iterations, ctx.Err())
		default:
		}

		delta, err := im.pass(working, targets, seed)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", iter, err)
		}
		diag.Iterations = iter
		diag.FinalDelta = delta
		diag.DeltaHistory = append(diag.DeltaHistory, delta)

		logger.DebugContext(ctx, "imputation pass complete",
			slog.Int("iteration", iter),
			slog.Float64("delta", delta),
		)

		if delta < im.cfg.Tolerance {
			diag.Converged = true
			diag.Termination = TerminatedConverged
			break
		}
	}

	if !diag.Converged {
		diag.Termination = TerminatedIterationCap
		logger.WarnContext(ctx, "imputation did not converge within iteration cap",
			slog.Int("iterations", diag.Iterations),
			slog.Float64("final_delta", diag.FinalDelta),
			slog.Float64("tolerance", im.cfg.Tolerance),
		)
	} else {
		logger.InfoContext(ctx, "imputation converged",
			slog.Int("iterations", diag.Iterations),
			slog.Float64("final_delta", diag.FinalDelta),
		)
	}

	return &Result{Data: working, Diagnostics: diag}, nil
}

// initialize substitutes simple placeholders (mean for numeric, mode for
// categorical) for every missing cell, producing a fully observed working
// copy, and returns the columns to refine in fixed dataset order.
// Columns with zero observed values cannot train a model; they keep their
// placeholder and are reported as degeneracies instead of refined.
func (im *Imputer) initialize(working *dataset.Dataset, diag *Diagnostics) []target {
	var targets []target
	for i, col := range working.Columns() {
		missingRows := col.MissingRows()
		if len(missingRows) == 0 {
			continue
		}

		switch col.Kind() {
		case dataset.Numeric:
			observed := col.ObservedFloats()
			if len(observed) == 0 {
				for _, row := range missingRows {
					col.SetFloat(row, 0)
				}
				diag.Degeneracies = append(diag.Degeneracies, ColumnNote{
					Column: col.Name(),
					Note:   "no observed values; placeholder 0 retained",
				})
				continue
			}
			mean := stats.Mean(observed)
			for _, row := range missingRows {
				col.SetFloat(row, mean)
			}
			lo, hi := stats.MinMax(observed)
			scale := hi - lo
			if scale < 1 {
				scale = 1
			}
			targets = append(targets, target{
				index:       i,
				name:        col.Name(),
				kind:        dataset.Numeric,
				missingRows: missingRows,
				scale:       scale,
			})
		case dataset.Categorical:
			observed := col.ObservedLabels()
			if len(observed) == 0 {
				for _, row := range missingRows {
					col.SetLabel(row, "unknown")
				}
				diag.Degeneracies = append(diag.Degeneracies, ColumnNote{
					Column: col.Name(),
					Note:   "no observed labels; placeholder \"unknown\" retained",
				})
				continue
			}
			mode := stats.LabelMode(observed)
			for _, row := range missingRows {
				col.SetLabel(row, mode)
			}
			targets = append(targets, target{
				index:       i,
				name:        col.Name(),
				kind:        dataset.Categorical,
				missingRows: missingRows,
			})
		}
	}
	return targets
}

// pass runs one full refinement sweep over all target columns and returns
// the aggregate normalized change of the imputed estimates.
func (im *Imputer) pass(working *dataset.Dataset, targets []target, seed int64) (float64, error) {
	var totalChange float64
	var totalCells int

	for _, tgt := range targets {
		col := working.ColumnAt(tgt.index)
		X, catFeature := designMatrix(working, tgt.index)
		trainRows := observedRows(working.Rows(), tgt.missingRows)
		modelSeed := mixSeed(seed, tgt.index)

		switch tgt.kind {
		case dataset.Numeric:
			y := make([]float64, working.Rows())
			for row := 0; row < working.Rows(); row++ {
				y[row], _ = col.Float(row)
			}
			rf := model.NewRandomForestRegressor(
				model.WithTrees(im.cfg.Trees),
				model.WithMaxDepth(im.cfg.MaxDepth),
				model.WithSeed(modelSeed),
			)
			if err := rf.Fit(selectMatrixRows(X, trainRows), catFeature, selectFloats(y, trainRows)); err != nil {
				return 0, fmt.Errorf("fit numeric model for column %q: %w", tgt.name, err)
			}
			for _, row := range tgt.missingRows {
				old, _ := col.Float(row)
				estimate := rf.Predict(X[row])
				totalChange += abs(estimate-old) / tgt.scale
				col.SetFloat(row, estimate)
			}
		case dataset.Categorical:
			codes, labels := labelCodes(col)
			y := make([]int, working.Rows())
			for row := 0; row < working.Rows(); row++ {
				label, _ := col.Label(row)
				y[row] = codes[label]
			}
			rf := model.NewRandomForestClassifier(
				model.WithTrees(im.cfg.Trees),
				model.WithMaxDepth(im.cfg.MaxDepth),
				model.WithSeed(modelSeed),
			)
			if err := rf.Fit(selectMatrixRows(X, trainRows), catFeature, selectInts(y, trainRows)); err != nil {
				return 0, fmt.Errorf("fit categorical model for column %q: %w", tgt.name, err)
			}
			for _, row := range tgt.missingRows {
				old, _ := col.Label(row)
				estimate := labels[rf.Predict(X[row])]
				if estimate != old {
					totalChange++
				}
				col.SetLabel(row, estimate)
			}
		}
		totalCells += len(tgt.missingRows)
	}

	if totalCells == 0 {
		return 0, nil
	}
	return totalChange / float64(totalCells), nil
}

// designMatrix encodes every column except the excluded one as model
// features: numeric columns as their current values, categorical columns
// as integer codes assigned in sorted label order for determinism.
func designMatrix(working *dataset.Dataset, exclude int) ([][]float64, []bool) {
	rows := working.Rows()
	var catFeature []bool
	type encoded struct {
		col   *dataset.Column
		codes map[string]int
	}
	var features []encoded
	for i, col := range working.Columns() {
		if i == exclude {
			continue
		}
		e := encoded{col: col}
		if col.Kind() == dataset.Categorical {
			e.codes, _ = labelCodes(col)
		}
		catFeature = append(catFeature, col.Kind() == dataset.Categorical)
		features = append(features, e)
	}

	X := make([][]float64, rows)
	for row := 0; row < rows; row++ {
		x := make([]float64, len(features))
		for j, e := range features {
			if e.codes != nil {
				label, _ := e.col.Label(row)
				x[j] = float64(e.codes[label])
			} else {
				x[j], _ = e.col.Float(row)
			}
		}
		X[row] = x
	}
	return X, catFeature
}

// labelCodes assigns integer codes to the distinct labels of a fully
// observed categorical column, in sorted label order, and returns both
// directions of the mapping.
func labelCodes(col *dataset.Column) (map[string]int, []string) {
	seen := map[string]struct{}{}
	for row := 0; row < col.Len(); row++ {
		if label, ok := col.Label(row); ok {
			seen[label] = struct{}{}
		}
	}
	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	codes := make(map[string]int, len(labels))
	for i, label := range labels {
		codes[label] = i
	}
	return codes, labels
}

func observedRows(rows int, missingRows []int) []int {
	missing := make(map[int]struct{}, len(missingRows))
	for _, row := range missingRows {
		missing[row] = struct{}{}
	}
	out := make([]int, 0, rows-len(missingRows))
	for row := 0; row < rows; row++ {
		if _, ok := missing[row]; !ok {
			out = append(out, row)
		}
	}
	return out
}

func selectMatrixRows(X [][]float64, rows []int) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = X[row]
	}
	return out
}

func selectFloats(y []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = y[row]
	}
	return out
}

func selectInts(y []int, rows []int) []int {
	out := make([]int, len(rows))
	for i, row := range rows {
		out[i] = y[row]
	}
	return out
}

// mixSeed derives the model seed for one column. The seed is held fixed
// across iterations: once a column's predictors stop changing, its model
// refits identically and the convergence signal can reach an exact fixed
// point instead of chasing fresh bootstrap noise every pass.
func mixSeed(seed int64, column int) int64 {
	return seed + int64(column)*101
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
