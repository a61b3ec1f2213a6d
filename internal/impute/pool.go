package impute

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"gapfill/internal/dataset"
	"gapfill/internal/stats"
)

// replicaSeedStride separates the seed streams of consecutive replicas.
// The derivation is deterministic: the same base seed always yields the
// same replica set, and distinct base seeds yield distinct streams.
const replicaSeedStride = 7919

func replicaSeed(base int64, replica int) int64 {
	return base + int64(replica)*replicaSeedStride
}

// ImputeReplicas produces Config.Replicas independently imputed copies of
// ds. Each replica runs the full initialization and refinement sequence
// with its own derived seed; replicas share no mutable state and may be
// computed in parallel, with the source dataset shared read-only.
// Replicas are returned in replica order regardless of completion order.
func (im *Imputer) ImputeReplicas(ctx context.Context, ds *dataset.Dataset) ([]*Result, error) {
	m := im.cfg.Replicas
	results := make([]*Result, m)

	im.logger.InfoContext(ctx, "starting replica imputation",
		slog.Int("replicas", m),
		slog.Int("max_concurrency", im.cfg.MaxConcurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.cfg.MaxConcurrency)
	for i := 0; i < m; i++ {
		i := i
		g.Go(func() error {
			res, err := im.impute(gctx, ds, replicaSeed(im.cfg.Seed, i))
			if err != nil {
				return fmt.Errorf("replica %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// PooledCoefficients aggregates model coefficients fit separately on each
// replica. The between-replica variance quantifies imputation
// uncertainty.
type PooledCoefficients struct {
	Mean     []float64 `json:"mean"`
	Variance []float64 `json:"variance"`
	Replicas int       `json:"replicas"`
}

// PoolCoefficients averages per-replica coefficient vectors position by
// position. All vectors must have the same length.
func PoolCoefficients(coefficients [][]float64) (*PooledCoefficients, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("%w: no coefficient vectors to pool", ErrInvalidConfig)
	}
	width := len(coefficients[0])
	for i, c := range coefficients {
		if len(c) != width {
			return nil, fmt.Errorf("%w: coefficient vector %d has length %d, want %d", ErrInvalidConfig, i, len(c), width)
		}
	}

	pooled := &PooledCoefficients{
		Mean:     make([]float64, width),
		Variance: make([]float64, width),
		Replicas: len(coefficients),
	}
	column := make([]float64, len(coefficients))
	for j := 0; j < width; j++ {
		for i, c := range coefficients {
			column[i] = c[j]
		}
		pooled.Mean[j] = stats.Mean(column)
		pooled.Variance[j] = stats.Variance(column)
	}
	return pooled, nil
}
