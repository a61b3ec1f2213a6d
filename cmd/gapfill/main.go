package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gapfill/internal/config"
	"gapfill/internal/dataset"
	"gapfill/internal/exporter"
	"gapfill/internal/impute"
	"gapfill/internal/infrastructure"
	"gapfill/internal/source"
	"gapfill/internal/transform"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	input := flag.String("in", "", "input file (csv or xlsx); overrides config")
	output := flag.String("out", "", "output csv path; overrides config")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *input, *output)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("Run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadConfig layers the flag overrides on top of the file/env config.
// Flag values stand in for required fields, so they are applied through
// the environment before validation runs.
func loadConfig(configPath, input, output string) (*config.Config, error) {
	if input != "" {
		os.Setenv("GAPFILL_INPUT_PATH", input)
	}
	if output != "" {
		os.Setenv("GAPFILL_OUTPUT_PATH", output)
	}
	return config.Load(configPath)
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	start := time.Now()

	ds, err := loadDataset(cfg.Input)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	descs, err := dataset.Profile(ds)
	if err != nil {
		return fmt.Errorf("profile dataset: %w", err)
	}
	for _, d := range descs {
		logger.Info("column profile",
			slog.String("column", d.Name),
			slog.String("kind", d.KindName),
			slog.Int("missing", d.MissingCount),
			slog.Float64("missing_fraction", d.MissingFraction),
		)
	}

	if cfg.Filter.ColumnThreshold < 1 {
		filtered, err := transform.DropSparseColumns(ds, cfg.Filter.ColumnThreshold)
		if err != nil {
			return fmt.Errorf("filter columns: %w", err)
		}
		logger.Info("filtered sparse columns",
			slog.Float64("threshold", cfg.Filter.ColumnThreshold),
			slog.Int("columns_before", ds.Cols()),
			slog.Int("columns_after", filtered.Cols()),
		)
		if filtered.Cols() == 0 {
			return fmt.Errorf("every column exceeded missing threshold %g", cfg.Filter.ColumnThreshold)
		}
		ds = filtered
	}

	imputer, err := impute.New(cfg.Impute.Core(), logger)
	if err != nil {
		return fmt.Errorf("configure imputer: %w", err)
	}

	writer := exporter.NewCSVWriter(logger)
	writeOpts := exporter.WriteOptions{BOMPrefix: cfg.Output.BOMPrefix}

	if cfg.Impute.Replicas > 1 {
		replicas, err := imputer.ImputeReplicas(ctx, ds)
		if err != nil {
			return fmt.Errorf("impute replicas: %w", err)
		}
		dir := filepath.Dir(cfg.Output.Path)
		base := strings.TrimSuffix(filepath.Base(cfg.Output.Path), filepath.Ext(cfg.Output.Path))
		paths, err := writer.WriteReplicas(dir, base, replicas, writeOpts)
		if err != nil {
			return fmt.Errorf("write replicas: %w", err)
		}
		logger.Info("replica imputation complete",
			slog.Int("replicas", len(paths)),
			slog.Duration("duration", time.Since(start)),
		)
		return nil
	}

	result, err := imputer.Impute(ctx, ds)
	if err != nil {
		return fmt.Errorf("impute: %w", err)
	}
	logger.Info("imputation complete",
		slog.String("run_id", result.Diagnostics.RunID),
		slog.Bool("converged", result.Diagnostics.Converged),
		slog.String("termination", string(result.Diagnostics.Termination)),
		slog.Int("iterations", result.Diagnostics.Iterations),
		slog.Float64("final_delta", result.Diagnostics.FinalDelta),
		slog.Duration("duration", time.Since(start)),
	)
	for _, note := range result.Diagnostics.Degeneracies {
		logger.Warn("column degeneracy",
			slog.String("column", note.Column),
			slog.String("note", note.Note),
		)
	}

	if err := writer.WriteDataset(cfg.Output.Path, result.Data, writeOpts); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func loadDataset(cfg config.InputConfig) (*dataset.Dataset, error) {
	opts := source.DefaultOptions()
	if cfg.Delimiter != "" {
		opts.Delimiter = rune(cfg.Delimiter[0])
	}
	if cfg.MissingTokens != nil {
		opts.MissingTokens = cfg.MissingTokens
	}

	switch strings.ToLower(filepath.Ext(cfg.Path)) {
	case ".xlsx":
		return source.ReadXLSX(cfg.Path, cfg.Sheet, opts)
	default:
		return source.ReadCSVFile(cfg.Path, opts)
	}
}
