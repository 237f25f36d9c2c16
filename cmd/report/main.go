// Command report runs the full shooting-incident analysis pipeline: fetch
// (or reuse) the source CSV, normalize the schema, build the aggregate
// tables and the fatality-rate regression, and export the bundle as CSV,
// JSON, and a single xlsx workbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"incidentcli/internal/config"
	"incidentcli/internal/dataset"
	"incidentcli/internal/exporter"
	"incidentcli/internal/fetch"
	"incidentcli/internal/report"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file (env vars take precedence)")
	outputDir := flag.String("out", "", "output directory (overrides config)")
	sourcePath := flag.String("source", "", "local CSV to analyze instead of the configured source")
	offline := flag.Bool("offline", false, "never download; fail if the cache is missing")
	refresh := flag.Bool("refresh", false, "re-download the source even when cached")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if err := run(*configPath, *outputDir, *sourcePath, *offline, *refresh, *verbose); err != nil {
		slog.Error("report run failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, outputDir, sourcePath string, offline, refresh, verbose bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if outputDir != "" {
		cfg.Paths.OutputDir = outputDir
	}
	if offline {
		cfg.Source.Offline = true
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)
	ctx := context.Background()

	csvPath := sourcePath
	if csvPath == "" {
		fetcher := fetch.NewFetcher(nil, cfg.Source.Timeout, logger)
		if err := fetcher.Ensure(ctx, cfg.Source.URL, cfg.Source.CacheFile, cfg.Source.Offline, refresh); err != nil {
			return fmt.Errorf("ensure source data: %w", err)
		}
		csvPath = cfg.Source.CacheFile
	}

	logger.InfoContext(ctx, "loading incident data", slog.String("path", csvPath))
	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open source csv: %w", err)
	}
	defer file.Close()

	table, err := dataset.FromCSV(file)
	if err != nil {
		return fmt.Errorf("parse source csv: %w", err)
	}

	svc := report.NewService(logger)
	bundle, err := svc.Run(ctx, table, cfg.Analysis)
	if err != nil {
		return fmt.Errorf("run analysis: %w", err)
	}

	exp := exporter.NewExporter(cfg.Paths.OutputDir, logger)
	written, err := exp.ExportBundle(ctx, bundle)
	if err != nil {
		return fmt.Errorf("export bundle: %w", err)
	}

	for _, path := range written {
		logger.InfoContext(ctx, "wrote report file", slog.String("path", path))
	}
	if bundle.RegressionErr != "" {
		logger.WarnContext(ctx, "regression was skipped",
			slog.String("reason", bundle.RegressionErr))
	}
	logger.InfoContext(ctx, "done",
		slog.String("run_id", bundle.RunID),
		slog.Int("incidents", bundle.TotalIncidents),
		slog.Int("malformed_dates", bundle.MalformedDates))
	return nil
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
