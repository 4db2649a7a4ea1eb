// Command correlation-report runs a one-shot analysis of the relationship
// between a product's average search position and its order count over a
// fixed date window, producing charts, an Excel workbook and a console report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"adpulse/internal/analysis"
	"adpulse/internal/config"
	"adpulse/internal/report"
	"adpulse/internal/store"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (defaults to ./adpulse.yml when present)")
	dbPath := flag.String("db", "", "path to the SQLite database (overrides config)")
	table := flag.String("table", "", "advertising table name (overrides config)")
	start := flag.String("start", "", "analysis window start date, YYYY-MM-DD (overrides config)")
	end := flag.String("end", "", "analysis window end date, YYYY-MM-DD (overrides config)")
	outDir := flag.String("out", "", "output directory for report files (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyFlags(cfg, *dbPath, *table, *start, *end, *outDir)
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging).With("run_id", uuid.NewString())
	slog.SetDefault(logger)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("Analysis aborted", "error", err)
		os.Exit(1)
	}
}

// run executes the full pipeline: load, clean, aggregate, correlate, report.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	window := analysis.Window{Start: cfg.Analysis.StartDate, End: cfg.Analysis.EndDate}

	logger.InfoContext(ctx, "starting analysis",
		"db", cfg.Database.Path,
		"table", cfg.Database.Table,
		"start", window.Start,
		"end", window.End,
	)

	// Load. A connection or query failure is reported and treated as an
	// empty snapshot rather than propagated.
	st := store.New(cfg.Database.Path, logger)
	table, err := st.FetchWindow(ctx, cfg.Database.Table, window.Start, window.End)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load advertising data", "error", err)
		table = &store.Table{}
	}
	if table.Empty() {
		return fmt.Errorf("no advertising data for window %s to %s", window.Start, window.End)
	}

	// Clean.
	cleaner := analysis.NewCleaner(logger)
	records, cleanStats, err := cleaner.Clean(ctx, table)
	if err != nil {
		var missing *analysis.MissingColumnsError
		switch {
		case errors.As(err, &missing):
			return fmt.Errorf("snapshot schema mismatch: %w", err)
		case errors.Is(err, analysis.ErrInsufficientData):
			return fmt.Errorf("%w: %d of %d rows remain, need %d",
				analysis.ErrInsufficientData, cleanStats.Remaining, cleanStats.RawRows,
				analysis.MinRecordsForAnalysis)
		default:
			return err
		}
	}

	// Aggregate and correlate.
	res := analysis.NewAggregator(logger).Aggregate(ctx, records, window)
	res.CleanStats = cleanStats
	res.Correlation = analysis.Correlate(ctx, logger, records)

	report.PrintFindings(res)

	// Export. Failures here are reported but never roll back artifacts that
	// were already produced.
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		logger.ErrorContext(ctx, "failed to create output directory", "error", err)
		return nil
	}

	panelPath := filepath.Join(cfg.Output.Dir,
		fmt.Sprintf("position_orders_correlation_%s.png", window))
	if err := report.RenderPanels(ctx, logger, res, panelPath); err != nil {
		logger.ErrorContext(ctx, "failed to render panel figure", "error", err)
	}

	trendPath := filepath.Join(cfg.Output.Dir,
		fmt.Sprintf("position_trend_%s.png", window))
	if err := report.RenderTrend(ctx, logger, res, trendPath); err != nil {
		logger.ErrorContext(ctx, "failed to render trend chart", "error", err)
	}

	workbookPath := filepath.Join(cfg.Output.Dir,
		fmt.Sprintf("position_orders_analysis_%s.xlsx", window))
	if err := report.WriteWorkbook(ctx, logger, res, workbookPath); err != nil {
		logger.ErrorContext(ctx, "failed to write workbook", "error", err)
	}

	logger.InfoContext(ctx, "analysis completed",
		"records", res.Summary.Records,
		"pearson", res.Correlation.Pearson,
		"spearman", res.Correlation.Spearman,
	)
	return nil
}

// applyFlags overlays non-empty command line values onto the configuration.
func applyFlags(cfg *config.Config, dbPath, table, start, end, outDir string) {
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if table != "" {
		cfg.Database.Table = table
	}
	if start != "" {
		cfg.Analysis.StartDate = start
	}
	if end != "" {
		cfg.Analysis.EndDate = end
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
}

// newLogger builds the process logger from the logging configuration.
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
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
