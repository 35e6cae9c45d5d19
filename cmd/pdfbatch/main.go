// pdfbatch analyzes a set of PDF files in parallel and writes a
// consolidated report with per-file results and batch statistics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lroc/pdfbatch/internal/batch"
	"github.com/lroc/pdfbatch/internal/config"
	"github.com/lroc/pdfbatch/internal/pdf"
	"github.com/lroc/pdfbatch/pkg/logger"
)

// Build-time variables set via ldflags
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadBatchFromFlags()
	if err != nil {
		return err
	}
	cfg.Version = version

	if err := logger.Init(cfg.LogLevel, false); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Get()

	log.Info("starting batch analysis",
		zap.String("version", version),
		zap.String("build_time", buildTime),
		zap.String("git_commit", gitCommit),
		zap.Int("workers", cfg.WorkerCount()),
		zap.String("format", cfg.Format))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := batch.NewDispatcher(cfg.Pattern, cfg.Recursive)
	items, err := dispatcher.Enumerate(cfg.Inputs)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no PDF files found to process")
	}
	log.Info("enumerated input files", zap.Int("count", len(items)))

	analyzer := pdf.NewAnalyzer(cfg.MaxFileSize)
	pool := batch.NewPool[*pdf.AnalysisResult](cfg.WorkerCount(), cfg.FileTimeout, log)

	started := time.Now()
	outcomes := pool.Run(ctx, items, func(ctx context.Context, item batch.WorkItem) (*pdf.AnalysisResult, *pdf.Failure) {
		result, err := analyzer.Analyze(ctx, item.Path)
		if err != nil {
			return nil, pdf.Classify(item.Path, err)
		}
		return result, nil
	})

	stats := batch.Compute(outcomes)
	writer := batch.NewReportWriter(version, cfg.WorkerCount())

	switch cfg.Format {
	case config.FormatCSV:
		err = writer.WriteCSV(cfg.Output, outcomes, &stats)
	default:
		err = writer.WriteJSON(cfg.Output, outcomes, &stats)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	log.Info("batch analysis complete",
		zap.Int("total", stats.Summary.TotalFiles),
		zap.Int("successful", stats.Summary.Successful),
		zap.Int("failed", stats.Summary.Failed),
		zap.Float64("success_rate", stats.Summary.SuccessRate),
		zap.Duration("elapsed", time.Since(started)),
		zap.String("output", cfg.Output))

	if cfg.Format == config.FormatCSV {
		log.Info("wrote statistics sidecar",
			zap.String("path", batch.StatsSidecarPath(cfg.Output)))
	}

	// A single-file run whose only file failed is an error run.
	if len(items) == 1 && stats.Summary.Failed == 1 {
		e := stats.Errors[0]
		return fmt.Errorf("%s: %s", strings.TrimSpace(e.File), e.Error)
	}
	return nil
}
