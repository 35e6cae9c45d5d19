// pdfextract pulls structured fields out of PDF documents using a
// named schema, with an AI provider when credentials are available
// and deterministic pattern matching otherwise.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lroc/pdfbatch/internal/batch"
	"github.com/lroc/pdfbatch/internal/config"
	"github.com/lroc/pdfbatch/internal/extract"
	"github.com/lroc/pdfbatch/internal/pdf"
	"github.com/lroc/pdfbatch/internal/schema"
	"github.com/lroc/pdfbatch/pkg/logger"
)

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
	cfg, err := config.LoadExtractFromFlags()
	if err != nil {
		return err
	}
	cfg.Version = version

	if err := logger.Init(cfg.LogLevel, false); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Get()

	s, err := schema.Lookup(cfg.Schema)
	if err != nil {
		return err
	}

	log.Info("starting structured extraction",
		zap.String("version", version),
		zap.String("build_time", buildTime),
		zap.String("git_commit", gitCommit),
		zap.String("schema", s.Name),
		zap.Int("workers", cfg.WorkerCount()),
		zap.Bool("ai_enabled", cfg.AIEnabled()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var provider extract.Provider
	if cfg.AIEnabled() {
		provider = extract.NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.MaxRetries, log)
	} else {
		log.Warn("ANTHROPIC_API_KEY not set, using pattern extraction only")
	}

	dispatcher := batch.NewDispatcher(cfg.Pattern, cfg.Recursive)
	pool := batch.NewPool[*extract.Record](cfg.WorkerCount(), cfg.FileTimeout, log)
	analyzer := pdf.NewAnalyzer(cfg.MaxFileSize)
	extractor := extract.NewExtractor(provider, log)
	runner := extract.NewRunner(dispatcher, pool, analyzer, extractor, cfg.OutputDir, log)

	started := time.Now()
	summary, err := runner.Run(ctx, cfg.Inputs, s)
	if err != nil {
		return err
	}

	log.Info("extraction complete",
		zap.Int("total", summary.TotalFiles),
		zap.Int("processed", len(summary.Processed)),
		zap.Int("failed", len(summary.Failed)),
		zap.Duration("elapsed", time.Since(started)),
		zap.String("output_dir", cfg.OutputDir))

	if summary.TotalFiles == 1 && len(summary.Failed) == 1 {
		f := summary.Failed[0]
		return fmt.Errorf("%s: %s", f.Path, f.Reason)
	}
	return nil
}
