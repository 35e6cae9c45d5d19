package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lroc/pdfbatch/internal/batch"
	"github.com/lroc/pdfbatch/internal/pdf"
	"github.com/lroc/pdfbatch/internal/schema"
)

// SummaryFileName is the run-level summary artifact, written once at
// run completion.
const SummaryFileName = "extraction_summary.json"

// TextExtractor is the document text capability the Runner consumes.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// FailedFile records one input that did not produce a record.
type FailedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Summary describes a full extraction run. Processed and Failed keep
// input enumeration order.
type Summary struct {
	ProcessingStart string       `json:"processing_start"`
	ProcessingEnd   string       `json:"processing_end"`
	SchemaName      string       `json:"schema_name"`
	OutputDirectory string       `json:"output_directory"`
	TotalFiles      int          `json:"total_files"`
	Processed       []string     `json:"processed_files"`
	Failed          []FailedFile `json:"failed_files"`
}

// Runner composes input enumeration, the worker pool and the
// schema extractor: one output record per input plus a run summary.
type Runner struct {
	dispatcher *batch.Dispatcher
	pool       *batch.Pool[*Record]
	texts      TextExtractor
	extractor  *Extractor
	outputDir  string
	logger     *zap.Logger
}

// NewRunner creates a Runner writing records and the summary under
// outputDir.
func NewRunner(
	dispatcher *batch.Dispatcher,
	pool *batch.Pool[*Record],
	texts TextExtractor,
	extractor *Extractor,
	outputDir string,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		dispatcher: dispatcher,
		pool:       pool,
		texts:      texts,
		extractor:  extractor,
		outputDir:  outputDir,
		logger:     logger,
	}
}

// Run processes every input file: extract text, apply the schema,
// persist one record per file. Per-file failures are recorded in the
// summary without interrupting the rest of the batch. The summary is
// finalized and written exactly once at run end.
func (r *Runner) Run(ctx context.Context, inputs []string, s schema.Schema) (*Summary, error) {
	items, err := r.dispatcher.Enumerate(inputs)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no files matched the supplied inputs")
	}

	if err := os.MkdirAll(r.outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	summary := &Summary{
		ProcessingStart: time.Now().Format(time.RFC3339),
		SchemaName:      s.Name,
		OutputDirectory: r.outputDir,
		TotalFiles:      len(items),
		Processed:       []string{},
		Failed:          []FailedFile{},
	}

	r.logger.Info("starting extraction run",
		zap.Int("files", len(items)),
		zap.String("schema", s.Name),
		zap.String("output_dir", r.outputDir),
	)

	outcomes := r.pool.Run(ctx, items, func(ctx context.Context, item batch.WorkItem) (*Record, *pdf.Failure) {
		text, err := r.texts.ExtractText(ctx, item.Path)
		if err != nil {
			return nil, pdf.Classify(item.Path, err)
		}

		record := r.extractor.Extract(ctx, item.Path, text, s)
		if err := r.writeRecord(record); err != nil {
			return nil, pdf.NewFailure(pdf.KindUnknown, item.Path, err.Error())
		}
		return record, nil
	})

	// Outcomes come back in input order; the summary inherits it.
	for _, o := range outcomes {
		if o.OK() {
			summary.Processed = append(summary.Processed, o.Item.Path)
		} else {
			summary.Failed = append(summary.Failed, FailedFile{
				Path:   o.Item.Path,
				Reason: o.Failure.Message,
			})
		}
	}

	summary.ProcessingEnd = time.Now().Format(time.RFC3339)
	if err := r.writeSummary(summary); err != nil {
		return nil, err
	}

	r.logger.Info("extraction run complete",
		zap.Int("processed", len(summary.Processed)),
		zap.Int("failed", len(summary.Failed)),
	)
	return summary, nil
}

// RecordPath returns the output path for one input file's record.
func (r *Runner) RecordPath(inputPath string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(r.outputDir, base+"_extracted.json")
}

func (r *Runner) writeRecord(record *Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	path := r.RecordPath(record.SourcePath)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("failed to write record %s: %w", path, err)
	}
	return nil
}

func (r *Runner) writeSummary(summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	path := filepath.Join(r.outputDir, SummaryFileName)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("failed to write summary %s: %w", path, err)
	}
	return nil
}
