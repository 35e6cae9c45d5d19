package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lroc/pdfbatch/internal/pdf"
)

// bom is the UTF-8 byte order mark, prepended to CSV output for Excel
// compatibility on Windows.
var bom = []byte{0xEF, 0xBB, 0xBF}

// csvColumns defines the flat tabular column set, one row per file.
var csvColumns = []string{
	"file_name",
	"file_path",
	"file_size_mb",
	"page_count",
	"total_text_length",
	"total_images",
	"has_forms",
	"is_encrypted",
	"pdf_version",
	"title",
	"author",
	"creation_date",
	"error",
	"processing_time",
}

// ReportMetadata describes the run that produced a report.
type ReportMetadata struct {
	ProcessingDate  string `json:"processing_date"`
	TotalFiles      int    `json:"total_files"`
	AnalyzerVersion string `json:"analyzer_version"`
	WorkersUsed     int    `json:"workers_used"`
}

// ReportEntry is one file's outcome in the structured report. Exactly
// one of Analysis or Error is set.
type ReportEntry struct {
	FileName  string              `json:"file_name"`
	FilePath  string              `json:"file_path"`
	Analysis  *pdf.AnalysisResult `json:"analysis,omitempty"`
	Error     string              `json:"error,omitempty"`
	ErrorKind string              `json:"error_kind,omitempty"`
}

// Report is the fully structured serialization form.
type Report struct {
	Metadata   ReportMetadata `json:"metadata"`
	Results    []ReportEntry  `json:"results"`
	Statistics *Statistics    `json:"statistics,omitempty"`
}

// ReportWriter persists batch outcomes. Outcomes are written in input
// order regardless of completion order, so reports are reproducible
// across runs.
type ReportWriter struct {
	version string
	workers int
}

// NewReportWriter creates a writer annotating reports with the tool
// version and worker count used.
func NewReportWriter(version string, workers int) *ReportWriter {
	return &ReportWriter{version: version, workers: workers}
}

// WriteJSON writes the nested report form: run metadata, one entry per
// file in input order, and an optional statistics block.
func (w *ReportWriter) WriteJSON(path string, outcomes []FileOutcome, stats *Statistics) error {
	report := Report{
		Metadata: ReportMetadata{
			ProcessingDate:  time.Now().Format(time.RFC3339),
			TotalFiles:      len(outcomes),
			AnalyzerVersion: w.version,
			WorkersUsed:     w.workers,
		},
		Results:    make([]ReportEntry, 0, len(outcomes)),
		Statistics: stats,
	}
	for _, o := range outcomes {
		report.Results = append(report.Results, entryFor(o))
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return writeFile(path, data)
}

// WriteCSV writes the flat tabular form, one row per file in input
// order. Statistics, when provided, go to a parallel
// "<path>.stats.json" artifact rather than inline.
func (w *ReportWriter) WriteCSV(path string, outcomes []FileOutcome, stats *Statistics) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(bom); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, o := range outcomes {
		if err := cw.Write(csvRow(o)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	if stats != nil {
		return w.writeStatsSidecar(path, stats)
	}
	return nil
}

// writeStatsSidecar writes statistics next to a CSV report.
func (w *ReportWriter) writeStatsSidecar(csvPath string, stats *Statistics) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode statistics: %w", err)
	}
	return writeFile(StatsSidecarPath(csvPath), data)
}

// StatsSidecarPath returns the statistics artifact path for a CSV
// report path.
func StatsSidecarPath(csvPath string) string {
	ext := filepath.Ext(csvPath)
	return csvPath[:len(csvPath)-len(ext)] + ".stats.json"
}

func entryFor(o FileOutcome) ReportEntry {
	if o.OK() {
		return ReportEntry{
			FileName: o.Value.FileName,
			FilePath: o.Value.FilePath,
			Analysis: o.Value,
		}
	}
	return ReportEntry{
		FileName:  filepath.Base(o.Item.Path),
		FilePath:  o.Item.Path,
		Error:     o.Failure.Message,
		ErrorKind: string(o.Failure.Kind),
	}
}

// csvRow converts one outcome to a row matching csvColumns. Failed
// files fill the name, path and error columns and leave the analysis
// columns empty.
func csvRow(o FileOutcome) []string {
	row := make([]string, len(csvColumns))
	if !o.OK() {
		row[0] = filepath.Base(o.Item.Path)
		row[1] = o.Item.Path
		row[12] = o.Failure.Message
		return row
	}

	r := o.Value
	row[0] = r.FileName
	row[1] = r.FilePath
	row[2] = strconv.FormatFloat(r.FileSizeMB, 'f', 2, 64)
	row[3] = strconv.Itoa(r.PageCount)
	row[4] = strconv.Itoa(r.TotalTextLength)
	row[5] = strconv.Itoa(r.ImageCount)
	row[6] = strconv.FormatBool(r.HasForms)
	row[7] = strconv.FormatBool(r.IsEncrypted)
	row[8] = r.PDFVersion
	row[9] = r.Title
	row[10] = r.Author
	row[11] = r.CreationDate
	row[13] = strconv.FormatFloat(r.ProcessingSeconds, 'f', 2, 64)
	return row
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
