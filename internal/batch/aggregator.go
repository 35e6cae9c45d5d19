package batch

import (
	"math"

	"github.com/lroc/pdfbatch/internal/pdf"
)

// FileOutcome is the outcome of analyzing one file.
type FileOutcome = Outcome[*pdf.AnalysisResult]

// SummaryStats holds the headline counts for a batch run.
type SummaryStats struct {
	TotalFiles  int     `json:"total_files"`
	Successful  int     `json:"successful"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// FileStats aggregates file sizes over successful outcomes.
type FileStats struct {
	TotalSizeMB   float64 `json:"total_size_mb"`
	AverageSizeMB float64 `json:"average_size_mb"`
	LargestFile   string  `json:"largest_file,omitempty"`
	SmallestFile  string  `json:"smallest_file,omitempty"`
}

// ContentStats aggregates document content over successful outcomes.
type ContentStats struct {
	TotalPages      int     `json:"total_pages"`
	AveragePages    float64 `json:"average_pages"`
	TotalTextLength int     `json:"total_text_length"`
	FilesWithForms  int     `json:"files_with_forms"`
	FilesWithImages int     `json:"files_with_images"`
	EncryptedFiles  int     `json:"encrypted_files"`
}

// ProcessingStats aggregates wall-clock processing time over all
// outcomes.
type ProcessingStats struct {
	TotalSeconds   float64 `json:"total_processing_time"`
	AverageSeconds float64 `json:"average_processing_time"`
}

// ErrorEntry records one failed file in the statistics block.
type ErrorEntry struct {
	File  string `json:"file"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Statistics is computed once over the full set of outcomes and never
// mutated afterwards.
type Statistics struct {
	Summary    SummaryStats    `json:"summary"`
	Files      FileStats       `json:"file_statistics"`
	Content    ContentStats    `json:"content_statistics"`
	Processing ProcessingStats `json:"processing_statistics"`
	Errors     []ErrorEntry    `json:"errors"`
}

// Compute derives Statistics from a complete set of outcomes. Means are
// computed only over successful outcomes; with zero successes all means
// report as zero.
func Compute(outcomes []FileOutcome) Statistics {
	var stats Statistics
	stats.Summary.TotalFiles = len(outcomes)
	stats.Errors = []ErrorEntry{}

	var (
		totalSizeMB    float64
		largestSizeMB  float64
		smallestSizeMB float64
		totalSeconds   float64
	)

	for _, o := range outcomes {
		if !o.OK() {
			stats.Summary.Failed++
			stats.Errors = append(stats.Errors, ErrorEntry{
				File:  o.Item.Path,
				Kind:  string(o.Failure.Kind),
				Error: o.Failure.Message,
			})
			continue
		}

		r := o.Value
		stats.Summary.Successful++
		totalSizeMB += r.FileSizeMB
		totalSeconds += r.ProcessingSeconds
		stats.Content.TotalPages += r.PageCount
		stats.Content.TotalTextLength += r.TotalTextLength
		if r.HasForms {
			stats.Content.FilesWithForms++
		}
		if r.ImageCount > 0 {
			stats.Content.FilesWithImages++
		}
		if r.IsEncrypted {
			stats.Content.EncryptedFiles++
		}

		if stats.Files.LargestFile == "" || r.FileSizeMB > largestSizeMB {
			largestSizeMB = r.FileSizeMB
			stats.Files.LargestFile = r.FileName
		}
		if stats.Files.SmallestFile == "" || r.FileSizeMB < smallestSizeMB {
			smallestSizeMB = r.FileSizeMB
			stats.Files.SmallestFile = r.FileName
		}
	}

	if stats.Summary.TotalFiles > 0 {
		rate := float64(stats.Summary.Successful) / float64(stats.Summary.TotalFiles) * 100
		stats.Summary.SuccessRate = round1(rate)
		stats.Processing.AverageSeconds = round2(totalSeconds / float64(stats.Summary.TotalFiles))
	}
	stats.Files.TotalSizeMB = round2(totalSizeMB)
	stats.Processing.TotalSeconds = round2(totalSeconds)

	if stats.Summary.Successful > 0 {
		n := float64(stats.Summary.Successful)
		stats.Files.AverageSizeMB = round2(totalSizeMB / n)
		stats.Content.AveragePages = round2(float64(stats.Content.TotalPages) / n)
	}

	return stats
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
