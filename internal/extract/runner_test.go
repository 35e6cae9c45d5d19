package extract

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lroc/pdfbatch/internal/batch"
)

// stubTexts maps file base names to extracted text, or errors.
type stubTexts struct {
	texts map[string]string
	errs  map[string]error
}

func (s *stubTexts) ExtractText(ctx context.Context, path string) (string, error) {
	base := filepath.Base(path)
	if err, ok := s.errs[base]; ok {
		return "", err
	}
	return s.texts[base], nil
}

func writeStubPDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o640))
	return path
}

func newTestRunner(t *testing.T, texts *stubTexts, outputDir string) *Runner {
	t.Helper()
	return NewRunner(
		batch.NewDispatcher("*.pdf", false),
		batch.NewPool[*Record](2, 0, nil),
		texts,
		NewExtractor(nil, nil),
		outputDir,
		nil,
	)
}

func TestRunnerWritesRecordsAndSummary(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "extracted")
	writeStubPDF(t, inputDir, "alpha.pdf")
	writeStubPDF(t, inputDir, "bravo.pdf")

	texts := &stubTexts{texts: map[string]string{
		"alpha.pdf": "Maria Gonzalez, A-Number: A12345678",
		"bravo.pdf": "",
	}}
	runner := newTestRunner(t, texts, outputDir)

	s := mustSchema(t, "client")
	summary, err := runner.Run(context.Background(), []string{inputDir}, s)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalFiles)
	assert.Len(t, summary.Processed, 2)
	assert.Empty(t, summary.Failed)
	assert.Equal(t, "client", summary.SchemaName)
	assert.NotEmpty(t, summary.ProcessingStart)
	assert.NotEmpty(t, summary.ProcessingEnd)

	// One record file per input, named after the source
	var alpha Record
	data, err := os.ReadFile(filepath.Join(outputDir, "alpha_extracted.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &alpha))
	assert.Equal(t, "A12345678", *alpha.Fields["a_number"])
	assert.Equal(t, MethodPattern, alpha.Method)

	// The empty document still yields a valid all-null record
	var bravo Record
	data, err = os.ReadFile(filepath.Join(outputDir, "bravo_extracted.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &bravo))
	for name, v := range bravo.Fields {
		assert.Nil(t, v, "field %s should be null", name)
	}
	assert.ElementsMatch(t, s.Required, bravo.MissingRequired)

	// The summary artifact is on disk too
	data, err = os.ReadFile(filepath.Join(outputDir, SummaryFileName))
	require.NoError(t, err)
	var onDisk Summary
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, summary.Processed, onDisk.Processed)
}

func TestRunnerRecordsPerFileFailures(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "extracted")
	writeStubPDF(t, inputDir, "good.pdf")
	writeStubPDF(t, inputDir, "broken.pdf")

	texts := &stubTexts{
		texts: map[string]string{"good.pdf": "A-Number: A12345678"},
		errs:  map[string]error{"broken.pdf": errors.New("malformed PDF: bad pointer")},
	}
	runner := newTestRunner(t, texts, outputDir)

	summary, err := runner.Run(context.Background(), []string{inputDir}, mustSchema(t, "client"))
	require.NoError(t, err, "one broken file must not abort the run")

	assert.Len(t, summary.Processed, 1)
	require.Len(t, summary.Failed, 1)
	assert.Contains(t, summary.Failed[0].Path, "broken.pdf")
	assert.Contains(t, summary.Failed[0].Reason, "malformed")

	_, err = os.Stat(filepath.Join(outputDir, "good_extracted.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outputDir, "broken_extracted.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunnerSummaryKeepsInputOrder(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "extracted")
	for _, name := range []string{"zulu.pdf", "alpha.pdf", "mike.pdf"} {
		writeStubPDF(t, inputDir, name)
	}

	runner := newTestRunner(t, &stubTexts{}, outputDir)
	summary, err := runner.Run(context.Background(), []string{inputDir}, mustSchema(t, "legal"))
	require.NoError(t, err)

	require.Len(t, summary.Processed, 3)
	assert.Contains(t, summary.Processed[0], "alpha.pdf")
	assert.Contains(t, summary.Processed[1], "mike.pdf")
	assert.Contains(t, summary.Processed[2], "zulu.pdf")
}

func TestRunnerNoMatchesIsError(t *testing.T) {
	runner := newTestRunner(t, &stubTexts{}, t.TempDir())
	_, err := runner.Run(context.Background(), []string{t.TempDir()}, mustSchema(t, "client"))
	assert.ErrorContains(t, err, "no files matched")
}

func TestRecordPath(t *testing.T) {
	runner := newTestRunner(t, &stubTexts{}, "/out")
	assert.Equal(t, "/out/case_extracted.json", runner.RecordPath("/docs/case.pdf"))
	assert.Equal(t, "/out/scan_extracted.json", runner.RecordPath("scan.PDF"))
}
