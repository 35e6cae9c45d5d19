package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o640))
	return path
}

func TestAnalyzeRejectsMissingFile(t *testing.T) {
	a := NewAnalyzer(100 * 1024 * 1024)
	_, err := a.Analyze(context.Background(), "/no/such/file.pdf")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, Classify("/no/such/file.pdf", err).Kind)
}

func TestAnalyzeRejectsNonPDFContent(t *testing.T) {
	a := NewAnalyzer(100 * 1024 * 1024)
	path := writeFixture(t, "fake.pdf", []byte("this is plain text, not a PDF"))

	_, err := a.Analyze(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, KindCorrupt, Classify(path, err).Kind)
}

func TestValidateFile(t *testing.T) {
	a := NewAnalyzer(1024)

	t.Run("directory", func(t *testing.T) {
		dir := t.TempDir()
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.ErrorContains(t, a.validateFile(dir, info), "directory")
	})

	t.Run("wrong extension", func(t *testing.T) {
		path := writeFixture(t, "doc.txt", []byte("text"))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.ErrorContains(t, a.validateFile(path, info), "not a PDF")
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeFixture(t, "empty.pdf", nil)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.ErrorContains(t, a.validateFile(path, info), "file is empty")
	})

	t.Run("oversized file", func(t *testing.T) {
		path := writeFixture(t, "big.pdf", make([]byte, 2048))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.ErrorContains(t, a.validateFile(path, info), "file too large")
	})

	t.Run("uppercase extension accepted", func(t *testing.T) {
		path := writeFixture(t, "scan.PDF", []byte("%PDF-1.4"))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.NoError(t, a.validateFile(path, info))
	})
}

func TestReadHeaderVersion(t *testing.T) {
	t.Run("standard header", func(t *testing.T) {
		path := writeFixture(t, "v17.pdf", []byte("%PDF-1.7\n%binary junk"))
		assert.Equal(t, "PDF 1.7", readHeaderVersion(path))
	})

	t.Run("pdf 2.0", func(t *testing.T) {
		path := writeFixture(t, "v20.pdf", []byte("%PDF-2.0\n"))
		assert.Equal(t, "PDF 2.0", readHeaderVersion(path))
	})

	t.Run("no header", func(t *testing.T) {
		path := writeFixture(t, "junk.pdf", []byte("hello world"))
		assert.Equal(t, "Unknown", readHeaderVersion(path))
	})

	t.Run("unreadable file", func(t *testing.T) {
		assert.Equal(t, "Unknown", readHeaderVersion("/no/such/file.pdf"))
	})
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, round2(1.2341))
	assert.Equal(t, 1.24, round2(1.236))
	assert.Equal(t, 2.0, round2(1.999))
	assert.Equal(t, 0.0, round2(0))
}
