package pdf

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// Analyzer inspects individual PDF files and reports their metadata and
// content facts. It is the single capability the batch engine consumes:
// given a path, return an AnalysisResult or a classifiable error.
type Analyzer struct {
	maxFileSize int64
	maxTextSize int
}

// NewAnalyzer creates an Analyzer with the specified file size limit.
func NewAnalyzer(maxFileSize int64) *Analyzer {
	return &Analyzer{
		maxFileSize: maxFileSize,
		maxTextSize: 10 * 1024 * 1024, // 10MB text limit
	}
}

// Analyze examines a single PDF file. The context bounds the work; a
// deadline hit between pages surfaces as context.DeadlineExceeded.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*AnalysisResult, error) {
	start := time.Now()

	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if err := a.validateFile(path, fileInfo); err != nil {
		return nil, err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	result := &AnalysisResult{
		FileName:     fileInfo.Name(),
		FilePath:     path,
		FileSizeMB:   round2(float64(fileInfo.Size()) / (1024 * 1024)),
		PageCount:    r.NumPage(),
		ModifiedDate: fileInfo.ModTime().Format("2006-01-02 15:04:05"),
		PDFVersion:   readHeaderVersion(path),
	}

	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		if content, err := page.GetPlainText(nil); err == nil {
			result.TotalTextLength += len(content)
		}
		result.ImageCount += countImagesOnPage(page)
	}

	result.IsEncrypted = hasEncryptDict(r)
	extractDocInfo(r, result)

	// Form detection runs through pdfcpu; a document the form scanner
	// cannot read still yields a result without form info.
	if hasForms, err := hasAcroFormFields(path); err == nil {
		result.HasForms = hasForms
	}

	result.ProcessingSeconds = round2(time.Since(start).Seconds())
	return result, nil
}

// ExtractText returns the full plain text of a PDF with page markers,
// in document order. An empty string is a valid result for image-only
// documents.
func (a *Analyzer) ExtractText(ctx context.Context, path string) (string, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if err := a.validateFile(path, fileInfo); err != nil {
		return "", err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var builder strings.Builder
	totalLength := 0

	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// Continue with other pages even if one fails
			continue
		}
		if content == "" {
			continue
		}
		if totalLength+len(content) > a.maxTextSize {
			remaining := a.maxTextSize - totalLength
			if remaining > 0 {
				builder.WriteString(content[:remaining])
			}
			break
		}
		fmt.Fprintf(&builder, "\n--- Page %d ---\n", pageNum)
		builder.WriteString(content)
		totalLength += len(content)
	}

	return builder.String(), nil
}

// validateFile performs basic validation without opening the PDF.
func (a *Analyzer) validateFile(path string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", path)
	}
	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}
	if fileInfo.Size() > a.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), a.maxFileSize)
	}
	return nil
}

// countImagesOnPage counts image XObjects on a page.
func countImagesOnPage(page pdf.Page) (count int) {
	defer func() {
		// Recover from any panics during image detection
		if recover() != nil {
			count = 0
		}
	}()

	resources := page.V.Key("Resources")
	if resources.IsNull() {
		return 0
	}

	xObjects := resources.Key("XObject")
	if xObjects.IsNull() || xObjects.Kind() != pdf.Dict {
		return 0
	}

	for _, key := range xObjects.Keys() {
		obj := xObjects.Key(key)
		if obj.IsNull() {
			continue
		}
		subtype := obj.Key("Subtype")
		if subtype.IsNull() || subtype.Name() != "Image" {
			continue
		}
		count++
	}
	return count
}

// hasEncryptDict reports whether the document trailer carries an
// Encrypt dictionary. Documents openable with an empty user password
// still count as encrypted.
func hasEncryptDict(r *pdf.Reader) (encrypted bool) {
	defer func() {
		if recover() != nil {
			encrypted = false
		}
	}()

	trailer := r.Trailer()
	if trailer.IsNull() {
		return false
	}
	return !trailer.Key("Encrypt").IsNull()
}

// extractDocInfo safely extracts the Info dictionary metadata.
func extractDocInfo(r *pdf.Reader, result *AnalysisResult) {
	defer func() {
		// Metadata extraction failed, but we can continue with basic facts
		_ = recover()
	}()

	trailer := r.Trailer()
	if trailer.IsNull() {
		return
	}
	info := trailer.Key("Info")
	if info.IsNull() {
		return
	}

	if title := info.Key("Title"); !title.IsNull() {
		result.Title = strings.TrimSpace(title.String())
	}
	if author := info.Key("Author"); !author.IsNull() {
		result.Author = strings.TrimSpace(author.String())
	}
	if subject := info.Key("Subject"); !subject.IsNull() {
		result.Subject = strings.TrimSpace(subject.String())
	}
	if producer := info.Key("Producer"); !producer.IsNull() {
		result.Producer = strings.TrimSpace(producer.String())
	}
	if creationDate := info.Key("CreationDate"); !creationDate.IsNull() {
		result.CreationDate = strings.TrimSpace(creationDate.String())
	}
	if modDate := info.Key("ModDate"); !modDate.IsNull() {
		result.ModifiedDate = strings.TrimSpace(modDate.String())
	}
}

// readHeaderVersion sniffs the %PDF-x.y header. Returns "Unknown" when
// the header cannot be read.
func readHeaderVersion(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return "Unknown"
	}
	defer f.Close()

	buf := make([]byte, 16)
	n, err := f.Read(buf)
	if err != nil || n < 8 {
		return "Unknown"
	}
	header := string(buf[:n])
	if !strings.HasPrefix(header, "%PDF-") {
		return "Unknown"
	}
	version := strings.TrimPrefix(header, "%PDF-")
	if idx := strings.IndexAny(version, "\r\n %"); idx > 0 {
		version = version[:idx]
	}
	return "PDF " + version
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
