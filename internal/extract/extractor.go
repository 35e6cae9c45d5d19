package extract

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lroc/pdfbatch/internal/schema"
)

// Provider is the AI extraction capability the Extractor consumes.
type Provider interface {
	Extract(ctx context.Context, text string, s schema.Schema) (map[string]*string, error)
}

// Extractor produces one Record per document. Extraction never fails
// for provider trouble: when the AI path is unconfigured or exhausted,
// the deterministic pattern path takes over.
type Extractor struct {
	provider Provider // nil when no credential is configured
	logger   *zap.Logger
}

// NewExtractor creates an Extractor. A nil provider means pattern-only
// extraction.
func NewExtractor(provider Provider, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{provider: provider, logger: logger}
}

// Extract converts raw document text into a Record for the given
// schema. A document with no extractable text yields a valid record
// with every field null and every required field flagged missing.
func (e *Extractor) Extract(ctx context.Context, sourcePath, text string, s schema.Schema) *Record {
	var fields map[string]*string
	method := MethodPattern

	if e.provider != nil && strings.TrimSpace(text) != "" {
		aiFields, err := e.provider.Extract(ctx, text, s)
		if err == nil {
			fields = aiFields
			method = MethodAI
		} else {
			e.logger.Warn("AI extraction unavailable, using pattern fallback",
				zap.String("path", sourcePath),
				zap.String("schema", s.Name),
				zap.Error(err),
			)
		}
	}

	if fields == nil {
		fields = extractPatterns(text, s)
	}

	record := &Record{
		SourcePath:      sourcePath,
		SchemaName:      s.Name,
		Fields:          fields,
		Method:          method,
		MissingRequired: []string{},
		ExtractedAt:     time.Now().Format(time.RFC3339),
	}

	// A record with missing required fields is still returned, flagged
	// for caller inspection.
	for _, name := range s.Required {
		if v := fields[name]; v == nil || strings.TrimSpace(*v) == "" {
			record.MissingRequired = append(record.MissingRequired, name)
		}
	}

	return record
}
