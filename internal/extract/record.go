// Package extract converts free-form document text into typed records
// according to a named schema, using an AI-backed provider when
// credentials are configured and deterministic pattern matching
// otherwise.
package extract

// Record is the structured result of applying a schema to one
// document. Produced once per input file; immutable.
type Record struct {
	SourcePath      string             `json:"source_path"`
	SchemaName      string             `json:"schema_name"`
	Fields          map[string]*string `json:"fields"`
	Method          string             `json:"extraction_method"` // "ai" or "pattern"
	MissingRequired []string           `json:"missing_required_fields"`
	ExtractedAt     string             `json:"extraction_timestamp"`
}

const (
	// MethodAI tags records produced by the AI provider path.
	MethodAI = "ai"
	// MethodPattern tags records produced by deterministic pattern
	// extraction.
	MethodPattern = "pattern"
)
