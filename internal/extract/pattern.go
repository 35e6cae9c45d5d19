package extract

import (
	"regexp"
	"strings"

	"github.com/lroc/pdfbatch/internal/schema"
)

// Field-class patterns for the deterministic fallback path. These
// mirror the shapes found in the document types the built-in schemas
// target: A-Numbers, receipt numbers, common date formats, contact
// details and capitalized person names.
var (
	datePattern    = regexp.MustCompile(`\b(?:\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{4}[-/]\d{1,2}[-/]\d{1,2})\b`)
	aNumberPattern = regexp.MustCompile(`\bA[\s-]?\d{8,9}\b`)
	receiptPattern = regexp.MustCompile(`\b[A-Z]{3}\d{10}\b`)
	emailPattern   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern   = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	namePattern    = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+(?: [A-Z][a-z]+)?\b`)
	idPattern      = regexp.MustCompile(`\b[A-Z]{0,3}-?\d[\d-]{5,}\b`)
)

// patternFor selects the pattern class for a field based on its name
// and hint. Fields with no pattern class (free-form descriptions,
// statuses, countries) stay null on the fallback path.
func patternFor(f schema.Field) *regexp.Regexp {
	hint := strings.ToLower(f.Name + " " + f.Hint)
	switch {
	case strings.Contains(hint, "email"):
		return emailPattern
	case strings.Contains(hint, "phone"):
		return phonePattern
	case strings.Contains(hint, "alien registration") || strings.Contains(hint, "a_number"):
		return aNumberPattern
	case strings.Contains(hint, "receipt number"):
		return receiptPattern
	case strings.Contains(hint, "date") || strings.Contains(hint, "dob"):
		return datePattern
	case strings.Contains(hint, "name") || strings.Contains(hint, "author") ||
		strings.Contains(hint, "recipient"):
		return namePattern
	case strings.Contains(hint, "number") || strings.Contains(hint, "identifier"):
		return idPattern
	default:
		return nil
	}
}

// extractPatterns applies a field-specific pattern search over the raw
// text for every schema field, taking the first match or null. Empty
// text yields an all-null map.
func extractPatterns(text string, s schema.Schema) map[string]*string {
	fields := make(map[string]*string, len(s.Fields))
	for _, f := range s.Fields {
		fields[f.Name] = nil
		if text == "" {
			continue
		}
		re := patternFor(f)
		if re == nil {
			continue
		}
		if match := strings.TrimSpace(re.FindString(text)); match != "" {
			fields[f.Name] = &match
		}
	}
	return fields
}
