// Package schema defines the named field sets used for structured
// extraction. Schemas are read-only configuration: adding one is a data
// change, not a code change.
package schema

import (
	"fmt"
	"sort"
)

// Field is one structured field to extract, with a hint describing what
// to look for in the document.
type Field struct {
	Name string
	Hint string
}

// Schema is a named, fixed set of fields plus the subset that must be
// present for a record to be considered complete.
type Schema struct {
	Name     string
	Fields   []Field
	Required []string
}

// builtins holds the predefined schemas. Field sets follow the document
// types this tool was built for: client case files, immigration forms,
// and legal memos.
var builtins = map[string]Schema{
	"client": {
		Name: "client",
		Fields: []Field{
			{Name: "full_name", Hint: "client full name"},
			{Name: "dob", Hint: "date of birth (YYYY-MM-DD)"},
			{Name: "country_of_origin", Hint: "country of origin"},
			{Name: "immigration_status", Hint: "current immigration status"},
			{Name: "a_number", Hint: "alien registration number (e.g. A12345678)"},
			{Name: "date_of_entry", Hint: "date entered the country (YYYY-MM-DD)"},
			{Name: "case_type", Hint: "type of case (e.g. asylum, removal, PD request)"},
			{Name: "case_number", Hint: "case or docket number"},
			{Name: "filing_date", Hint: "date the case was filed (YYYY-MM-DD)"},
			{Name: "court_or_agency", Hint: "court or agency handling the case"},
			{Name: "next_hearing_date", Hint: "next scheduled hearing date (YYYY-MM-DD)"},
			{Name: "phone", Hint: "contact phone number"},
			{Name: "email", Hint: "contact email address"},
		},
		Required: []string{"full_name", "a_number", "case_number"},
	},
	"immigration": {
		Name: "immigration",
		Fields: []Field{
			{Name: "document_type", Hint: "type of immigration document (e.g. I-130, I-589)"},
			{Name: "full_name", Hint: "applicant full name"},
			{Name: "dob", Hint: "date of birth (YYYY-MM-DD)"},
			{Name: "country_of_birth", Hint: "country of birth"},
			{Name: "nationality", Hint: "nationality"},
			{Name: "a_number", Hint: "alien registration number (e.g. A12345678)"},
			{Name: "receipt_number", Hint: "receipt number (e.g. ABC1234567890)"},
			{Name: "filing_date", Hint: "date filed (YYYY-MM-DD)"},
			{Name: "priority_date", Hint: "priority date if applicable (YYYY-MM-DD)"},
			{Name: "address", Hint: "mailing address"},
			{Name: "phone", Hint: "contact phone number"},
			{Name: "email", Hint: "contact email address"},
		},
		Required: []string{"full_name", "a_number"},
	},
	"legal": {
		Name: "legal",
		Fields: []Field{
			{Name: "title", Hint: "memo title"},
			{Name: "date", Hint: "date of memo (YYYY-MM-DD)"},
			{Name: "author", Hint: "author full name"},
			{Name: "recipient", Hint: "primary recipient full name"},
			{Name: "subject", Hint: "subject line"},
			{Name: "case_identifier", Hint: "case identifier or docket number"},
		},
		Required: []string{"title", "date"},
	},
}

// Lookup returns the built-in schema with the given name. An unknown
// name is a configuration error.
func Lookup(name string) (Schema, error) {
	s, ok := builtins[name]
	if !ok {
		return Schema{}, fmt.Errorf("unknown schema %q (available: %v)", name, Names())
	}
	return s, nil
}

// Names returns the available schema names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
