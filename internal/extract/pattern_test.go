package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lroc/pdfbatch/internal/schema"
)

const sampleCaseFile = `
CLIENT INTAKE FORM

Maria Gonzalez appeared for consultation on 03/15/2024.
Alien Registration Number: A123456789
Phone: (555) 123-4567
Email: maria.gonzalez@example.com
Case Number: 2024-001234
Receipt Number: IOE1234567890
`

func mustSchema(t *testing.T, name string) schema.Schema {
	t.Helper()
	s, err := schema.Lookup(name)
	require.NoError(t, err)
	return s
}

func deref(t *testing.T, fields map[string]*string, name string) string {
	t.Helper()
	v, ok := fields[name]
	require.True(t, ok, "field %s not present", name)
	require.NotNil(t, v, "field %s is null", name)
	return *v
}

func TestExtractPatternsClientSchema(t *testing.T) {
	s := mustSchema(t, "client")
	fields := extractPatterns(sampleCaseFile, s)

	// Every schema field is present in the map, matched or not
	assert.Len(t, fields, len(s.Fields))

	assert.Equal(t, "A123456789", deref(t, fields, "a_number"))
	assert.Equal(t, "maria.gonzalez@example.com", deref(t, fields, "email"))
	assert.Equal(t, "(555) 123-4567", deref(t, fields, "phone"))
	assert.Equal(t, "03/15/2024", deref(t, fields, "dob"))
	assert.Equal(t, "Maria Gonzalez", deref(t, fields, "full_name"))

	// Free-form fields have no pattern class and stay null
	assert.Nil(t, fields["country_of_origin"])
	assert.Nil(t, fields["immigration_status"])
}

func TestExtractPatternsReceiptNumber(t *testing.T) {
	s := mustSchema(t, "immigration")
	fields := extractPatterns(sampleCaseFile, s)
	assert.Equal(t, "IOE1234567890", deref(t, fields, "receipt_number"))
}

func TestExtractPatternsANumberVariants(t *testing.T) {
	s := mustSchema(t, "client")
	for _, text := range []string{
		"A-Number: A12345678",
		"A-Number: A 12345678",
		"A-Number: A-12345678",
	} {
		fields := extractPatterns(text, s)
		assert.NotNil(t, fields["a_number"], "no match in %q", text)
	}
}

func TestExtractPatternsNoMatches(t *testing.T) {
	s := mustSchema(t, "client")
	fields := extractPatterns("the quick brown fox jumps over the lazy dog", s)

	assert.Len(t, fields, len(s.Fields))
	for name, v := range fields {
		assert.Nil(t, v, "field %s should be null", name)
	}
}

func TestExtractPatternsEmptyText(t *testing.T) {
	s := mustSchema(t, "legal")
	fields := extractPatterns("", s)

	assert.Len(t, fields, len(s.Fields))
	for name, v := range fields {
		assert.Nil(t, v, "field %s should be null", name)
	}
}
