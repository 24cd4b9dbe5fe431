package normalize

import (
	"fmt"

	"oil-sentiment/internal/weekkey"
)

// SchemaError reports a required column missing from a source table.
type SchemaError struct {
	Source string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: required column %q not found", e.Source, e.Column)
}

// MalformedDateError reports a date field that could not be parsed.
type MalformedDateError struct {
	Source string
	Row    int
	Value  string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("%s: row %d: cannot parse date %q", e.Source, e.Row, e.Value)
}

// ValueError reports a non-numeric value in a numeric field.
type ValueError struct {
	Source string
	Row    int
	Field  string
	Value  string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: row %d: field %q: non-numeric value %q", e.Source, e.Row, e.Field, e.Value)
}

// AlignmentError reports a source whose declared week numbering disagrees
// with the canonical ISO-week derivation far enough to misalign the merge.
type AlignmentError struct {
	Source    string
	Row       int
	Declared  weekkey.Key
	Canonical weekkey.Key
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("%s: row %d: declared week %s disagrees with canonical week %s",
		e.Source, e.Row, e.Declared, e.Canonical)
}
