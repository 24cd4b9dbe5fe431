// Package ingest reads the three raw source tables from CSV exports into
// the typed rows the normalizers consume. It owns header validation and
// numeric parsing; week derivation and scoring stay in normalize.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"oil-sentiment/internal/normalize"
)

// header maps column names to their position, case-insensitively and with
// surrounding whitespace ignored; vendor exports are inconsistent on both.
type header map[string]int

func readHeader(source string, reader *csv.Reader, required []string) (header, error) {
	record, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", source, err)
	}

	h := make(header, len(record))
	for i, name := range record {
		h[canonicalColumn(name)] = i
	}

	for _, name := range required {
		if _, ok := h[canonicalColumn(name)]; !ok {
			return nil, &normalize.SchemaError{Source: source, Column: name}
		}
	}
	return h, nil
}

func (h header) cell(record []string, column string) string {
	idx, ok := h[canonicalColumn(column)]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func (h header) numeric(source string, row int, record []string, column string) (decimal.Decimal, error) {
	raw := h.cell(record, column)
	cleaned := strings.ReplaceAll(raw, ",", "")
	if cleaned == "" {
		return decimal.Zero, &normalize.ValueError{Source: source, Row: row, Field: column, Value: raw}
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &normalize.ValueError{Source: source, Row: row, Field: column, Value: raw}
	}
	return value, nil
}

func canonicalColumn(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

func fromFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return read(file)
}
