package ingest

import (
	"errors"
	"fmt"
	"io"

	"oil-sentiment/internal/normalize"
)

// Column names of the price export.
const (
	priceDateColumn  = "Exchange Date"
	priceOpenColumn  = "Open"
	priceCloseColumn = "Close"
)

// ReadPrice parses the price CSV export into raw rows.
func ReadPrice(r io.Reader) ([]normalize.PriceRow, error) {
	reader := newReader(r)
	h, err := readHeader(normalize.SourcePrice, reader, []string{priceDateColumn, priceOpenColumn, priceCloseColumn})
	if err != nil {
		return nil, err
	}

	rows := make([]normalize.PriceRow, 0)
	for rowNum := 0; ; rowNum++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", normalize.SourcePrice, rowNum, err)
		}

		open, err := h.numeric(normalize.SourcePrice, rowNum, record, priceOpenColumn)
		if err != nil {
			return nil, err
		}
		close, err := h.numeric(normalize.SourcePrice, rowNum, record, priceCloseColumn)
		if err != nil {
			return nil, err
		}

		rows = append(rows, normalize.PriceRow{
			Date:  h.cell(record, priceDateColumn),
			Open:  open,
			Close: close,
		})
	}
	return rows, nil
}

// ReadPriceFile reads the price export from disk.
func ReadPriceFile(path string) ([]normalize.PriceRow, error) {
	return fromFile(path, ReadPrice)
}
