package ingest

import (
	"errors"
	"fmt"
	"io"

	"oil-sentiment/internal/normalize"
)

// Column names of the EIA weekly inventory export. SPR volumes are excluded
// at the source; only commercial ending stocks feed the score.
const (
	inventoryDateColumn = "Date"
	// DefaultInventoryLevelColumn is the EIA series header, double spaces
	// and all.
	DefaultInventoryLevelColumn = "Weekly U.S. Ending Stocks excluding SPR of Crude Oil  (Thousand Barrels)"
)

// ReadInventory parses the inventory CSV export. levelColumn may be empty,
// in which case the stock EIA header is expected.
func ReadInventory(r io.Reader, levelColumn string) ([]normalize.InventoryRow, error) {
	if levelColumn == "" {
		levelColumn = DefaultInventoryLevelColumn
	}

	reader := newReader(r)
	h, err := readHeader(normalize.SourceInventory, reader, []string{inventoryDateColumn, levelColumn})
	if err != nil {
		return nil, err
	}

	rows := make([]normalize.InventoryRow, 0)
	for rowNum := 0; ; rowNum++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", normalize.SourceInventory, rowNum, err)
		}

		level, err := h.numeric(normalize.SourceInventory, rowNum, record, levelColumn)
		if err != nil {
			return nil, err
		}

		rows = append(rows, normalize.InventoryRow{
			Date:  h.cell(record, inventoryDateColumn),
			Level: level,
		})
	}
	return rows, nil
}

// ReadInventoryFile reads the inventory export from disk.
func ReadInventoryFile(path, levelColumn string) ([]normalize.InventoryRow, error) {
	return fromFile(path, func(r io.Reader) ([]normalize.InventoryRow, error) {
		return ReadInventory(r, levelColumn)
	})
}
