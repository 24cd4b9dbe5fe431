package ingest

import (
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"oil-sentiment/internal/normalize"
)

// Column names of the CFTC Commitment of Traders export.
const (
	cotReportDateColumn = "Report_Date_as_YYYY_MM_DD"
	cotReportWeekColumn = "YYYY Report Week WW"
	cotOpenInterestCol  = "Open_Interest_All"
	cotNonCommLongCol   = "NonComm_Positions_Long_All"
	cotNonCommShortCol  = "NonComm_Positions_Short_All"
	cotChangeOICol      = "Change_in_Open_Interest_All"
	cotChangeLongCol    = "Change_in_NonComm_Long_All"
	cotChangeShortCol   = "Change_in_NonComm_Short_All"
)

// ReadCOT parses the COT CSV export into raw rows. Position fields may be
// blank in old vintages and default to zero; the report date must parse and
// the open interest must be numeric, both enforced downstream.
func ReadCOT(r io.Reader) ([]normalize.COTRow, error) {
	required := []string{
		cotReportDateColumn,
		cotReportWeekColumn,
		cotOpenInterestCol,
		cotNonCommLongCol,
		cotNonCommShortCol,
		cotChangeOICol,
		cotChangeLongCol,
		cotChangeShortCol,
	}

	reader := newReader(r)
	h, err := readHeader(normalize.SourceCOT, reader, required)
	if err != nil {
		return nil, err
	}

	rows := make([]normalize.COTRow, 0)
	for rowNum := 0; ; rowNum++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", normalize.SourceCOT, rowNum, err)
		}

		row := normalize.COTRow{
			ReportDate: h.cell(record, cotReportDateColumn),
			ReportWeek: h.cell(record, cotReportWeekColumn),
		}

		if row.OpenInterest, err = h.numeric(normalize.SourceCOT, rowNum, record, cotOpenInterestCol); err != nil {
			return nil, err
		}
		if row.NonCommLong, err = optionalNumeric(h, rowNum, record, cotNonCommLongCol); err != nil {
			return nil, err
		}
		if row.NonCommShort, err = optionalNumeric(h, rowNum, record, cotNonCommShortCol); err != nil {
			return nil, err
		}
		if row.ChangeOI, err = optionalNumeric(h, rowNum, record, cotChangeOICol); err != nil {
			return nil, err
		}
		if row.ChangeLong, err = optionalNumeric(h, rowNum, record, cotChangeLongCol); err != nil {
			return nil, err
		}
		if row.ChangeShort, err = optionalNumeric(h, rowNum, record, cotChangeShortCol); err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// optionalNumeric treats a blank cell as zero but still rejects garbage.
func optionalNumeric(h header, rowNum int, record []string, column string) (decimal.Decimal, error) {
	if h.cell(record, column) == "" {
		return decimal.Zero, nil
	}
	return h.numeric(normalize.SourceCOT, rowNum, record, column)
}

// ReadCOTFile reads the COT export from disk.
func ReadCOTFile(path string) ([]normalize.COTRow, error) {
	return fromFile(path, ReadCOT)
}
