package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"oil-sentiment/internal/normalize"
)

const cotHeader = "Report_Date_as_YYYY_MM_DD,YYYY Report Week WW,Open_Interest_All," +
	"NonComm_Positions_Long_All,NonComm_Positions_Short_All," +
	"Change_in_Open_Interest_All,Change_in_NonComm_Long_All,Change_in_NonComm_Short_All"

func TestReadPrice(t *testing.T) {
	input := strings.Join([]string{
		"Exchange Date,Open,Close,Volume",
		"2023-03-06,64.50,65.10,120000",
		`2023-03-07,"1,065.10","1,064.20",98000`,
	}, "\n")

	rows, err := ReadPrice(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, "2023-03-06", rows[0].Date)
	require.Equal(t, "64.5", rows[0].Open.String())
	require.Equal(t, "65.1", rows[0].Close.String())

	// thousands separators must not break parsing
	require.Equal(t, "1065.1", rows[1].Open.String())
	require.Equal(t, "1064.2", rows[1].Close.String())
}

func TestReadPriceMissingColumn(t *testing.T) {
	input := "Exchange Date,Open\n2023-03-06,64.50\n"

	_, err := ReadPrice(strings.NewReader(input))
	var schema *normalize.SchemaError
	require.ErrorAs(t, err, &schema)
	require.Equal(t, normalize.SourcePrice, schema.Source)
	require.Equal(t, "Close", schema.Column)
}

func TestReadPriceBadNumber(t *testing.T) {
	input := strings.Join([]string{
		"Exchange Date,Open,Close",
		"2023-03-06,64.50,65.10",
		"2023-03-07,64.50,n/a",
	}, "\n")

	_, err := ReadPrice(strings.NewReader(input))
	var value *normalize.ValueError
	require.ErrorAs(t, err, &value)
	require.Equal(t, 1, value.Row)
	require.Equal(t, "Close", value.Field)
	require.Equal(t, "n/a", value.Value)
}

func TestReadPriceHeaderCaseInsensitive(t *testing.T) {
	input := "exchange date,OPEN,close\n2023-03-06,64.50,65.10\n"

	rows, err := ReadPrice(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestReadInventoryDefaultColumn(t *testing.T) {
	input := strings.Join([]string{
		`Date,Weekly U.S. Ending Stocks excluding SPR of Crude Oil  (Thousand Barrels)`,
		`"Mar 10, 2023","478,500"`,
	}, "\n")

	rows, err := ReadInventory(strings.NewReader(input), "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Mar 10, 2023", rows[0].Date)
	require.Equal(t, "478500", rows[0].Level.String())
}

func TestReadInventoryCustomColumn(t *testing.T) {
	input := strings.Join([]string{
		"Date,Stocks",
		`"Mar 10, 2023",478500`,
	}, "\n")

	rows, err := ReadInventory(strings.NewReader(input), "Stocks")
	require.NoError(t, err)
	require.Equal(t, "478500", rows[0].Level.String())
}

func TestReadInventoryMissingLevelColumn(t *testing.T) {
	input := "Date,Something Else\n\"Mar 10, 2023\",1\n"

	_, err := ReadInventory(strings.NewReader(input), "Stocks")
	var schema *normalize.SchemaError
	require.ErrorAs(t, err, &schema)
	require.Equal(t, normalize.SourceInventory, schema.Source)
	require.Equal(t, "Stocks", schema.Column)
}

func TestReadCOT(t *testing.T) {
	input := strings.Join([]string{
		cotHeader,
		`03/07/2023,2023 Report Week 10,"1,500,000",250000,310000,12000,-5000,8000`,
	}, "\n")

	rows, err := ReadCOT(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	require.Equal(t, "03/07/2023", row.ReportDate)
	require.Equal(t, "2023 Report Week 10", row.ReportWeek)
	require.Equal(t, "1500000", row.OpenInterest.String())
	require.Equal(t, "250000", row.NonCommLong.String())
	require.Equal(t, "310000", row.NonCommShort.String())
	require.Equal(t, "-5000", row.ChangeLong.String())
	require.Equal(t, "8000", row.ChangeShort.String())
}

func TestReadCOTBlankOptionalFieldsDefaultToZero(t *testing.T) {
	input := strings.Join([]string{
		cotHeader,
		"03/07/2023,2023 Report Week 10,1500000,,,,,",
	}, "\n")

	rows, err := ReadCOT(strings.NewReader(input))
	require.NoError(t, err)

	row := rows[0]
	require.True(t, row.NonCommLong.IsZero())
	require.True(t, row.NonCommShort.IsZero())
	require.True(t, row.ChangeOI.IsZero())
}

func TestReadCOTBlankOpenInterestRejected(t *testing.T) {
	input := strings.Join([]string{
		cotHeader,
		"03/07/2023,2023 Report Week 10,,1,2,3,4,5",
	}, "\n")

	_, err := ReadCOT(strings.NewReader(input))
	var value *normalize.ValueError
	require.ErrorAs(t, err, &value)
	require.Equal(t, "Open_Interest_All", value.Field)
}

func TestReadCOTMissingColumn(t *testing.T) {
	input := "Report_Date_as_YYYY_MM_DD,Open_Interest_All\n03/07/2023,1\n"

	_, err := ReadCOT(strings.NewReader(input))
	var schema *normalize.SchemaError
	require.ErrorAs(t, err, &schema)
	require.Equal(t, normalize.SourceCOT, schema.Source)
}

func TestReadPriceFileMissing(t *testing.T) {
	_, err := ReadPriceFile("does/not/exist.csv")
	require.Error(t, err)
}
