package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"oil-sentiment/internal/weekkey"
)

func cotRow(date string, long, short float64) COTRow {
	return COTRow{
		ReportDate:   date,
		OpenInterest: decimal.NewFromInt(1000),
		NonCommLong:  decimal.NewFromFloat(long),
		NonCommShort: decimal.NewFromFloat(short),
	}
}

func TestCOTBullishBearishScore(t *testing.T) {
	cases := []struct {
		name        string
		long, short float64
		want        string
	}{
		{"short heavy is bullish", 200, 300, "1"},
		{"long heavy is bearish", 300, 200, "-1"},
		{"balanced is neutral", 250, 250, "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			weeks, err := COT([]COTRow{cotRow("03/07/2023", tc.long, tc.short)}, DefaultCOTConfig())
			require.NoError(t, err)
			require.Len(t, weeks, 1)
			require.Equal(t, tc.want, weeks[0].BullishBearishScore.String())
		})
	}
}

func TestCOTPositioningDeltaScore(t *testing.T) {
	row := cotRow("03/07/2023", 300, 200)
	row.ChangeLong = decimal.NewFromInt(-50)
	row.ChangeShort = decimal.NewFromInt(20)

	weeks, err := COT([]COTRow{row}, DefaultCOTConfig())
	require.NoError(t, err)
	require.Equal(t, "1", weeks[0].DeltaScore.String(), "shorts building faster than longs is bullish")

	row.ChangeLong = decimal.NewFromInt(20)
	row.ChangeShort = decimal.NewFromInt(-50)
	weeks, err = COT([]COTRow{row}, DefaultCOTConfig())
	require.NoError(t, err)
	require.Equal(t, "-1", weeks[0].DeltaScore.String())
}

func TestCOTCanonicalWeekFromDate(t *testing.T) {
	weeks, err := COT([]COTRow{cotRow("03/07/2023 03:30:00 PM", 200, 300)}, DefaultCOTConfig())
	require.NoError(t, err)
	require.Equal(t, weekkey.Key{Year: 2023, Week: 10}, weeks[0].Key)
}

func TestCOTDeclaredWeekWithinSkewAccepted(t *testing.T) {
	row := cotRow("03/07/2023", 200, 300)
	row.ReportWeek = "2023 Report Week 10"

	_, err := COT([]COTRow{row}, DefaultCOTConfig())
	require.NoError(t, err)

	// off-by-one declarations are tolerated, CFTC labels lag the date
	row.ReportWeek = "2023 Report Week 9"
	_, err = COT([]COTRow{row}, DefaultCOTConfig())
	require.NoError(t, err)
}

func TestCOTMisalignedDeclaredWeekRejected(t *testing.T) {
	row := cotRow("03/07/2023", 200, 300)
	row.ReportWeek = "2023 Report Week 40"

	_, err := COT([]COTRow{row}, DefaultCOTConfig())
	var misaligned *AlignmentError
	require.ErrorAs(t, err, &misaligned)
	require.Equal(t, weekkey.Key{Year: 2023, Week: 40}, misaligned.Declared)
	require.Equal(t, weekkey.Key{Year: 2023, Week: 10}, misaligned.Canonical)
}

func TestCOTDuplicateWeeksAveraged(t *testing.T) {
	rows := []COTRow{
		cotRow("03/06/2023", 200, 300),
		cotRow("03/08/2023", 400, 500),
	}

	weeks, err := COT(rows, DefaultCOTConfig())
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	require.Equal(t, "300", weeks[0].NonCommLong.String())
	require.Equal(t, "400", weeks[0].NonCommShort.String())
}

func TestCOTZeroOpenInterestDropped(t *testing.T) {
	degenerate := cotRow("03/07/2023", 200, 300)
	degenerate.OpenInterest = decimal.Zero

	weeks, err := COT([]COTRow{
		degenerate,
		cotRow("03/14/2023", 200, 300),
	}, DefaultCOTConfig())
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	require.Equal(t, weekkey.Key{Year: 2023, Week: 11}, weeks[0].Key)
}

func TestCOTRatios(t *testing.T) {
	weeks, err := COT([]COTRow{cotRow("03/07/2023", 200, 300)}, DefaultCOTConfig())
	require.NoError(t, err)

	w := weeks[0]
	require.Equal(t, "0.2", w.LongRatio.String())
	require.Equal(t, "0.3", w.ShortRatio.String())
	require.Equal(t, "0.5", w.NormalizedPositions.String())
}

func TestCOTMalformedDate(t *testing.T) {
	_, err := COT([]COTRow{cotRow("March 7th", 200, 300)}, DefaultCOTConfig())

	var malformed *MalformedDateError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, SourceCOT, malformed.Source)
}

func TestCOTSortedAscending(t *testing.T) {
	rows := []COTRow{
		cotRow("03/14/2023", 200, 300),
		cotRow("03/07/2023", 200, 300),
		cotRow("12/27/2022", 200, 300),
	}

	weeks, err := COT(rows, DefaultCOTConfig())
	require.NoError(t, err)
	require.Len(t, weeks, 3)
	for i := 1; i < len(weeks); i++ {
		require.True(t, weeks[i-1].Key.Before(weeks[i].Key))
	}
	require.Equal(t, weekkey.Key{Year: 2022, Week: 52}, weeks[0].Key)
}
