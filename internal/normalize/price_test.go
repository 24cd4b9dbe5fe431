package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"oil-sentiment/internal/weekkey"
)

func priceRow(date string, close float64) PriceRow {
	return PriceRow{Date: date, Open: decimal.NewFromFloat(close), Close: decimal.NewFromFloat(close)}
}

func TestPriceScoreBoundaries(t *testing.T) {
	cases := []struct {
		close float64
		want  string
	}{
		{67.5, "1"},
		{68, "1"},        // at the lower breakeven, inclusive
		{68.0001, "0.5"}, // just inside the band
		{69.9999, "0.5"},
		{70, "0"}, // at the upper breakeven, exclusive
		{75, "0"},
	}

	// one row per week so scores stay independent
	dates := []string{"2023-01-02", "2023-01-09", "2023-01-16", "2023-01-23", "2023-01-30", "2023-02-06"}

	rows := make([]PriceRow, 0, len(cases))
	for i, tc := range cases {
		rows = append(rows, priceRow(dates[i], tc.close))
	}

	weeks, err := Price(rows, DefaultPriceConfig())
	require.NoError(t, err)
	require.Len(t, weeks, len(cases))

	for i, tc := range cases {
		require.Equal(t, tc.want, weeks[i].Score.String(),
			"close %v should score %s", tc.close, tc.want)
	}
}

func TestPriceDuplicateWeeksAveraged(t *testing.T) {
	rows := []PriceRow{
		priceRow("2023-03-06", 60),
		priceRow("2023-03-08", 64),
	}

	weeks, err := Price(rows, DefaultPriceConfig())
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	require.Equal(t, weekkey.Key{Year: 2023, Week: 10}, weeks[0].Key)
	require.Equal(t, "62", weeks[0].Close.String(), "duplicate weeks combine by arithmetic mean")
}

func TestPriceForwardReturns(t *testing.T) {
	rows := []PriceRow{
		priceRow("2023-01-02", 100),
		priceRow("2023-01-09", 110),
		priceRow("2023-01-16", 121),
	}

	cfg := DefaultPriceConfig()
	cfg.Horizons = []int{1, 2}
	weeks, err := Price(rows, cfg)
	require.NoError(t, err)
	require.Len(t, weeks, 3)

	first := weeks[0]
	require.Len(t, first.Returns, 2)

	oneWeek := first.Returns[0]
	require.True(t, oneWeek.Valid)
	require.Equal(t, "10", oneWeek.Long.String(), "long return (110-100)/100*100")
	require.True(t, oneWeek.Short.LessThan(decimal.Zero), "short return is negative when price rises")

	twoWeek := first.Returns[1]
	require.True(t, twoWeek.Valid)
	require.Equal(t, "21", twoWeek.Long.String())

	// the last week has no future observations at either horizon
	last := weeks[2]
	for _, ret := range last.Returns {
		require.False(t, ret.Valid, "horizon %d past the end of the series must be absent, not zero", ret.Weeks)
	}
}

func TestPriceMalformedDate(t *testing.T) {
	rows := []PriceRow{priceRow("not-a-date", 50)}

	_, err := Price(rows, DefaultPriceConfig())
	var malformed *MalformedDateError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, SourcePrice, malformed.Source)
	require.Equal(t, 0, malformed.Row)
	require.Equal(t, "not-a-date", malformed.Value)
}

func TestPriceDateWithTimeComponent(t *testing.T) {
	rows := []PriceRow{priceRow("2023-03-06 00:00", 60)}

	weeks, err := Price(rows, DefaultPriceConfig())
	require.NoError(t, err)
	require.Equal(t, weekkey.Key{Year: 2023, Week: 10}, weeks[0].Key)
}

func TestPriceCustomBreakevenBand(t *testing.T) {
	cfg := PriceConfig{
		BreakevenLower: decimal.NewFromInt(50),
		BreakevenUpper: decimal.NewFromInt(55),
		Horizons:       []int{1},
	}

	weeks, err := Price([]PriceRow{priceRow("2023-01-02", 52)}, cfg)
	require.NoError(t, err)
	require.Equal(t, "0.5", weeks[0].Score.String())
}
