package merge

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"oil-sentiment/internal/normalize"
	"oil-sentiment/internal/weekkey"
)

func priceWeek(year, week int, score float64) normalize.PriceWeek {
	key := weekkey.Key{Year: year, Week: week}
	return normalize.PriceWeek{
		Key:       key,
		WeekStart: key.WeekStart(),
		Open:      decimal.NewFromInt(65),
		Close:     decimal.NewFromInt(65),
		Score:     decimal.NewFromFloat(score),
	}
}

func inventoryWeek(year, week int, storage, delta int64) normalize.InventoryWeek {
	key := weekkey.Key{Year: year, Week: week}
	return normalize.InventoryWeek{
		Key:          key,
		WeekStart:    key.WeekStart(),
		Level:        decimal.NewFromInt(420000),
		StorageScore: decimal.NewFromInt(storage),
		DeltaScore:   decimal.NewFromInt(delta),
	}
}

func cotWeek(year, week int, bullishBearish, delta int64) normalize.COTWeek {
	return normalize.COTWeek{
		Key:                 weekkey.Key{Year: year, Week: week},
		BullishBearishScore: decimal.NewFromInt(bullishBearish),
		DeltaScore:          decimal.NewFromInt(delta),
	}
}

func TestMergeOuterJoinKeepsEverySourceKey(t *testing.T) {
	price := []normalize.PriceWeek{priceWeek(2023, 10, 1), priceWeek(2023, 11, 0.5)}
	inventory := []normalize.InventoryWeek{inventoryWeek(2023, 11, 1, 1), inventoryWeek(2023, 12, -1, -1)}
	positioning := []normalize.COTWeek{cotWeek(2023, 13, 1, 1)}

	merged := Merge(price, inventory, positioning)
	require.Len(t, merged, 4)

	keys := make([]weekkey.Key, 0, len(merged))
	for _, rec := range merged {
		keys = append(keys, rec.Key)
	}
	require.Equal(t, []weekkey.Key{
		{Year: 2023, Week: 10},
		{Year: 2023, Week: 11},
		{Year: 2023, Week: 12},
		{Year: 2023, Week: 13},
	}, keys)

	// week 10 exists only in the price series
	require.NotNil(t, merged[0].Price)
	require.Nil(t, merged[0].Inventory)
	require.Nil(t, merged[0].Positioning)
	require.Equal(t, "1", merged[0].TotalScore.String(), "a price-only week totals just its price score")

	// week 11 merges price and inventory
	require.NotNil(t, merged[1].Price)
	require.NotNil(t, merged[1].Inventory)
	require.Equal(t, "2.5", merged[1].TotalScore.String())
}

func TestMergeTotalScoreSumsAllFiveComponents(t *testing.T) {
	merged := Merge(
		[]normalize.PriceWeek{priceWeek(2023, 10, 1)},
		[]normalize.InventoryWeek{inventoryWeek(2023, 10, 1, 1)},
		[]normalize.COTWeek{cotWeek(2023, 10, 1, 1)},
	)

	require.Len(t, merged, 1)
	require.Equal(t, "5", merged[0].TotalScore.String())

	merged = Merge(
		[]normalize.PriceWeek{priceWeek(2023, 10, 0.5)},
		[]normalize.InventoryWeek{inventoryWeek(2023, 10, -1, 1)},
		[]normalize.COTWeek{cotWeek(2023, 10, -1, -1)},
	)
	require.Equal(t, "-1.5", merged[0].TotalScore.String())
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	price := []normalize.PriceWeek{priceWeek(2023, 10, 1)}
	before := price[0]

	merged := Merge(price, nil, nil)
	merged[0].Price.Score = decimal.NewFromInt(99)

	require.Equal(t, before.Score.String(), price[0].Score.String(), "merged records must hold copies")
}

func TestMergeEmptyInputs(t *testing.T) {
	require.Empty(t, Merge(nil, nil, nil))
}

func TestSelectByScoreTightTolerance(t *testing.T) {
	records := recordsWithTotals(0.5, 1, 1.5, 2)

	selected, err := SelectByScore(records, decimal.NewFromInt(1), DefaultTolerance)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	require.Equal(t, "1", selected[0].TotalScore.String())
}

func TestSelectByScoreWideTolerance(t *testing.T) {
	records := recordsWithTotals(0.5, 1, 1.5, 2)

	selected, err := SelectByScore(records, decimal.NewFromInt(1), decimal.NewFromFloat(0.6))
	require.NoError(t, err)
	require.Len(t, selected, 3)

	totals := make([]string, 0, len(selected))
	for _, rec := range selected {
		totals = append(totals, rec.TotalScore.String())
	}
	require.Equal(t, []string{"0.5", "1", "1.5"}, totals, "selection preserves input order")
}

func TestSelectByScoreNegativeTolerance(t *testing.T) {
	_, err := SelectByScore(nil, decimal.NewFromInt(1), decimal.NewFromInt(-1))

	var invalid *InvalidToleranceError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "-1", invalid.Tolerance.String())
}

func TestSelectByScoreNoMatches(t *testing.T) {
	records := recordsWithTotals(0.5, 2)

	selected, err := SelectByScore(records, decimal.NewFromInt(10), DefaultTolerance)
	require.NoError(t, err)
	require.Empty(t, selected)
}

func recordsWithTotals(totals ...float64) []Record {
	records := make([]Record, 0, len(totals))
	for i, total := range totals {
		records = append(records, Record{
			Key:        weekkey.Key{Year: 2023, Week: 10 + i},
			TotalScore: decimal.NewFromFloat(total),
		})
	}
	return records
}
