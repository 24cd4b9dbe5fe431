package merge

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"oil-sentiment/internal/normalize"
	"oil-sentiment/internal/weekkey"
)

func TestSchemaColumnOrdering(t *testing.T) {
	schema := NewSchema([]int{1, 4})

	require.Equal(t, []string{
		"Week_Start",
		"Year",
		"Week_Number",
		"Open",
		"Close",
		"Price Score",
		"Bullish_Bearish_Score",
		"Delta_Score",
		"Absolute Storage Score",
		"Delta Inventory Score",
		"1_Week_Long_Return",
		"1_Week_Short_Return",
		"4_Week_Long_Return",
		"4_Week_Short_Return",
		"Total_Score",
	}, schema.Columns())
}

func TestSchemaRowRendersFullRecord(t *testing.T) {
	schema := NewSchema([]int{1})

	price := priceWeek(2023, 10, 1)
	price.Returns = []normalize.HorizonReturn{{
		Weeks: 1,
		Long:  decimal.NewFromFloat(2.5),
		Short: decimal.NewFromFloat(-2.4),
		Valid: true,
	}}
	inventory := inventoryWeek(2023, 10, 1, -1)
	positioning := cotWeek(2023, 10, 1, 0)

	rec := Record{
		Key:         weekkey.Key{Year: 2023, Week: 10},
		Price:       &price,
		Inventory:   &inventory,
		Positioning: &positioning,
		TotalScore:  decimal.NewFromInt(2),
	}

	require.Equal(t, []string{
		"2023-03-06", "2023", "10",
		"65", "65", "1",
		"1", "0",
		"1", "-1",
		"2.5000", "-2.4000",
		"2",
	}, schema.Row(rec))
}

func TestSchemaRowAbsentSectionsStayEmpty(t *testing.T) {
	schema := NewSchema([]int{1})

	price := priceWeek(2023, 10, 0.5)
	rec := Record{
		Key:        price.Key,
		Price:      &price,
		TotalScore: price.Score,
	}

	row := schema.Row(rec)
	require.Len(t, row, len(schema.Columns()))

	// positioning and inventory score cells render empty, never zero
	require.Equal(t, "", row[6])
	require.Equal(t, "", row[7])
	require.Equal(t, "", row[8])
	require.Equal(t, "", row[9])
	// no valid 1-week return either
	require.Equal(t, "", row[10])
	require.Equal(t, "", row[11])
	require.Equal(t, "0.5", row[len(row)-1])
}

func TestSchemaRowInvalidReturnStaysEmpty(t *testing.T) {
	schema := NewSchema([]int{1})

	price := priceWeek(2023, 10, 1)
	price.Returns = []normalize.HorizonReturn{{Weeks: 1, Valid: false}}
	rec := Record{Key: price.Key, Price: &price, TotalScore: price.Score}

	row := schema.Row(rec)
	require.Equal(t, "", row[10])
	require.Equal(t, "", row[11])
}
