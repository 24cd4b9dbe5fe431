package merge

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"oil-sentiment/internal/normalize"
)

// Schema fixes the column ordering of the merged table. The order is a
// presentation contract for downstream consumers: the four non-price score
// columns sit immediately to the right of Price Score, return columns
// follow, Total_Score closes the row.
type Schema struct {
	horizons []int
	columns  []string
}

// NewSchema builds the ordered schema for the given return horizons.
func NewSchema(horizons []int) Schema {
	columns := []string{
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
	}
	for _, h := range horizons {
		columns = append(columns,
			fmt.Sprintf("%d_Week_Long_Return", h),
			fmt.Sprintf("%d_Week_Short_Return", h),
		)
	}
	columns = append(columns, "Total_Score")

	return Schema{horizons: append([]int(nil), horizons...), columns: columns}
}

// Columns returns the header row.
func (s Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Row renders one merged record in schema order. Absent fields render as
// empty cells, never as zeros.
func (s Schema) Row(r Record) []string {
	row := make([]string, 0, len(s.columns))

	weekStart := r.Key.WeekStart()
	if r.Price != nil {
		weekStart = r.Price.WeekStart
	}
	row = append(row,
		weekStart.Format(time.DateOnly),
		fmt.Sprintf("%d", r.Key.Year),
		fmt.Sprintf("%d", r.Key.Week),
	)

	if r.Price != nil {
		row = append(row, r.Price.Open.String(), r.Price.Close.String(), r.Price.Score.String())
	} else {
		row = append(row, "", "", "")
	}

	if r.Positioning != nil {
		row = append(row, r.Positioning.BullishBearishScore.String(), r.Positioning.DeltaScore.String())
	} else {
		row = append(row, "", "")
	}

	if r.Inventory != nil {
		row = append(row, r.Inventory.StorageScore.String(), r.Inventory.DeltaScore.String())
	} else {
		row = append(row, "", "")
	}

	for _, h := range s.horizons {
		long, short := "", ""
		if r.Price != nil {
			if ret, ok := returnForHorizon(r.Price.Returns, h); ok && ret.Valid {
				long = formatReturn(ret.Long)
				short = formatReturn(ret.Short)
			}
		}
		row = append(row, long, short)
	}

	row = append(row, r.TotalScore.String())
	return row
}

func returnForHorizon(returns []normalize.HorizonReturn, h int) (normalize.HorizonReturn, bool) {
	for _, ret := range returns {
		if ret.Weeks == h {
			return ret, true
		}
	}
	return normalize.HorizonReturn{}, false
}

func formatReturn(v decimal.Decimal) string {
	return v.StringFixed(4)
}
