// Package merge aligns the three normalized weekly series on their shared
// week key and derives the composite sentiment score.
package merge

import (
	"sort"

	"github.com/shopspring/decimal"

	"oil-sentiment/internal/normalize"
	"oil-sentiment/internal/weekkey"
)

// Record is the merged weekly observation. Source sections are nil when the
// source has no record for the key; absence is explicit, never zero-filled,
// so the composite scorer can apply its own policy.
type Record struct {
	Key         weekkey.Key
	Price       *normalize.PriceWeek
	Inventory   *normalize.InventoryWeek
	Positioning *normalize.COTWeek
	TotalScore  decimal.Decimal
}

// Merge outer-joins the three normalized series: a key present in any one
// source appears in the output. The result is sorted ascending by week key,
// Total_Score already applied. Inputs are copied, never mutated.
func Merge(price []normalize.PriceWeek, inventory []normalize.InventoryWeek, positioning []normalize.COTWeek) []Record {
	byKey := make(map[weekkey.Key]*Record)

	recordFor := func(key weekkey.Key) *Record {
		rec, ok := byKey[key]
		if !ok {
			rec = &Record{Key: key}
			byKey[key] = rec
		}
		return rec
	}

	for i := range price {
		week := price[i]
		recordFor(week.Key).Price = &week
	}
	for i := range inventory {
		week := inventory[i]
		recordFor(week.Key).Inventory = &week
	}
	for i := range positioning {
		week := positioning[i]
		recordFor(week.Key).Positioning = &week
	}

	merged := make([]Record, 0, len(byKey))
	for _, rec := range byKey {
		merged = append(merged, *rec)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Key.Before(merged[j].Key) })

	ApplyTotals(merged)
	return merged
}
