package merge

import "github.com/shopspring/decimal"

// ApplyTotals recomputes Total_Score on every record in place.
//
// Absence policy: a source with no record for the week contributes nothing
// to the sum, but the merged record is still considered valid and scored.
// Excluding absent contributions (rather than zero-filling a phantom score)
// keeps partial weeks interpretable: the total of a price-only week is just
// the price score.
func ApplyTotals(records []Record) {
	for i := range records {
		records[i].TotalScore = recordTotal(records[i])
	}
}

func recordTotal(r Record) decimal.Decimal {
	total := decimal.Zero
	if r.Price != nil {
		total = total.Add(r.Price.Score)
	}
	if r.Inventory != nil {
		total = total.Add(r.Inventory.StorageScore)
		total = total.Add(r.Inventory.DeltaScore)
	}
	if r.Positioning != nil {
		total = total.Add(r.Positioning.BullishBearishScore)
		total = total.Add(r.Positioning.DeltaScore)
	}
	return total
}
