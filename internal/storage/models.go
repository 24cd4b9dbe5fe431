package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeekScore is one persisted merged weekly observation. Nullable score
// fields mirror the absence semantics of the merge: a missing source stays
// NULL in the table, it is never written as zero.
type WeekScore struct {
	Year                int
	Week                int
	WeekStart           time.Time
	Open                decimal.NullDecimal
	Close               decimal.NullDecimal
	PriceScore          decimal.NullDecimal
	BullishBearishScore decimal.NullDecimal
	PositioningDelta    decimal.NullDecimal
	StorageScore        decimal.NullDecimal
	InventoryDelta      decimal.NullDecimal
	TotalScore          decimal.Decimal
	CreatedAt           time.Time
}

// AlertRecord captures an emitted candidate-week alert for
// de-duplication/auditing.
type AlertRecord struct {
	ID         int64
	Year       int
	Week       int
	TotalScore decimal.Decimal
	Threshold  decimal.Decimal
	Channels   []string
	CreatedAt  time.Time
}
