package normalize

import (
	"time"

	"github.com/shopspring/decimal"

	"oil-sentiment/internal/weekkey"
)

// Source names used in error context.
const (
	SourcePrice     = "price"
	SourceInventory = "inventory"
	SourceCOT       = "cot"
)

// PriceRow is one raw price observation as received from the ingest layer.
// Rows are never mutated; normalization builds new records.
type PriceRow struct {
	Date  string
	Open  decimal.Decimal
	Close decimal.Decimal
}

// InventoryRow is one raw weekly storage observation.
type InventoryRow struct {
	Date  string
	Level decimal.Decimal
}

// COTRow is one raw Commitment of Traders report row.
type COTRow struct {
	ReportDate   string
	ReportWeek   string
	OpenInterest decimal.Decimal
	NonCommLong  decimal.Decimal
	NonCommShort decimal.Decimal
	ChangeOI     decimal.Decimal
	ChangeLong   decimal.Decimal
	ChangeShort  decimal.Decimal
}

// HorizonReturn carries forward returns for one horizon. Valid is false past
// the end of the series; an unavailable return is absent, never zero.
type HorizonReturn struct {
	Weeks int
	Long  decimal.Decimal
	Short decimal.Decimal
	Valid bool
}

// PriceWeek is the normalized price record for one week key.
type PriceWeek struct {
	Key       weekkey.Key
	WeekStart time.Time
	Open      decimal.Decimal
	Close     decimal.Decimal
	Score     decimal.Decimal
	Returns   []HorizonReturn
}

// SeasonalBand holds per-week-number statistics over one lookback window.
type SeasonalBand struct {
	Years    int
	Avg      decimal.Decimal
	Max      decimal.Decimal
	Min      decimal.Decimal
	AvgDelta decimal.Decimal
	Valid    bool
}

// InventoryWeek is the normalized inventory record for one week key.
type InventoryWeek struct {
	Key          weekkey.Key
	WeekStart    time.Time
	Level        decimal.Decimal
	Delta        decimal.Decimal
	Seasonal     []SeasonalBand
	StorageScore decimal.Decimal
	DeltaScore   decimal.Decimal
}

// COTWeek is the normalized positioning record for one week key.
type COTWeek struct {
	Key                 weekkey.Key
	ReportDate          time.Time
	OpenInterest        decimal.Decimal
	NonCommLong         decimal.Decimal
	NonCommShort        decimal.Decimal
	ChangeOI            decimal.Decimal
	ChangeLong          decimal.Decimal
	ChangeShort         decimal.Decimal
	NormalizedPositions decimal.Decimal
	LongRatio           decimal.Decimal
	ShortRatio          decimal.Decimal
	BullishBearishScore decimal.Decimal
	DeltaScore          decimal.Decimal
}

func meanOf(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(values))))
}
