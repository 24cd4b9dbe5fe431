package normalize

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"oil-sentiment/internal/weekkey"
)

// Default breakeven band for the price score. The boundaries encode the
// cost-curve breakeven region of the marginal producers, not tuning knobs.
var (
	DefaultBreakevenLower = decimal.NewFromInt(68)
	DefaultBreakevenUpper = decimal.NewFromInt(70)
)

// DefaultHorizons are the forward-return horizons, in weeks.
var DefaultHorizons = []int{1, 2, 3, 4, 8, 12, 24}

var priceScoreValues = struct {
	belowBand  decimal.Decimal
	insideBand decimal.Decimal
	aboveBand  decimal.Decimal
}{
	belowBand:  decimal.NewFromInt(1),
	insideBand: decimal.NewFromFloat(0.5),
	aboveBand:  decimal.Zero,
}

// priceDateLayouts covers the date renderings seen in exchange exports. The
// time-of-day token, when present, is stripped before parsing.
var priceDateLayouts = []string{
	"2006-01-02",
	"02-Jan-2006",
	"01/02/2006",
	"02.01.2006",
}

// PriceConfig parameterises the price normalizer.
type PriceConfig struct {
	BreakevenLower decimal.Decimal
	BreakevenUpper decimal.Decimal
	Horizons       []int
}

// DefaultPriceConfig returns the stock configuration.
func DefaultPriceConfig() PriceConfig {
	return PriceConfig{
		BreakevenLower: DefaultBreakevenLower,
		BreakevenUpper: DefaultBreakevenUpper,
		Horizons:       append([]int(nil), DefaultHorizons...),
	}
}

// Price normalizes raw price rows into one record per week key, sorted
// ascending. Rows sharing a key are combined by arithmetic mean so partial
// weeks are never double-counted.
func Price(rows []PriceRow, cfg PriceConfig) ([]PriceWeek, error) {
	if cfg.BreakevenLower.IsZero() && cfg.BreakevenUpper.IsZero() {
		cfg.BreakevenLower = DefaultBreakevenLower
		cfg.BreakevenUpper = DefaultBreakevenUpper
	}
	if len(cfg.Horizons) == 0 {
		cfg.Horizons = DefaultHorizons
	}

	type bucket struct {
		opens  []decimal.Decimal
		closes []decimal.Decimal
	}
	buckets := make(map[weekkey.Key]*bucket)

	for i, row := range rows {
		date, err := parsePriceDate(row.Date)
		if err != nil {
			return nil, &MalformedDateError{Source: SourcePrice, Row: i, Value: row.Date}
		}
		key := weekkey.Of(date)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.opens = append(b.opens, row.Open)
		b.closes = append(b.closes, row.Close)
	}

	weeks := make([]PriceWeek, 0, len(buckets))
	for key, b := range buckets {
		weeks = append(weeks, PriceWeek{
			Key:       key,
			WeekStart: key.WeekStart(),
			Open:      meanOf(b.opens),
			Close:     meanOf(b.closes),
		})
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Key.Before(weeks[j].Key) })

	closeByIndex := make(map[int]decimal.Decimal, len(weeks))
	for _, w := range weeks {
		closeByIndex[w.Key.Index()] = w.Close
	}

	for i := range weeks {
		weeks[i].Score = priceScore(weeks[i].Close, cfg)
		weeks[i].Returns = forwardReturns(weeks[i], closeByIndex, cfg.Horizons)
	}

	return weeks, nil
}

// priceScore applies the breakeven band: 1.0 at or below the lower bound,
// 0.5 strictly inside the band, 0.0 at or above the upper bound.
func priceScore(close decimal.Decimal, cfg PriceConfig) decimal.Decimal {
	switch {
	case close.LessThanOrEqual(cfg.BreakevenLower):
		return priceScoreValues.belowBand
	case close.LessThan(cfg.BreakevenUpper):
		return priceScoreValues.insideBand
	default:
		return priceScoreValues.aboveBand
	}
}

// forwardReturns computes the long and short return for each horizon by
// looking up the close that many weeks ahead. Horizons running past the end
// of the series stay invalid rather than defaulting to zero.
func forwardReturns(week PriceWeek, closeByIndex map[int]decimal.Decimal, horizons []int) []HorizonReturn {
	hundred := decimal.NewFromInt(100)
	returns := make([]HorizonReturn, 0, len(horizons))
	for _, h := range horizons {
		ret := HorizonReturn{Weeks: h}
		future, ok := closeByIndex[week.Key.Add(h).Index()]
		if ok && !week.Close.IsZero() && !future.IsZero() {
			ret.Long = future.Sub(week.Close).Div(week.Close).Mul(hundred)
			ret.Short = week.Close.Sub(future).Div(future).Mul(hundred)
			ret.Valid = true
		}
		returns = append(returns, ret)
	}
	return returns
}

func parsePriceDate(raw string) (time.Time, error) {
	cleaned := strings.TrimSpace(raw)
	if fields := strings.Fields(cleaned); len(fields) > 0 {
		cleaned = fields[0]
	}
	var lastErr error
	for _, layout := range priceDateLayouts {
		t, err := time.Parse(layout, cleaned)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
