package normalize

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"oil-sentiment/internal/weekkey"
)

// inventoryDateLayout matches EIA weekly report exports ("Jan 02, 2006").
const inventoryDateLayout = "Jan 2, 2006"

var (
	scoreBullish = decimal.NewFromInt(1)
	scoreBearish = decimal.NewFromInt(-1)
)

// SeasonalConfig externalises the inventory banding parameters. Lookbacks
// are seasonal window lengths in years; ExcludeYears removes distorted years
// (the 2020 demand collapse by default) from every seasonal statistic.
type SeasonalConfig struct {
	Lookbacks    []int
	ExcludeYears []int
}

// DefaultSeasonalConfig returns the 5/10-year windows with 2020 excluded.
func DefaultSeasonalConfig() SeasonalConfig {
	return SeasonalConfig{
		Lookbacks:    []int{5, 10},
		ExcludeYears: []int{2020},
	}
}

// Inventory normalizes raw storage rows into one record per week key,
// sorted ascending, with seasonal bands and both inventory scores attached.
//
// The Absolute Storage Score is +1 when the level sits below any seasonal
// average for that week number, else -1. The Delta Inventory Score is +1
// when the week-over-week change draws faster (is more negative) than any
// seasonal average delta, else -1.
func Inventory(rows []InventoryRow, cfg SeasonalConfig) ([]InventoryWeek, error) {
	if len(cfg.Lookbacks) == 0 {
		cfg = DefaultSeasonalConfig()
	}

	levelsByKey := make(map[weekkey.Key][]decimal.Decimal)
	for i, row := range rows {
		date, err := parseInventoryDate(row.Date)
		if err != nil {
			return nil, &MalformedDateError{Source: SourceInventory, Row: i, Value: row.Date}
		}
		key := weekkey.Of(date)
		levelsByKey[key] = append(levelsByKey[key], row.Level)
	}

	weeks := make([]InventoryWeek, 0, len(levelsByKey))
	for key, levels := range levelsByKey {
		weeks = append(weeks, InventoryWeek{
			Key:       key,
			WeekStart: key.WeekStart(),
			Level:     meanOf(levels),
		})
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Key.Before(weeks[j].Key) })

	// Delta against the previous observation; the first entry stays zero.
	for i := range weeks {
		if i > 0 {
			weeks[i].Delta = weeks[i].Level.Sub(weeks[i-1].Level)
		}
	}

	stats := seasonalStats(weeks, cfg)
	for i := range weeks {
		weeks[i].Seasonal = stats.bandsFor(weeks[i].Key.Week)
		weeks[i].StorageScore = storageScore(weeks[i])
		weeks[i].DeltaScore = deltaInventoryScore(weeks[i])
	}

	return weeks, nil
}

func storageScore(w InventoryWeek) decimal.Decimal {
	for _, band := range w.Seasonal {
		if band.Valid && w.Level.LessThan(band.Avg) {
			return scoreBullish
		}
	}
	return scoreBearish
}

func deltaInventoryScore(w InventoryWeek) decimal.Decimal {
	for _, band := range w.Seasonal {
		if band.Valid && w.Delta.LessThan(band.AvgDelta) {
			return scoreBullish
		}
	}
	return scoreBearish
}

type observation struct {
	level decimal.Decimal
	delta decimal.Decimal
}

type seasonalTable struct {
	lookbacks []int
	// per lookback, per week number
	bands []map[int]SeasonalBand
}

func (t seasonalTable) bandsFor(weekNumber int) []SeasonalBand {
	out := make([]SeasonalBand, 0, len(t.lookbacks))
	for i, years := range t.lookbacks {
		band, ok := t.bands[i][weekNumber]
		if !ok {
			band = SeasonalBand{Years: years}
		}
		out = append(out, band)
	}
	return out
}

// seasonalStats computes per-week-number averages over the trailing lookback
// windows. The newest year in the series is still in progress and is left
// out, as are the configured excluded years.
func seasonalStats(weeks []InventoryWeek, cfg SeasonalConfig) seasonalTable {
	table := seasonalTable{lookbacks: cfg.Lookbacks}
	if len(weeks) == 0 {
		table.bands = make([]map[int]SeasonalBand, len(cfg.Lookbacks))
		for i := range table.bands {
			table.bands[i] = map[int]SeasonalBand{}
		}
		return table
	}

	currentYear := weeks[len(weeks)-1].Key.Year
	excluded := make(map[int]bool, len(cfg.ExcludeYears)+1)
	excluded[currentYear] = true
	for _, y := range cfg.ExcludeYears {
		excluded[y] = true
	}

	// Per-year deltas, so the change series never crosses a year boundary
	// through an excluded year.
	byYear := make(map[int][]int) // year -> indexes into weeks, ascending
	for i, w := range weeks {
		byYear[w.Key.Year] = append(byYear[w.Key.Year], i)
	}

	history := make(map[int]map[int]observation) // year -> week number -> obs
	years := make([]int, 0, len(byYear))
	for year, idxs := range byYear {
		if excluded[year] {
			continue
		}
		obs := make(map[int]observation, len(idxs))
		for pos, idx := range idxs {
			o := observation{level: weeks[idx].Level}
			if pos > 0 {
				o.delta = weeks[idx].Level.Sub(weeks[idxs[pos-1]].Level)
			}
			obs[weeks[idx].Key.Week] = o
		}
		history[year] = obs
		years = append(years, year)
	}
	sort.Ints(years)

	table.bands = make([]map[int]SeasonalBand, len(cfg.Lookbacks))
	for i, lookback := range cfg.Lookbacks {
		window := years
		if len(window) > lookback {
			window = window[len(window)-lookback:]
		}
		table.bands[i] = bandsOver(window, history, lookback)
	}
	return table
}

func bandsOver(years []int, history map[int]map[int]observation, lookback int) map[int]SeasonalBand {
	type acc struct {
		levels []decimal.Decimal
		deltas []decimal.Decimal
		max    decimal.Decimal
		min    decimal.Decimal
	}
	accs := make(map[int]*acc)
	for _, year := range years {
		for week, obs := range history[year] {
			a, ok := accs[week]
			if !ok {
				a = &acc{max: obs.level, min: obs.level}
				accs[week] = a
			}
			if obs.level.GreaterThan(a.max) {
				a.max = obs.level
			}
			if obs.level.LessThan(a.min) {
				a.min = obs.level
			}
			a.levels = append(a.levels, obs.level)
			a.deltas = append(a.deltas, obs.delta)
		}
	}

	bands := make(map[int]SeasonalBand, len(accs))
	for week, a := range accs {
		bands[week] = SeasonalBand{
			Years:    lookback,
			Avg:      meanOf(a.levels),
			Max:      a.max,
			Min:      a.min,
			AvgDelta: meanOf(a.deltas),
			Valid:    true,
		}
	}
	return bands
}

func parseInventoryDate(raw string) (time.Time, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, `"`, ""))
	return time.Parse(inventoryDateLayout, cleaned)
}
