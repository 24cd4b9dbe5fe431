package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"oil-sentiment/internal/weekkey"
)

// cotDateLayouts match CFTC disaggregated report exports; some vintages
// carry a time-of-day suffix.
var cotDateLayouts = []string{
	"01/02/2006 03:04:05 PM",
	"01/02/2006",
	"2006-01-02",
}

// reportWeekPattern extracts "2022 Report Week 37" style declarations.
var reportWeekPattern = regexp.MustCompile(`(\d{4})\D+Week\s+(\d{1,2})`)

// COTConfig parameterises the positioning normalizer.
type COTConfig struct {
	// MinOpenInterest drops degenerate report rows; ratios against a zero or
	// negative open interest are meaningless.
	MinOpenInterest decimal.Decimal
	// MaxWeekSkew is the tolerated distance, in weeks, between the declared
	// report week and the canonical key derived from the report date before
	// the series is considered systematically misaligned.
	MaxWeekSkew int
}

// DefaultCOTConfig returns the stock configuration.
func DefaultCOTConfig() COTConfig {
	return COTConfig{MinOpenInterest: decimal.Zero, MaxWeekSkew: 1}
}

// COT normalizes raw Commitment of Traders rows into one record per week
// key, sorted ascending.
//
// The week key is always derived canonically from the report date so that
// all three sources share one week-numbering convention. The report-week
// text the CFTC ships alongside is only cross-checked: a declared week more
// than MaxWeekSkew weeks away from the canonical key raises AlignmentError
// instead of silently corrupting the merge.
func COT(rows []COTRow, cfg COTConfig) ([]COTWeek, error) {
	if cfg.MaxWeekSkew == 0 {
		cfg.MaxWeekSkew = 1
	}

	type bucket struct {
		dates        []time.Time
		openInterest []decimal.Decimal
		longs        []decimal.Decimal
		shorts       []decimal.Decimal
		changeOI     []decimal.Decimal
		changeLong   []decimal.Decimal
		changeShort  []decimal.Decimal
	}
	buckets := make(map[weekkey.Key]*bucket)

	for i, row := range rows {
		date, err := parseCOTDate(row.ReportDate)
		if err != nil {
			return nil, &MalformedDateError{Source: SourceCOT, Row: i, Value: row.ReportDate}
		}
		key := weekkey.Of(date)

		if declared, ok := parseReportWeek(row.ReportWeek); ok {
			skew := declared.Index() - key.Index()
			if skew < 0 {
				skew = -skew
			}
			if skew > cfg.MaxWeekSkew {
				return nil, &AlignmentError{Source: SourceCOT, Row: i, Declared: declared, Canonical: key}
			}
		}

		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.dates = append(b.dates, date)
		b.openInterest = append(b.openInterest, row.OpenInterest)
		b.longs = append(b.longs, row.NonCommLong)
		b.shorts = append(b.shorts, row.NonCommShort)
		b.changeOI = append(b.changeOI, row.ChangeOI)
		b.changeLong = append(b.changeLong, row.ChangeLong)
		b.changeShort = append(b.changeShort, row.ChangeShort)
	}

	weeks := make([]COTWeek, 0, len(buckets))
	for key, b := range buckets {
		w := COTWeek{
			Key:          key,
			ReportDate:   b.dates[0],
			OpenInterest: meanOf(b.openInterest),
			NonCommLong:  meanOf(b.longs),
			NonCommShort: meanOf(b.shorts),
			ChangeOI:     meanOf(b.changeOI),
			ChangeLong:   meanOf(b.changeLong),
			ChangeShort:  meanOf(b.changeShort),
		}
		if !w.OpenInterest.GreaterThan(cfg.MinOpenInterest) {
			continue
		}
		w.NormalizedPositions = w.NonCommLong.Add(w.NonCommShort).Div(w.OpenInterest)
		w.LongRatio = w.NonCommLong.Div(w.OpenInterest)
		w.ShortRatio = w.NonCommShort.Div(w.OpenInterest)
		w.BullishBearishScore = bullishBearishScore(w)
		w.DeltaScore = positioningDeltaScore(w)
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Key.Before(weeks[j].Key) })

	return weeks, nil
}

// bullishBearishScore reads crowded speculative length as a contrarian
// bearish signal: short-heavy positioning scores +1, long-heavy -1.
func bullishBearishScore(w COTWeek) decimal.Decimal {
	switch w.NonCommLong.Cmp(w.NonCommShort) {
	case 1:
		return scoreBearish
	case -1:
		return scoreBullish
	default:
		return decimal.Zero
	}
}

// positioningDeltaScore scores the week-over-week position change: shorts
// building faster than longs scores +1, longs building faster -1.
func positioningDeltaScore(w COTWeek) decimal.Decimal {
	switch w.ChangeLong.Cmp(w.ChangeShort) {
	case -1:
		return scoreBullish
	case 1:
		return scoreBearish
	default:
		return decimal.Zero
	}
}

func parseCOTDate(raw string) (time.Time, error) {
	cleaned := strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range cotDateLayouts {
		t, err := time.Parse(layout, cleaned)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseReportWeek(raw string) (weekkey.Key, bool) {
	match := reportWeekPattern.FindStringSubmatch(raw)
	if match == nil {
		return weekkey.Key{}, false
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return weekkey.Key{}, false
	}
	week, err := strconv.Atoi(match[2])
	if err != nil {
		return weekkey.Key{}, false
	}
	return weekkey.New(year, week), true
}
