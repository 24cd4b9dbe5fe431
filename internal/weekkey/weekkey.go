package weekkey

import (
	"fmt"
	"time"
)

// weeksPerYear is the canonical year length used for key arithmetic.
// ISO week 53 is folded into week 52 so that every year spans exactly
// 52 keys and horizon math stays uniform across year boundaries.
const weeksPerYear = 52

// Key identifies one weekly observation across all sources.
type Key struct {
	Year int
	Week int
}

// Of derives the canonical key for a calendar date. The ISO year is used
// alongside the ISO week; mixing the calendar year with the ISO week
// misaligns the days around new year.
func Of(t time.Time) Key {
	year, week := t.ISOWeek()
	if week > weeksPerYear {
		week = weeksPerYear
	}
	return Key{Year: year, Week: week}
}

// New folds an explicit year/week pair into canonical form.
func New(year, week int) Key {
	if week > weeksPerYear {
		week = weeksPerYear
	}
	return Key{Year: year, Week: week}
}

// Index maps the key onto a continuous week axis.
func (k Key) Index() int {
	return k.Year*weeksPerYear + (k.Week - 1)
}

// FromIndex is the inverse of Index.
func FromIndex(idx int) Key {
	return Key{Year: idx / weeksPerYear, Week: idx%weeksPerYear + 1}
}

// Add advances the key by n weeks (n may be negative).
func (k Key) Add(n int) Key {
	return FromIndex(k.Index() + n)
}

// Compare orders keys chronologically.
func (k Key) Compare(other Key) int {
	switch {
	case k.Index() < other.Index():
		return -1
	case k.Index() > other.Index():
		return 1
	default:
		return 0
	}
}

// Before reports whether k is strictly earlier than other.
func (k Key) Before(other Key) bool {
	return k.Index() < other.Index()
}

// WeekStart returns the Monday opening the ISO week.
func (k Key) WeekStart() time.Time {
	// January 4th is always inside ISO week 1.
	jan4 := time.Date(k.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (k.Week-1)*7)
}

func (k Key) String() string {
	return fmt.Sprintf("%04d-W%02d", k.Year, k.Week)
}
