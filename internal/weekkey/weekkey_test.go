package weekkey

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOfDerivesISOWeek(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want Key
	}{
		{"plain midweek", date(2023, time.March, 8), Key{2023, 10}},
		{"first iso week", date(2023, time.January, 2), Key{2023, 1}},
		{"january in previous iso year", date(2023, time.January, 1), Key{2022, 52}},
		{"december in next iso year", date(2019, time.December, 30), Key{2020, 1}},
		{"week 53 folded into 52", date(2020, time.December, 31), Key{2020, 52}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Of(tc.in); got != tc.want {
				t.Fatalf("Of(%s) = %s, want %s", tc.in.Format(time.DateOnly), got, tc.want)
			}
		})
	}
}

func TestNewFoldsWeek53(t *testing.T) {
	if got := New(2020, 53); got != (Key{2020, 52}) {
		t.Fatalf("New(2020, 53) = %s, want 2020-W52", got)
	}
}

func TestAddCrossesYearBoundary(t *testing.T) {
	k := Key{2023, 50}
	if got := k.Add(4); got != (Key{2024, 2}) {
		t.Fatalf("Add(4) = %s, want 2024-W02", got)
	}
	if got := k.Add(-50); got != (Key{2022, 52}) {
		t.Fatalf("Add(-50) = %s, want 2022-W52", got)
	}
}

func TestIndexRoundTrip(t *testing.T) {
	for _, k := range []Key{{2019, 1}, {2020, 52}, {2023, 27}} {
		if got := FromIndex(k.Index()); got != k {
			t.Fatalf("FromIndex(Index(%s)) = %s", k, got)
		}
	}
}

func TestWeekStartIsMonday(t *testing.T) {
	cases := []struct {
		key  Key
		want time.Time
	}{
		{Key{2023, 1}, date(2023, time.January, 2)},
		{Key{2023, 10}, date(2023, time.March, 6)},
		{Key{2021, 1}, date(2021, time.January, 4)},
	}
	for _, tc := range cases {
		got := tc.key.WeekStart()
		if !got.Equal(tc.want) {
			t.Fatalf("WeekStart(%s) = %s, want %s", tc.key, got.Format(time.DateOnly), tc.want.Format(time.DateOnly))
		}
		if got.Weekday() != time.Monday {
			t.Fatalf("WeekStart(%s) is %s, want Monday", tc.key, got.Weekday())
		}
	}
}

func TestCompareOrdersChronologically(t *testing.T) {
	early := Key{2022, 52}
	late := Key{2023, 1}
	if !early.Before(late) {
		t.Fatal("2022-W52 should sort before 2023-W01")
	}
	if early.Compare(late) != -1 || late.Compare(early) != 1 || early.Compare(early) != 0 {
		t.Fatal("Compare results inconsistent")
	}
}
