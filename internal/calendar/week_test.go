package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekOf(t *testing.T) {
	// 2025-03-12 is a Wednesday in ISO week 11.
	w := WeekOf(date(2025, time.March, 12))
	if w.Number != 11 || w.Year != 2025 {
		t.Fatalf("week = %d/%d, want 11/2025", w.Number, w.Year)
	}
	if w.Total != 52 {
		t.Fatalf("total = %d, want 52", w.Total)
	}
	if !w.Days[0].Equal(date(2025, time.March, 10)) {
		t.Fatalf("monday = %v", w.Days[0])
	}
	if !w.Days[6].Equal(date(2025, time.March, 16)) {
		t.Fatalf("sunday = %v", w.Days[6])
	}
	if w.Days[0].Weekday() != time.Monday {
		t.Fatalf("first day is %v", w.Days[0].Weekday())
	}
}

func TestWeekOf_Sunday(t *testing.T) {
	w := WeekOf(date(2025, time.March, 16))
	if !w.Days[0].Equal(date(2025, time.March, 10)) {
		t.Fatalf("sunday belongs to week starting %v", w.Days[0])
	}
}

func TestWeekOf_YearBoundary(t *testing.T) {
	// 2024-12-30 belongs to ISO week 1 of 2025.
	w := WeekOf(date(2024, time.December, 30))
	if w.Year != 2025 || w.Number != 1 {
		t.Fatalf("week = %d/%d, want 1/2025", w.Number, w.Year)
	}
}

func TestMondayOf(t *testing.T) {
	cases := []struct {
		year, n int
		want    time.Time
	}{
		{2025, 11, date(2025, time.March, 10)},
		{2025, 1, date(2024, time.December, 30)},
		{2026, 1, date(2025, time.December, 29)},
		// Rollover: week 0 of 2025 is the last week of 2024, week 53 of 2025 is week 1 of 2026.
		{2025, 0, date(2024, time.December, 23)},
		{2025, 53, date(2025, time.December, 29)},
	}
	for _, c := range cases {
		if got := MondayOf(c.year, c.n); !got.Equal(c.want) {
			t.Errorf("MondayOf(%d, %d) = %v, want %v", c.year, c.n, got, c.want)
		}
	}
}

func TestWeeksInYear(t *testing.T) {
	if WeeksInYear(2020) != 53 {
		t.Error("2020 has 53 ISO weeks")
	}
	if WeeksInYear(2025) != 52 {
		t.Error("2025 has 52 ISO weeks")
	}
}

func TestPrevNextRoundTrip(t *testing.T) {
	w := WeekOf(date(2025, time.January, 1))
	n, y := w.Prev()
	prev := WeekOf(MondayOf(y, n))
	if prev.Year != 2024 || prev.Number != 52 {
		t.Fatalf("prev = %d/%d, want 52/2024", prev.Number, prev.Year)
	}
	n, y = prev.Next()
	if !MondayOf(y, n).Equal(w.Days[0]) {
		t.Fatal("next of prev should return to the same week")
	}
}

func TestContains(t *testing.T) {
	w := WeekOf(date(2025, time.March, 12))
	if !w.Contains(date(2025, time.March, 16)) {
		t.Error("sunday should be in week")
	}
	if w.Contains(date(2025, time.March, 17)) {
		t.Error("next monday should not be in week")
	}
}
