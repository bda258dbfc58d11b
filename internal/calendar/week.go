// Package calendar builds ISO-8601 week views (weeks start on Monday).
package calendar

import "time"

// Week is a Monday-first ISO week.
type Week struct {
	Year   int // ISO year
	Number int // ISO week number, 1..53
	Total  int // number of ISO weeks in Year
	Days   [7]time.Time
}

// WeekOf returns the ISO week containing date. Only Y/M/D of date are used.
func WeekOf(date time.Time) Week {
	d := midnight(date)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	monday := d.AddDate(0, 0, -offset)

	year, num := d.ISOWeek()
	w := Week{Year: year, Number: num, Total: WeeksInYear(year)}
	for i := range w.Days {
		w.Days[i] = monday.AddDate(0, 0, i)
	}
	return w
}

// MondayOf returns the Monday of ISO week n in year.
// Out-of-range n rolls into the neighbouring year, so week 0 is the last week
// of year-1 and week Total+1 is the first week of year+1.
func MondayOf(year, n int) time.Time {
	// Jan 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	week1 := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
	return week1.AddDate(0, 0, (n-1)*7)
}

// WeeksInYear returns 52 or 53.
func WeeksInYear(year int) int {
	// Dec 28th is always in the last ISO week of its year.
	_, n := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return n
}

// Prev and Next return the neighbouring week numbers as (n, year), without
// normalising; MondayOf takes care of the rollover.
func (w Week) Prev() (int, int) { return w.Number - 1, w.Year }
func (w Week) Next() (int, int) { return w.Number + 1, w.Year }

// Contains reports whether date falls into w.
func (w Week) Contains(date time.Time) bool {
	d := midnight(date)
	return !d.Before(w.Days[0]) && !d.After(w.Days[6])
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
