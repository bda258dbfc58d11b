package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseClock parses "HH:MM" (or "H:MM") into minutes since midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[1]) != 2 || len(parts[0]) > 2 || !isAllDigits(parts[0]) || !isAllDigits(parts[1]) {
		return 0, &ValidationError{Field: "time", Reason: "expected HH:MM"}
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, &ValidationError{Field: "time", Reason: "invalid hour"}
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, &ValidationError{Field: "time", Reason: "invalid minute"}
	}
	return h*60 + m, nil
}

// ParseDate parses an ISO date (YYYY-MM-DD) into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("expected YYYY-MM-DD, got %q", s)}
	}
	return d, nil
}

// DateOf truncates t to its calendar date in t's own location, as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate returns the ISO form of a date.
func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

// ValidateTZ checks that the tz is a valid IANA location and returns its canonical name.
func ValidateTZ(tz string) (string, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return "", err
	}
	return loc.String(), nil
}

// LoadLocation wraps time.LoadLocation with a ValidationError.
// An empty name is rejected instead of silently meaning UTC.
func LoadLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return nil, &ValidationError{Field: "timezone", Reason: "empty"}
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, &ValidationError{Field: "timezone", Reason: fmt.Sprintf("unknown zone %q", tz)}
	}
	return loc, nil
}

// NowIn returns now in the given zone.
func NowIn(now time.Time, tz string) (time.Time, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}
	return now.In(loc), nil
}

// FormatMinutes returns HH:MM for minutes since midnight (00:00..23:59).
func FormatMinutes(mins int) string {
	if mins < 0 {
		mins = 0
	}
	h := mins / 60
	m := mins % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}

// LocalizeTime formats t in user's timezone as HH:MM.
func LocalizeTime(t time.Time, tz string) (string, error) {
	lt, err := NowIn(t, tz)
	if err != nil {
		return "", err
	}
	return lt.Format("15:04"), nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
