// Package callback encodes and parses inline-button payloads.
//
// Payloads are short underscore-separated strings:
//
//	day_2025-03-10      show a day
//	week_11_2025        show ISO week 11 of 2025
//	add_2025-03-10      start adding an event on a day
//	reminder_15         pick a reminder offset (minutes)
//	complete_42         mark event 42 as completed
//	delete_42           delete event 42
//	current_week        jump to this week
//	back_to_week        return to the last viewed week
package callback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ykvlv/calendar-bot/internal/domain"
)

// ErrMalformed is returned for payloads that cannot be parsed.
var ErrMalformed = errors.New("malformed callback data")

// Kind identifies the button action.
type Kind int

const (
	KindDay Kind = iota + 1
	KindWeek
	KindAdd
	KindReminder
	KindComplete
	KindDelete
	KindCurrentWeek
	KindBackToWeek
)

const (
	tokenCurrentWeek = "current_week"
	tokenBackToWeek  = "back_to_week"
)

// Action is a parsed payload. Only fields relevant to Kind are set.
type Action struct {
	Kind    Kind
	Date    time.Time // KindDay, KindAdd
	Week    int       // KindWeek
	Year    int       // KindWeek
	Minutes int       // KindReminder
	EventID int64     // KindComplete, KindDelete
}

func Day(d time.Time) string      { return "day_" + domain.FormatDate(d) }
func Add(d time.Time) string      { return "add_" + domain.FormatDate(d) }
func Week(n, year int) string     { return fmt.Sprintf("week_%d_%d", n, year) }
func Reminder(minutes int) string { return "reminder_" + strconv.Itoa(minutes) }
func Complete(id int64) string    { return "complete_" + strconv.FormatInt(id, 10) }
func Delete(id int64) string      { return "delete_" + strconv.FormatInt(id, 10) }
func CurrentWeek() string         { return tokenCurrentWeek }
func BackToWeek() string          { return tokenBackToWeek }

// Parse decodes a payload. It never panics; anything unexpected yields ErrMalformed.
func Parse(data string) (Action, error) {
	switch data {
	case tokenCurrentWeek:
		return Action{Kind: KindCurrentWeek}, nil
	case tokenBackToWeek:
		return Action{Kind: KindBackToWeek}, nil
	}

	prefix, rest, ok := strings.Cut(data, "_")
	if !ok || rest == "" {
		return Action{}, malformed(data)
	}

	switch prefix {
	case "day", "add":
		d, err := domain.ParseDate(rest)
		if err != nil {
			return Action{}, malformed(data)
		}
		if prefix == "day" {
			return Action{Kind: KindDay, Date: d}, nil
		}
		return Action{Kind: KindAdd, Date: d}, nil

	case "week":
		ns, ys, ok := strings.Cut(rest, "_")
		if !ok {
			return Action{}, malformed(data)
		}
		n, err1 := strconv.Atoi(ns)
		y, err2 := strconv.Atoi(ys)
		if err1 != nil || err2 != nil || n < 0 || n > 54 || y < 1970 || y > 9999 {
			return Action{}, malformed(data)
		}
		return Action{Kind: KindWeek, Week: n, Year: y}, nil

	case "reminder":
		m, err := strconv.Atoi(rest)
		if err != nil || m < 0 {
			return Action{}, malformed(data)
		}
		return Action{Kind: KindReminder, Minutes: m}, nil

	case "complete", "delete":
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || id <= 0 {
			return Action{}, malformed(data)
		}
		if prefix == "complete" {
			return Action{Kind: KindComplete, EventID: id}, nil
		}
		return Action{Kind: KindDelete, EventID: id}, nil
	}
	return Action{}, malformed(data)
}

func malformed(data string) error {
	return fmt.Errorf("%w: %q", ErrMalformed, data)
}
