package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNameLen caps event names (in runes).
const MaxNameLen = 256

// Event is a single calendar entry owned by a user.
// Date and TimeM carry no zone; they are interpreted in the owner's timezone.
type Event struct {
	ID         int64
	ChatID     int64
	Name       string
	Date       time.Time // midnight UTC, only Y/M/D are meaningful
	TimeM      int       // minutes since midnight (0..1439)
	ReminderM  int       // minutes before the event
	Completed  bool
	RemindedAt *time.Time // UTC, nullable
	CreatedAt  time.Time  // UTC
}

// Pending pairs an event with its owner's timezone.
type Pending struct {
	Event Event
	TZ    string
}

// NewEvent validates raw user input and builds an unsaved Event.
func NewEvent(chatID int64, name, date, clock string, reminderM int) (Event, error) {
	name, err := ValidateName(name)
	if err != nil {
		return Event{}, err
	}
	d, err := ParseDate(date)
	if err != nil {
		return Event{}, err
	}
	m, err := ParseClock(clock)
	if err != nil {
		return Event{}, err
	}
	if reminderM < 0 {
		return Event{}, &ValidationError{Field: "reminder", Reason: "must not be negative"}
	}
	return Event{
		ChatID:    chatID,
		Name:      name,
		Date:      d,
		TimeM:     m,
		ReminderM: reminderM,
	}, nil
}

// ValidateName trims the name and checks it is non-empty and not too long.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return "", &ValidationError{Field: "name", Reason: fmt.Sprintf("longer than %d characters", MaxNameLen)}
	}
	return name, nil
}

// Instant combines date and time in loc.
func (e Event) Instant(loc *time.Location) time.Time {
	return time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), e.TimeM/60, e.TimeM%60, 0, 0, loc)
}

// FireAt is the moment the reminder is due, before any clamping.
func (e Event) FireAt(loc *time.Location) time.Time {
	return e.Instant(loc).Add(-time.Duration(e.ReminderM) * time.Minute)
}

// DateString returns the ISO date of the event.
func (e Event) DateString() string {
	return FormatDate(e.Date)
}

// Clock returns the event time as HH:MM.
func (e Event) Clock() string {
	return FormatMinutes(e.TimeM)
}
