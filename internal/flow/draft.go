// Package flow implements the add-event conversation as a value-typed state machine.
// Every transition returns a new Draft; callers persist it per chat.
package flow

import (
	"errors"
	"fmt"
	"time"

	"github.com/ykvlv/calendar-bot/internal/domain"
)

// State is a step in the add-event conversation.
type State int

const (
	Idle State = iota
	AwaitingTitle
	AwaitingTime
	AwaitingReminderChoice
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingTitle:
		return "awaiting_title"
	case AwaitingTime:
		return "awaiting_time"
	case AwaitingReminderChoice:
		return "awaiting_reminder"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ReminderOffsets are the offsets (minutes) offered to the user, in display order.
var ReminderOffsets = []int{5, 15, 30, 60, 120, 1440}

// ErrUnexpectedInput is returned when an input does not match the current state.
var ErrUnexpectedInput = errors.New("unexpected input for current step")

// Draft accumulates event fields across conversation steps.
type Draft struct {
	State     State
	Date      time.Time
	Title     string
	TimeM     int
	ReminderM int
}

// Begin seeds a draft for the given day.
func Begin(date time.Time) Draft {
	return Draft{State: AwaitingTitle, Date: domain.DateOf(date)}
}

// Active reports whether the draft is collecting input.
func (d Draft) Active() bool {
	return d.State == AwaitingTitle || d.State == AwaitingTime || d.State == AwaitingReminderChoice
}

// WithTitle accepts the event title.
func (d Draft) WithTitle(text string) (Draft, error) {
	if d.State != AwaitingTitle {
		return d, ErrUnexpectedInput
	}
	name, err := domain.ValidateName(text)
	if err != nil {
		return d, err
	}
	d.Title = name
	d.State = AwaitingTime
	return d, nil
}

// WithTime accepts HH:MM. On bad input the draft is returned unchanged.
func (d Draft) WithTime(text string) (Draft, error) {
	if d.State != AwaitingTime {
		return d, ErrUnexpectedInput
	}
	m, err := domain.ParseClock(text)
	if err != nil {
		return d, err
	}
	d.TimeM = m
	d.State = AwaitingReminderChoice
	return d, nil
}

// WithReminder accepts one of ReminderOffsets and completes the draft.
func (d Draft) WithReminder(minutes int) (Draft, error) {
	if d.State != AwaitingReminderChoice {
		return d, ErrUnexpectedInput
	}
	if !allowedOffset(minutes) {
		return d, &domain.ValidationError{Field: "reminder", Reason: fmt.Sprintf("unsupported offset %d", minutes)}
	}
	d.ReminderM = minutes
	d.State = Done
	return d, nil
}

// Reopen moves a Done draft back to the reminder step, e.g. after a failed save.
func (d Draft) Reopen() Draft {
	if d.State == Done {
		d.State = AwaitingReminderChoice
	}
	return d
}

// Cancel discards the draft.
func (d Draft) Cancel() Draft {
	return Draft{}
}

func allowedOffset(m int) bool {
	for _, o := range ReminderOffsets {
		if o == m {
			return true
		}
	}
	return false
}
