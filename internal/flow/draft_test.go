package flow

import (
	"errors"
	"testing"
	"time"

	"github.com/ykvlv/calendar-bot/internal/domain"
)

var day = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

func TestDraft_HappyPath(t *testing.T) {
	d := Begin(day)
	if d.State != AwaitingTitle {
		t.Fatalf("state = %v, want awaiting_title", d.State)
	}

	d, err := d.WithTitle("Dentist")
	if err != nil {
		t.Fatalf("title: %v", err)
	}
	d, err = d.WithTime("14:30")
	if err != nil {
		t.Fatalf("time: %v", err)
	}
	d, err = d.WithReminder(15)
	if err != nil {
		t.Fatalf("reminder: %v", err)
	}
	if d.State != Done {
		t.Fatalf("state = %v, want done", d.State)
	}

	if d.Title != "Dentist" || !d.Date.Equal(day) || d.TimeM != 14*60+30 || d.ReminderM != 15 {
		t.Fatalf("unexpected draft %+v", d)
	}
}

func TestDraft_InvalidTimeKeepsFields(t *testing.T) {
	d, _ := Begin(day).WithTitle("Dentist")

	got, err := d.WithTime("half past two")
	if !domain.IsValidation(err) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if got.State != AwaitingTime {
		t.Fatalf("state = %v, want awaiting_time", got.State)
	}
	if got.Title != "Dentist" || !got.Date.Equal(day) {
		t.Fatalf("draft fields lost: %+v", got)
	}

	// Retry succeeds from the same state.
	if _, err := got.WithTime("14:30"); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestDraft_EmptyTitle(t *testing.T) {
	d, err := Begin(day).WithTitle("   ")
	if !domain.IsValidation(err) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if d.State != AwaitingTitle {
		t.Fatalf("state = %v, want awaiting_title", d.State)
	}
}

func TestDraft_RejectsUnknownOffset(t *testing.T) {
	d, _ := Begin(day).WithTitle("Dentist")
	d, _ = d.WithTime("14:30")

	for _, m := range []int{0, 10, 45, -5} {
		got, err := d.WithReminder(m)
		if !domain.IsValidation(err) {
			t.Errorf("offset %d: want ValidationError, got %v", m, err)
		}
		if got.State != AwaitingReminderChoice {
			t.Errorf("offset %d: state = %v", m, got.State)
		}
	}
	for _, m := range ReminderOffsets {
		if _, err := d.WithReminder(m); err != nil {
			t.Errorf("offset %d should be accepted: %v", m, err)
		}
	}
}

func TestDraft_WrongState(t *testing.T) {
	var idle Draft
	if _, err := idle.WithTitle("x"); !errors.Is(err, ErrUnexpectedInput) {
		t.Errorf("title on idle: %v", err)
	}
	d := Begin(day)
	if _, err := d.WithTime("14:30"); !errors.Is(err, ErrUnexpectedInput) {
		t.Errorf("time before title: %v", err)
	}
	if _, err := d.WithReminder(15); !errors.Is(err, ErrUnexpectedInput) {
		t.Errorf("reminder before time: %v", err)
	}
}

func TestDraft_CancelFromAnyState(t *testing.T) {
	d1 := Begin(day)
	d2, _ := d1.WithTitle("Dentist")
	d3, _ := d2.WithTime("14:30")
	for _, d := range []Draft{d1, d2, d3} {
		c := d.Cancel()
		if c.State != Idle || c.Active() || c.Title != "" {
			t.Errorf("cancel from %v left %+v", d.State, c)
		}
	}
}

func TestDraft_Reopen(t *testing.T) {
	d, _ := Begin(day).WithTitle("Dentist")
	d, _ = d.WithTime("14:30")
	d, _ = d.WithReminder(30)

	r := d.Reopen()
	if r.State != AwaitingReminderChoice || r.Title != "Dentist" || r.TimeM != 14*60+30 {
		t.Fatalf("reopen = %+v", r)
	}
	if _, err := r.WithReminder(30); err != nil {
		t.Fatalf("reminder after reopen: %v", err)
	}
}
