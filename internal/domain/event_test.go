package domain

import (
	"strings"
	"testing"
	"time"
)

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent(42, "  Dentist ", "2025-03-10", "14:30", 15)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	if ev.Name != "Dentist" {
		t.Errorf("name = %q, want trimmed", ev.Name)
	}
	if ev.DateString() != "2025-03-10" || ev.Clock() != "14:30" || ev.ReminderM != 15 {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.Completed {
		t.Error("new event must not be completed")
	}
}

func TestNewEvent_Validation(t *testing.T) {
	cases := []struct {
		name, date, clock string
		reminder          int
		field             string
	}{
		{"", "2025-03-10", "14:30", 15, "name"},
		{"   ", "2025-03-10", "14:30", 15, "name"},
		{strings.Repeat("x", MaxNameLen+1), "2025-03-10", "14:30", 15, "name"},
		{"Dentist", "not-a-date", "14:30", 15, "date"},
		{"Dentist", "2025-03-10", "25:00", 15, "time"},
		{"Dentist", "2025-03-10", "14:30", -1, "reminder"},
	}
	for _, c := range cases {
		_, err := NewEvent(1, c.name, c.date, c.clock, c.reminder)
		ve, ok := err.(*ValidationError)
		if !ok {
			t.Errorf("NewEvent(%q,%q,%q,%d) err = %v, want ValidationError", c.name, c.date, c.clock, c.reminder, err)
			continue
		}
		if ve.Field != c.field {
			t.Errorf("field = %q, want %q", ve.Field, c.field)
		}
	}
}

func TestEventInstant_UserTimezone(t *testing.T) {
	ev, err := NewEvent(1, "Dentist", "2025-03-10", "14:30", 15)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}

	want := time.Date(2025, time.March, 10, 11, 30, 0, 0, time.UTC)
	if got := ev.Instant(loc); !got.Equal(want) {
		t.Fatalf("instant = %v, want %v", got.UTC(), want)
	}
	if got := ev.FireAt(loc); !got.Equal(want.Add(-15 * time.Minute)) {
		t.Fatalf("fire = %v, want %v", got.UTC(), want.Add(-15*time.Minute))
	}

	// Same wall clock in another zone is another instant.
	if ev.Instant(time.UTC).Equal(ev.Instant(loc)) {
		t.Fatal("instant must depend on the zone")
	}
}

func TestEventFireAt_DayBefore(t *testing.T) {
	ev, _ := NewEvent(1, "Trip", "2025-03-10", "00:30", 1440)
	got := ev.FireAt(time.UTC)
	want := time.Date(2025, time.March, 9, 0, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("fire = %v, want %v", got, want)
	}
}
