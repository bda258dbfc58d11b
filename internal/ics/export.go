// Package ics renders a user's events as an iCalendar document.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/ykvlv/calendar-bot/internal/domain"
)

const (
	productID     = "-//ykvlv//calendar-bot//EN"
	eventDuration = time.Hour
)

// Export serialises events, interpreting their wall-clock times in tz.
// Each event carries a display alarm at its reminder offset.
func Export(events []domain.Event, tz string, now time.Time) (string, error) {
	loc, err := domain.LoadLocation(tz)
	if err != nil {
		return "", err
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, ev := range events {
		start := ev.Instant(loc)

		ve := cal.AddEvent(fmt.Sprintf("event-%d@calendar-bot", ev.ID))
		ve.SetDtStampTime(now)
		ve.SetCreatedTime(ev.CreatedAt)
		ve.SetStartAt(start)
		ve.SetEndAt(start.Add(eventDuration))
		ve.SetSummary(ev.Name)
		if ev.Completed {
			ve.SetDescription("Completed")
		}

		alarm := ve.AddAlarm()
		alarm.SetAction(ical.ActionDisplay)
		alarm.SetTrigger(fmt.Sprintf("-PT%dM", ev.ReminderM))
		alarm.SetProperty(ical.ComponentPropertyDescription, ev.Name)
	}

	return cal.Serialize(), nil
}
