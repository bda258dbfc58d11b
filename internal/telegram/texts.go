package telegram

import (
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ykvlv/calendar-bot/internal/calendar"
	"github.com/ykvlv/calendar-bot/internal/callback"
	"github.com/ykvlv/calendar-bot/internal/domain"
	"github.com/ykvlv/calendar-bot/internal/flow"
)

// UI texts in English
const (
	startText = "📅 Welcome to the planner!\n\n" +
		"Pick a day to see its events or add a new one. I will remind you before it starts.\n\n" +
		"/tz Region/City — set your timezone\n" +
		"/export — download upcoming events (.ics)\n" +
		"/cancel — abort adding an event\n" +
		"/forget — delete all your data"

	askTitleFmt     = "New event on %s.\nEnter the event title (/cancel to abort):"
	askTimeText     = "Enter the event time (format HH:MM):"
	badTimeText     = "Invalid time format. Use HH:MM, e.g. 14:30. Try again:"
	badTitleText    = "The title must be non-empty and at most %d characters. Try again:"
	askReminderText = "When should I remind you?"
	useButtonsText  = "Please choose a reminder using the buttons below."
	idleText        = "Use /start to open the calendar."
	unknownCmdText  = "Unknown command. Use /start to open the calendar."

	cancelledText    = "Cancelled."
	nothingToCancel  = "Nothing to cancel."
	formExpiredText  = "This form is no longer active."
	unknownAction    = "Unknown action"
	eventMissingText = "Event not found."
	doneToast        = "Marked as done ✅"
	deletedToast     = "Event deleted"

	eventAddedFmt    = "✅ Event added: %s at %s on %s."
	staleEventText   = "⚠️ The event time has already passed, so no reminder was set."
	scheduleFailText = "⚠️ Could not set a reminder for this event."
	clampedText      = "⏰ The reminder time has already passed, you will be reminded right away."
	saveFailedText   = "Could not save the event. Please press a reminder button again."
	badEventText     = "This event cannot be saved: %s. Start again with /start."

	reminderFmt = "🔔 Reminder: %s at %s (%s)"
	doneSuffix  = "\n\n✅ Done"

	tzCurrentFmt = "Your timezone: %s\nTo change it send /tz Region/City, e.g. /tz Europe/Moscow"
	tzUpdatedFmt = "Timezone updated: %s (local time %s)"
	tzInvalid    = "Invalid timezone. Example: /tz Europe/Moscow"

	exportEmptyText = "No upcoming events to export."
	exportCaption   = "Your events for the next %d days"
	forgetText      = "All your events and settings were deleted. Send /start to begin again."

	tryAgainText = "Something went wrong, please try again."
)

func displayDate(d time.Time) string {
	return d.Format("02.01.2006")
}

func weekHeader(w calendar.Week) string {
	return fmt.Sprintf("Week %d of %d", w.Number, w.Total)
}

func weekText(w calendar.Week, today time.Time) string {
	s := fmt.Sprintf("📅 %s (%s – %s)", weekHeader(w), w.Days[0].Format("02.01"), displayDate(w.Days[6]))
	if w.Contains(today) {
		s += ", this week"
	}
	return s + "\nPick a day:"
}

func dayText(w calendar.Week, date time.Time, events []domain.Event) string {
	if len(events) == 0 {
		return fmt.Sprintf("%s\nNo events on %s.", weekHeader(w), displayDate(date))
	}
	s := fmt.Sprintf("%s\nEvents on %s:\n", weekHeader(w), displayDate(date))
	for _, ev := range events {
		mark := ""
		if ev.Completed {
			mark = " ✅"
		}
		s += fmt.Sprintf("\n⏰ %s - %s%s", ev.Clock(), ev.Name, mark)
	}
	return s
}

func reminderText(ev domain.Event) string {
	return fmt.Sprintf(reminderFmt, ev.Name, ev.Clock(), displayDate(ev.Date))
}

// weekKeyboard builds the navigation row and one button per day.
// counts maps ISO dates to the number of events on that day.
func weekKeyboard(w calendar.Week, today time.Time, counts map[string]int) tgbotapi.InlineKeyboardMarkup {
	prevN, prevY := w.Prev()
	nextN, nextY := w.Next()
	nav := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("<< Prev", callback.Week(prevN, prevY)),
		tgbotapi.NewInlineKeyboardButtonData("Today", callback.CurrentWeek()),
		tgbotapi.NewInlineKeyboardButtonData("Next >>", callback.Week(nextN, nextY)),
	)

	var days []tgbotapi.InlineKeyboardButton
	for _, d := range w.Days {
		label := d.Format("Mon 02.01")
		if d.Equal(today) {
			label = "📍" + label
		}
		if n := counts[domain.FormatDate(d)]; n > 0 {
			label += " (" + strconv.Itoa(n) + ")"
		}
		days = append(days, tgbotapi.NewInlineKeyboardButtonData(label, callback.Day(d)))
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		nav,
		tgbotapi.NewInlineKeyboardRow(days[:3]...),
		tgbotapi.NewInlineKeyboardRow(days[3:]...),
	)
}

func dayKeyboard(date time.Time, events []domain.Event) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ev := range events {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+ev.Clock()+" "+ev.Name, callback.Delete(ev.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Add event", callback.Add(date)),
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to week", callback.BackToWeek()),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func reminderKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, m := range flow.ReminderOffsets {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(offsetLabel(m)+" before", callback.Reminder(m)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func completeKeyboard(eventID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Done", callback.Complete(eventID)),
		),
	)
}

// offsetLabel renders minutes as "15 minutes", "1 hour", "2 hours", "1 day".
func offsetLabel(m int) string {
	switch {
	case m%1440 == 0:
		return plural(m/1440, "day")
	case m%60 == 0:
		return plural(m/60, "hour")
	default:
		return plural(m, "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
