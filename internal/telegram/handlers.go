package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/calendar-bot/internal/calendar"
	"github.com/ykvlv/calendar-bot/internal/callback"
	"github.com/ykvlv/calendar-bot/internal/domain"
	"github.com/ykvlv/calendar-bot/internal/flow"
	"github.com/ykvlv/calendar-bot/internal/ics"
)

// handler serves one update. log carries the trace fields of that update.
type handler struct {
	*Router
	log    *zap.Logger
	chatID int64
}

// ensureUser makes sure a user row exists; new users get the default timezone.
func (h *handler) ensureUser(ctx context.Context) (*domain.User, error) {
	return h.repo.GetOrCreateUser(ctx, h.chatID, h.opts.DefaultTZ)
}

// today returns the user's current calendar date.
func (h *handler) today(u *domain.User) time.Time {
	loc, err := u.Location()
	if err != nil {
		loc = time.UTC
	}
	return domain.DateOf(h.opts.Now().In(loc))
}

// --- Commands ---

func (h *handler) handleCommand(ctx context.Context, cmd, args string) {
	u, err := h.ensureUser(ctx)
	if err != nil {
		h.log.Error("ensureUser failed", zap.Error(err))
		h.sendText(h.log, h.chatID, "Profile initialization error. Please try again later.")
		return
	}

	switch cmd {
	case "start":
		h.setDraft(h.chatID, flow.Draft{})
		today := h.today(u)
		h.sendText(h.log, h.chatID, startText)
		h.showWeek(ctx, 0, calendar.WeekOf(today), today)
	case "cancel":
		h.handleCancel()
	case "tz":
		h.handleTZ(ctx, u, args)
	case "export":
		h.handleExport(ctx, u)
	case "forget":
		h.handleForget(ctx)
	default:
		h.sendText(h.log, h.chatID, unknownCmdText)
	}
}

func (h *handler) handleCancel() {
	d := h.draft(h.chatID)
	if !d.Active() {
		h.sendText(h.log, h.chatID, nothingToCancel)
		return
	}
	h.setDraft(h.chatID, d.Cancel())
	h.sendText(h.log, h.chatID, cancelledText)
}

func (h *handler) handleTZ(ctx context.Context, u *domain.User, arg string) {
	if arg == "" {
		h.sendText(h.log, h.chatID, fmt.Sprintf(tzCurrentFmt, u.TZ))
		return
	}
	tz, err := domain.ValidateTZ(arg)
	if err != nil {
		h.sendText(h.log, h.chatID, tzInvalid)
		return
	}
	if err := h.repo.SetUserTZ(ctx, h.chatID, tz); err != nil {
		h.log.Error("SetUserTZ failed", zap.Error(err))
		h.sendText(h.log, h.chatID, "Could not save timezone.")
		return
	}
	n, err := h.sched.RescheduleUser(ctx, h.chatID)
	if err != nil {
		h.log.Error("reschedule after tz change failed", zap.Error(err))
	} else {
		h.log.Info("timezone changed", zap.String("tz", tz), zap.Int("rescheduled", n))
	}
	local, err := domain.LocalizeTime(h.opts.Now(), tz)
	if err != nil {
		local = "?"
	}
	h.sendText(h.log, h.chatID, fmt.Sprintf(tzUpdatedFmt, tz, local))
}

func (h *handler) handleExport(ctx context.Context, u *domain.User) {
	from := h.today(u)
	to := from.AddDate(0, 0, h.opts.ExportDays-1)
	events, err := h.repo.ListUserEventsBetween(ctx, h.chatID, from, to)
	if err != nil {
		h.log.Error("list events for export failed", zap.Error(err))
		h.sendText(h.log, h.chatID, "Could not export your events.")
		return
	}
	if len(events) == 0 {
		h.sendText(h.log, h.chatID, exportEmptyText)
		return
	}
	body, err := ics.Export(events, u.TZ, h.opts.Now())
	if err != nil {
		h.log.Error("ics export failed", zap.Error(err))
		h.sendText(h.log, h.chatID, "Could not export your events.")
		return
	}
	doc := tgbotapi.NewDocument(h.chatID, tgbotapi.FileBytes{Name: "calendar.ics", Bytes: []byte(body)})
	doc.Caption = fmt.Sprintf(exportCaption, h.opts.ExportDays)
	h.send(h.log, doc)
}

func (h *handler) handleForget(ctx context.Context) {
	pending, err := h.repo.ListPending(ctx, time.Time{})
	if err != nil {
		h.log.Error("list pending failed", zap.Error(err))
		h.sendText(h.log, h.chatID, tryAgainText)
		return
	}
	if err := h.repo.DeleteUser(ctx, h.chatID); err != nil {
		h.log.Error("DeleteUser failed", zap.Error(err))
		h.sendText(h.log, h.chatID, tryAgainText)
		return
	}
	for _, p := range pending {
		if p.Event.ChatID == h.chatID {
			h.sched.Cancel(p.Event.ID)
		}
	}
	h.dropSession(h.chatID)
	h.log.Info("user data deleted")
	h.sendText(h.log, h.chatID, forgetText)
}

// --- Free text (add-event flow) ---

func (h *handler) handleText(ctx context.Context, text string) {
	d := h.draft(h.chatID)
	switch d.State {
	case flow.AwaitingTitle:
		next, err := d.WithTitle(text)
		if err != nil {
			h.sendText(h.log, h.chatID, fmt.Sprintf(badTitleText, domain.MaxNameLen))
			return
		}
		h.setDraft(h.chatID, next)
		h.sendText(h.log, h.chatID, askTimeText)

	case flow.AwaitingTime:
		next, err := d.WithTime(text)
		if err != nil {
			// Draft stays in AwaitingTime with title and date intact.
			h.sendText(h.log, h.chatID, badTimeText)
			return
		}
		h.setDraft(h.chatID, next)
		msg := tgbotapi.NewMessage(h.chatID, askReminderText)
		msg.ReplyMarkup = reminderKeyboard()
		h.send(h.log, msg)

	case flow.AwaitingReminderChoice:
		msg := tgbotapi.NewMessage(h.chatID, useButtonsText)
		msg.ReplyMarkup = reminderKeyboard()
		h.send(h.log, msg)

	default:
		if _, err := h.ensureUser(ctx); err != nil {
			h.log.Error("ensureUser failed", zap.Error(err))
		}
		h.sendText(h.log, h.chatID, idleText)
	}
}

// --- Callbacks ---

func (h *handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	act, err := callback.Parse(cb.Data)
	if err != nil {
		h.log.Debug("bad callback", zap.String("data", cb.Data), zap.Error(err))
		h.answerCallback(h.log, cb.ID, unknownAction)
		return
	}

	u, err := h.ensureUser(ctx)
	if err != nil {
		h.log.Error("ensureUser failed", zap.Error(err))
		h.answerCallback(h.log, cb.ID, tryAgainText)
		return
	}
	today := h.today(u)
	msgID := cb.Message.MessageID

	switch act.Kind {
	case callback.KindCurrentWeek:
		h.answerCallback(h.log, cb.ID, "")
		h.showWeek(ctx, msgID, calendar.WeekOf(today), today)

	case callback.KindBackToWeek:
		h.answerCallback(h.log, cb.ID, "")
		day := h.lastDay(h.chatID)
		if day.IsZero() {
			day = today
		}
		h.showWeek(ctx, msgID, calendar.WeekOf(day), today)

	case callback.KindWeek:
		h.answerCallback(h.log, cb.ID, "")
		h.showWeek(ctx, msgID, calendar.WeekOf(calendar.MondayOf(act.Year, act.Week)), today)

	case callback.KindDay:
		h.answerCallback(h.log, cb.ID, "")
		h.showDay(ctx, msgID, act.Date)

	case callback.KindAdd:
		h.answerCallback(h.log, cb.ID, "")
		h.setDraft(h.chatID, flow.Begin(act.Date))
		h.sendText(h.log, h.chatID, fmt.Sprintf(askTitleFmt, displayDate(act.Date)))

	case callback.KindReminder:
		h.finishDraft(ctx, u, cb, act.Minutes)

	case callback.KindComplete:
		h.completeEvent(ctx, cb, act.EventID)

	case callback.KindDelete:
		h.deleteEvent(ctx, cb, act.EventID)

	default:
		h.answerCallback(h.log, cb.ID, unknownAction)
	}
}

// showWeek renders the week grid. msgID 0 sends a new message, otherwise the
// message is edited in place.
func (h *handler) showWeek(ctx context.Context, msgID int, w calendar.Week, today time.Time) {
	events, err := h.repo.ListUserEventsBetween(ctx, h.chatID, w.Days[0], w.Days[6])
	if err != nil {
		h.log.Error("list week events failed", zap.Error(err))
	}
	counts := make(map[string]int, len(events))
	for _, ev := range events {
		counts[ev.DateString()]++
	}
	h.render(msgID, weekText(w, today), weekKeyboard(w, today, counts))
}

func (h *handler) showDay(ctx context.Context, msgID int, date time.Time) {
	events, err := h.repo.ListUserEvents(ctx, h.chatID, date)
	if err != nil {
		h.log.Error("list day events failed", zap.Error(err))
		h.sendText(h.log, h.chatID, tryAgainText)
		return
	}
	h.setLastDay(h.chatID, date)
	h.render(msgID, dayText(calendar.WeekOf(date), date, events), dayKeyboard(date, events))
}

func (h *handler) render(msgID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	if msgID == 0 {
		msg := tgbotapi.NewMessage(h.chatID, text)
		msg.ReplyMarkup = kb
		h.send(h.log, msg)
		return
	}
	h.send(h.log, tgbotapi.NewEditMessageTextAndMarkup(h.chatID, msgID, text, kb))
}

// finishDraft saves the completed draft and registers its reminder. The draft
// is taken under the session lock, so a double press creates one event.
func (h *handler) finishDraft(ctx context.Context, u *domain.User, cb *tgbotapi.CallbackQuery, minutes int) {
	d, err := h.takeDraft(h.chatID, minutes)
	switch {
	case errors.Is(err, flow.ErrUnexpectedInput):
		h.answerCallback(h.log, cb.ID, formExpiredText)
		return
	case err != nil:
		h.answerCallback(h.log, cb.ID, unknownAction)
		return
	}
	h.answerCallback(h.log, cb.ID, "")

	ev, err := h.repo.CreateEvent(ctx, h.chatID, d.Title, domain.FormatDate(d.Date), domain.FormatMinutes(d.TimeM), d.ReminderM)
	if domain.IsValidation(err) {
		// Retrying the same draft cannot succeed.
		h.log.Warn("draft rejected by store", zap.Error(err))
		h.sendText(h.log, h.chatID, fmt.Sprintf(badEventText, err))
		return
	}
	if err != nil {
		h.log.Error("CreateEvent failed", zap.Error(err))
		h.setDraft(h.chatID, d.Reopen())
		msg := tgbotapi.NewMessage(h.chatID, saveFailedText)
		msg.ReplyMarkup = reminderKeyboard()
		h.send(h.log, msg)
		return
	}

	text := fmt.Sprintf(eventAddedFmt, ev.Name, ev.Clock(), displayDate(ev.Date))
	res := h.sched.Schedule(*ev, u.TZ)
	switch {
	case errors.Is(res.Err, domain.ErrStaleEvent):
		text += "\n" + staleEventText
	case res.Err != nil:
		h.log.Warn("schedule failed", zap.Int64("eventID", ev.ID), zap.Error(res.Err))
		text += "\n" + scheduleFailText
	case res.Clamped:
		text += "\n" + clampedText
	}
	h.log.Info("event created", zap.Int64("eventID", ev.ID), zap.Bool("scheduled", res.OK()))

	h.send(h.log, tgbotapi.NewEditMessageText(h.chatID, cb.Message.MessageID, text))
	h.showDay(ctx, 0, ev.Date)
}

// takeDraft applies the reminder choice and clears the session draft in one step.
func (r *Router) takeDraft(chatID int64, minutes int) (flow.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sessionLocked(chatID)
	d, err := s.draft.WithReminder(minutes)
	if err != nil {
		return d, err
	}
	s.draft = flow.Draft{}
	return d, nil
}

// ownEvent loads an event and checks it belongs to the current chat.
func (h *handler) ownEvent(ctx context.Context, id int64) (*domain.Event, error) {
	ev, err := h.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.ChatID != h.chatID {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

func (h *handler) completeEvent(ctx context.Context, cb *tgbotapi.CallbackQuery, id int64) {
	ev, err := h.ownEvent(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.log.Error("GetEvent failed", zap.Error(err))
		}
		h.answerCallback(h.log, cb.ID, eventMissingText)
		return
	}
	if err := h.repo.MarkCompleted(ctx, ev.ID); err != nil {
		h.log.Error("MarkCompleted failed", zap.Error(err))
		h.answerCallback(h.log, cb.ID, tryAgainText)
		return
	}
	h.sched.Cancel(ev.ID)
	h.answerCallback(h.log, cb.ID, doneToast)

	text := cb.Message.Text
	if !strings.HasSuffix(text, doneSuffix) {
		text += doneSuffix
	}
	h.send(h.log, tgbotapi.NewEditMessageText(h.chatID, cb.Message.MessageID, text))
}

func (h *handler) deleteEvent(ctx context.Context, cb *tgbotapi.CallbackQuery, id int64) {
	ev, err := h.ownEvent(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.log.Error("GetEvent failed", zap.Error(err))
		}
		h.answerCallback(h.log, cb.ID, eventMissingText)
		return
	}
	if err := h.repo.DeleteEvent(ctx, ev.ID); err != nil {
		h.log.Error("DeleteEvent failed", zap.Error(err))
		h.answerCallback(h.log, cb.ID, tryAgainText)
		return
	}
	h.sched.Cancel(ev.ID)
	h.answerCallback(h.log, cb.ID, deletedToast)
	h.showDay(ctx, cb.Message.MessageID, ev.Date)
}
