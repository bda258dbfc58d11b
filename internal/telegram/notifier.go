package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ykvlv/calendar-bot/internal/domain"
)

// Notifier delivers fired reminders to chats. It satisfies scheduler.Sender.
type Notifier struct {
	bot BotAPI
}

// NewNotifier creates a Notifier.
func NewNotifier(bot BotAPI) *Notifier {
	return &Notifier{bot: bot}
}

// SendReminder sends the reminder text with a "Done" button.
func (n *Notifier) SendReminder(_ context.Context, ev domain.Event) error {
	msg := tgbotapi.NewMessage(ev.ChatID, reminderText(ev))
	msg.ReplyMarkup = completeKeyboard(ev.ID)
	if _, err := n.bot.Send(msg); err != nil {
		return &domain.TransportError{Op: "send reminder", Err: err}
	}
	return nil
}
