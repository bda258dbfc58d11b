package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ykvlv/calendar-bot/internal/domain"
	"github.com/ykvlv/calendar-bot/internal/flow"
	"github.com/ykvlv/calendar-bot/internal/scheduler"
	"github.com/ykvlv/calendar-bot/internal/store"
)

// BotAPI is the subset of *tgbotapi.BotAPI used by the router.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Reminders is the scheduler surface the router needs.
type Reminders interface {
	Schedule(ev domain.Event, tz string) scheduler.Result
	Cancel(eventID int64) bool
	RescheduleUser(ctx context.Context, chatID int64) (int, error)
}

// Options configure the router. Zero values fall back to defaults.
type Options struct {
	DefaultTZ  string
	ExportDays int
	Now        func() time.Time
}

// session is the in-memory conversation state of one chat.
type session struct {
	draft   flow.Draft
	lastDay time.Time // last day screen shown, zero if none
}

// Router wires Telegram updates to handlers and holds per-chat conversation state.
type Router struct {
	bot   BotAPI
	log   *zap.Logger
	repo  store.Repo
	sched Reminders
	opts  Options

	mu       sync.Mutex
	sessions map[int64]*session
}

// NewRouter creates a new Telegram router.
func NewRouter(bot BotAPI, log *zap.Logger, repo store.Repo, sched Reminders, opts Options) *Router {
	if opts.DefaultTZ == "" {
		opts.DefaultTZ = "UTC"
	}
	if opts.ExportDays <= 0 {
		opts.ExportDays = 30
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Router{
		bot:      bot,
		log:      log,
		repo:     repo,
		sched:    sched,
		opts:     opts,
		sessions: make(map[int64]*session),
	}
}

func (r *Router) draft(chatID int64) flow.Draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[chatID]; ok {
		return s.draft
	}
	return flow.Draft{}
}

func (r *Router) setDraft(chatID int64, d flow.Draft) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessionLocked(chatID).draft = d
}

func (r *Router) lastDay(chatID int64) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[chatID]; ok {
		return s.lastDay
	}
	return time.Time{}
}

func (r *Router) setLastDay(chatID int64, d time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessionLocked(chatID).lastDay = d
}

func (r *Router) dropSession(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, chatID)
}

func (r *Router) sessionLocked(chatID int64) *session {
	s, ok := r.sessions[chatID]
	if !ok {
		s = &session{}
		r.sessions[chatID] = s
	}
	return s
}

// HandleUpdate routes a single update to the appropriate handler.
// A panic in a handler is logged and answered with a generic apology.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	chatID := chatOf(upd)
	log := r.log.With(
		zap.String("traceID", uuid.NewString()),
		zap.Int("updateID", upd.UpdateID),
		zap.Int64("chatID", chatID),
	)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("handler panic", zap.Any("panic", rec), zap.Stack("stack"))
			if chatID != 0 {
				r.sendText(log, chatID, tryAgainText)
			}
		}
	}()

	h := &handler{Router: r, log: log, chatID: chatID}

	// Text messages
	if upd.Message != nil {
		text := strings.TrimSpace(upd.Message.Text)
		if upd.Message.IsCommand() {
			h.handleCommand(ctx, upd.Message.Command(), strings.TrimSpace(upd.Message.CommandArguments()))
			return
		}
		h.handleText(ctx, text)
		return
	}

	// Callback queries (inline buttons)
	if upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil {
		h.handleCallback(ctx, upd.CallbackQuery)
	}
}

func chatOf(upd tgbotapi.Update) int64 {
	switch {
	case upd.Message != nil && upd.Message.Chat != nil:
		return upd.Message.Chat.ID
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil && upd.CallbackQuery.Message.Chat != nil:
		return upd.CallbackQuery.Message.Chat.ID
	}
	return 0
}

// --- Generic helpers ---

func (r *Router) sendText(log *zap.Logger, chatID int64, text string) {
	r.send(log, tgbotapi.NewMessage(chatID, text))
}

func (r *Router) send(log *zap.Logger, c tgbotapi.Chattable) {
	if _, err := r.bot.Send(c); err != nil {
		log.Warn("send failed", zap.Error(&domain.TransportError{Op: "send", Err: err}))
	}
}

func (r *Router) answerCallback(log *zap.Logger, id, text string) {
	if _, err := r.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		log.Debug("answer callback failed", zap.Error(err))
	}
}
