package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/calendar-bot/internal/config"
	"github.com/ykvlv/calendar-bot/internal/httpserver"
	"github.com/ykvlv/calendar-bot/internal/scheduler"
	"github.com/ykvlv/calendar-bot/internal/store"
	"github.com/ykvlv/calendar-bot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	queue   *scheduler.TimerQueue
	sched   *scheduler.Scheduler
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	return &App{cfg: cfg, log: log, bot: bot}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting calendar-bot",
		zap.String("bot", a.bot.Self.UserName),
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("defaultTZ", a.cfg.DefaultTZ),
	)

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))

	a.queue = scheduler.NewTimerQueue()
	a.sched = scheduler.New(a.repo, a.log.Named("scheduler"), telegram.NewNotifier(a.bot), a.queue, scheduler.Options{
		Grace:         a.cfg.ReminderGrace,
		LateTolerance: a.cfg.LateTolerance,
		ResyncSpec:    a.cfg.ResyncCron,
	})
	a.router = telegram.NewRouter(a.bot, a.log.Named("telegram"), a.repo, a.sched, telegram.Options{
		DefaultTZ:  a.cfg.DefaultTZ,
		ExportDays: a.cfg.ExportDays,
	})

	// Timers live in memory only; restore them before taking updates.
	if err := a.sched.Start(ctx); err != nil {
		a.log.Error("scheduler start failed", zap.Error(err))
		_ = a.repo.Close()
		return err
	}

	a.httpSrv = &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      httpserver.New(a.repo),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown()
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

func (a *App) shutdown() {
	a.bot.StopReceivingUpdates()
	a.sched.Stop()
	a.log.Info("dropping pending timers", zap.Int("pending", a.queue.Len()))
	a.queue.Stop()

	// Create a short-lived shutdown context and cancel it immediately after use.
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}

	if err := a.repo.Close(); err != nil {
		a.log.Warn("sqlite close error", zap.Error(err))
	}
}
