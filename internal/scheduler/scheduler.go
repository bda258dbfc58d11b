package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ykvlv/calendar-bot/internal/domain"
	"github.com/ykvlv/calendar-bot/internal/store"
)

// Sender delivers a fired reminder to the event owner.
// telegram.Notifier implements this.
type Sender interface {
	SendReminder(ctx context.Context, ev domain.Event) error
}

// Options tune the scheduler. Zero values fall back to defaults.
type Options struct {
	Grace         time.Duration    // delay for reminders whose fire time already passed
	LateTolerance time.Duration    // fires later than this after the event are logged as late
	ResyncSpec    string           // cron spec for the periodic resync sweep
	FireTimeout   time.Duration    // budget for one OnFire call
	Now           func() time.Time // clock
}

const (
	defaultGrace         = 5 * time.Second
	defaultLateTolerance = time.Hour
	defaultResyncSpec    = "@every 10m"
	defaultFireTimeout   = 15 * time.Second
)

// Result reports the outcome of Schedule. Err is nil on success.
type Result struct {
	EventID int64
	Key     string
	FireAt  time.Time
	Clamped bool // the reminder time had passed and was moved to now+grace
	Err     error
}

// OK reports whether a timer was registered.
func (r Result) OK() bool { return r.Err == nil }

// Scheduler turns events into one-shot reminder timers and re-validates them when they fire.
type Scheduler struct {
	repo   store.Repo
	log    *zap.Logger
	sender Sender
	queue  Queue
	opts   Options

	mu   sync.Mutex
	cron *cron.Cron
}

// New creates a Scheduler.
func New(repo store.Repo, log *zap.Logger, sender Sender, queue Queue, opts Options) *Scheduler {
	if opts.Grace <= 0 {
		opts.Grace = defaultGrace
	}
	if opts.LateTolerance <= 0 {
		opts.LateTolerance = defaultLateTolerance
	}
	if opts.ResyncSpec == "" {
		opts.ResyncSpec = defaultResyncSpec
	}
	if opts.FireTimeout <= 0 {
		opts.FireTimeout = defaultFireTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		repo:   repo,
		log:    log,
		sender: sender,
		queue:  queue,
		opts:   opts,
	}
}

// Key is the idempotency key of an event's reminder.
func Key(eventID int64) string {
	return "reminder_" + strconv.FormatInt(eventID, 10)
}

// Schedule registers the reminder for ev, interpreting its date and time in tz.
// Failures are reported in the Result; the caller's event is never affected.
func (s *Scheduler) Schedule(ev domain.Event, tz string) Result {
	res := Result{EventID: ev.ID, Key: Key(ev.ID)}

	loc, err := domain.LoadLocation(tz)
	if err != nil {
		res.Err = err
		return res
	}

	now := s.opts.Now()
	instant := ev.Instant(loc)
	if !instant.After(now) {
		res.Err = fmt.Errorf("event %d at %s: %w", ev.ID, instant.Format(time.RFC3339), domain.ErrStaleEvent)
		return res
	}

	fire := ev.FireAt(loc)
	if !fire.After(now) {
		fire = now.Add(s.opts.Grace)
		res.Clamped = true
	}
	res.FireAt = fire

	id := ev.ID
	s.queue.ScheduleAt(fire, res.Key, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.FireTimeout)
		defer cancel()
		s.OnFire(ctx, id)
	})

	s.log.Debug("reminder scheduled",
		zap.Int64("eventID", ev.ID),
		zap.Time("fireAt", fire.UTC()),
		zap.Bool("clamped", res.Clamped),
	)
	return res
}

// Cancel drops a pending reminder, e.g. after the event was deleted.
func (s *Scheduler) Cancel(eventID int64) bool {
	return s.queue.Cancel(Key(eventID))
}

// OnFire is the timer callback. It re-reads the event, skips deleted, completed
// or already reminded events, and sends the reminder at most once.
func (s *Scheduler) OnFire(ctx context.Context, eventID int64) {
	log := s.log.With(zap.Int64("eventID", eventID))

	ev, err := s.repo.GetEvent(ctx, eventID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info("reminder skipped: event deleted")
		return
	}
	if err != nil {
		log.Error("load event failed", zap.Error(err))
		return
	}
	if ev.Completed {
		log.Info("reminder skipped: event completed")
		return
	}
	if ev.RemindedAt != nil {
		log.Info("reminder skipped: already sent")
		return
	}

	now := s.opts.Now()
	if u, err := s.repo.GetUser(ctx, ev.ChatID); err == nil {
		if loc, err := u.Location(); err == nil {
			if late := now.Sub(ev.Instant(loc)); late > s.opts.LateTolerance {
				// Still sent, without a "late" label.
				log.Warn("reminder fired after the event", zap.Duration("late", late))
			}
		}
	}

	claimed, err := s.repo.ClaimReminder(ctx, ev.ID, now)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.Info("reminder skipped: event deleted")
		return
	case err != nil:
		log.Error("claim reminder failed", zap.Error(err))
		return
	case !claimed:
		log.Info("reminder skipped: already handled")
		return
	}

	if err := s.sender.SendReminder(ctx, *ev); err != nil {
		log.Error("send reminder failed", zap.Error(err), zap.Int64("chatID", ev.ChatID))
		return
	}
	log.Info("reminder sent", zap.Int64("chatID", ev.ChatID))
}

// Resync registers timers for every pending event. Run it at startup: the
// in-memory queue loses all timers on restart. Returns the number registered.
func (s *Scheduler) Resync(ctx context.Context) (int, error) {
	// One day of slack covers every zone offset; Schedule drops the stale ones.
	since := domain.DateOf(s.opts.Now().UTC()).AddDate(0, 0, -1)

	pending, err := s.repo.ListPending(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", err)
	}

	n := 0
	for _, p := range pending {
		res := s.Schedule(p.Event, p.TZ)
		switch {
		case res.OK():
			n++
		case errors.Is(res.Err, domain.ErrStaleEvent):
			s.log.Debug("resync: event already passed", zap.Int64("eventID", p.Event.ID))
		default:
			s.log.Warn("resync: schedule failed", zap.Int64("eventID", p.Event.ID), zap.Error(res.Err))
		}
	}
	return n, nil
}

// RescheduleUser re-registers a user's pending events, e.g. after a timezone change.
func (s *Scheduler) RescheduleUser(ctx context.Context, chatID int64) (int, error) {
	u, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		return 0, err
	}
	since := domain.DateOf(s.opts.Now().UTC()).AddDate(0, 0, -1)
	pending, err := s.repo.ListPending(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", err)
	}

	n := 0
	for _, p := range pending {
		if p.Event.ChatID != u.ChatID {
			continue
		}
		if res := s.Schedule(p.Event, u.TZ); res.OK() {
			n++
		} else {
			// The old timer would fire at an instant computed from the previous zone.
			s.Cancel(p.Event.ID)
		}
	}
	return n, nil
}

// Start runs the startup sweep and then repeats it on the cron schedule until Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	n, err := s.Resync(ctx)
	if err != nil {
		return fmt.Errorf("startup resync: %w", err)
	}
	s.log.Info("reminders restored", zap.Int("count", n))

	c := cron.New()
	if _, err := c.AddFunc(s.opts.ResyncSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if n, err := s.Resync(ctx); err != nil {
			s.log.Error("periodic resync failed", zap.Error(err))
		} else {
			s.log.Debug("periodic resync", zap.Int("count", n))
		}
	}); err != nil {
		return fmt.Errorf("resync spec %q: %w", s.opts.ResyncSpec, err)
	}
	c.Start()

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	return nil
}

// Stop halts the periodic sweep and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	s.log.Info("scheduler stopping")
}
