package store

import (
	"context"
	"time"

	"github.com/ykvlv/calendar-bot/internal/domain"
)

// Repo defines storage operations for users and their events.
type Repo interface {
	GetOrCreateUser(ctx context.Context, chatID int64, defaultTZ string) (*domain.User, error)
	GetUser(ctx context.Context, chatID int64) (*domain.User, error)
	SetUserTZ(ctx context.Context, chatID int64, tz string) error
	DeleteUser(ctx context.Context, chatID int64) error

	CreateEvent(ctx context.Context, chatID int64, name, date, clock string, reminderM int) (*domain.Event, error)
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	ListUserEvents(ctx context.Context, chatID int64, date time.Time) ([]domain.Event, error)
	ListUserEventsBetween(ctx context.Context, chatID int64, from, to time.Time) ([]domain.Event, error)
	ListPending(ctx context.Context, since time.Time) ([]domain.Pending, error)
	MarkCompleted(ctx context.Context, id int64) error
	ClaimReminder(ctx context.Context, id int64, at time.Time) (bool, error)
	DeleteEvent(ctx context.Context, id int64) error

	Ping(ctx context.Context) error
	Close() error
}
