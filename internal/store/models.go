package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/ykvlv/calendar-bot/internal/domain"
)

func toNullInt64(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().Unix(), Valid: true}
}

func fromNullInt64(ns sql.NullInt64) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := time.Unix(ns.Int64, 0).UTC()
	return &t
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// mapErr translates driver errors into domain errors.
// modernc.org/sqlite reports constraint failures only through the message text.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return domain.ErrNotFound
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

const eventCols = `id, chat_id, name, date, time_m, reminder_m, completed, reminded_at, created_at`

func scanEvent(s scanner, extra ...any) (domain.Event, error) {
	var (
		e          domain.Event
		date       string
		completed  int
		remindedNS sql.NullInt64
		createdAt  int64
	)
	dest := append([]any{
		&e.ID, &e.ChatID, &e.Name, &date, &e.TimeM, &e.ReminderM,
		&completed, &remindedNS, &createdAt,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return domain.Event{}, err
	}

	d, err := domain.ParseDate(date)
	if err != nil {
		return domain.Event{}, err
	}
	e.Date = d
	e.Completed = completed != 0
	e.RemindedAt = fromNullInt64(remindedNS)
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	return e, nil
}
