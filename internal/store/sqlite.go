package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/ykvlv/calendar-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs migrations, and returns a repository.
// The special path ":memory:" opens a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine; one connection also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// Ping checks the database is reachable.
func (r *SQLiteRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// --- Users ---

// GetOrCreateUser returns the user for chatID, creating it with defaultTZ on first contact.
// The primary key makes concurrent first contacts collapse into a single row.
func (r *SQLiteRepo) GetOrCreateUser(ctx context.Context, chatID int64, defaultTZ string) (*domain.User, error) {
	tz, err := domain.ValidateTZ(defaultTZ)
	if err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO users (chat_id, tz, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO NOTHING`,
		chatID, tz, time.Now().UTC().Unix(),
	); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return r.GetUser(ctx, chatID)
}

// GetUser returns a user by chatID or domain.ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, chatID int64) (*domain.User, error) {
	var (
		u         domain.User
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT chat_id, tz, created_at
		FROM users
		WHERE chat_id = ?`,
		chatID,
	).Scan(&u.ChatID, &u.TZ, &createdAt)
	if err != nil {
		return nil, mapErr(err)
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

// SetUserTZ updates a user's timezone after validating it.
func (r *SQLiteRepo) SetUserTZ(ctx context.Context, chatID int64, tz string) error {
	tz, err := domain.ValidateTZ(tz)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE users SET tz = ? WHERE chat_id = ?`, tz, chatID)
	if err != nil {
		return fmt.Errorf("update tz: %w", err)
	}
	return requireRow(res)
}

// DeleteUser removes a user; events go with it (ON DELETE CASCADE).
func (r *SQLiteRepo) DeleteUser(ctx context.Context, chatID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// --- Events ---

// CreateEvent validates the raw input and stores a new event.
func (r *SQLiteRepo) CreateEvent(ctx context.Context, chatID int64, name, date, clock string, reminderM int) (*domain.Event, error) {
	ev, err := domain.NewEvent(chatID, name, date, clock, reminderM)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO events (chat_id, name, date, time_m, reminder_m, completed, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		ev.ChatID, ev.Name, ev.DateString(), ev.TimeM, ev.ReminderM, time.Now().UTC().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", mapErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return r.GetEvent(ctx, id)
}

// GetEvent returns an event by id or domain.ErrNotFound.
func (r *SQLiteRepo) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventCols+` FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return &ev, nil
}

// ListUserEvents returns a user's events on date, ordered by time ascending.
func (r *SQLiteRepo) ListUserEvents(ctx context.Context, chatID int64, date time.Time) ([]domain.Event, error) {
	return r.ListUserEventsBetween(ctx, chatID, date, date)
}

// ListUserEventsBetween returns a user's events with from <= date <= to,
// ordered by date and time.
func (r *SQLiteRepo) ListUserEventsBetween(ctx context.Context, chatID int64, from, to time.Time) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+eventCols+`
		FROM events
		WHERE chat_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, time_m ASC, id ASC`,
		chatID, domain.FormatDate(from), domain.FormatDate(to),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]domain.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// ListPending returns events that still await a reminder, dated on or after since,
// together with the owner's timezone.
func (r *SQLiteRepo) ListPending(ctx context.Context, since time.Time) ([]domain.Pending, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.chat_id, e.name, e.date, e.time_m, e.reminder_m,
		       e.completed, e.reminded_at, e.created_at, u.tz
		FROM events e
		JOIN users u ON u.chat_id = e.chat_id
		WHERE e.completed = 0
		  AND e.reminded_at IS NULL
		  AND e.date >= ?
		ORDER BY e.date ASC, e.time_m ASC, e.id ASC`,
		domain.FormatDate(since),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Pending
	for rows.Next() {
		var tz string
		ev, err := scanEvent(rows, &tz)
		if err != nil {
			return nil, err
		}
		res = append(res, domain.Pending{Event: ev, TZ: tz})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// MarkCompleted sets completed=1. Repeated calls succeed; unknown ids return domain.ErrNotFound.
func (r *SQLiteRepo) MarkCompleted(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE events SET completed = ? WHERE id = ?`, boolToInt(true), id)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return requireRow(res)
}

// ClaimReminder atomically records that the reminder for id fires at at.
// It returns false when the event is completed or was already reminded, and
// domain.ErrNotFound when it does not exist. Only one caller can claim an event.
func (r *SQLiteRepo) ClaimReminder(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET reminded_at = ?
		WHERE id = ? AND reminded_at IS NULL AND completed = 0`,
		toNullInt64(&at), id,
	)
	if err != nil {
		return false, fmt.Errorf("claim reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	if _, err := r.GetEvent(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// DeleteEvent removes an event. Deleting a missing id is not an error.
func (r *SQLiteRepo) DeleteEvent(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
