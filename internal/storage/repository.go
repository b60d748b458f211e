package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/session"

	_ "modernc.org/sqlite"
)

const (
	getSession = `SELECT state, filter_field, updated_at FROM sessions WHERE chat_id = ?`

	upsertSession = `INSERT INTO sessions (chat_id, state, filter_field, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (chat_id) DO UPDATE SET
    state = excluded.state,
    filter_field = excluded.filter_field,
    updated_at = excluded.updated_at`

	deleteSession = `DELETE FROM sessions WHERE chat_id = ?`

	purgeSessions = `DELETE FROM sessions WHERE updated_at < ?`

	countSessions = `SELECT COUNT(*) FROM sessions`
)

// SessionRepository is a session.Store persisted in SQLite so awaiting
// states survive a bot restart.
type SessionRepository struct {
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
}

var _ session.Store = (*SessionRepository)(nil)

// NewSessionRepository opens (creating if needed) the database at dbPath and
// applies migrations. Sessions older than ttl read as idle; ttl <= 0 disables
// expiry.
func NewSessionRepository(dbPath string, ttl time.Duration) (*SessionRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SessionRepository{
		db:     db,
		ttl:    ttl,
		now:    time.Now,
		logger: log.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SessionRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Get implements session.Store
func (r *SessionRepository) Get(ctx context.Context, chatID int64) (session.Session, error) {
	var (
		state, field string
		updated      int64
	)
	err := r.db.QueryRowContext(ctx, getSession, chatID).Scan(&state, &field, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return session.IdleSession(), nil
	}
	if err != nil {
		return session.IdleSession(), fmt.Errorf("get session %d: %w", chatID, err)
	}

	if r.ttl > 0 && r.now().Sub(time.Unix(updated, 0)) > r.ttl {
		return session.IdleSession(), nil
	}

	s := session.IdleSession()
	if s.State, err = session.ParseState(state); err != nil {
		r.logger.WarnContext(ctx, "Discarding unreadable session", log.FieldChatID, chatID, log.FieldError, err)
		return session.IdleSession(), nil
	}
	if field != "" {
		if s.FilterField, err = core.ParseField(field); err != nil {
			r.logger.WarnContext(ctx, "Discarding unreadable session", log.FieldChatID, chatID, log.FieldError, err)
			return session.IdleSession(), nil
		}
	}
	return s, nil
}

// Set implements session.Store. Idle sessions are deleted.
func (r *SessionRepository) Set(ctx context.Context, chatID int64, s session.Session) error {
	if s.State == session.Idle {
		return r.Clear(ctx, chatID)
	}
	field := ""
	if s.State == session.AwaitingFilterValue {
		field = s.FilterField.String()
	}
	if _, err := r.db.ExecContext(ctx, upsertSession, chatID, s.State.String(), field, r.now().Unix()); err != nil {
		return fmt.Errorf("save session %d: %w", chatID, err)
	}
	r.logger.DebugContext(ctx, "Session saved", log.FieldChatID, chatID, log.FieldState, s.State.String())
	return nil
}

// Clear implements session.Store
func (r *SessionRepository) Clear(ctx context.Context, chatID int64) error {
	if _, err := r.db.ExecContext(ctx, deleteSession, chatID); err != nil {
		return fmt.Errorf("clear session %d: %w", chatID, err)
	}
	return nil
}

// PurgeExpired deletes sessions last touched before now minus ttl and
// returns how many were removed.
func (r *SessionRepository) PurgeExpired(ctx context.Context) (int64, error) {
	if r.ttl <= 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, purgeSessions, r.now().Add(-r.ttl).Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	if n > 0 {
		r.logger.InfoContext(ctx, "Purged expired sessions", log.FieldCount, n)
	}
	return n, nil
}

// Count returns the number of stored sessions.
func (r *SessionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countSessions).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
