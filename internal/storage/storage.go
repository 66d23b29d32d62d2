package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"github.com/misterclayt0n/mesocoach/internal/config"
)

var ErrNotFound = errors.New("not found")

type Storage struct {
	DB  *sql.DB
	log *slog.Logger
	// now is the clock used for snapshot windows.
	now func() time.Time
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewStorage opens the database named in the config.
func NewStorage(cfg *config.Config, log *slog.Logger) (*Storage, error) {
	return Open(cfg.DB.ConnectionString, cfg.DB.AuthToken, log)
}

// Open connects to a libsql/Turso URL (libsql://, https://, wss://) or to a
// local sqlite database (a file path, file: URI, or ":memory:").
func Open(conn, authToken string, log *slog.Logger) (*Storage, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	driver, dsn, err := driverFor(conn, authToken)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("Failed to open db %s: %w", redact(conn), err)
	}
	if driver == "sqlite" {
		// One connection keeps ":memory:" databases alive and avoids
		// SQLITE_BUSY between our own statements.
		db.SetMaxOpenConns(1)
	}

	if err := initializeDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("Failed to initialize database: %w", err)
	}
	log.Debug("database ready", "driver", driver, "conn", redact(conn))
	return &Storage{DB: db, log: log, now: time.Now}, nil
}

func (s *Storage) Close() error {
	return s.DB.Close()
}

func driverFor(conn, authToken string) (string, string, error) {
	if conn == "" {
		return "", "", errors.New("empty database connection string")
	}
	for _, scheme := range []string{"libsql://", "http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(conn, scheme) {
			if authToken == "" {
				return "libsql", conn, nil
			}
			u, err := url.Parse(conn)
			if err != nil {
				return "", "", fmt.Errorf("Failed to parse database url: %w", err)
			}
			q := u.Query()
			q.Set("authToken", authToken)
			u.RawQuery = q.Encode()
			return "libsql", u.String(), nil
		}
	}
	return "sqlite", conn, nil
}

// redact strips query parameters (auth tokens) before logging a connection string.
func redact(conn string) string {
	if i := strings.IndexByte(conn, '?'); i >= 0 {
		return conn[:i]
	}
	return conn
}

// tables lists every table in dependency order.
var tables = []string{
	"exercises",
	"profiles",
	"training_blocks",
	"workout_sessions",
	"session_exercises",
	"performed_sets",
	"readiness_signals",
	"decision_logs",
}

func initializeDB(db *sql.DB) error {
	_, err := db.Exec(`
        PRAGMA foreign_keys = ON;

        CREATE TABLE IF NOT EXISTS exercises (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL UNIQUE,
            movement_patterns TEXT NOT NULL DEFAULT '[]',
            split_tags TEXT NOT NULL DEFAULT '[]',
            muscles TEXT NOT NULL DEFAULT '[]',
            equipment TEXT NOT NULL DEFAULT '[]',
            sfr_score REAL NOT NULL DEFAULT 0,
            lengthened_score REAL NOT NULL DEFAULT 0,
            rep_min INTEGER NOT NULL DEFAULT 0,
            rep_max INTEGER NOT NULL DEFAULT 0,
            main_lift INTEGER NOT NULL DEFAULT 0,
            has_weighted_variant INTEGER NOT NULL DEFAULT 0,
            contraindications TEXT NOT NULL DEFAULT '[]',
            created_at TEXT NOT NULL
        );

        CREATE TABLE IF NOT EXISTS profiles (
            user_id TEXT PRIMARY KEY,
            name TEXT NOT NULL DEFAULT '',
            training_age_years REAL NOT NULL DEFAULT 0,
            injuries TEXT NOT NULL DEFAULT '[]',
            goal_primary TEXT NOT NULL,
            goal_secondary TEXT,
            days_per_week INTEGER NOT NULL,
            session_minutes INTEGER NOT NULL DEFAULT 0,
            equipment TEXT NOT NULL DEFAULT '[]',
            split TEXT,
            favorites TEXT NOT NULL DEFAULT '[]',
            avoids TEXT NOT NULL DEFAULT '[]',
            updated_at TEXT NOT NULL
        );

        CREATE TABLE IF NOT EXISTS training_blocks (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            number INTEGER NOT NULL,
            state TEXT NOT NULL,
            accumulation_sessions_completed INTEGER NOT NULL DEFAULT 0,
            deload_sessions_completed INTEGER NOT NULL DEFAULT 0,
            sessions_per_week INTEGER NOT NULL,
            duration_weeks INTEGER NOT NULL,
            settings TEXT NOT NULL DEFAULT '{}',
            started_at TEXT NOT NULL,
            UNIQUE (user_id, number)
        );

        CREATE TABLE IF NOT EXISTS workout_sessions (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            date TEXT NOT NULL,
            status TEXT NOT NULL,
            intent TEXT NOT NULL,
            provenance TEXT NOT NULL,
            block_id TEXT,
            block_week INTEGER,
            FOREIGN KEY (block_id) REFERENCES training_blocks(id)
        );

        CREATE TABLE IF NOT EXISTS session_exercises (
            id TEXT PRIMARY KEY,
            session_id TEXT NOT NULL,
            position INTEGER NOT NULL,
            exercise_id TEXT NOT NULL,
            name TEXT NOT NULL DEFAULT '',
            is_main_lift INTEGER NOT NULL DEFAULT 0,
            FOREIGN KEY (session_id) REFERENCES workout_sessions(id) ON DELETE CASCADE
        );

        CREATE TABLE IF NOT EXISTS performed_sets (
            id TEXT PRIMARY KEY,
            session_exercise_id TEXT NOT NULL,
            set_index INTEGER NOT NULL,
            reps INTEGER NOT NULL,
            load REAL NOT NULL,
            rpe REAL,
            skipped INTEGER NOT NULL DEFAULT 0,
            FOREIGN KEY (session_exercise_id) REFERENCES session_exercises(id) ON DELETE CASCADE
        );

        CREATE TABLE IF NOT EXISTS readiness_signals (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            at TEXT NOT NULL,
            data TEXT NOT NULL
        );

        CREATE TABLE IF NOT EXISTS decision_logs (
            id TEXT PRIMARY KEY,
            plan_id TEXT NOT NULL,
            kind TEXT NOT NULL,
            payload TEXT NOT NULL,
            created_at TEXT NOT NULL
        );

        CREATE INDEX IF NOT EXISTS idx_sessions_user_date ON workout_sessions(user_id, date);
        CREATE INDEX IF NOT EXISTS idx_readiness_user_at ON readiness_signals(user_id, at);
    `)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("Failed to parse time %q: %w", s, err)
	}
	return t, nil
}
