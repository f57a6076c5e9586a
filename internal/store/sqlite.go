package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"onboarding-cli/internal/model"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "onboard.sqlite"

// SQLiteBackend persists keys, the change log and the journal in one SQLite file.
// Several processes may open the same file; each sees the others' writes through ChangesSince.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

func SQLitePath(dir string) string {
	return filepath.Join(filepath.Clean(dir), sqliteFileName)
}

func OpenSQLite(ctx context.Context, dir string) (*SQLiteBackend, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, unavailable("open", errors.New("missing store dir"))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, unavailable("open", err)
	}
	path := SQLitePath(dir)
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, unavailable("open", err)
	}
	// WAL enables one writer + many readers; busy_timeout avoids "database is locked" between processes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, unavailable("open", err)
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, unavailable("migrate", err)
	}
	return &SQLiteBackend{db: db, path: path}, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL,
			version INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS kv_changes (
			version INTEGER PRIMARY KEY AUTOINCREMENT,
			k TEXT NOT NULL,
			v TEXT,
			removed INTEGER NOT NULL,
			origin_id TEXT NOT NULL,
			context_id TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT NOT NULL UNIQUE,
			context_id TEXT NOT NULL,
			type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			issued_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity_id, seq);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteBackend) Path() string { return s.path }

// WatchPaths is the store directory: commits land in the -wal file next to the database.
func (s *SQLiteBackend) WatchPaths() []string { return []string{filepath.Dir(s.path)} }

func (s *SQLiteBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("get", err)
	}
	return v, true, nil
}

func (s *SQLiteBackend) Set(ctx context.Context, key, value string, w Writer) (Change, error) {
	ch, err := s.write(ctx, Change{Key: key, Value: value, Origin: w.Origin, Context: w.Context})
	if err != nil {
		return Change{}, unavailable("set", err)
	}
	return ch, nil
}

func (s *SQLiteBackend) Remove(ctx context.Context, key string, w Writer) (Change, error) {
	ch, err := s.write(ctx, Change{Key: key, Removed: true, Origin: w.Origin, Context: w.Context})
	if err != nil {
		return Change{}, unavailable("remove", err)
	}
	return ch, nil
}

// write records the change and applies it to kv in one transaction so the version order
// matches the order in which values became visible.
func (s *SQLiteBackend) write(ctx context.Context, ch Change) (Change, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return Change{}, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `INSERT INTO kv_changes(k, v, removed, origin_id, context_id, created_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
		ch.Key, ch.Value, boolToInt(ch.Removed), ch.Origin, ch.Context, now.UnixMilli())
	if err != nil {
		return Change{}, err
	}
	version, err := res.LastInsertId()
	if err != nil {
		return Change{}, err
	}
	if ch.Removed {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, ch.Key); err != nil {
			return Change{}, err
		}
	} else {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO kv(k, v, version, updated_at_unixms) VALUES(?, ?, ?, ?)`,
			ch.Key, ch.Value, version, now.UnixMilli()); err != nil {
			return Change{}, err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM kv_changes WHERE version <= ?`, version-maxChangeLog); err != nil {
		return Change{}, err
	}
	if err := tx.Commit(); err != nil {
		return Change{}, err
	}
	ch.Version = version
	ch.At = time.UnixMilli(now.UnixMilli()).UTC()
	return ch, nil
}

func (s *SQLiteBackend) Head(ctx context.Context) (int64, error) {
	var v sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(version) FROM kv_changes`).Scan(&v); err != nil {
		return 0, unavailable("head", err)
	}
	return v.Int64, nil
}

func (s *SQLiteBackend) ChangesSince(ctx context.Context, version int64) ([]Change, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version, k, v, removed, origin_id, context_id, created_at_unixms FROM kv_changes WHERE version > ? ORDER BY version ASC`, version)
	if err != nil {
		return nil, unavailable("changes", err)
	}
	defer rows.Close()

	out := []Change{}
	for rows.Next() {
		var (
			ch      Change
			v       sql.NullString
			removed int
			atMs    int64
		)
		if err := rows.Scan(&ch.Version, &ch.Key, &v, &removed, &ch.Origin, &ch.Context, &atMs); err != nil {
			return nil, unavailable("changes", err)
		}
		ch.Value = v.String
		ch.Removed = removed != 0
		ch.At = time.UnixMilli(atMs).UTC()
		out = append(out, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("changes", err)
	}
	return out, nil
}

func (s *SQLiteBackend) AppendEvent(ctx context.Context, ev model.Event) error {
	pb, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO events(event_id, context_id, type, entity_id, payload_json, issued_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Context, ev.Type, ev.EntityID, string(pb), ev.TS.UTC().UnixMilli()); err != nil {
		return unavailable("append event", err)
	}
	return nil
}

func (s *SQLiteBackend) ReadEvents(ctx context.Context, limit int) ([]model.Event, error) {
	q := `SELECT event_id, context_id, type, entity_id, payload_json, issued_at_unixms FROM events ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, unavailable("read events", err)
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		var (
			ev      model.Event
			payload string
			tsMs    int64
		)
		if err := rows.Scan(&ev.ID, &ev.Context, &ev.Type, &ev.EntityID, &payload, &tsMs); err != nil {
			return nil, unavailable("read events", err)
		}
		var p any
		if err := json.Unmarshal([]byte(payload), &p); err == nil {
			ev.Payload = p
		}
		ev.TS = time.UnixMilli(tsMs).UTC()
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read events", err)
	}
	// Newest-first from the query; callers expect chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *SQLiteBackend) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
