package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/wanderplan/trip-cli/internal/session"
	"github.com/wanderplan/trip-cli/pkg/places"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	destination TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL,
	nights      INTEGER NOT NULL DEFAULT 0,
	data        TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS session_events (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL REFERENCES sessions(id),
	state       TEXT NOT NULL,
	generation  INTEGER NOT NULL,
	recorded_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS place_cache (
	id         TEXT PRIMARY KEY,
	query      TEXT NOT NULL UNIQUE,
	results    TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_state ON sessions(state);
CREATE INDEX IF NOT EXISTS idx_sessions_destination ON sessions(destination);
CREATE INDEX IF NOT EXISTS idx_session_events_session_id ON session_events(session_id);
CREATE INDEX IF NOT EXISTS idx_place_cache_query ON place_cache(query);
CREATE INDEX IF NOT EXISTS idx_place_cache_expires_at ON place_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess *session.Session) error {
	raw, err := sess.Marshal()
	if err != nil {
		return err
	}
	data := sess.Snapshot()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, destination, state, nights, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   destination = excluded.destination, state = excluded.state,
		   nights = excluded.nights, data = excluded.data, updated_at = excluded.updated_at`,
		data.ID, data.Prefs.Destination, string(data.State), data.Prefs.Nights,
		string(raw), data.CreatedAt, data.UpdatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save session %s", data.ID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO session_events (id, session_id, state, generation, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), data.ID, string(data.State), int64(data.Generation), time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: record session event %s", data.ID)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save session")
}

func (s *SQLiteStore) LoadSession(ctx context.Context, id string) (*session.Session, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE id = ?`, id,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("session not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load session %s", id)
	}
	return session.Restore([]byte(raw))
}

func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]SessionSummary, error) {
	query := `SELECT id, destination, state, nights, created_at, updated_at FROM sessions WHERE 1=1`
	var args []any

	if filter.State != "" {
		query += ` AND state = ?`
		args = append(args, string(filter.State))
	}
	if filter.Destination != "" {
		query += ` AND destination = ?`
		args = append(args, filter.Destination)
	}
	query += ` ORDER BY updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sm SessionSummary
		if err := rows.Scan(&sm.ID, &sm.Destination, &sm.State, &sm.Nights, &sm.CreatedAt, &sm.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan session summary")
		}
		out = append(out, sm)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list sessions iterate")
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_events WHERE session_id = ?`, id); err != nil {
		return eris.Wrapf(err, "sqlite: delete session events %s", id)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete session %s", id)
	}
	if err := checkRowsAffected(res, "session", id); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete session")
}

func (s *SQLiteStore) SessionEvents(ctx context.Context, id string) ([]SessionEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, state, generation, recorded_at FROM session_events
		 WHERE session_id = ? ORDER BY recorded_at ASC`,
		id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: session events %s", id)
	}
	defer rows.Close()

	var out []SessionEvent
	for rows.Next() {
		var e SessionEvent
		var gen int64
		if err := rows.Scan(&e.SessionID, &e.State, &gen, &e.RecordedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan session event")
		}
		e.Generation = uint64(gen)
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: session events iterate")
}

func (s *SQLiteStore) GetCachedPlaces(ctx context.Context, query string) ([]places.Place, error) {
	var resultsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT results FROM place_cache
		 WHERE query = ? AND expires_at > datetime('now')
		 ORDER BY cached_at DESC LIMIT 1`,
		query,
	).Scan(&resultsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached places")
	}

	var results []places.Place
	if err := json.Unmarshal([]byte(resultsJSON), &results); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached places")
	}
	return results, nil
}

func (s *SQLiteStore) SetCachedPlaces(ctx context.Context, query string, results []places.Place, ttl time.Duration) error {
	now := time.Now().UTC()
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal places")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO place_cache (id, query, results, cached_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (query) DO UPDATE SET results = excluded.results,
		   cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		uuid.New().String(), query, string(resultsJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached places")
}

func (s *SQLiteStore) DeleteExpiredPlaces(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM place_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired places")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
