package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/wanderplan/trip-cli/internal/db"
	"github.com/wanderplan/trip-cli/internal/session"
	"github.com/wanderplan/trip-cli/pkg/places"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_session":           `SELECT data FROM sessions WHERE id = $1`,
	"delete_session":        `DELETE FROM sessions WHERE id = $1`,
	"get_cached_places":     `SELECT results FROM place_cache WHERE query = $1 AND expires_at > now() ORDER BY cached_at DESC LIMIT 1`,
	"set_cached_places":     `INSERT INTO place_cache (id, query, results, cached_at, expires_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (query) DO UPDATE SET results = $3, cached_at = $4, expires_at = $5`,
	"delete_expired_places": `DELETE FROM place_cache WHERE expires_at <= now()`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	destination TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL,
	nights      INTEGER NOT NULL DEFAULT 0,
	data        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS session_events (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	state       TEXT NOT NULL,
	generation  BIGINT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS place_cache (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	query      TEXT NOT NULL UNIQUE,
	results    JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_state ON sessions(state);
CREATE INDEX IF NOT EXISTS idx_sessions_destination ON sessions(destination);
CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_session_events_session_id ON session_events(session_id);
CREATE INDEX IF NOT EXISTS idx_place_cache_query ON place_cache(query);
CREATE INDEX IF NOT EXISTS idx_place_cache_expires_at ON place_cache(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveSession(ctx context.Context, sess *session.Session) error {
	raw, err := sess.Marshal()
	if err != nil {
		return err
	}
	data := sess.Snapshot()

	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO sessions (id, destination, state, nights, data, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO UPDATE SET
			   destination = $2, state = $3, nights = $4, data = $5, updated_at = $7`,
			data.ID, data.Prefs.Destination, string(data.State), data.Prefs.Nights,
			raw, data.CreatedAt, data.UpdatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: save session %s", data.ID)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO session_events (id, session_id, state, generation, recorded_at) VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), data.ID, string(data.State), int64(data.Generation), time.Now().UTC(),
		)
		return eris.Wrapf(err, "postgres: record session event %s", data.ID)
	})
}

func (s *PostgresStore) LoadSession(ctx context.Context, id string) (*session.Session, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM sessions WHERE id = $1`, id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("session not found: %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: load session %s", id)
	}
	return session.Restore(raw)
}

func (s *PostgresStore) ListSessions(ctx context.Context, filter SessionFilter) ([]SessionSummary, error) {
	query := `SELECT id, destination, state, nights, created_at, updated_at FROM sessions WHERE true`
	args := []any{}
	argIdx := 1

	if filter.State != "" {
		query += fmt.Sprintf(` AND state = $%d`, argIdx)
		args = append(args, string(filter.State))
		argIdx++
	}
	if filter.Destination != "" {
		query += fmt.Sprintf(` AND destination = $%d`, argIdx)
		args = append(args, filter.Destination)
		argIdx++
	}
	query += ` ORDER BY updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sessions")
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sm SessionSummary
		if err := rows.Scan(&sm.ID, &sm.Destination, &sm.State, &sm.Nights, &sm.CreatedAt, &sm.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan session summary")
		}
		out = append(out, sm)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list sessions iterate")
}

func (s *PostgresStore) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete session %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) SessionEvents(ctx context.Context, id string) ([]SessionEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT session_id, state, generation, recorded_at FROM session_events
		 WHERE session_id = $1 ORDER BY recorded_at ASC`,
		id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: session events %s", id)
	}
	defer rows.Close()

	var out []SessionEvent
	for rows.Next() {
		var e SessionEvent
		var gen int64
		if err := rows.Scan(&e.SessionID, &e.State, &gen, &e.RecordedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan session event")
		}
		e.Generation = uint64(gen)
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: session events iterate")
}

func (s *PostgresStore) GetCachedPlaces(ctx context.Context, query string) ([]places.Place, error) {
	var resultsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT results FROM place_cache
		 WHERE query = $1 AND expires_at > now()
		 ORDER BY cached_at DESC LIMIT 1`,
		query,
	).Scan(&resultsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached places")
	}

	var results []places.Place
	if err := json.Unmarshal(resultsJSON, &results); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached places")
	}
	return results, nil
}

func (s *PostgresStore) SetCachedPlaces(ctx context.Context, query string, results []places.Place, ttl time.Duration) error {
	now := time.Now().UTC()
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal places")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO place_cache (id, query, results, cached_at, expires_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (query) DO UPDATE SET results = $3, cached_at = $4, expires_at = $5`,
		uuid.New().String(), query, resultsJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached places")
}

func (s *PostgresStore) DeleteExpiredPlaces(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM place_cache WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired places")
	}
	return int(tag.RowsAffected()), nil
}
