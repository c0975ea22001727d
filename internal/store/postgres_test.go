package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/internal/session"
	"github.com/wanderplan/trip-cli/pkg/places"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_SaveSession_UpsertsAndRecordsEvent(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	sess := session.New()
	require.NoError(t, sess.Commit(func(d *session.Data) error {
		d.Prefs.Destination = "Portugal"
		d.State = model.StateBudget
		return nil
	}))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(sess.ID(), "Portugal", string(model.StateBudget), 0,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO session_events`).
		WithArgs(pgxmock.AnyArg(), sess.ID(), string(model.StateBudget), int64(1), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.SaveSession(context.Background(), sess)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadSession_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM sessions WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.LoadSession(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadSession_RestoresSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	sess := session.New()
	require.NoError(t, sess.Commit(func(d *session.Data) error {
		d.Prefs.Destination = "Japan"
		d.State = model.StateAreaDiscovery
		return nil
	}))
	raw, err := sess.Marshal()
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT data FROM sessions WHERE id = \$1`).
		WithArgs(sess.ID()).
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(raw))

	loaded, err := s.LoadSession(context.Background(), sess.ID())
	require.NoError(t, err)
	data := loaded.Snapshot()
	assert.Equal(t, "Japan", data.Prefs.Destination)
	assert.Equal(t, model.StateAreaDiscovery, data.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSessions_FilterByState(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, destination, state, nights, created_at, updated_at FROM sessions`).
		WithArgs(string(model.StateDone), 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "destination", "state", "nights", "created_at", "updated_at"}).
			AddRow("s1", "Japan", model.StateDone, 7, now, now))

	sessions, err := s.ListSessions(context.Background(), SessionFilter{State: model.StateDone, Limit: 10})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Japan", sessions[0].Destination)
	assert.Equal(t, 7, sessions[0].Nights)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteSession_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteSession(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCachedPlaces_Miss(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT results FROM place_cache`).
		WithArgs("unknown query").
		WillReturnError(pgx.ErrNoRows)

	results, err := s.GetCachedPlaces(context.Background(), "unknown query")
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetCachedPlaces_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT`).
		WithArgs(pgxmock.AnyArg(), "beaches near cabarete", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SetCachedPlaces(context.Background(), "beaches near cabarete",
		[]places.Place{{ID: "p1", Name: "Playa Encuentro"}}, 24*time.Hour)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
