package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/internal/session"
	"github.com/wanderplan/trip-cli/pkg/places"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTestSession(t *testing.T, destination string, state model.State) *session.Session {
	t.Helper()
	sess := session.New()
	require.NoError(t, sess.Commit(func(d *session.Data) error {
		d.Prefs.Destination = destination
		d.Prefs.Nights = 7
		d.Prefs.Confidence[model.FieldDestination] = model.ConfidenceConfirmed
		d.State = state
		return nil
	}))
	return sess
}

// --- Sessions ---

func TestSQLite_SaveAndLoadSession(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	sess := newTestSession(t, "Dominican Republic", model.StateBudget)
	require.NoError(t, sess.Commit(func(d *session.Data) error {
		d.Hotels["hotel:area:cabarete"] = model.HotelCandidate{
			ID: "hotel:area:cabarete", AreaID: "area:cabarete", Name: "Velero", Generation: 1,
		}
		return nil
	}))

	require.NoError(t, st.SaveSession(ctx, sess))

	loaded, err := st.LoadSession(ctx, sess.ID())
	require.NoError(t, err)

	data := loaded.Snapshot()
	assert.Equal(t, sess.ID(), data.ID)
	assert.Equal(t, model.StateBudget, data.State)
	assert.Equal(t, "Dominican Republic", data.Prefs.Destination)
	assert.Equal(t, model.ConfidenceConfirmed, data.Prefs.ConfidenceOf(model.FieldDestination))
	require.Contains(t, data.Hotels, "hotel:area:cabarete")
	assert.Equal(t, "Velero", data.Hotels["hotel:area:cabarete"].Name)
}

func TestSQLite_SaveSession_Upserts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	sess := newTestSession(t, "Portugal", model.StateDestination)
	require.NoError(t, st.SaveSession(ctx, sess))

	require.NoError(t, sess.Commit(func(d *session.Data) error {
		d.State = model.StateHotelsShortlist
		return nil
	}))
	require.NoError(t, st.SaveSession(ctx, sess))

	summaries, err := st.ListSessions(ctx, SessionFilter{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, model.StateHotelsShortlist, summaries[0].State)
}

func TestSQLite_LoadSession_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.LoadSession(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_ListSessions_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSession(ctx, newTestSession(t, "Portugal", model.StateBudget)))
	require.NoError(t, st.SaveSession(ctx, newTestSession(t, "Japan", model.StateDone)))
	require.NoError(t, st.SaveSession(ctx, newTestSession(t, "Japan", model.StateBudget)))

	all, err := st.ListSessions(ctx, SessionFilter{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	japan, err := st.ListSessions(ctx, SessionFilter{Destination: "Japan", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, japan, 2)

	done, err := st.ListSessions(ctx, SessionFilter{State: model.StateDone, Limit: 10})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "Japan", done[0].Destination)
	assert.Equal(t, 7, done[0].Nights)
}

func TestSQLite_DeleteSession(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	sess := newTestSession(t, "Portugal", model.StateBudget)
	require.NoError(t, st.SaveSession(ctx, sess))

	require.NoError(t, st.DeleteSession(ctx, sess.ID()))

	_, err := st.LoadSession(ctx, sess.ID())
	require.Error(t, err)

	events, err := st.SessionEvents(ctx, sess.ID())
	require.NoError(t, err)
	assert.Empty(t, events, "events go with the session")
}

func TestSQLite_DeleteSession_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.DeleteSession(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_SessionEvents_RecordProgression(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	sess := newTestSession(t, "Portugal", model.StateDestination)
	require.NoError(t, st.SaveSession(ctx, sess))

	require.NoError(t, sess.Commit(func(d *session.Data) error {
		d.State = model.StateAreaDiscovery
		d.BumpGeneration()
		return nil
	}))
	require.NoError(t, st.SaveSession(ctx, sess))

	events, err := st.SessionEvents(ctx, sess.ID())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.StateDestination, events[0].State)
	assert.Equal(t, model.StateAreaDiscovery, events[1].State)
	assert.Equal(t, uint64(2), events[1].Generation)
}

// --- Place cache ---

func TestSQLite_PlaceCache_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	results := []places.Place{
		{ID: "p1", Name: "Playa Bonita", Lat: 19.3, Lon: -69.5, Rating: 4.6, ReviewCount: 812},
		{ID: "p2", Name: "Playa Coson", Lat: 19.31, Lon: -69.58, Rating: 4.8, ReviewCount: 240},
	}

	require.NoError(t, st.SetCachedPlaces(ctx, "beaches near las terrenas", results, time.Hour))

	cached, err := st.GetCachedPlaces(ctx, "beaches near las terrenas")
	require.NoError(t, err)
	require.Len(t, cached, 2)
	assert.Equal(t, "Playa Coson", cached[1].Name)
	assert.Equal(t, 4.8, cached[1].Rating)
}

func TestSQLite_PlaceCache_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	cached, err := st.GetCachedPlaces(context.Background(), "nonexistent query")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestSQLite_PlaceCache_Expired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	err := st.SetCachedPlaces(ctx, "old query", []places.Place{{ID: "p1", Name: "Old"}}, -time.Hour)
	require.NoError(t, err)

	cached, err := st.GetCachedPlaces(ctx, "old query")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestSQLite_PlaceCache_Overwrite(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedPlaces(ctx, "q", []places.Place{{ID: "p1", Name: "Original"}}, time.Hour))
	require.NoError(t, st.SetCachedPlaces(ctx, "q", []places.Place{{ID: "p2", Name: "Updated"}}, time.Hour))

	cached, err := st.GetCachedPlaces(ctx, "q")
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "Updated", cached[0].Name)
}

func TestSQLite_PlaceCache_DeleteExpired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedPlaces(ctx, "expired", []places.Place{{ID: "p1"}}, -time.Hour))
	require.NoError(t, st.SetCachedPlaces(ctx, "fresh", []places.Place{{ID: "p2"}}, time.Hour))

	deleted, err := st.DeleteExpiredPlaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	cached, err := st.GetCachedPlaces(ctx, "fresh")
	require.NoError(t, err)
	assert.Len(t, cached, 1)
}

// --- Migrate ---

func TestSQLite_Migrate_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.Migrate(context.Background())
	require.NoError(t, err)
}
