package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/trip-cli/internal/model"
)

func TestCommit_MutatesUnderFunnel(t *testing.T) {
	s := New()
	err := s.Commit(func(d *Data) error {
		d.Prefs.Destination = "Dominican Republic"
		d.Prefs.Confidence[model.FieldDestination] = model.ConfidenceConfirmed
		return nil
	})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, "Dominican Republic", snap.Prefs.Destination)
	assert.Equal(t, model.ConfidenceConfirmed, snap.Prefs.ConfidenceOf(model.FieldDestination))
}

func TestCommitEnrichment_RejectsStaleGeneration(t *testing.T) {
	s := New()
	staleGen := s.Generation()

	// Upstream field changes while the fetch is in flight.
	require.NoError(t, s.Commit(func(d *Data) error {
		d.Prefs.Destination = "Portugal"
		d.BumpGeneration()
		return nil
	}))

	err := s.CommitEnrichment(staleGen, func(d *Data) error {
		d.Areas["a1"] = model.AreaCandidate{ID: "a1", Name: "Samaná"}
		return nil
	})
	assert.ErrorIs(t, err, ErrStaleGeneration)
	assert.Empty(t, s.Snapshot().Areas)

	// Current-generation results merge fine.
	err = s.CommitEnrichment(s.Generation(), func(d *Data) error {
		d.Areas["a2"] = model.AreaCandidate{ID: "a2", Name: "Lagos"}
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, s.Snapshot().Areas, 1)
}

func TestSnapshot_IsIsolatedCopy(t *testing.T) {
	s := New()
	require.NoError(t, s.Commit(func(d *Data) error {
		d.Prefs.MustDos = []string{"surf"}
		return nil
	}))

	snap := s.Snapshot()
	snap.Prefs.MustDos[0] = "mutated"
	snap.Areas["x"] = model.AreaCandidate{ID: "x"}

	fresh := s.Snapshot()
	assert.Equal(t, "surf", fresh.Prefs.MustDos[0])
	assert.Empty(t, fresh.Areas)
}

func TestMarshalRestore_RoundTrip(t *testing.T) {
	s := New()
	require.NoError(t, s.Commit(func(d *Data) error {
		d.State = model.StateAreaDiscovery
		d.Prefs.Destination = "Dominican Republic"
		d.Prefs.Nights = 7
		d.Areas["a1"] = model.AreaCandidate{ID: "a1", Name: "Las Terrenas", Overall: 0.82}
		d.Resolutions = append(d.Resolutions, model.TradeoffResolution{
			TradeoffID: "t1", OptionID: "opt-split-days",
		})
		return nil
	}))

	raw, err := s.Marshal()
	require.NoError(t, err)

	back, err := Restore(raw)
	require.NoError(t, err)

	a, b := s.Snapshot(), back.Snapshot()
	// UpdatedAt is serialized too, so full equality should hold.
	assert.Equal(t, a.State, b.State)
	assert.Equal(t, a.Prefs, b.Prefs)
	assert.Equal(t, a.Areas, b.Areas)
	assert.Equal(t, a.Resolutions, b.Resolutions)
	assert.Equal(t, a.Generation, b.Generation)
}

func TestActiveTradeoffs(t *testing.T) {
	s := New()
	require.NoError(t, s.Commit(func(d *Data) error {
		d.Tradeoffs = []model.Tradeoff{{ID: "t1"}, {ID: "t2"}}
		d.Resolutions = []model.TradeoffResolution{{TradeoffID: "t1", OptionID: "o1"}}
		return nil
	}))

	snap := s.Snapshot()
	active := snap.ActiveTradeoffs()
	require.Len(t, active, 1)
	assert.Equal(t, "t2", active[0].ID)
}
