package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/internal/session"
)

func snapshotWith(t *testing.T, fn func(d *session.Data)) session.Data {
	t.Helper()
	sess := session.New()
	require.NoError(t, sess.Commit(func(d *session.Data) error {
		fn(d)
		return nil
	}))
	return sess.Snapshot()
}

func TestSkipPredicates(t *testing.T) {
	base := snapshotWith(t, func(d *session.Data) {})
	assert.False(t, skipped(model.StateDestination, base))
	assert.True(t, skipped(model.StateActivityIntensity, base), "no activities means no intensity question")
	assert.True(t, skipped(model.StateTradeoffsResolution, base))
	assert.False(t, skipped(model.StateDiningShortlist, base), "casual mode still sees the shortlist")
	assert.False(t, skipped(model.StateAreaDiscovery, base))

	noDining := snapshotWith(t, func(d *session.Data) {
		d.Prefs.DiningMode = model.DiningNone
	})
	assert.True(t, skipped(model.StateDiningShortlist, noDining), "only mode none skips the shortlist")

	singleCity := snapshotWith(t, func(d *session.Data) {
		d.Prefs.SingleCity = true
	})
	assert.True(t, skipped(model.StateAreaDiscovery, singleCity))
	assert.True(t, skipped(model.StateAreaSplitSelection, singleCity))

	withConflict := snapshotWith(t, func(d *session.Data) {
		d.Prefs.Activities = []model.ActivityIntent{{Name: "surf", MustDo: true}}
		d.Tradeoffs = []model.Tradeoff{{ID: "t1", Type: "calm_water_vs_surf"}}
	})
	assert.False(t, skipped(model.StateActivityIntensity, withConflict))
	assert.False(t, skipped(model.StateTradeoffsResolution, withConflict))

	resolved := snapshotWith(t, func(d *session.Data) {
		d.Tradeoffs = []model.Tradeoff{{ID: "t1"}}
		d.Resolutions = []model.TradeoffResolution{{TradeoffID: "t1", OptionID: "drop_surf"}}
	})
	assert.True(t, skipped(model.StateTradeoffsResolution, resolved))
}

func TestNextStateSkipsOverInactiveStates(t *testing.T) {
	base := snapshotWith(t, func(d *session.Data) {})

	// No activities: intensity and tradeoffs both skip.
	assert.Equal(t, model.StateAreaDiscovery, nextState(model.StateActivitiesPick, base))

	reserved := snapshotWith(t, func(d *session.Data) {
		d.Prefs.DiningMode = model.DiningReserved
	})
	assert.Equal(t, model.StateDiningShortlist, nextState(model.StateDiningMode, reserved))
	assert.Equal(t, model.StateDiningShortlist, nextState(model.StateDiningMode, base))

	noDining := snapshotWith(t, func(d *session.Data) {
		d.Prefs.DiningMode = model.DiningNone
	})
	assert.Equal(t, model.StateDailyItineraryBuild, nextState(model.StateDiningMode, noDining))

	assert.Equal(t, model.StateDone, nextState(model.StateSatisfactionGate, base))
	assert.Equal(t, model.StateDone, nextState("bogus", base))
}

func TestNextQuestionPrefersLowestConfidence(t *testing.T) {
	prefs := model.NewTripPreferences()

	field, ok := nextQuestion(model.StateVibeAndHardNos, prefs)
	require.True(t, ok)
	assert.Equal(t, model.FieldVibe, field, "priority order breaks the tie")

	prefs.Confidence[model.FieldVibe] = model.ConfidenceInferred
	field, ok = nextQuestion(model.StateVibeAndHardNos, prefs)
	require.True(t, ok)
	assert.Equal(t, model.FieldHardNos, field, "unknown beats inferred")

	prefs.Confidence[model.FieldVibe] = model.ConfidenceConfirmed
	prefs.Confidence[model.FieldHardNos] = model.ConfidenceConfirmed
	_, ok = nextQuestion(model.StateVibeAndHardNos, prefs)
	assert.False(t, ok, "settled fields are not re-asked")

	_, ok = nextQuestion(model.StateQualitySelfCheck, prefs)
	assert.False(t, ok, "compute states own no questions")
}

func TestOwningState(t *testing.T) {
	state, ok := owningState(model.FieldBudget)
	require.True(t, ok)
	assert.Equal(t, model.StateBudget, state)

	state, ok = owningState(model.FieldHotelNeeds)
	require.True(t, ok)
	assert.Equal(t, model.StateHotelsShortlist, state)

	_, ok = owningState("nonsense")
	assert.False(t, ok)
}

func TestPromptForNarrowFallsBack(t *testing.T) {
	assert.NotEqual(t, promptFor(model.FieldBudget, false), promptFor(model.FieldBudget, true))
	// Fields without a narrow variant reuse the standard prompt.
	assert.Equal(t, promptFor(model.FieldDestination, false), promptFor(model.FieldDestination, true))
}
