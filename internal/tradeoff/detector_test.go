package tradeoff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/trip-cli/internal/model"
)

func surfVsCalmPrefs() *model.TripPreferences {
	p := model.NewTripPreferences()
	p.Activities = []model.ActivityIntent{{Name: "surf", MustDo: true}}
	p.Vibes = []string{"calm water for the kids"}
	return p
}

func TestDefaultRules_Parse(t *testing.T) {
	rules := DefaultRules()
	assert.GreaterOrEqual(t, len(rules), 5)
}

func TestDetect_CalmWaterVsSurf(t *testing.T) {
	d := NewDetector(nil)
	tradeoffs, contradictions := d.Detect(surfVsCalmPrefs(), nil)

	require.Len(t, tradeoffs, 1)
	assert.Equal(t, "calm_water_vs_surf", tradeoffs[0].Type)
	assert.GreaterOrEqual(t, len(tradeoffs[0].Options), 2)
	assert.LessOrEqual(t, len(tradeoffs[0].Options), 4)
	assert.Empty(t, contradictions)
}

func TestDetect_NoConflictNoTradeoff(t *testing.T) {
	d := NewDetector(nil)
	p := model.NewTripPreferences()
	p.Vibes = []string{"beach", "relaxed"}

	tradeoffs, contradictions := d.Detect(p, nil)
	assert.Empty(t, tradeoffs)
	assert.Empty(t, contradictions)
}

func TestDetect_AdultsOnlyWithChildrenIsContradiction(t *testing.T) {
	d := NewDetector(nil)
	p := model.NewTripPreferences()
	p.HotelNeeds.AdultsOnly = true
	p.Party = model.Party{Adults: 2, Children: 2}

	tradeoffs, contradictions := d.Detect(p, nil)
	assert.Empty(t, tradeoffs)
	require.Len(t, contradictions, 1)
	assert.Equal(t, model.SeverityCritical, contradictions[0].Severity)
	assert.Equal(t, "adults_only_with_children", contradictions[0].Check)
}

func TestDetect_ResolvedTypeNotReRaised(t *testing.T) {
	d := NewDetector(nil)
	prefs := surfVsCalmPrefs()

	tradeoffs, _ := d.Detect(prefs, nil)
	require.Len(t, tradeoffs, 1)

	resolutions := []model.TradeoffResolution{
		{TradeoffID: tradeoffs[0].ID, TradeoffType: tradeoffs[0].Type, OptionID: "surf_mornings"},
	}
	again, _ := d.Detect(prefs, resolutions)
	assert.Empty(t, again)
}

func TestResolve_EffectRemovesConflict(t *testing.T) {
	d := NewDetector(nil)
	prefs := surfVsCalmPrefs()

	tradeoffs, _ := d.Detect(prefs, nil)
	require.Len(t, tradeoffs, 1)

	res, err := d.Resolve(prefs, tradeoffs[0], "drop_surf")
	require.NoError(t, err)
	assert.Equal(t, tradeoffs[0].ID, res.TradeoffID)
	assert.False(t, res.ResolvedAt.IsZero())

	// After the effect the conflict itself is gone.
	again, _ := d.Detect(prefs, []model.TradeoffResolution{*res})
	assert.Empty(t, again)
	assert.Empty(t, prefs.Activities)
}

func TestResolve_SplitCoastsRaisesMinBases(t *testing.T) {
	d := NewDetector(nil)
	prefs := surfVsCalmPrefs()
	prefs.MaxBases = 1

	tradeoffs, _ := d.Detect(prefs, nil)
	require.Len(t, tradeoffs, 1)

	_, err := d.Resolve(prefs, tradeoffs[0], "split_coasts")
	require.NoError(t, err)
	assert.Equal(t, 2, prefs.MaxBases)
}

func TestResolve_UnknownOption(t *testing.T) {
	d := NewDetector(nil)
	prefs := surfVsCalmPrefs()
	tradeoffs, _ := d.Detect(prefs, nil)
	require.Len(t, tradeoffs, 1)

	_, err := d.Resolve(prefs, tradeoffs[0], "teleport")
	assert.Error(t, err)
}

func TestDetect_ReEvaluationSurfacesNewTradeoff(t *testing.T) {
	d := NewDetector(nil)
	p := model.NewTripPreferences()
	p.Activities = []model.ActivityIntent{{Name: "surf"}}
	p.Vibes = []string{"calm water"}

	first, _ := d.Detect(p, nil)
	require.Len(t, first, 1)

	// Resolving by splitting coasts keeps both wishes; now the user also
	// wants nightlife and quiet, which only shows up on re-evaluation.
	res, err := d.Resolve(p, first[0], "split_coasts")
	require.NoError(t, err)
	p.Vibes = append(p.Vibes, "nightlife", "quiet mornings")

	second, _ := d.Detect(p, []model.TradeoffResolution{*res})
	require.Len(t, second, 1)
	assert.Equal(t, "nightlife_vs_tranquil", second[0].Type)
}
