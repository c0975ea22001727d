package orchestrator

import (
	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/internal/session"
)

// stateOrder is the fixed conversation path. Progression only moves
// forward along it except for explicit rewinds (contradictions, the
// satisfaction gate, surgical regeneration).
var stateOrder = []model.State{
	model.StateDestination,
	model.StateDatesOrLength,
	model.StateParty,
	model.StateBudget,
	model.StateVibeAndHardNos,
	model.StateActivitiesPick,
	model.StateActivityIntensity,
	model.StateTradeoffsResolution,
	model.StateAreaDiscovery,
	model.StateAreaSplitSelection,
	model.StatePreferencesReview,
	model.StateHotelsShortlist,
	model.StateDiningMode,
	model.StateDiningShortlist,
	model.StateDailyItineraryBuild,
	model.StateQualitySelfCheck,
	model.StateFinalReview,
	model.StateSatisfactionGate,
	model.StateDone,
}

var stateIndex = func() map[model.State]int {
	m := make(map[model.State]int, len(stateOrder))
	for i, s := range stateOrder {
		m[s] = i
	}
	return m
}()

// skipPredicates are pure functions over a session snapshot. A state with
// a true predicate is passed over without user interaction; predicates
// never mutate.
var skipPredicates = map[model.State]func(session.Data) bool{
	model.StateActivityIntensity: func(d session.Data) bool {
		return len(d.Prefs.Activities) == 0
	},
	model.StateTradeoffsResolution: func(d session.Data) bool {
		return len(d.ActiveTradeoffs()) == 0
	},
	model.StateAreaDiscovery: func(d session.Data) bool {
		return d.Prefs.SingleCity
	},
	model.StateAreaSplitSelection: func(d session.Data) bool {
		return d.Prefs.SingleCity
	},
	model.StateDiningShortlist: func(d session.Data) bool {
		return d.Prefs.DiningMode == model.DiningNone
	},
}

// skipped reports whether the state is passed over for this snapshot.
func skipped(state model.State, data session.Data) bool {
	if pred, ok := skipPredicates[state]; ok {
		return pred(data)
	}
	return false
}

// nextState returns the first non-skipped state after the given one.
func nextState(state model.State, data session.Data) model.State {
	i, ok := stateIndex[state]
	if !ok {
		return model.StateDone
	}
	for i++; i < len(stateOrder); i++ {
		if !skipped(stateOrder[i], data) {
			return stateOrder[i]
		}
	}
	return model.StateDone
}

// ownedFields maps each question state to the preference fields it owns,
// in priority order. Question selection asks the lowest-confidence owned
// field first.
var ownedFields = map[model.State][]model.FieldKey{
	model.StateDestination:         {model.FieldDestination},
	model.StateDatesOrLength:       {model.FieldDates},
	model.StateParty:               {model.FieldParty},
	model.StateBudget:              {model.FieldBudget},
	model.StateVibeAndHardNos:      {model.FieldVibe, model.FieldHardNos},
	model.StateActivitiesPick:      {model.FieldActivities},
	model.StateActivityIntensity:   {model.FieldIntensity},
	model.StateAreaSplitSelection:  {model.FieldAreaSplit},
	model.StatePreferencesReview:   {model.FieldReviewedPrefs},
	model.StateHotelsShortlist:     {model.FieldHotelNeeds, model.FieldHotelPick},
	model.StateDiningMode:          {model.FieldDiningMode},
	model.StateDiningShortlist:     {model.FieldDiningPicks},
	model.StateDailyItineraryBuild: {model.FieldPace},
	model.StateSatisfactionGate:    {model.FieldSatisfaction},
}

// nextQuestion picks the lowest-confidence unsettled field the state owns.
// Ties break by ownership priority order.
func nextQuestion(state model.State, prefs *model.TripPreferences) (model.FieldKey, bool) {
	fields, ok := ownedFields[state]
	if !ok {
		return "", false
	}
	var best model.FieldKey
	bestLevel := model.ConfidenceComplete
	found := false
	for _, f := range fields {
		level := prefs.ConfidenceOf(f)
		if level.Settled() {
			continue
		}
		if !found || level < bestLevel {
			best, bestLevel, found = f, level, true
		}
	}
	return best, found
}

// owningState returns the question state that owns a field, used to
// rewind after a contradiction.
func owningState(field model.FieldKey) (model.State, bool) {
	for _, state := range stateOrder {
		for _, f := range ownedFields[state] {
			if f == field {
				return state, true
			}
		}
	}
	return "", false
}

// prompts are the user-facing question texts per field.
var prompts = map[model.FieldKey]string{
	model.FieldDestination:   "Where are you headed?",
	model.FieldDates:         "When are you going, and for how many nights? (e.g. 2026-12-05 for 7 nights)",
	model.FieldParty:         "Who's traveling? (e.g. 2 adults, 1 child age 6)",
	model.FieldBudget:        "What's your nightly hotel budget? (e.g. 100-180 USD)",
	model.FieldVibe:          "What vibe are you after? (e.g. laid-back, lively, remote)",
	model.FieldHardNos:       "Anything that's a hard no? (e.g. all-inclusive resorts, party towns)",
	model.FieldActivities:    "What do you want to do? Mark must-dos with '!' (e.g. surf!, hiking)",
	model.FieldIntensity:     "How intense should each activity be, 0 to 1? (e.g. surf=0.8, hiking=0.3)",
	model.FieldAreaSplit:     "Pick an itinerary split by number.",
	model.FieldReviewedPrefs: "Here's everything I have. Shall I lock it in? (yes / change <field> <value>)",
	model.FieldHotelNeeds:    "Any hard hotel requirements? (adults-only, accessible, pool, kitchen, or none)",
	model.FieldHotelPick:     "Pick a hotel per base by number.",
	model.FieldDiningMode:    "How much dining planning do you want? (none / casual / reserved)",
	model.FieldDiningPicks:   "Pick restaurants to book by number.",
	model.FieldPace:          "What pace suits you? (chill / balanced / packed)",
	model.FieldSatisfaction:  "Happy with this plan? (yes / almost / no)",
}

// narrowPrompts re-ask after unusable input with a tighter format hint.
var narrowPrompts = map[model.FieldKey]string{
	model.FieldDates:      "I need a start date as YYYY-MM-DD and a night count, like: 2026-12-05 7",
	model.FieldParty:      "Give me counts, like: 2 adults 1 child",
	model.FieldBudget:     "Give me a nightly number or range, like: 120 or 100-180",
	model.FieldIntensity:  "Use name=value pairs between 0 and 1, like: surf=0.8",
	model.FieldDiningMode: "Answer exactly one of: none, casual, reserved",
	model.FieldPace:       "Answer exactly one of: chill, balanced, packed",
}

func promptFor(field model.FieldKey, narrow bool) string {
	if narrow {
		if p, ok := narrowPrompts[field]; ok {
			return p
		}
	}
	if p, ok := prompts[field]; ok {
		return p
	}
	return string(field) + "?"
}
