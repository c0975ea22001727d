package quality

import (
	"github.com/wanderplan/trip-cli/internal/model"
)

// Outcome is the regeneration plan derived from a satisfaction verdict.
// A "yes" finishes the session; an "almost" re-invokes exactly the
// components its issue categories map to; a "no" restarts the preference
// conversation while keeping the trip's fixed facts.
type Outcome struct {
	Done bool

	// RewindTo is the earliest state to resume from. Empty when Done.
	RewindTo model.State

	// Demote lists the fields whose confidence drops to partial so the
	// orchestrator re-asks them.
	Demote []model.FieldKey

	// Preserve lists fields that keep their confirmed confidence through
	// a full restart.
	Preserve []model.FieldKey

	// BumpGeneration invalidates in-flight enrichment when candidate
	// layers will be regenerated.
	BumpGeneration bool

	// HotelsOnly marks a bump whose only regenerated arena is hotels. The
	// surviving layers carry forward under the new generation, dining
	// picks and day plan included.
	HotelsOnly bool
}

// target maps one issue category to the single component that owns it.
type target struct {
	rewindTo   model.State
	demote     []model.FieldKey
	bumpsGen   bool
	hotelsOnly bool
}

var targets = map[model.IssueCategory]target{
	model.IssueHotels: {
		rewindTo:   model.StateHotelsShortlist,
		demote:     []model.FieldKey{model.FieldHotelPick},
		bumpsGen:   true,
		hotelsOnly: true,
	},
	model.IssuePace: {
		rewindTo: model.StateDailyItineraryBuild,
		demote:   []model.FieldKey{model.FieldPace},
	},
	// Dining keeps the candidate arena: the complaint is about mode and
	// picks, and regenerating restaurants would orphan the hotel picks.
	model.IssueDining: {
		rewindTo: model.StateDiningMode,
		demote:   []model.FieldKey{model.FieldDiningMode, model.FieldDiningPicks},
	},
	model.IssueActivities: {
		rewindTo: model.StateActivitiesPick,
		demote:   []model.FieldKey{model.FieldActivities, model.FieldIntensity},
		bumpsGen: true,
	},
	model.IssueAreas: {
		rewindTo: model.StateAreaDiscovery,
		demote:   []model.FieldKey{model.FieldAreaSplit},
		bumpsGen: true,
	},
}

// stateRank orders states along the conversation path so a multi-issue
// "almost" rewinds to the earliest affected component.
var stateRank = map[model.State]int{
	model.StateDestination:         0,
	model.StateDatesOrLength:       1,
	model.StateParty:               2,
	model.StateBudget:              3,
	model.StateVibeAndHardNos:      4,
	model.StateActivitiesPick:      5,
	model.StateActivityIntensity:   6,
	model.StateTradeoffsResolution: 7,
	model.StateAreaDiscovery:       8,
	model.StateAreaSplitSelection:  9,
	model.StatePreferencesReview:   10,
	model.StateHotelsShortlist:     11,
	model.StateDiningMode:          12,
	model.StateDiningShortlist:     13,
	model.StateDailyItineraryBuild: 14,
	model.StateQualitySelfCheck:    15,
	model.StateFinalReview:         16,
	model.StateSatisfactionGate:    17,
	model.StateDone:                18,
}

// Resolve turns a satisfaction verdict into a regeneration outcome.
// Unknown issue categories on an "almost" are ignored; an "almost" with no
// recognized categories degrades to a full "no" restart, which is the
// safe direction.
func Resolve(verdict model.SatisfactionVerdict, issues []model.IssueCategory) Outcome {
	switch verdict {
	case model.VerdictYes:
		return Outcome{Done: true}

	case model.VerdictAlmost:
		out := Outcome{}
		hotelsOnly := true
		for _, issue := range issues {
			t, ok := targets[issue]
			if !ok {
				continue
			}
			if out.RewindTo == "" || stateRank[t.rewindTo] < stateRank[out.RewindTo] {
				out.RewindTo = t.rewindTo
			}
			out.Demote = append(out.Demote, t.demote...)
			out.BumpGeneration = out.BumpGeneration || t.bumpsGen
			if !t.hotelsOnly {
				hotelsOnly = false
			}
		}
		if out.RewindTo != "" {
			out.HotelsOnly = out.BumpGeneration && hotelsOnly
			return out
		}
		fallthrough

	case model.VerdictNo:
		return restartOutcome()
	}
	return restartOutcome()
}

// restartOutcome rewinds to the vibe conversation. Destination, dates,
// and party survive; everything downstream is re-asked and all candidate
// layers regenerate.
func restartOutcome() Outcome {
	return Outcome{
		RewindTo: model.StateVibeAndHardNos,
		Demote: []model.FieldKey{
			model.FieldVibe, model.FieldHardNos, model.FieldMustDos,
			model.FieldActivities, model.FieldIntensity, model.FieldAreaSplit,
			model.FieldHotelNeeds, model.FieldHotelPick,
			model.FieldDiningMode, model.FieldDiningPicks,
			model.FieldPace, model.FieldReviewedPrefs,
		},
		Preserve: []model.FieldKey{
			model.FieldDestination, model.FieldDates, model.FieldParty,
		},
		BumpGeneration: true,
	}
}
