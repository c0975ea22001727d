package model

// State is a step in the planning conversation. States form a directed
// path in the fixed order defined by the orchestrator, with optional
// skips.
type State string

const (
	StateDestination         State = "DESTINATION"
	StateDatesOrLength       State = "DATES_OR_LENGTH"
	StateParty               State = "PARTY"
	StateBudget              State = "BUDGET"
	StateVibeAndHardNos      State = "VIBE_AND_HARD_NOS"
	StateActivitiesPick      State = "ACTIVITIES_PICK"
	StateActivityIntensity   State = "ACTIVITY_INTENSITY"
	StateTradeoffsResolution State = "TRADEOFFS_RESOLUTION"
	StateAreaDiscovery       State = "AREA_DISCOVERY"
	StateAreaSplitSelection  State = "AREA_SPLIT_SELECTION"
	StatePreferencesReview   State = "PREFERENCES_REVIEW_LOCK"
	StateHotelsShortlist     State = "HOTELS_SHORTLIST_AND_PICK"
	StateDiningMode          State = "DINING_MODE"
	StateDiningShortlist     State = "DINING_SHORTLIST_AND_PICK"
	StateDailyItineraryBuild State = "DAILY_ITINERARY_BUILD"
	StateQualitySelfCheck    State = "QUALITY_SELF_CHECK"
	StateFinalReview         State = "FINAL_REVIEW_AND_EDIT_LOOP"
	StateSatisfactionGate    State = "SATISFACTION_GATE"
	StateDone                State = "DONE"
)
