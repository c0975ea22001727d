package model

// ConfidenceLevel tracks how well a preference field is known. Levels are
// ordered: a field only moves down on an explicit contradicting answer.
type ConfidenceLevel int

const (
	ConfidenceUnknown ConfidenceLevel = iota
	ConfidencePartial
	ConfidenceInferred
	ConfidenceConfirmed
	ConfidenceComplete
)

var confidenceNames = map[ConfidenceLevel]string{
	ConfidenceUnknown:   "unknown",
	ConfidencePartial:   "partial",
	ConfidenceInferred:  "inferred",
	ConfidenceConfirmed: "confirmed",
	ConfidenceComplete:  "complete",
}

func (c ConfidenceLevel) String() string {
	if s, ok := confidenceNames[c]; ok {
		return s
	}
	return "unknown"
}

// Settled reports whether the field no longer needs to be asked about.
func (c ConfidenceLevel) Settled() bool {
	return c >= ConfidenceConfirmed
}

// FieldKey identifies a logical preference field for confidence tracking
// and question selection.
type FieldKey string

const (
	FieldDestination   FieldKey = "destination"
	FieldDates         FieldKey = "dates"
	FieldParty         FieldKey = "party"
	FieldBudget        FieldKey = "budget"
	FieldVibe          FieldKey = "vibe"
	FieldHardNos       FieldKey = "hard_nos"
	FieldMustDos       FieldKey = "must_dos"
	FieldActivities    FieldKey = "activities"
	FieldIntensity     FieldKey = "activity_intensity"
	FieldAreaSplit     FieldKey = "area_split"
	FieldHotelNeeds    FieldKey = "hotel_needs"
	FieldHotelPick     FieldKey = "hotel_pick"
	FieldDiningMode    FieldKey = "dining_mode"
	FieldDiningPicks   FieldKey = "dining_picks"
	FieldPace          FieldKey = "pace"
	FieldSatisfaction  FieldKey = "satisfaction"
	FieldReviewedPrefs FieldKey = "reviewed_prefs"
)
