package model

import "time"

// Pace controls how full a day is allowed to get.
type Pace string

const (
	PaceChill    Pace = "chill"
	PaceBalanced Pace = "balanced"
	PacePacked   Pace = "packed"
)

// DiningMode describes how much dining planning the traveler wants.
type DiningMode string

const (
	DiningNone     DiningMode = "none"
	DiningCasual   DiningMode = "casual"
	DiningReserved DiningMode = "reserved"
)

// Party describes who is traveling.
type Party struct {
	Adults    int   `json:"adults"`
	Children  int   `json:"children"`
	ChildAges []int `json:"child_ages,omitempty"`
}

// HasChildren reports whether any children are in the party.
func (p Party) HasChildren() bool {
	return p.Children > 0
}

// BudgetBand is a per-night accommodation budget range.
type BudgetBand struct {
	MinPerNight float64 `json:"min_per_night"`
	MaxPerNight float64 `json:"max_per_night"`
	Currency    string  `json:"currency"`
}

// IsZero reports whether no budget has been stated.
func (b BudgetBand) IsZero() bool {
	return b.MinPerNight == 0 && b.MaxPerNight == 0
}

// ActivityIntent is a traveler-selected activity with its priority.
type ActivityIntent struct {
	Name   string `json:"name"`
	MustDo bool   `json:"must_do"`
	// Intensity in [0,1]; 0 means unset.
	Intensity float64 `json:"intensity,omitempty"`
}

// HotelNeeds are hard hotel-side constraints.
type HotelNeeds struct {
	AdultsOnly    bool `json:"adults_only"`
	Accessible    bool `json:"accessible"`
	PoolRequired  bool `json:"pool_required"`
	KitchenNeeded bool `json:"kitchen_needed"`
}

// TripPreferences is the accumulating, partially-known preference record.
// It is mutated only by the orchestrator through the session commit funnel;
// every logical field carries a confidence level in Confidence.
type TripPreferences struct {
	Destination string     `json:"destination"`
	SingleCity  bool       `json:"single_city"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	Nights      int        `json:"nights"`
	MaxBases    int        `json:"max_bases"`

	Party  Party      `json:"party"`
	Budget BudgetBand `json:"budget"`
	Pace   Pace       `json:"pace"`

	Vibes   []string `json:"vibes,omitempty"`
	MustDos []string `json:"must_dos,omitempty"`
	HardNos []string `json:"hard_nos,omitempty"`

	Activities []ActivityIntent `json:"activities,omitempty"`
	DiningMode DiningMode       `json:"dining_mode"`
	HotelNeeds HotelNeeds       `json:"hotel_needs"`

	SelectedSplitID string              `json:"selected_split_id,omitempty"`
	SelectedHotels  map[string]string   `json:"selected_hotels,omitempty"`   // area id -> hotel id
	SelectedDining  map[string][]string `json:"selected_dining,omitempty"`   // area id -> restaurant ids

	Confidence map[FieldKey]ConfidenceLevel `json:"confidence"`
}

// NewTripPreferences returns an empty preference record with every field
// at unknown confidence.
func NewTripPreferences() *TripPreferences {
	return &TripPreferences{
		MaxBases:       3,
		DiningMode:     DiningCasual,
		Pace:           PaceBalanced,
		SelectedHotels: make(map[string]string),
		SelectedDining: make(map[string][]string),
		Confidence:     make(map[FieldKey]ConfidenceLevel),
	}
}

// ConfidenceOf returns the confidence level for a field, defaulting to unknown.
func (p *TripPreferences) ConfidenceOf(key FieldKey) ConfidenceLevel {
	return p.Confidence[key]
}

// MustDoActivities returns the activities flagged as must-do.
func (p *TripPreferences) MustDoActivities() []ActivityIntent {
	var out []ActivityIntent
	for _, a := range p.Activities {
		if a.MustDo {
			out = append(out, a)
		}
	}
	return out
}

// Clone returns a deep copy usable as an immutable snapshot for the pure
// skip predicates and scorers.
func (p *TripPreferences) Clone() *TripPreferences {
	cp := *p
	cp.Vibes = append([]string(nil), p.Vibes...)
	cp.MustDos = append([]string(nil), p.MustDos...)
	cp.HardNos = append([]string(nil), p.HardNos...)
	cp.Activities = append([]ActivityIntent(nil), p.Activities...)
	cp.Party.ChildAges = append([]int(nil), p.Party.ChildAges...)
	if p.StartDate != nil {
		d := *p.StartDate
		cp.StartDate = &d
	}
	cp.SelectedHotels = make(map[string]string, len(p.SelectedHotels))
	for k, v := range p.SelectedHotels {
		cp.SelectedHotels[k] = v
	}
	cp.SelectedDining = make(map[string][]string, len(p.SelectedDining))
	for k, v := range p.SelectedDining {
		cp.SelectedDining[k] = append([]string(nil), v...)
	}
	cp.Confidence = make(map[FieldKey]ConfidenceLevel, len(p.Confidence))
	for k, v := range p.Confidence {
		cp.Confidence[k] = v
	}
	return &cp
}
