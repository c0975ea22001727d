package model

// AreaCandidate is a scored geographic sub-region of the destination.
// Instances are immutable once produced for an enrichment pass; a
// re-enrichment supersedes them with a new generation rather than
// mutating in place.
type AreaCandidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Center is the area centroid as lon/lat, used for transfer friction.
	CenterLon float64 `json:"center_lon"`
	CenterLat float64 `json:"center_lat"`

	// CostTier is the typical per-night cost tier, 1 (budget) to 5 (luxury).
	CostTier int `json:"cost_tier"`

	Strengths []string `json:"strengths,omitempty"`
	VibeTags  []string `json:"vibe_tags,omitempty"`

	ActivityFit float64 `json:"activity_fit"`
	VibeFit     float64 `json:"vibe_fit"`
	BudgetFit   float64 `json:"budget_fit"`
	Overall     float64 `json:"overall"`

	BestFor     []string `json:"best_for,omitempty"`
	NotIdealFor []string `json:"not_ideal_for,omitempty"`

	Evidence        []Evidence `json:"evidence,omitempty"`
	ConfidenceScore float64    `json:"confidence_score"`

	LowHotelInventory  bool `json:"low_hotel_inventory,omitempty"`
	NeedsHotelIndexing bool `json:"needs_hotel_indexing,omitempty"`

	// Generation is the session generation this candidate was produced
	// under; results from a stale generation are discarded, not merged.
	Generation uint64 `json:"generation"`
}

// ItineraryStop assigns consecutive nights at one base area.
type ItineraryStop struct {
	AreaID       string `json:"area_id"`
	Nights       int    `json:"nights"`
	ArrivalDay   int    `json:"arrival_day"`
	DepartureDay int    `json:"departure_day"`
}

// ItinerarySplit is an ordered assignment of the trip's nights to 1-N bases.
type ItinerarySplit struct {
	ID       string          `json:"id"`
	Stops    []ItineraryStop `json:"stops"`
	FitScore float64         `json:"fit_score"`
	Friction float64         `json:"friction"`
}

// TotalNights sums nights across all stops.
func (s ItinerarySplit) TotalNights() int {
	total := 0
	for _, stop := range s.Stops {
		total += stop.Nights
	}
	return total
}

// Score is the ranking score: fit minus transfer friction.
func (s ItinerarySplit) Score() float64 {
	return s.FitScore - s.Friction
}

// Valid checks the structural invariants: nights sum to the trip length,
// stop count within maxBases, and every stop has at least one night.
func (s ItinerarySplit) Valid(tripNights, maxBases int) bool {
	if len(s.Stops) == 0 || len(s.Stops) > maxBases {
		return false
	}
	for _, stop := range s.Stops {
		if stop.Nights < 1 {
			return false
		}
	}
	return s.TotalNights() == tripNights
}
