package model

// PriceConfidence describes how trustworthy a price figure is. A missing
// price is PriceUnknown with a nil price, never zero.
type PriceConfidence string

const (
	PriceExact     PriceConfidence = "exact"
	PriceEstimated PriceConfidence = "estimated"
	PriceRough     PriceConfidence = "rough"
	PriceUnknown   PriceConfidence = "unknown"
)

// HotelCandidate is a verified hotel option within an area.
type HotelCandidate struct {
	ID     string `json:"id"`
	AreaID string `json:"area_id"`
	Name   string `json:"name"`

	PricePerNight   *float64        `json:"price_per_night,omitempty"`
	PriceConfidence PriceConfidence `json:"price_confidence"`

	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`

	AdultsOnly bool `json:"adults_only"`
	Accessible bool `json:"accessible"`

	Relevance  float64    `json:"relevance"`
	Evidence   []Evidence `json:"evidence,omitempty"`
	Generation uint64     `json:"generation"`
}

// RestaurantCandidate is a verified dining option within an area.
type RestaurantCandidate struct {
	ID     string `json:"id"`
	AreaID string `json:"area_id"`
	Name   string `json:"name"`

	Cuisine     string  `json:"cuisine,omitempty"`
	PriceTier   int     `json:"price_tier,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`

	NeedsReservation bool `json:"needs_reservation"`

	Relevance  float64    `json:"relevance"`
	Evidence   []Evidence `json:"evidence,omitempty"`
	Generation uint64     `json:"generation"`
}

// ActivityCandidate is a verified activity option within an area.
type ActivityCandidate struct {
	ID     string `json:"id"`
	AreaID string `json:"area_id"`
	Name   string `json:"name"`

	Intent     string  `json:"intent,omitempty"`
	MustDo     bool    `json:"must_do"`
	EffortCost float64 `json:"effort_cost"`
	Relevance  float64 `json:"relevance"`

	OperatorURL string     `json:"operator_url,omitempty"`
	Evidence    []Evidence `json:"evidence,omitempty"`
	Generation  uint64     `json:"generation"`
}
