package model

import "time"

// DaySlot positions a block within a day.
type DaySlot string

const (
	SlotMorning   DaySlot = "morning"
	SlotAfternoon DaySlot = "afternoon"
	SlotEvening   DaySlot = "evening"
)

// BlockKind discriminates what fills a day block.
type BlockKind string

const (
	BlockActivity BlockKind = "activity"
	BlockMeal     BlockKind = "meal"
	BlockTransit  BlockKind = "transit"
	BlockRest     BlockKind = "rest"
)

// DayBlock is one scheduled slot of a day. EntityID references an
// activity/restaurant candidate in the session arena; blocks never embed
// the full entity so partial regeneration cannot leave stale copies.
type DayBlock struct {
	Slot       DaySlot   `json:"slot"`
	Kind       BlockKind `json:"kind"`
	Title      string    `json:"title"`
	EntityID   string    `json:"entity_id,omitempty"`
	EffortCost float64   `json:"effort_cost"`
}

// QuickPlanDay is a single planned day with up to three slots plus
// transit metadata.
type QuickPlanDay struct {
	Index  int        `json:"index"`
	Date   *time.Time `json:"date,omitempty"`
	AreaID string     `json:"area_id"`

	Blocks []DayBlock `json:"blocks,omitempty"`

	TransitDay  bool   `json:"transit_day,omitempty"`
	TransitFrom string `json:"transit_from,omitempty"`
	TransitTo   string `json:"transit_to,omitempty"`

	RestDay     bool    `json:"rest_day,omitempty"`
	EffortSpent float64 `json:"effort_spent"`
}

// EffortTotal sums the effort cost of all placed blocks.
func (d QuickPlanDay) EffortTotal() float64 {
	total := 0.0
	for _, b := range d.Blocks {
		total += b.EffortCost
	}
	return total
}

// DiningPlan maps day index to the restaurant ids planned for that day.
type DiningPlan struct {
	ByDay map[int][]string `json:"by_day,omitempty"`
}

// QuickPlanItinerary is the generated day-by-day plan. It is owned by the
// session and regenerated in whole or per-layer by the scheduler.
type QuickPlanItinerary struct {
	SplitID string         `json:"split_id"`
	Days    []QuickPlanDay `json:"days"`
	Dining  DiningPlan     `json:"dining"`

	// LowConfidence marks a plan built from conservative defaults after
	// total enrichment failure.
	LowConfidence bool `json:"low_confidence,omitempty"`

	Generation uint64 `json:"generation"`
}
