package model

// ReplyCardType discriminates the tagged union sent to the rendering
// boundary. The core never branches on card type beyond constructing it;
// renderers match exhaustively.
type ReplyCardType string

const (
	CardQuestion           ReplyCardType = "question"
	CardTradeoffPrompt     ReplyCardType = "tradeoff_prompt"
	CardAreaOptions        ReplyCardType = "area_options"
	CardSplitOptions       ReplyCardType = "split_options"
	CardHotelShortlist     ReplyCardType = "hotel_shortlist"
	CardDiningShortlist    ReplyCardType = "dining_shortlist"
	CardItinerary          ReplyCardType = "itinerary"
	CardQualityReport      ReplyCardType = "quality_report"
	CardSatisfactionPrompt ReplyCardType = "satisfaction_prompt"
	CardDone               ReplyCardType = "done"
)

// QuestionCard asks the user for one preference field.
type QuestionCard struct {
	Field   FieldKey `json:"field"`
	Prompt  string   `json:"prompt"`
	Narrow  bool     `json:"narrow,omitempty"` // re-issued after unusable input
	Attempt int      `json:"attempt,omitempty"`
}

// ReplyCard is the single outbound message shape. Exactly one variant
// pointer is set, matching Type.
type ReplyCard struct {
	Type ReplyCardType `json:"type"`

	Question  *QuestionCard         `json:"question,omitempty"`
	Tradeoffs []Tradeoff            `json:"tradeoffs,omitempty"`
	Areas     []AreaCandidate       `json:"areas,omitempty"`
	Splits    []ItinerarySplit      `json:"splits,omitempty"`
	Hotels    []HotelCandidate      `json:"hotels,omitempty"`
	Dining    []RestaurantCandidate `json:"dining,omitempty"`
	Itinerary *QuickPlanItinerary   `json:"itinerary,omitempty"`
	Quality   *QualityCheckResult   `json:"quality,omitempty"`
	Message   string                `json:"message,omitempty"`
}
