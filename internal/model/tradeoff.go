package model

import "time"

// TradeoffOption is one way a detected conflict can be resolved, with a
// plain-language impact description.
type TradeoffOption struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Impact string `json:"impact"`
}

// Tradeoff is a detected conflict between stated preferences. Progression
// past tradeoff resolution is blocked while any tradeoff lacks a
// resolution.
type Tradeoff struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	Fields      []FieldKey       `json:"fields,omitempty"`
	Description string           `json:"description"`
	Options     []TradeoffOption `json:"options"`
	DetectedAt  time.Time        `json:"detected_at"`
}

// TradeoffResolution records the user's chosen option. Resolutions are
// immutable and append-only: contradicting input later creates a new
// tradeoff needing a new resolution, it never rewrites this record.
type TradeoffResolution struct {
	TradeoffID   string    `json:"tradeoff_id"`
	TradeoffType string    `json:"tradeoff_type"`
	OptionID     string    `json:"option_id"`
	ResolvedAt   time.Time `json:"resolved_at"`
}
