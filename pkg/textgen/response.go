package textgen

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// ResponseType enumerates the valid top-level response types.
type ResponseType string

const (
	TypeQuestion       ResponseType = "question"
	TypeRecommendation ResponseType = "recommendation"
	TypeSummary        ResponseType = "summary"
	TypeClarification  ResponseType = "clarification"
)

// RecommendationCategory enumerates what a recommendation refers to.
type RecommendationCategory string

const (
	CategoryArea       RecommendationCategory = "area"
	CategoryHotel      RecommendationCategory = "hotel"
	CategoryRestaurant RecommendationCategory = "restaurant"
	CategoryActivity   RecommendationCategory = "activity"
)

// typeSynonyms remaps common off-schema type strings to the nearest valid
// value before rejecting.
var typeSynonyms = map[string]ResponseType{
	"followup":        TypeQuestion,
	"follow_up":       TypeQuestion,
	"ask":             TypeQuestion,
	"suggestion":      TypeRecommendation,
	"recommendations": TypeRecommendation,
	"recs":            TypeRecommendation,
	"overview":        TypeSummary,
	"recap":           TypeSummary,
	"clarify":         TypeClarification,
}

var categorySynonyms = map[string]RecommendationCategory{
	"region":        CategoryArea,
	"neighborhood":  CategoryArea,
	"town":          CategoryArea,
	"lodging":       CategoryHotel,
	"accommodation": CategoryHotel,
	"stay":          CategoryHotel,
	"dining":        CategoryRestaurant,
	"food":          CategoryRestaurant,
	"eat":           CategoryRestaurant,
	"tour":          CategoryActivity,
	"excursion":     CategoryActivity,
	"experience":    CategoryActivity,
}

// Recommendation is a single recommended entity in a response.
type Recommendation struct {
	Category    RecommendationCategory `json:"category"`
	Name        string                 `json:"name"`
	Why         string                 `json:"why,omitempty"`
	OperatorURL string                 `json:"operator_url,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	CostTier    int                    `json:"cost_tier,omitempty"`
	Lat         float64                `json:"lat,omitempty"`
	Lon         float64                `json:"lon,omitempty"`
}

// Response is the fixed response schema the collaborator must return.
// Any field outside the enumerated types is invalid after synonym
// remapping.
type Response struct {
	Type             ResponseType     `json:"type"`
	Message          string           `json:"message"`
	Recommendations  []Recommendation `json:"recommendations,omitempty"`
	FollowUpQuestion string           `json:"follow_up_question,omitempty"`
}

// ErrSchema marks a schema-violating collaborator response. Callers treat
// it as a validation error: re-prompt with a stricter instruction.
var ErrSchema = eris.New("textgen: response violates schema")

// ParseResponse strictly validates raw model output against the response
// schema, remapping common synonyms to the nearest valid enum value before
// rejecting.
func ParseResponse(raw []byte) (*Response, error) {
	raw = stripFences(raw)

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var resp Response
	if err := dec.Decode(&resp); err != nil {
		return nil, eris.Wrap(ErrSchema, err.Error())
	}

	if t, ok := remapType(resp.Type); ok {
		resp.Type = t
	} else {
		return nil, eris.Wrapf(ErrSchema, "unknown type %q", resp.Type)
	}

	if resp.Message == "" {
		return nil, eris.Wrap(ErrSchema, "missing message")
	}

	for i, rec := range resp.Recommendations {
		c, ok := remapCategory(rec.Category)
		if !ok {
			return nil, eris.Wrapf(ErrSchema, "unknown recommendation category %q", rec.Category)
		}
		resp.Recommendations[i].Category = c
		if rec.Name == "" {
			return nil, eris.Wrap(ErrSchema, "recommendation missing name")
		}
	}

	return &resp, nil
}

func remapType(t ResponseType) (ResponseType, bool) {
	switch t {
	case TypeQuestion, TypeRecommendation, TypeSummary, TypeClarification:
		return t, true
	}
	if mapped, ok := typeSynonyms[strings.ToLower(string(t))]; ok {
		return mapped, true
	}
	return t, false
}

func remapCategory(c RecommendationCategory) (RecommendationCategory, bool) {
	switch c {
	case CategoryArea, CategoryHotel, CategoryRestaurant, CategoryActivity:
		return c, true
	}
	if mapped, ok := categorySynonyms[strings.ToLower(string(c))]; ok {
		return mapped, true
	}
	return c, false
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return []byte(strings.TrimSpace(s))
}
