package model

// EvidenceKind discriminates the three acceptable provenance types.
type EvidenceKind string

const (
	EvidencePlaceRef    EvidenceKind = "place_ref"
	EvidenceOperatorURL EvidenceKind = "operator_url"
	EvidenceDiscussion  EvidenceKind = "discussion"
)

// PlaceRef is a stable identifier returned by the place-lookup collaborator.
type PlaceRef struct {
	PlaceID     string  `json:"place_id"`
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`
	PhotoRef    string  `json:"photo_ref,omitempty"`
}

// Citation is a single ranked discussion-forum post backing a recommendation.
type Citation struct {
	Source  string  `json:"source"`
	URL     string  `json:"url,omitempty"`
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt,omitempty"`
}

// Evidence is the provenance unit attached to every recommended entity.
// Exactly one of Place, OperatorURL, or Citations is populated, per Kind.
type Evidence struct {
	Kind        EvidenceKind `json:"kind"`
	Place       *PlaceRef    `json:"place,omitempty"`
	OperatorURL string       `json:"operator_url,omitempty"`
	Citations   []Citation   `json:"citations,omitempty"`
}

// Verifies reports whether this single evidence record satisfies the
// verification contract on its own: a place reference, an operator URL,
// or at least minCitations discussion citations each scoring at or above
// credThreshold.
func (e Evidence) Verifies(minCitations int, credThreshold float64) bool {
	switch e.Kind {
	case EvidencePlaceRef:
		return e.Place != nil && e.Place.PlaceID != ""
	case EvidenceOperatorURL:
		return e.OperatorURL != ""
	case EvidenceDiscussion:
		credible := 0
		for _, c := range e.Citations {
			if c.Score >= credThreshold {
				credible++
			}
		}
		return credible >= minCitations
	default:
		return false
	}
}

// Verified reports whether any evidence in the set satisfies the contract.
// An entity with no verified evidence must never be presented to the user.
func Verified(evidence []Evidence, minCitations int, credThreshold float64) bool {
	for _, e := range evidence {
		if e.Verifies(minCitations, credThreshold) {
			return true
		}
	}
	return false
}
