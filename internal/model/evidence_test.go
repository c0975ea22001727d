package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvidenceVerifies_PlaceRef(t *testing.T) {
	e := Evidence{Kind: EvidencePlaceRef, Place: &PlaceRef{PlaceID: "ChIJ123"}}
	assert.True(t, e.Verifies(2, 0.6))
}

func TestEvidenceVerifies_PlaceRefMissingID(t *testing.T) {
	e := Evidence{Kind: EvidencePlaceRef, Place: &PlaceRef{}}
	assert.False(t, e.Verifies(2, 0.6))
}

func TestEvidenceVerifies_OperatorURL(t *testing.T) {
	e := Evidence{Kind: EvidenceOperatorURL, OperatorURL: "https://surfcamp.example.com"}
	assert.True(t, e.Verifies(2, 0.6))
}

func TestEvidenceVerifies_DiscussionNeedsTwoCredible(t *testing.T) {
	e := Evidence{Kind: EvidenceDiscussion, Citations: []Citation{
		{Source: "r/travel", Score: 0.9},
		{Source: "r/surfing", Score: 0.3},
	}}
	// Only one citation clears the threshold.
	assert.False(t, e.Verifies(2, 0.6))

	e.Citations = append(e.Citations, Citation{Source: "forum", Score: 0.7})
	assert.True(t, e.Verifies(2, 0.6))
}

func TestVerified_AnyRecordSuffices(t *testing.T) {
	evidence := []Evidence{
		{Kind: EvidenceDiscussion, Citations: []Citation{{Score: 0.1}}},
		{Kind: EvidenceOperatorURL, OperatorURL: "https://example.com"},
	}
	assert.True(t, Verified(evidence, 2, 0.6))
	assert.False(t, Verified(nil, 2, 0.6))
}
