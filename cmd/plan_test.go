package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wanderplan/trip-cli/internal/model"
)

func TestParseInput_SetRevision(t *testing.T) {
	in := parseInput(&model.ReplyCard{Type: model.CardSatisfactionPrompt}, "set destination Portugal")
	assert.Equal(t, model.FieldDestination, in.Field)
	assert.Equal(t, "Portugal", in.Text)
}

func TestParseInput_TradeoffNumberPicksOption(t *testing.T) {
	card := &model.ReplyCard{
		Type: model.CardTradeoffPrompt,
		Tradeoffs: []model.Tradeoff{{
			ID: "t1",
			Options: []model.TradeoffOption{
				{ID: "drop_surf"},
				{ID: "split_coasts"},
			},
		}},
	}
	assert.Equal(t, "split_coasts", parseInput(card, "2").OptionID)
	// Out of range falls through to the raw option id.
	assert.Equal(t, "drop_surf", parseInput(card, "drop_surf").OptionID)
}

func TestParseInput_HotelNumbersBecomeEntityIDs(t *testing.T) {
	card := &model.ReplyCard{
		Type: model.CardHotelShortlist,
		Hotels: []model.HotelCandidate{
			{ID: "hotel:a"}, {ID: "hotel:b"}, {ID: "hotel:c"},
		},
	}
	in := parseInput(card, "1, 3")
	assert.Equal(t, []string{"hotel:a", "hotel:c"}, in.EntityIDs)
	assert.Empty(t, in.Text)
}

func TestParseInput_DiningNoneStaysText(t *testing.T) {
	card := &model.ReplyCard{
		Type:   model.CardDiningShortlist,
		Dining: []model.RestaurantCandidate{{ID: "restaurant:x"}},
	}
	in := parseInput(card, "none")
	assert.Empty(t, in.EntityIDs)
	assert.Equal(t, "none", in.Text)
}

func TestPickedIDs_RejectsMixedTokens(t *testing.T) {
	ids := pickedIDs("1 and 2", 3, func(i int) string { return "x" })
	assert.Nil(t, ids, "non-numeric tokens mean the line is free text")

	ids = pickedIDs("4", 3, func(i int) string { return "x" })
	assert.Nil(t, ids, "out-of-range pick is not a pick")
}

func TestHotelPrice_MissingPriceNeverZero(t *testing.T) {
	assert.Equal(t, "no confirmed price", hotelPrice(model.HotelCandidate{PriceConfidence: model.PriceUnknown}))

	price := 120.0
	assert.Equal(t, "120/night, estimated", hotelPrice(model.HotelCandidate{
		PricePerNight:   &price,
		PriceConfidence: model.PriceEstimated,
	}))
}
