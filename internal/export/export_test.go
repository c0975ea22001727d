package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/internal/session"
)

func exportFixture(t *testing.T) session.Data {
	t.Helper()
	sess := session.New()
	start := time.Date(2026, 12, 5, 0, 0, 0, 0, time.UTC)
	price := 145.0

	err := sess.Commit(func(d *session.Data) error {
		d.Prefs.Destination = "Dominican Republic"
		d.Prefs.Nights = 3
		d.Prefs.StartDate = &start
		d.Prefs.Party = model.Party{Adults: 2}
		d.Prefs.Pace = model.PaceBalanced
		d.Prefs.Budget = model.BudgetBand{MaxPerNight: 180, Currency: "USD"}
		d.Prefs.SelectedSplitID = "split:area:las-terrenas-3"
		d.Prefs.SelectedHotels = map[string]string{"area:las-terrenas": "hotel:playa"}

		d.Areas["area:las-terrenas"] = model.AreaCandidate{
			ID: "area:las-terrenas", Name: "Las Terrenas", Generation: 1,
		}
		d.Splits["split:area:las-terrenas-3"] = model.ItinerarySplit{
			ID: "split:area:las-terrenas-3",
			Stops: []model.ItineraryStop{
				{AreaID: "area:las-terrenas", Nights: 3, ArrivalDay: 0, DepartureDay: 3},
			},
		}
		d.Hotels["hotel:playa"] = model.HotelCandidate{
			ID: "hotel:playa", AreaID: "area:las-terrenas", Name: "Playa Colibri",
			PricePerNight: &price, PriceConfidence: model.PriceEstimated, Rating: 4.5,
		}
		d.Restaurants["restaurant:mosquito"] = model.RestaurantCandidate{
			ID: "restaurant:mosquito", AreaID: "area:las-terrenas",
			Name: "El Mosquito", Cuisine: "seafood",
		}

		day1 := start
		day2 := start.AddDate(0, 0, 1)
		day3 := start.AddDate(0, 0, 2)
		d.Itinerary = &model.QuickPlanItinerary{
			SplitID: "split:area:las-terrenas-3",
			Days: []model.QuickPlanDay{
				{
					Index: 0, Date: &day1, AreaID: "area:las-terrenas",
					Blocks: []model.DayBlock{
						{Slot: model.SlotMorning, Kind: model.BlockActivity, Title: "Surf lesson", EffortCost: 2.5},
						{Slot: model.SlotEvening, Kind: model.BlockMeal, Title: "Dinner at El Mosquito", EntityID: "restaurant:mosquito", EffortCost: 0.5},
					},
					EffortSpent: 3,
				},
				{
					Index: 1, Date: &day2, AreaID: "area:las-terrenas",
					Blocks: []model.DayBlock{
						{Slot: model.SlotAfternoon, Kind: model.BlockActivity, Title: "Waterfall hike", EffortCost: 2.5},
					},
					EffortSpent: 2.5,
				},
				{
					Index: 2, Date: &day3, AreaID: "area:las-terrenas",
					RestDay: true,
					Blocks: []model.DayBlock{
						{Slot: model.SlotMorning, Kind: model.BlockRest, Title: "Free day"},
					},
				},
			},
			Dining:     model.DiningPlan{ByDay: map[int][]string{0: {"restaurant:mosquito"}}},
			Generation: 1,
		}
		d.Quality = &model.QualityCheckResult{
			Passed: true,
			Constraints: []model.UnmetConstraint{
				{Check: "budget_respected", Severity: model.SeverityWarning, Detail: "Playa Colibri price is an estimate."},
			},
		}
		return nil
	})
	require.NoError(t, err)
	return sess.Snapshot()
}

func TestMarkdown_RendersFullPlan(t *testing.T) {
	md, err := Markdown(exportFixture(t))
	require.NoError(t, err)

	assert.Contains(t, md, "# Dominican Republic, 3 nights")
	assert.Contains(t, md, "Dec 5 2026")
	assert.Contains(t, md, "**Las Terrenas**, 3 nights at Playa Colibri (145 USD/night, estimated)")
	assert.Contains(t, md, "### Day 1")
	assert.Contains(t, md, "- morning: Surf lesson")
	assert.Contains(t, md, "Free day; no fixed plans.")
	assert.Contains(t, md, "- Day 1: El Mosquito")
	assert.Contains(t, md, "Playa Colibri price is an estimate.")
}

func TestMarkdown_MissingPriceNeverRendersZero(t *testing.T) {
	data := exportFixture(t)
	h := data.Hotels["hotel:playa"]
	h.PricePerNight = nil
	h.PriceConfidence = model.PriceUnknown
	data.Hotels["hotel:playa"] = h

	md, err := Markdown(data)
	require.NoError(t, err)
	assert.Contains(t, md, "no confirmed price")
	assert.NotContains(t, md, "0 USD/night")
}

func TestMarkdown_NoItinerary(t *testing.T) {
	sess := session.New()
	_, err := Markdown(sess.Snapshot())
	require.Error(t, err)
}

func TestWriteXLSX_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trip.xlsx")
	require.NoError(t, WriteXLSX(exportFixture(t), path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	for _, name := range []string{"Overview", "Days", "Hotels", "Reservations"} {
		_, ok := f.Sheet[name]
		assert.True(t, ok, "missing sheet %s", name)
	}

	days := f.Sheet["Days"]
	// Header plus one row per block on days 1-2, one free-day row.
	require.Len(t, days.Rows, 5)
	assert.Equal(t, "Surf lesson", days.Rows[1].Cells[4].String())
	assert.Equal(t, "Free day", days.Rows[4].Cells[4].String())

	hotels := f.Sheet["Hotels"]
	require.Len(t, hotels.Rows, 2)
	assert.Equal(t, "Playa Colibri", hotels.Rows[1].Cells[1].String())
	assert.Equal(t, "145.00", hotels.Rows[1].Cells[2].String())
}

func TestWriteXLSX_NoItinerary(t *testing.T) {
	sess := session.New()
	err := WriteXLSX(sess.Snapshot(), filepath.Join(t.TempDir(), "trip.xlsx"))
	require.Error(t, err)
}
