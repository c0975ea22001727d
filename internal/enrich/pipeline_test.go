package enrich

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/trip-cli/internal/config"
	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/pkg/discuss"
	"github.com/wanderplan/trip-cli/pkg/places"
	"github.com/wanderplan/trip-cli/pkg/pricing"
	"github.com/wanderplan/trip-cli/pkg/textgen"
)

type fakeTextgen struct {
	calls int32
	fn    func(call int, req textgen.GenerateRequest) (*textgen.Response, error)
}

func (f *fakeTextgen) Generate(_ context.Context, req textgen.GenerateRequest) (*textgen.Response, error) {
	call := int(atomic.AddInt32(&f.calls, 1))
	return f.fn(call, req)
}

type fakePlaces struct {
	fn func(query string, bias *places.LocationBias) ([]places.Place, error)
}

func (f *fakePlaces) Search(_ context.Context, query string, bias *places.LocationBias) ([]places.Place, error) {
	if f.fn == nil {
		return nil, nil
	}
	return f.fn(query, bias)
}

type fakeDiscuss struct {
	posts []discuss.Post
}

func (f *fakeDiscuss) Search(_ context.Context, _ string, _ []string) ([]discuss.Post, error) {
	return f.posts, nil
}

type fakePricing struct {
	fn func(entityID string) ([]pricing.VendorPrice, error)
}

func (f *fakePricing) Quote(_ context.Context, entityID string, _ time.Time, _ int) ([]pricing.VendorPrice, error) {
	if f.fn == nil {
		return nil, nil
	}
	return f.fn(entityID)
}

func testPipeline(tg textgen.Client, pl places.Client, ds discuss.Client, pr pricing.Client) *Pipeline {
	return New(tg, pl, ds, pr,
		config.EnrichConfig{Workers: 4, BatchPacingMS: 1, MinAreaResults: 2, MinHotelResults: 2, FetchTimeoutSec: 5},
		config.EvidenceConfig{MinCitations: 2, CredibilityThreshold: 0.6},
		config.ScheduleConfig{FullDayCost: 4, HalfDayCost: 2.5, BeachDayCost: 1},
	)
}

func areaResponse(names ...string) *textgen.Response {
	resp := &textgen.Response{Type: textgen.TypeRecommendation, Message: "areas"}
	for _, n := range names {
		resp.Recommendations = append(resp.Recommendations, textgen.Recommendation{
			Category: textgen.CategoryArea, Name: n, CostTier: 2,
		})
	}
	return resp
}

func matchingPlaces(name string) []places.Place {
	return []places.Place{{ID: "pid-" + name, Name: name, Lat: 19.3, Lon: -69.5, Rating: 4.4, ReviewCount: 900}}
}

func TestDiscoverAreas_KeepsVerifiedDropsUnverified(t *testing.T) {
	tg := &fakeTextgen{fn: func(_ int, _ textgen.GenerateRequest) (*textgen.Response, error) {
		return areaResponse("Las Terrenas", "Ghost Town"), nil
	}}
	pl := &fakePlaces{fn: func(query string, _ *places.LocationBias) ([]places.Place, error) {
		// Only Las Terrenas resolves to a place reference.
		if query == "Las Terrenas Dominican Republic" {
			return matchingPlaces("Las Terrenas"), nil
		}
		return nil, nil
	}}
	p := testPipeline(tg, pl, &fakeDiscuss{}, &fakePricing{})

	prefs := model.NewTripPreferences()
	prefs.Destination = "Dominican Republic"

	areas, err := p.DiscoverAreas(context.Background(), prefs, 7)
	require.NoError(t, err)
	require.Len(t, areas, 1)
	assert.Equal(t, "area:las-terrenas", areas[0].ID)
	assert.Equal(t, uint64(7), areas[0].Generation)
	// Centroid comes from the place reference, not the generator.
	assert.Equal(t, -69.5, areas[0].CenterLon)
	assert.Equal(t, 19.3, areas[0].CenterLat)
}

func TestDiscoverAreas_BroadensWhenSparse(t *testing.T) {
	tg := &fakeTextgen{fn: func(call int, req textgen.GenerateRequest) (*textgen.Response, error) {
		if call == 1 {
			return areaResponse("Las Terrenas"), nil
		}
		assert.Contains(t, req.Prompt, "wider variety")
		return areaResponse("Las Terrenas", "Cabarete"), nil
	}}
	pl := &fakePlaces{fn: func(query string, _ *places.LocationBias) ([]places.Place, error) {
		switch query {
		case "Las Terrenas Dominican Republic":
			return matchingPlaces("Las Terrenas"), nil
		case "Cabarete Dominican Republic":
			return matchingPlaces("Cabarete"), nil
		}
		return nil, nil
	}}
	p := testPipeline(tg, pl, &fakeDiscuss{}, &fakePricing{})

	prefs := model.NewTripPreferences()
	prefs.Destination = "Dominican Republic"

	areas, err := p.DiscoverAreas(context.Background(), prefs, 1)
	require.NoError(t, err)
	assert.Len(t, areas, 2)
	assert.Equal(t, int32(2), tg.calls)
}

func TestDiscoverAreas_DiscussionCitationsVerify(t *testing.T) {
	// No place reference and no operator URL: verification rests on two
	// credible citations.
	tg := &fakeTextgen{fn: func(_ int, _ textgen.GenerateRequest) (*textgen.Response, error) {
		return areaResponse("Samaná"), nil
	}}
	ds := &fakeDiscuss{posts: []discuss.Post{
		{ID: "1", Community: "travel", Title: "Samana trip report", Score: 80},
		{ID: "2", Community: "travel", Title: "Loved Samaná", Score: 45},
	}}
	p := testPipeline(tg, &fakePlaces{}, ds, &fakePricing{})

	prefs := model.NewTripPreferences()
	prefs.Destination = "Dominican Republic"

	areas, err := p.DiscoverAreas(context.Background(), prefs, 1)
	require.NoError(t, err)
	require.Len(t, areas, 1)
	require.Len(t, areas[0].Evidence, 1)
	assert.Equal(t, model.EvidenceDiscussion, areas[0].Evidence[0].Kind)
}

func stayArea() model.AreaCandidate {
	return model.AreaCandidate{ID: "area:las-terrenas", Name: "Las Terrenas", CenterLat: 19.3, CenterLon: -69.5}
}

func TestEnrichStay_BuildsCandidatesFromTags(t *testing.T) {
	tg := &fakeTextgen{fn: func(_ int, _ textgen.GenerateRequest) (*textgen.Response, error) {
		return &textgen.Response{
			Type:    textgen.TypeRecommendation,
			Message: "stay",
			Recommendations: []textgen.Recommendation{
				{Category: textgen.CategoryHotel, Name: "Casa Coson", Tags: []string{"adults_only"}},
				{Category: textgen.CategoryHotel, Name: "Sublime Samana", Tags: []string{"accessible"}},
				{Category: textgen.CategoryRestaurant, Name: "La Terrasse", Tags: []string{"french", "needs_reservation"}},
				{Category: textgen.CategoryActivity, Name: "Surf lesson at Playa Bonita", Tags: []string{"half_day"}, OperatorURL: "https://surfcamp.example"},
				{Category: textgen.CategoryActivity, Name: "El Limón waterfall trek", Tags: []string{"full_day"}},
			},
		}, nil
	}}
	pl := &fakePlaces{fn: func(query string, _ *places.LocationBias) ([]places.Place, error) {
		name := query[:len(query)-len(" Las Terrenas")]
		return matchingPlaces(name), nil
	}}
	p := testPipeline(tg, pl, &fakeDiscuss{}, &fakePricing{})

	prefs := model.NewTripPreferences()
	prefs.Destination = "Dominican Republic"
	prefs.Activities = []model.ActivityIntent{{Name: "surf", MustDo: true}}

	res, err := p.EnrichStay(context.Background(), prefs, []model.AreaCandidate{stayArea()}, 3)
	require.NoError(t, err)

	require.Len(t, res.Hotels, 2)
	assert.True(t, res.Hotels[0].AdultsOnly)
	assert.False(t, res.Hotels[0].Accessible)
	assert.True(t, res.Hotels[1].Accessible)
	assert.Equal(t, model.PriceUnknown, res.Hotels[0].PriceConfidence)
	assert.Nil(t, res.Hotels[0].PricePerNight)

	require.Len(t, res.Restaurants, 1)
	assert.True(t, res.Restaurants[0].NeedsReservation)
	assert.Equal(t, "french", res.Restaurants[0].Cuisine)

	require.Len(t, res.Activities, 2)
	surf := res.Activities[0]
	assert.True(t, surf.MustDo)
	assert.Equal(t, "surf", surf.Intent)
	assert.Equal(t, 2.5, surf.EffortCost)
	assert.Equal(t, 0.95, surf.Relevance)
	trek := res.Activities[1]
	assert.False(t, trek.MustDo)
	assert.Equal(t, 4.0, trek.EffortCost)
	assert.Equal(t, uint64(3), trek.Generation)

	assert.Empty(t, res.LowHotelInventory)
	assert.Empty(t, res.NeedsHotelIndexing)
}

func TestEnrichStay_SparseHotelsFallBackToIndex(t *testing.T) {
	tg := &fakeTextgen{fn: func(_ int, _ textgen.GenerateRequest) (*textgen.Response, error) {
		return &textgen.Response{Type: textgen.TypeRecommendation, Message: "stay"}, nil
	}}
	pl := &fakePlaces{fn: func(query string, _ *places.LocationBias) ([]places.Place, error) {
		if query == "hotels in Las Terrenas" {
			return []places.Place{
				{ID: "p1", Name: "Hotel Alisei", Rating: 4.2, ReviewCount: 500},
				{ID: "p2", Name: "Playa Colibri", Rating: 4.0, ReviewCount: 300},
				{ID: "p3", Name: "Residence Marilar", Rating: 3.9, ReviewCount: 120},
			}, nil
		}
		return nil, nil
	}}
	p := testPipeline(tg, pl, &fakeDiscuss{}, &fakePricing{})

	res, err := p.EnrichStay(context.Background(), model.NewTripPreferences(), []model.AreaCandidate{stayArea()}, 1)
	require.NoError(t, err)

	assert.True(t, res.LowHotelInventory["area:las-terrenas"])
	assert.False(t, res.NeedsHotelIndexing["area:las-terrenas"])
	// Index fallback stops once the minimum is met.
	assert.Len(t, res.Hotels, 2)
	for _, h := range res.Hotels {
		assert.Equal(t, model.EvidencePlaceRef, h.Evidence[0].Kind)
	}
}

func TestEnrichStay_OneAreaFailureKeepsSiblings(t *testing.T) {
	tg := &fakeTextgen{fn: func(_ int, req textgen.GenerateRequest) (*textgen.Response, error) {
		if strings.Contains(req.Prompt, "Cabarete") {
			return nil, fmt.Errorf("generator unavailable")
		}
		return &textgen.Response{
			Type:    textgen.TypeRecommendation,
			Message: "stay",
			Recommendations: []textgen.Recommendation{
				{Category: textgen.CategoryHotel, Name: "Casa Coson"},
				{Category: textgen.CategoryHotel, Name: "Sublime Samana"},
			},
		}, nil
	}}
	pl := &fakePlaces{fn: func(query string, _ *places.LocationBias) ([]places.Place, error) {
		if strings.HasSuffix(query, " Las Terrenas") {
			return matchingPlaces(strings.TrimSuffix(query, " Las Terrenas")), nil
		}
		return nil, nil
	}}
	p := testPipeline(tg, pl, &fakeDiscuss{}, &fakePricing{})

	areas := []model.AreaCandidate{
		stayArea(),
		{ID: "area:cabarete", Name: "Cabarete", CenterLat: 19.75, CenterLon: -70.41},
	}
	res, err := p.EnrichStay(context.Background(), model.NewTripPreferences(), areas, 1)
	require.NoError(t, err, "one area failing must not fail the layer")

	// The healthy area's candidates survive; the failed area is flagged.
	assert.Len(t, res.Hotels, 2)
	for _, h := range res.Hotels {
		assert.Equal(t, "area:las-terrenas", h.AreaID)
	}
	assert.True(t, res.LowHotelInventory["area:cabarete"])
	assert.True(t, res.NeedsHotelIndexing["area:cabarete"])
	assert.False(t, res.LowHotelInventory["area:las-terrenas"])
}

func TestEnrichHotels_KeepsOnlyTheHotelArena(t *testing.T) {
	tg := &fakeTextgen{fn: func(_ int, _ textgen.GenerateRequest) (*textgen.Response, error) {
		return &textgen.Response{
			Type:    textgen.TypeRecommendation,
			Message: "stay",
			Recommendations: []textgen.Recommendation{
				{Category: textgen.CategoryHotel, Name: "Casa Coson"},
				{Category: textgen.CategoryHotel, Name: "Sublime Samana"},
				{Category: textgen.CategoryRestaurant, Name: "La Terrasse", Tags: []string{"french"}},
				{Category: textgen.CategoryActivity, Name: "El Limón waterfall trek", Tags: []string{"full_day"}},
			},
		}, nil
	}}
	pl := &fakePlaces{fn: func(query string, _ *places.LocationBias) ([]places.Place, error) {
		if strings.HasSuffix(query, " Las Terrenas") {
			return matchingPlaces(strings.TrimSuffix(query, " Las Terrenas")), nil
		}
		return nil, nil
	}}
	p := testPipeline(tg, pl, &fakeDiscuss{}, &fakePricing{})

	res, err := p.EnrichHotels(context.Background(), model.NewTripPreferences(), []model.AreaCandidate{stayArea()}, 4)
	require.NoError(t, err)

	require.Len(t, res.Hotels, 2)
	assert.Equal(t, uint64(4), res.Hotels[0].Generation)
	assert.Empty(t, res.Restaurants)
	assert.Empty(t, res.Activities)
	assert.Empty(t, res.LowHotelInventory)
}

func TestEnrichStay_FlagsAreaWhenIndexIsEmptyToo(t *testing.T) {
	tg := &fakeTextgen{fn: func(_ int, _ textgen.GenerateRequest) (*textgen.Response, error) {
		return &textgen.Response{Type: textgen.TypeRecommendation, Message: "stay"}, nil
	}}
	p := testPipeline(tg, &fakePlaces{}, &fakeDiscuss{}, &fakePricing{})

	res, err := p.EnrichStay(context.Background(), model.NewTripPreferences(), []model.AreaCandidate{stayArea()}, 1)
	require.NoError(t, err)
	assert.True(t, res.LowHotelInventory["area:las-terrenas"])
	assert.True(t, res.NeedsHotelIndexing["area:las-terrenas"])
}

func TestPriceHotels_AbsentNeverZero(t *testing.T) {
	pr := &fakePricing{fn: func(entityID string) ([]pricing.VendorPrice, error) {
		switch entityID {
		case "hotel:quoted":
			return []pricing.VendorPrice{
				{Vendor: "a", PerNight: 140, Currency: "USD"},
				{Vendor: "b", PerNight: 125, Currency: "USD"},
			}, nil
		case "hotel:single":
			return []pricing.VendorPrice{{Vendor: "a", PerNight: 90, Currency: "USD"}}, nil
		}
		return nil, nil
	}}
	p := testPipeline(&fakeTextgen{}, &fakePlaces{}, &fakeDiscuss{}, pr)

	hotels := []model.HotelCandidate{
		{ID: "hotel:quoted", PriceConfidence: model.PriceUnknown},
		{ID: "hotel:single", PriceConfidence: model.PriceUnknown},
		{ID: "hotel:unquoted", PriceConfidence: model.PriceUnknown},
	}
	priced := p.PriceHotels(context.Background(), hotels, time.Now(), 5)
	require.Len(t, priced, 3)

	require.NotNil(t, priced[0].PricePerNight)
	assert.Equal(t, 125.0, *priced[0].PricePerNight)
	assert.Equal(t, model.PriceExact, priced[0].PriceConfidence)

	require.NotNil(t, priced[1].PricePerNight)
	assert.Equal(t, 90.0, *priced[1].PricePerNight)
	assert.Equal(t, model.PriceEstimated, priced[1].PriceConfidence)

	assert.Nil(t, priced[2].PricePerNight)
	assert.Equal(t, model.PriceUnknown, priced[2].PriceConfidence)
}

func TestFallbackArea(t *testing.T) {
	prefs := model.NewTripPreferences()
	prefs.Destination = "Dominican Republic"

	area := FallbackArea(prefs, 9)
	assert.Equal(t, "area:dominican-republic", area.ID)
	assert.Equal(t, 0.0, area.ConfidenceScore)
	assert.Equal(t, uint64(9), area.Generation)
}

func TestPipelineProgress(t *testing.T) {
	tg := &fakeTextgen{fn: func(_ int, _ textgen.GenerateRequest) (*textgen.Response, error) {
		return areaResponse("Las Terrenas", "Cabarete"), nil
	}}
	pl := &fakePlaces{fn: func(query string, _ *places.LocationBias) ([]places.Place, error) {
		switch query {
		case "Las Terrenas X":
			return matchingPlaces("Las Terrenas"), nil
		case "Cabarete X":
			return matchingPlaces("Cabarete"), nil
		}
		return nil, nil
	}}

	var updates []Progress
	p := testPipeline(tg, pl, &fakeDiscuss{}, &fakePricing{})
	p.onProgress = func(pr Progress) { updates = append(updates, pr) }

	prefs := model.NewTripPreferences()
	prefs.Destination = "X"
	_, err := p.DiscoverAreas(context.Background(), prefs, 1)
	require.NoError(t, err)

	require.Len(t, updates, 2)
	assert.Equal(t, StatusLoading, updates[0].Status)
	assert.Equal(t, StatusDone, updates[1].Status)
	assert.Equal(t, LayerAreas, updates[0].Layer)
}
