package enrich

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rotisserie/eris"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/internal/resilience"
	"github.com/wanderplan/trip-cli/pkg/places"
	"github.com/wanderplan/trip-cli/pkg/pricing"
	"github.com/wanderplan/trip-cli/pkg/textgen"
)

const staySystemPrompt = `You are a travel research assistant. Respond with a single JSON object
matching this schema and nothing else:
{"type":"recommendation","message":"...","recommendations":[{"category":"hotel|restaurant|activity","name":"...","why":"...","operator_url":"...","tags":["..."],"cost_tier":1}]}
Recommend real, currently-operating places in the named area. Tag
activities with one of: full_day, half_day, beach. Tag hotels with
adults_only or accessible where that applies, and restaurants with
needs_reservation where booking ahead matters.`

// StayResult is the verified output of the per-area enrichment layer.
type StayResult struct {
	Hotels      []model.HotelCandidate
	Restaurants []model.RestaurantCandidate
	Activities  []model.ActivityCandidate

	// LowHotelInventory and NeedsHotelIndexing flag areas whose hotel
	// results stayed sparse after the secondary pass; the scorer and the
	// conversation surface both read them.
	LowHotelInventory  map[string]bool
	NeedsHotelIndexing map[string]bool
}

// EnrichStay runs the second enrichment layer across all given areas
// concurrently: hotels, restaurants, and activities per area, each
// verified against the evidence contract before being kept. An area whose
// enrichment fails is flagged sparse; the other areas' results survive.
func (p *Pipeline) EnrichStay(ctx context.Context, prefs *model.TripPreferences, areas []model.AreaCandidate, gen uint64) (*StayResult, error) {
	res := &StayResult{
		LowHotelInventory:  make(map[string]bool),
		NeedsHotelIndexing: make(map[string]bool),
	}
	var mu sync.Mutex

	for _, layer := range []Layer{LayerHotels, LayerRestaurants, LayerActivities} {
		p.progress(layer, StatusLoading, "")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for _, area := range areas {
		g.Go(func() error {
			stay, err := p.enrichArea(gctx, prefs, area, gen)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// One area's failure never drops its siblings: flag the area
				// and let the conversation degrade instead.
				zap.L().Warn("enrich: area enrichment failed",
					zap.String("area", area.Name), zap.Error(err))
				res.LowHotelInventory[area.ID] = true
				res.NeedsHotelIndexing[area.ID] = true
				return nil
			}
			res.Hotels = append(res.Hotels, stay.Hotels...)
			res.Restaurants = append(res.Restaurants, stay.Restaurants...)
			res.Activities = append(res.Activities, stay.Activities...)
			if stay.LowHotelInventory[area.ID] {
				res.LowHotelInventory[area.ID] = true
			}
			if stay.NeedsHotelIndexing[area.ID] {
				res.NeedsHotelIndexing[area.ID] = true
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		for _, layer := range []Layer{LayerHotels, LayerRestaurants, LayerActivities} {
			p.progress(layer, StatusError, err.Error())
		}
		return nil, err
	}

	p.progress(LayerHotels, StatusDone, fmt.Sprintf("%d hotels", len(res.Hotels)))
	p.progress(LayerRestaurants, StatusDone, fmt.Sprintf("%d restaurants", len(res.Restaurants)))
	p.progress(LayerActivities, StatusDone, fmt.Sprintf("%d activities", len(res.Activities)))
	return res, nil
}

// EnrichHotels re-runs just the hotel portion of the per-area layer, used
// when a regeneration keeps restaurants, activities, and the day plan.
// The generator pass is the same one EnrichStay runs; non-hotel
// recommendations are discarded so the verification path stays single.
func (p *Pipeline) EnrichHotels(ctx context.Context, prefs *model.TripPreferences, areas []model.AreaCandidate, gen uint64) (*StayResult, error) {
	res := &StayResult{
		LowHotelInventory:  make(map[string]bool),
		NeedsHotelIndexing: make(map[string]bool),
	}
	var mu sync.Mutex

	p.progress(LayerHotels, StatusLoading, "")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for _, area := range areas {
		g.Go(func() error {
			stay, err := p.enrichArea(gctx, prefs, area, gen)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				zap.L().Warn("enrich: hotel re-enrichment failed",
					zap.String("area", area.Name), zap.Error(err))
				res.LowHotelInventory[area.ID] = true
				res.NeedsHotelIndexing[area.ID] = true
				return nil
			}
			res.Hotels = append(res.Hotels, stay.Hotels...)
			if stay.LowHotelInventory[area.ID] {
				res.LowHotelInventory[area.ID] = true
			}
			if stay.NeedsHotelIndexing[area.ID] {
				res.NeedsHotelIndexing[area.ID] = true
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		p.progress(LayerHotels, StatusError, err.Error())
		return nil, err
	}

	p.progress(LayerHotels, StatusDone, fmt.Sprintf("%d hotels", len(res.Hotels)))
	return res, nil
}

func (p *Pipeline) enrichArea(ctx context.Context, prefs *model.TripPreferences, area model.AreaCandidate, gen uint64) (*StayResult, error) {
	resp, err := p.textgen.Generate(ctx, textgen.GenerateRequest{
		System: staySystemPrompt,
		Prompt: stayPrompt(prefs, area),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: area %s", area.Name)
	}

	bias := &places.LocationBias{Lat: area.CenterLat, Lon: area.CenterLon, RadiusKm: 25}
	res := &StayResult{
		LowHotelInventory:  make(map[string]bool),
		NeedsHotelIndexing: make(map[string]bool),
	}

	for _, rec := range resp.Recommendations {
		evidence, place := p.gather(ctx, rec, area.Name, bias)
		if !p.verified(evidence) {
			zap.L().Debug("enrich: unverified candidate dropped",
				zap.String("area", area.Name), zap.String("name", rec.Name))
			continue
		}

		switch rec.Category {
		case textgen.CategoryHotel:
			res.Hotels = append(res.Hotels, p.buildHotel(rec, area, place, evidence, prefs, gen))
		case textgen.CategoryRestaurant:
			res.Restaurants = append(res.Restaurants, p.buildRestaurant(rec, area, place, evidence, prefs, gen))
		case textgen.CategoryActivity:
			res.Activities = append(res.Activities, p.buildActivity(rec, area, evidence, prefs, gen))
		}
	}

	// Sparse hotels get one broadened pass straight against the place
	// index before the area is flagged.
	if len(res.Hotels) < p.cfg.MinHotelResults {
		res.LowHotelInventory[area.ID] = true
		res.Hotels = append(res.Hotels, p.hotelsFromIndex(ctx, area, prefs, gen, res.Hotels)...)
		if len(res.Hotels) < p.cfg.MinHotelResults {
			res.NeedsHotelIndexing[area.ID] = true
			zap.L().Warn("enrich: hotel inventory stayed sparse",
				zap.String("area", area.Name), zap.Int("hotels", len(res.Hotels)))
		}
	}

	return res, nil
}

func (p *Pipeline) buildHotel(rec textgen.Recommendation, area model.AreaCandidate, place *places.Place, evidence []model.Evidence, prefs *model.TripPreferences, gen uint64) model.HotelCandidate {
	h := model.HotelCandidate{
		ID:              entityID("hotel", rec.Name),
		AreaID:          area.ID,
		Name:            rec.Name,
		PriceConfidence: model.PriceUnknown,
		AdultsOnly:      hasTag(rec.Tags, "adults_only"),
		Accessible:      hasTag(rec.Tags, "accessible"),
		Relevance:       relevanceFor(prefs, rec.Name, rec.Tags),
		Evidence:        evidence,
		Generation:      gen,
	}
	if place != nil {
		h.Rating = place.Rating
		h.ReviewCount = place.ReviewCount
	}
	return h
}

func (p *Pipeline) buildRestaurant(rec textgen.Recommendation, area model.AreaCandidate, place *places.Place, evidence []model.Evidence, prefs *model.TripPreferences, gen uint64) model.RestaurantCandidate {
	r := model.RestaurantCandidate{
		ID:               entityID("restaurant", rec.Name),
		AreaID:           area.ID,
		Name:             rec.Name,
		PriceTier:        rec.CostTier,
		NeedsReservation: hasTag(rec.Tags, "needs_reservation"),
		Relevance:        relevanceFor(prefs, rec.Name, rec.Tags),
		Evidence:         evidence,
		Generation:       gen,
	}
	if cuisine := firstTagExcept(rec.Tags, "needs_reservation"); cuisine != "" {
		r.Cuisine = cuisine
	}
	if place != nil {
		r.Rating = place.Rating
		r.ReviewCount = place.ReviewCount
	}
	return r
}

func (p *Pipeline) buildActivity(rec textgen.Recommendation, area model.AreaCandidate, evidence []model.Evidence, prefs *model.TripPreferences, gen uint64) model.ActivityCandidate {
	a := model.ActivityCandidate{
		ID:          entityID("activity", rec.Name),
		AreaID:      area.ID,
		Name:        rec.Name,
		EffortCost:  p.effortFromTags(rec.Tags),
		Relevance:   relevanceFor(prefs, rec.Name, rec.Tags),
		OperatorURL: rec.OperatorURL,
		Evidence:    evidence,
		Generation:  gen,
	}
	for _, intent := range prefs.Activities {
		if strings.Contains(
			strings.ToLower(rec.Name+" "+strings.Join(rec.Tags, " ")),
			strings.ToLower(intent.Name),
		) {
			a.Intent = intent.Name
			a.MustDo = intent.MustDo
			break
		}
	}
	return a
}

// hotelsFromIndex queries the place index directly when generated hotel
// recommendations came back sparse. Place-reference evidence alone
// satisfies the contract.
func (p *Pipeline) hotelsFromIndex(ctx context.Context, area model.AreaCandidate, prefs *model.TripPreferences, gen uint64, existing []model.HotelCandidate) []model.HotelCandidate {
	if err := p.pace(ctx); err != nil {
		return nil
	}
	bias := &places.LocationBias{Lat: area.CenterLat, Lon: area.CenterLon, RadiusKm: 25}
	results, err := resilience.DoVal(ctx, retryConfig("places", "hotel index"), func(ctx context.Context) ([]places.Place, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout())
		defer cancel()
		return p.places.Search(fetchCtx, "hotels in "+area.Name, bias)
	})
	if err != nil {
		zap.L().Warn("enrich: hotel index query failed",
			zap.String("area", area.Name), zap.Error(err))
		return nil
	}

	seen := make(map[string]bool, len(existing))
	for _, h := range existing {
		seen[h.ID] = true
	}

	var out []model.HotelCandidate
	for _, place := range results {
		id := entityID("hotel", place.Name)
		if seen[id] {
			continue
		}
		out = append(out, model.HotelCandidate{
			ID:              id,
			AreaID:          area.ID,
			Name:            place.Name,
			PriceConfidence: model.PriceUnknown,
			Rating:          place.Rating,
			ReviewCount:     place.ReviewCount,
			Relevance:       0.4,
			Evidence: []model.Evidence{{
				Kind: model.EvidencePlaceRef,
				Place: &model.PlaceRef{
					PlaceID:     place.ID,
					Rating:      place.Rating,
					ReviewCount: place.ReviewCount,
					PhotoRef:    place.PhotoRef,
				},
			}},
			Generation: gen,
		})
		if len(existing)+len(out) >= p.cfg.MinHotelResults {
			break
		}
	}
	return out
}

// PriceHotels runs the pricing layer over verified hotels. A hotel the
// vendor returns no quote for keeps a nil price at unknown confidence;
// zero is never written.
func (p *Pipeline) PriceHotels(ctx context.Context, hotels []model.HotelCandidate, checkIn time.Time, nights int) []model.HotelCandidate {
	p.progress(LayerPricing, StatusLoading, "")

	out := make([]model.HotelCandidate, len(hotels))
	copy(out, hotels)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i := range out {
		g.Go(func() error {
			if err := p.pace(gctx); err != nil {
				return nil
			}
			quotes, err := resilience.DoVal(gctx, retryConfig("pricing", "quote"), func(ctx context.Context) ([]pricing.VendorPrice, error) {
				fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout())
				defer cancel()
				return p.pricing.Quote(fetchCtx, out[i].ID, checkIn, nights)
			})
			if err != nil {
				zap.L().Warn("enrich: pricing failed",
					zap.String("hotel", out[i].Name), zap.Error(err))
				return nil
			}
			if price, conf, ok := summarizeQuotes(quotes); ok {
				out[i].PricePerNight = &price
				out[i].PriceConfidence = conf
			}
			return nil
		})
	}
	_ = g.Wait()

	p.progress(LayerPricing, StatusDone, "")
	return out
}

// summarizeQuotes picks the lowest credible per-night price. Two or more
// agreeing vendors upgrade the figure from estimated to exact.
func summarizeQuotes(quotes []pricing.VendorPrice) (float64, model.PriceConfidence, bool) {
	usable := lo.Filter(quotes, func(q pricing.VendorPrice, _ int) bool { return q.PerNight > 0 })
	if len(usable) == 0 {
		return 0, model.PriceUnknown, false
	}
	best := usable[0].PerNight
	for _, q := range usable[1:] {
		if q.PerNight < best {
			best = q.PerNight
		}
	}
	conf := model.PriceEstimated
	if len(usable) >= 2 {
		conf = model.PriceExact
	}
	return best, conf, true
}

func stayPrompt(prefs *model.TripPreferences, area model.AreaCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Area: %s, %s\n", area.Name, prefs.Destination)
	if !prefs.Budget.IsZero() {
		fmt.Fprintf(&b, "Hotel budget: up to %.0f %s per night\n", prefs.Budget.MaxPerNight, prefs.Budget.Currency)
	}
	if prefs.HotelNeeds.AdultsOnly {
		b.WriteString("Hotels must be adults-only.\n")
	}
	if prefs.HotelNeeds.Accessible {
		b.WriteString("Hotels must be wheelchair accessible.\n")
	}
	if prefs.Party.HasChildren() {
		fmt.Fprintf(&b, "Traveling with %d children.\n", prefs.Party.Children)
	}
	if len(prefs.Activities) > 0 {
		names := lo.Map(prefs.Activities, func(a model.ActivityIntent, _ int) string { return a.Name })
		fmt.Fprintf(&b, "Wanted activities: %s\n", strings.Join(names, ", "))
	}
	if prefs.DiningMode != model.DiningNone {
		b.WriteString("Include notable restaurants.\n")
	}
	if len(prefs.HardNos) > 0 {
		fmt.Fprintf(&b, "Never recommend: %s\n", strings.Join(prefs.HardNos, ", "))
	}
	return b.String()
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(strings.ReplaceAll(t, "-", "_"), want) {
			return true
		}
	}
	return false
}

func firstTagExcept(tags []string, skip ...string) string {
	for _, t := range tags {
		if !hasTag(skip, t) {
			return t
		}
	}
	return ""
}
