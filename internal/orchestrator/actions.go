package orchestrator

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/wanderplan/trip-cli/internal/enrich"
	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/internal/quality"
	"github.com/wanderplan/trip-cli/internal/session"
)

// ensureAreas runs the first enrichment layer and the scoring pass if the
// current generation has no areas yet. Total discovery failure degrades
// to a single conservative candidate instead of aborting the session.
func (o *Orchestrator) ensureAreas(ctx context.Context) error {
	data := o.sess.Snapshot()
	if len(rankedAreas(data)) > 0 {
		return nil
	}
	gen := data.Generation

	areas, err := o.enricher.DiscoverAreas(ctx, data.Prefs, gen)
	if err != nil || len(areas) == 0 {
		zap.L().Warn("orchestrator: area discovery failed, using conservative fallback",
			zap.Error(err))
		areas = []model.AreaCandidate{enrich.FallbackArea(data.Prefs, gen)}
	}

	scored := make([]model.AreaCandidate, len(areas))
	for i, a := range areas {
		scored[i] = o.scorer.ScoreArea(a, data.Prefs)
	}
	splits := o.scorer.GenerateSplits(scored, data.Prefs.Nights, data.Prefs.MaxBases)

	err = o.sess.CommitEnrichment(gen, func(d *session.Data) error {
		d.Areas = make(map[string]model.AreaCandidate, len(scored))
		for _, a := range scored {
			d.Areas[a.ID] = a
		}
		d.Splits = make(map[string]model.ItinerarySplit, len(splits))
		for _, s := range splits {
			d.Splits[s.ID] = s
		}
		return nil
	})
	if eris.Is(err, session.ErrStaleGeneration) {
		zap.L().Info("orchestrator: discarding stale area results", zap.Uint64("generation", gen))
		return nil
	}
	return err
}

// ensureStay runs the per-area and pricing layers if the current
// generation has no stay candidates yet. When only the hotel arena is
// stale, restaurants and activities having been carried forward, just
// hotels regenerate. A single-city trip that skipped area discovery gets
// its one base synthesized here.
func (o *Orchestrator) ensureStay(ctx context.Context) error {
	if err := o.ensureSingleCityBase(); err != nil {
		return err
	}

	data := o.sess.Snapshot()
	gen := data.Generation
	hotelsCurrent := false
	for _, h := range data.Hotels {
		if h.Generation == gen {
			hotelsCurrent = true
			break
		}
	}
	activitiesCurrent := false
	for _, a := range data.Activities {
		if a.Generation == gen {
			activitiesCurrent = true
			break
		}
	}
	if hotelsCurrent {
		return nil
	}

	areas := splitAreas(data)
	if len(areas) == 0 {
		return eris.New("orchestrator: no areas to enrich")
	}

	checkIn := time.Now().UTC().AddDate(0, 1, 0)
	if data.Prefs.StartDate != nil {
		checkIn = *data.Prefs.StartDate
	}

	if activitiesCurrent {
		stay, err := o.enricher.EnrichHotels(ctx, data.Prefs, areas, gen)
		if err != nil {
			return eris.Wrap(err, "orchestrator: hotel enrichment")
		}
		hotels := o.enricher.PriceHotels(ctx, stay.Hotels, checkIn, data.Prefs.Nights)

		err = o.sess.CommitEnrichment(gen, func(d *session.Data) error {
			d.Hotels = make(map[string]model.HotelCandidate, len(hotels))
			for _, h := range hotels {
				d.Hotels[h.ID] = h
			}
			applyInventoryFlags(d, stay)
			return nil
		})
		if eris.Is(err, session.ErrStaleGeneration) {
			zap.L().Info("orchestrator: discarding stale hotel results", zap.Uint64("generation", gen))
			return nil
		}
		return err
	}

	stay, err := o.enricher.EnrichStay(ctx, data.Prefs, areas, gen)
	if err != nil {
		return eris.Wrap(err, "orchestrator: stay enrichment")
	}
	hotels := o.enricher.PriceHotels(ctx, stay.Hotels, checkIn, data.Prefs.Nights)

	err = o.sess.CommitEnrichment(gen, func(d *session.Data) error {
		d.Hotels = make(map[string]model.HotelCandidate, len(hotels))
		for _, h := range hotels {
			d.Hotels[h.ID] = h
		}
		d.Restaurants = make(map[string]model.RestaurantCandidate, len(stay.Restaurants))
		for _, r := range stay.Restaurants {
			d.Restaurants[r.ID] = r
		}
		d.Activities = make(map[string]model.ActivityCandidate, len(stay.Activities))
		for _, a := range stay.Activities {
			d.Activities[a.ID] = a
		}
		applyInventoryFlags(d, stay)
		return nil
	})
	if eris.Is(err, session.ErrStaleGeneration) {
		zap.L().Info("orchestrator: discarding stale stay results", zap.Uint64("generation", gen))
		return nil
	}
	return err
}

// applyInventoryFlags copies sparse-hotel markers onto the affected areas.
func applyInventoryFlags(d *session.Data, stay *enrich.StayResult) {
	for id := range stay.LowHotelInventory {
		if area, ok := d.Areas[id]; ok {
			area.LowHotelInventory = true
			d.Areas[id] = area
		}
	}
	for id := range stay.NeedsHotelIndexing {
		if area, ok := d.Areas[id]; ok {
			area.NeedsHotelIndexing = true
			d.Areas[id] = area
		}
	}
}

// ensureSingleCityBase synthesizes the one base and its trivial split for
// trips that skipped area discovery.
func (o *Orchestrator) ensureSingleCityBase() error {
	return o.sess.Commit(func(d *session.Data) error {
		if !d.Prefs.SingleCity || len(d.Areas) > 0 {
			return nil
		}
		area := enrich.FallbackArea(d.Prefs, d.Generation)
		area.ConfidenceScore = 1
		area.Overall = 1

		split := model.ItinerarySplit{
			ID: "split:" + area.ID,
			Stops: []model.ItineraryStop{{
				AreaID:       area.ID,
				Nights:       d.Prefs.Nights,
				ArrivalDay:   0,
				DepartureDay: d.Prefs.Nights,
			}},
			FitScore: 1,
		}

		d.Areas[area.ID] = area
		d.Splits[split.ID] = split
		d.Prefs.SelectedSplitID = split.ID
		d.Prefs.Confidence[model.FieldAreaSplit] = model.ConfidenceConfirmed
		return nil
	})
}

// splitAreas returns the areas of the selected split, or every
// current-generation area when no split is locked yet.
func splitAreas(d session.Data) []model.AreaCandidate {
	stops := selectedStops(d)
	if len(stops) == 0 {
		return rankedAreas(d)
	}
	var out []model.AreaCandidate
	for _, stop := range stops {
		if area, ok := d.Areas[stop.AreaID]; ok {
			out = append(out, area)
		}
	}
	return out
}

// buildItinerary runs the scheduler over the locked split and the current
// candidate arenas, replacing the plan wholesale.
func (o *Orchestrator) buildItinerary() error {
	data := o.sess.Snapshot()
	gen := data.Generation

	split, ok := data.Splits[data.Prefs.SelectedSplitID]
	if !ok {
		return eris.New("orchestrator: no split selected")
	}

	activities := lo.Filter(lo.Values(data.Activities), func(a model.ActivityCandidate, _ int) bool {
		return a.Generation == gen
	})

	var restaurants []model.RestaurantCandidate
	if picked := lo.Flatten(lo.Values(data.Prefs.SelectedDining)); len(picked) > 0 {
		for _, id := range picked {
			if r, ok := data.Restaurants[id]; ok {
				restaurants = append(restaurants, r)
			}
		}
	} else {
		restaurants = lo.Filter(lo.Values(data.Restaurants), func(r model.RestaurantCandidate, _ int) bool {
			return r.Generation == gen
		})
	}

	itinerary, unmet := o.sched.Build(data.Prefs, split, activities, restaurants)
	itinerary.Generation = gen
	for _, stop := range split.Stops {
		if area, ok := data.Areas[stop.AreaID]; ok && area.ConfidenceScore == 0 {
			itinerary.LowConfidence = true
		}
	}
	if len(unmet) > 0 {
		zap.L().Warn("orchestrator: scheduler left constraints unmet",
			zap.Int("count", len(unmet)))
	}

	err := o.sess.CommitEnrichment(gen, func(d *session.Data) error {
		d.Itinerary = itinerary
		d.Quality = nil
		return nil
	})
	if eris.Is(err, session.ErrStaleGeneration) {
		zap.L().Info("orchestrator: discarding stale itinerary", zap.Uint64("generation", gen))
		return nil
	}
	return err
}

// runQuality recomputes the quality battery and folds in any standing
// preference contradictions.
func (o *Orchestrator) runQuality() error {
	data := o.sess.Snapshot()

	result := o.checker.Check(quality.Input{
		Prefs:       data.Prefs,
		Itinerary:   data.Itinerary,
		Areas:       data.Areas,
		Hotels:      data.Hotels,
		Restaurants: data.Restaurants,
		Activities:  data.Activities,
	})
	result.Constraints = append(result.Constraints, data.Contradictions...)
	result.Passed = len(result.Criticals()) == 0

	return o.sess.Commit(func(d *session.Data) error {
		d.Quality = &result
		return nil
	})
}
