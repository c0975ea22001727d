package scorer

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/wanderplan/trip-cli/internal/geo"
	"github.com/wanderplan/trip-cli/internal/model"
)

// maxSplitAreas caps how many top areas feed the combination enumeration.
const maxSplitAreas = 6

// GenerateSplits enumerates candidate itinerary splits over the
// top-scoring usable areas: every combination of 1..maxBases distinct
// areas, nights allocated proportionally to area score with at least one
// night per stop. Splits are ranked by fit minus transfer friction; ties
// prefer fewer bases.
func (s *Scorer) GenerateSplits(areas []model.AreaCandidate, tripNights, maxBases int) []model.ItinerarySplit {
	if tripNights < 1 || maxBases < 1 {
		return nil
	}

	usable := lo.Filter(areas, func(a model.AreaCandidate, _ int) bool {
		return a.Overall > 0
	})
	sort.Slice(usable, func(i, j int) bool { return usable[i].Overall > usable[j].Overall })
	if len(usable) > maxSplitAreas {
		usable = usable[:maxSplitAreas]
	}
	if len(usable) == 0 {
		return nil
	}

	if maxBases > tripNights {
		maxBases = tripNights
	}

	var splits []model.ItinerarySplit
	for k := 1; k <= maxBases && k <= len(usable); k++ {
		for _, combo := range combinations(usable, k) {
			splits = append(splits, s.buildSplit(combo, tripNights))
		}
	}

	sort.Slice(splits, func(i, j int) bool {
		si, sj := splits[i].Score(), splits[j].Score()
		if si != sj {
			return si > sj
		}
		return len(splits[i].Stops) < len(splits[j].Stops)
	})

	return splits
}

// buildSplit allocates nights across the combo's areas proportionally to
// their overall scores, guaranteeing one night minimum per stop, and
// computes fit and friction.
func (s *Scorer) buildSplit(combo []model.AreaCandidate, tripNights int) model.ItinerarySplit {
	total := 0.0
	for _, a := range combo {
		total += a.Overall
	}

	nights := make([]int, len(combo))
	remaining := tripNights
	for i, a := range combo {
		n := 1
		if total > 0 {
			n = int(float64(tripNights) * a.Overall / total)
			if n < 1 {
				n = 1
			}
		}
		nights[i] = n
		remaining -= n
	}
	// Distribute leftover (or claw back overshoot) against the best stop
	// first, never dropping a stop below one night.
	for i := 0; remaining != 0; i = (i + 1) % len(combo) {
		if remaining > 0 {
			nights[i]++
			remaining--
		} else if nights[i] > 1 {
			nights[i]--
			remaining++
		}
	}

	stops := make([]model.ItineraryStop, len(combo))
	day := 0
	fit := 0.0
	for i, a := range combo {
		stops[i] = model.ItineraryStop{
			AreaID:       a.ID,
			Nights:       nights[i],
			ArrivalDay:   day,
			DepartureDay: day + nights[i],
		}
		day += nights[i]
		fit += a.Overall
	}
	fit /= float64(len(combo))

	friction := 0.0
	for i := 1; i < len(combo); i++ {
		prev := geo.Centroid(combo[i-1].CenterLon, combo[i-1].CenterLat)
		next := geo.Centroid(combo[i].CenterLon, combo[i].CenterLat)
		friction += geo.TransferFriction(prev, next, s.cfg.TransferCost, s.cfg.TransferPerKm)
	}

	return model.ItinerarySplit{
		ID:       splitID(stops),
		Stops:    stops,
		FitScore: fit,
		Friction: friction,
	}
}

// combinations returns all k-element combinations preserving input order.
func combinations(areas []model.AreaCandidate, k int) [][]model.AreaCandidate {
	var out [][]model.AreaCandidate
	var rec func(start int, current []model.AreaCandidate)
	rec = func(start int, current []model.AreaCandidate) {
		if len(current) == k {
			out = append(out, append([]model.AreaCandidate(nil), current...))
			return
		}
		for i := start; i < len(areas); i++ {
			rec(i+1, append(current, areas[i]))
		}
	}
	rec(0, nil)
	return out
}

// splitID derives a stable id from the stop sequence so re-scoring the
// same combination supersedes rather than duplicates.
func splitID(stops []model.ItineraryStop) string {
	id := "split"
	for _, st := range stops {
		id += fmt.Sprintf(":%s-%d", st.AreaID, st.Nights)
	}
	return id
}
