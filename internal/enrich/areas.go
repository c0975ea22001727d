package enrich

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rotisserie/eris"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/pkg/textgen"
)

const areaSystemPrompt = `You are a travel research assistant. Respond with a single JSON object
matching this schema and nothing else:
{"type":"recommendation","message":"...","recommendations":[{"category":"area","name":"...","why":"...","tags":["..."],"cost_tier":1,"lat":0,"lon":0}]}
Recommend distinct geographic sub-regions of the destination suited to the
traveler. Include honest cost tiers from 1 (budget) to 5 (luxury).`

// DiscoverAreas runs the first enrichment layer: candidate sub-regions of
// the destination, generated from preferences and verified against the
// place-lookup and discussion collaborators. Candidates that fail the
// evidence contract are dropped. If the verified set comes back sparse, a
// broadened second pass runs before giving up.
func (p *Pipeline) DiscoverAreas(ctx context.Context, prefs *model.TripPreferences, gen uint64) ([]model.AreaCandidate, error) {
	p.progress(LayerAreas, StatusLoading, prefs.Destination)

	areas, err := p.discoverAreasOnce(ctx, prefs, gen, false)
	if err != nil {
		p.progress(LayerAreas, StatusError, err.Error())
		return nil, err
	}

	if len(areas) < p.cfg.MinAreaResults {
		zap.L().Info("enrich: sparse area results, broadening",
			zap.Int("got", len(areas)), zap.Int("want", p.cfg.MinAreaResults))
		more, err := p.discoverAreasOnce(ctx, prefs, gen, true)
		if err == nil {
			areas = mergeAreas(areas, more)
		}
	}

	if len(areas) == 0 {
		p.progress(LayerAreas, StatusError, "no verifiable areas")
		return nil, eris.New("enrich: no verifiable areas found")
	}

	p.progress(LayerAreas, StatusDone, fmt.Sprintf("%d areas", len(areas)))
	return areas, nil
}

func (p *Pipeline) discoverAreasOnce(ctx context.Context, prefs *model.TripPreferences, gen uint64, broaden bool) ([]model.AreaCandidate, error) {
	resp, err := p.textgen.Generate(ctx, textgen.GenerateRequest{
		System: areaSystemPrompt,
		Prompt: areaPrompt(prefs, broaden),
	})
	if err != nil {
		return nil, eris.Wrap(err, "enrich: discover areas")
	}

	recs := lo.Filter(resp.Recommendations, func(r textgen.Recommendation, _ int) bool {
		return r.Category == textgen.CategoryArea
	})

	out := make([]model.AreaCandidate, len(recs))
	keep := make([]bool, len(recs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i, rec := range recs {
		g.Go(func() error {
			evidence, place := p.gather(gctx, rec, prefs.Destination, nil)
			if !p.verified(evidence) {
				zap.L().Debug("enrich: unverified area dropped", zap.String("name", rec.Name))
				return nil
			}

			area := model.AreaCandidate{
				ID:              entityID("area", rec.Name),
				Name:            rec.Name,
				CostTier:        rec.CostTier,
				CenterLon:       rec.Lon,
				CenterLat:       rec.Lat,
				VibeTags:        rec.Tags,
				Strengths:       rec.Tags,
				Evidence:        evidence,
				ConfidenceScore: p.confidenceScore(evidence),
				Generation:      gen,
			}
			if place != nil {
				area.CenterLon = place.Lon
				area.CenterLat = place.Lat
			}

			mu.Lock()
			out[i] = area
			keep[i] = true
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var areas []model.AreaCandidate
	for i := range out {
		if keep[i] {
			areas = append(areas, out[i])
		}
	}
	return areas, nil
}

func areaPrompt(prefs *model.TripPreferences, broaden bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Destination: %s\n", prefs.Destination)
	if prefs.Nights > 0 {
		fmt.Fprintf(&b, "Trip length: %d nights\n", prefs.Nights)
	}
	if len(prefs.Vibes) > 0 {
		fmt.Fprintf(&b, "Vibes: %s\n", strings.Join(prefs.Vibes, ", "))
	}
	if len(prefs.Activities) > 0 {
		names := lo.Map(prefs.Activities, func(a model.ActivityIntent, _ int) string {
			if a.MustDo {
				return a.Name + " (must do)"
			}
			return a.Name
		})
		fmt.Fprintf(&b, "Activities: %s\n", strings.Join(names, ", "))
	}
	if len(prefs.HardNos) > 0 {
		fmt.Fprintf(&b, "Avoid at all costs: %s\n", strings.Join(prefs.HardNos, ", "))
	}
	if !prefs.Budget.IsZero() {
		fmt.Fprintf(&b, "Budget: up to %.0f %s per night\n", prefs.Budget.MaxPerNight, prefs.Budget.Currency)
	}
	if broaden {
		b.WriteString("Earlier suggestions were too narrow; recommend a wider variety of sub-regions, including less obvious ones.\n")
	}
	return b.String()
}

// mergeAreas unions two passes, first occurrence of an id winning.
func mergeAreas(a, b []model.AreaCandidate) []model.AreaCandidate {
	seen := make(map[string]bool, len(a))
	out := append([]model.AreaCandidate(nil), a...)
	for _, area := range a {
		seen[area.ID] = true
	}
	for _, area := range b {
		if !seen[area.ID] {
			seen[area.ID] = true
			out = append(out, area)
		}
	}
	return out
}

// FallbackArea builds a single conservative candidate around the
// destination itself for when every discovery pass failed. Plans built on
// it are flagged low-confidence.
func FallbackArea(prefs *model.TripPreferences, gen uint64) model.AreaCandidate {
	return model.AreaCandidate{
		ID:              entityID("area", prefs.Destination),
		Name:            prefs.Destination,
		CostTier:        3,
		ConfidenceScore: 0,
		Overall:         0.5,
		Generation:      gen,
	}
}
