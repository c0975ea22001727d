package enrich

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/wanderplan/trip-cli/internal/geo"
	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/internal/resilience"
	"github.com/wanderplan/trip-cli/pkg/discuss"
	"github.com/wanderplan/trip-cli/pkg/places"
	"github.com/wanderplan/trip-cli/pkg/textgen"
)

// gather collects evidence for one recommended entity: a place reference
// from the place-lookup collaborator, the operator URL the generator
// supplied, and ranked discussion citations. An entity whose collected
// evidence fails the verification contract is dropped by callers.
func (p *Pipeline) gather(ctx context.Context, rec textgen.Recommendation, destination string, bias *places.LocationBias) ([]model.Evidence, *places.Place) {
	var evidence []model.Evidence

	place := p.lookupPlace(ctx, rec.Name, destination, bias)
	if place != nil {
		evidence = append(evidence, model.Evidence{
			Kind: model.EvidencePlaceRef,
			Place: &model.PlaceRef{
				PlaceID:     place.ID,
				Rating:      place.Rating,
				ReviewCount: place.ReviewCount,
				PhotoRef:    place.PhotoRef,
			},
		})
	}

	if rec.OperatorURL != "" {
		evidence = append(evidence, model.Evidence{
			Kind:        model.EvidenceOperatorURL,
			OperatorURL: rec.OperatorURL,
		})
	}

	if citations := p.lookupCitations(ctx, rec.Name, destination); len(citations) > 0 {
		evidence = append(evidence, model.Evidence{
			Kind:      model.EvidenceDiscussion,
			Citations: citations,
		})
	}

	return evidence, place
}

// lookupPlace resolves a recommendation to a stable place reference. The
// best name match wins; no match means no place evidence, not an error.
func (p *Pipeline) lookupPlace(ctx context.Context, name, destination string, bias *places.LocationBias) *places.Place {
	if err := p.pace(ctx); err != nil {
		return nil
	}

	results, err := resilience.DoVal(ctx, retryConfig("places", "search"), func(ctx context.Context) ([]places.Place, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout())
		defer cancel()
		return p.places.Search(fetchCtx, name+" "+destination, bias)
	})
	if err != nil {
		zap.L().Warn("enrich: place lookup failed",
			zap.String("name", name), zap.Error(err))
		return nil
	}

	for i := range results {
		if geo.SameArea(results[i].Name, name) {
			return &results[i]
		}
	}
	if len(results) > 0 && looselyMatches(results[0].Name, name) {
		return &results[0]
	}
	return nil
}

// lookupCitations searches travel discussion communities for posts backing
// the recommendation. Only posts above the credibility threshold count.
func (p *Pipeline) lookupCitations(ctx context.Context, name, destination string) []model.Citation {
	if err := p.pace(ctx); err != nil {
		return nil
	}

	posts, err := resilience.DoVal(ctx, retryConfig("discuss", "search"), func(ctx context.Context) ([]discuss.Post, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout())
		defer cancel()
		return p.discuss.Search(fetchCtx, name+" "+destination, p.communities)
	})
	if err != nil {
		zap.L().Warn("enrich: discussion search failed",
			zap.String("name", name), zap.Error(err))
		return nil
	}

	var citations []model.Citation
	for _, post := range posts {
		if !strings.Contains(geo.NormalizeName(post.Title+" "+post.Body), geo.NormalizeName(name)) {
			continue
		}
		citations = append(citations, model.Citation{
			Source:  post.Community,
			URL:     post.URL,
			Score:   normalizeScore(post.Score),
			Excerpt: excerpt(post),
		})
		if len(citations) >= 5 {
			break
		}
	}
	return citations
}

// verified applies the verification contract to a candidate's evidence.
func (p *Pipeline) verified(evidence []model.Evidence) bool {
	return model.Verified(evidence, p.evidence.MinCitations, p.evidence.CredibilityThreshold)
}

// confidenceScore grades evidence richness: each distinct verifying kind
// adds a third.
func (p *Pipeline) confidenceScore(evidence []model.Evidence) float64 {
	kinds := lo.UniqBy(
		lo.Filter(evidence, func(e model.Evidence, _ int) bool {
			return e.Verifies(p.evidence.MinCitations, p.evidence.CredibilityThreshold)
		}),
		func(e model.Evidence) model.EvidenceKind { return e.Kind },
	)
	score := float64(len(kinds)) / 3.0
	if score > 1 {
		score = 1
	}
	return score
}

// relevanceFor grades a recommendation against stated activity intents.
// Matching a must-do outranks matching a nice-to-have outranks no match.
func relevanceFor(prefs *model.TripPreferences, name string, tags []string) float64 {
	haystack := geo.NormalizeName(name + " " + strings.Join(tags, " "))
	best := 0.3
	for _, intent := range prefs.Activities {
		if !strings.Contains(haystack, geo.NormalizeName(intent.Name)) {
			continue
		}
		if intent.MustDo {
			return 0.95
		}
		if best < 0.7 {
			best = 0.7
		}
	}
	return best
}

// effortFromTags maps activity tags to the scheduler's effort costs.
func (p *Pipeline) effortFromTags(tags []string) float64 {
	for _, tag := range tags {
		switch strings.ToLower(tag) {
		case "full_day", "full-day":
			return p.schedule.FullDayCost
		case "beach", "beach_day":
			return p.schedule.BeachDayCost
		}
	}
	return p.schedule.HalfDayCost
}

// normalizeScore squashes a raw forum score into [0,1]. Scores of 50 and
// above saturate at full credibility.
func normalizeScore(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	s := raw / 50.0
	if s > 1 {
		s = 1
	}
	return s
}

func excerpt(post discuss.Post) string {
	text := post.Body
	if text == "" {
		text = post.Title
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

// looselyMatches accepts a provider name that contains, or is contained
// in, the recommended name after folding.
func looselyMatches(a, b string) bool {
	na, nb := geo.NormalizeName(a), geo.NormalizeName(b)
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

func retryConfig(collaborator, operation string) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger(collaborator, operation)
	return cfg
}
