package scorer

import (
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/wanderplan/trip-cli/internal/config"
	"github.com/wanderplan/trip-cli/internal/model"
)

// Scorer computes area fit scores and generates itinerary splits. All
// methods are pure over their inputs; the scorer holds only tunable
// weights.
type Scorer struct {
	cfg config.ScoringConfig
}

// New creates a scorer with the given weights.
func New(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// ScoreArea fills the fit sub-scores and overall score of a discovered
// area against the traveler's preferences. A hard-no match zeroes the
// area regardless of other scores. The input candidate is not mutated; a
// scored copy is returned.
func (s *Scorer) ScoreArea(area model.AreaCandidate, prefs *model.TripPreferences) model.AreaCandidate {
	scored := area

	scored.ActivityFit = s.activityFit(area, prefs)
	scored.VibeFit = s.vibeFit(area, prefs)
	scored.BudgetFit = s.budgetFit(area, prefs)

	scored.BestFor = bestForTags(area, prefs)

	if hardNoHits := hardNoMatches(area, prefs); len(hardNoHits) > 0 {
		scored.NotIdealFor = hardNoHits
		scored.Overall = 0
		return scored
	}

	scored.Overall = s.cfg.ActivityWeight*scored.ActivityFit +
		s.cfg.VibeWeight*scored.VibeFit +
		s.cfg.BudgetWeight*scored.BudgetFit

	return scored
}

// activityFit measures overlap between the area's tagged strengths and
// the selected activity intents, weighting must-dos heavier.
func (s *Scorer) activityFit(area model.AreaCandidate, prefs *model.TripPreferences) float64 {
	if len(prefs.Activities) == 0 {
		return 0.5 // neutral when no activities selected
	}

	totalWeight := 0.0
	matched := 0.0
	for _, intent := range prefs.Activities {
		w := s.cfg.NiceToHaveWeight
		if intent.MustDo {
			w = s.cfg.MustDoWeight
		}
		totalWeight += w
		if tagsMatch(area.Strengths, intent.Name) {
			matched += w
		}
	}
	if totalWeight == 0 {
		return 0.5
	}
	return matched / totalWeight
}

// vibeFit measures overlap between the area's vibe tags and stated vibes
// plus must-dos.
func (s *Scorer) vibeFit(area model.AreaCandidate, prefs *model.TripPreferences) float64 {
	wants := append(append([]string{}, prefs.Vibes...), prefs.MustDos...)
	if len(wants) == 0 {
		return 0.5
	}
	tags := append(append([]string{}, area.VibeTags...), area.Strengths...)
	matched := lo.CountBy(wants, func(w string) bool {
		return tagsMatch(tags, w)
	})
	return float64(matched) / float64(len(wants))
}

// budgetFit measures closeness of the area's typical cost tier to the
// stated per-night budget band.
func (s *Scorer) budgetFit(area model.AreaCandidate, prefs *model.TripPreferences) float64 {
	if prefs.Budget.IsZero() || area.CostTier == 0 {
		return 0.5
	}
	want := budgetTier(prefs.Budget)
	diff := math.Abs(float64(area.CostTier - want))
	return math.Max(0, 1-diff/4)
}

// budgetTier maps a per-night budget band to a 1-5 cost tier.
func budgetTier(b model.BudgetBand) int {
	max := b.MaxPerNight
	if max == 0 {
		max = b.MinPerNight
	}
	switch {
	case max < 75:
		return 1
	case max < 150:
		return 2
	case max < 250:
		return 3
	case max < 400:
		return 4
	default:
		return 5
	}
}

func bestForTags(area model.AreaCandidate, prefs *model.TripPreferences) []string {
	var out []string
	for _, intent := range prefs.Activities {
		if tagsMatch(area.Strengths, intent.Name) {
			out = append(out, intent.Name)
		}
	}
	for _, v := range prefs.Vibes {
		if tagsMatch(area.VibeTags, v) {
			out = append(out, v)
		}
	}
	return lo.Uniq(out)
}

func hardNoMatches(area model.AreaCandidate, prefs *model.TripPreferences) []string {
	tags := append(append([]string{}, area.VibeTags...), area.Strengths...)
	return lo.Filter(prefs.HardNos, func(h string, _ int) bool {
		return tagsMatch(tags, h)
	})
}

// tagsMatch reports whether any tag and the want share a substring in
// either direction, case-insensitively.
func tagsMatch(tags []string, want string) bool {
	w := strings.ToLower(want)
	for _, tag := range tags {
		t := strings.ToLower(tag)
		if strings.Contains(t, w) || strings.Contains(w, t) {
			return true
		}
	}
	return false
}
