package tradeoff

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/wanderplan/trip-cli/internal/model"
)

// Detector evaluates the rule table against a preferences snapshot.
type Detector struct {
	rules []Rule
}

// NewDetector creates a detector; nil rules means the embedded table.
func NewDetector(rules []Rule) *Detector {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Detector{rules: rules}
}

// Detect returns active tradeoffs and hard contradictions for the given
// preferences. A rule whose type already has a recorded resolution is not
// re-raised unless the underlying conflict re-appeared after its effect
// was applied (the caller re-runs Detect after every resolution and
// preference change).
func (d *Detector) Detect(prefs *model.TripPreferences, resolutions []model.TradeoffResolution) ([]model.Tradeoff, []model.UnmetConstraint) {
	resolvedTypes := make(map[string]bool, len(resolutions))
	for _, r := range resolutions {
		resolvedTypes[r.TradeoffType] = true
	}

	var tradeoffs []model.Tradeoff
	var contradictions []model.UnmetConstraint

	for _, rule := range d.rules {
		if !d.matches(rule, prefs) {
			continue
		}

		if rule.Unresolvable {
			contradictions = append(contradictions, model.UnmetConstraint{
				Check:    rule.Type,
				Severity: model.SeverityCritical,
				Detail:   strings.TrimSpace(rule.Description),
			})
			continue
		}

		if resolvedTypes[rule.Type] {
			continue
		}

		opts := make([]model.TradeoffOption, len(rule.Options))
		for i, o := range rule.Options {
			opts[i] = model.TradeoffOption{ID: o.ID, Label: o.Label, Impact: o.Impact}
		}
		tradeoffs = append(tradeoffs, model.Tradeoff{
			ID:          uuid.NewString(),
			Type:        rule.Type,
			Description: strings.TrimSpace(rule.Description),
			Options:     opts,
			DetectedAt:  time.Now().UTC(),
		})
	}

	if len(tradeoffs) > 0 || len(contradictions) > 0 {
		zap.L().Info("tradeoff: detection pass",
			zap.Int("tradeoffs", len(tradeoffs)),
			zap.Int("contradictions", len(contradictions)),
		)
	}

	return tradeoffs, contradictions
}

// Resolve records the chosen option and applies its effect to the
// preferences. It returns the immutable resolution record; the caller
// must re-run Detect afterwards since effects can remove or surface other
// tradeoffs.
func (d *Detector) Resolve(prefs *model.TripPreferences, t model.Tradeoff, optionID string) (*model.TradeoffResolution, error) {
	var rule *Rule
	for i := range d.rules {
		if d.rules[i].Type == t.Type {
			rule = &d.rules[i]
			break
		}
	}
	if rule == nil {
		return nil, eris.Errorf("tradeoff: unknown type %s", t.Type)
	}

	var chosen *Option
	for i := range rule.Options {
		if rule.Options[i].ID == optionID {
			chosen = &rule.Options[i]
			break
		}
	}
	if chosen == nil {
		return nil, eris.Errorf("tradeoff: option %s not valid for %s", optionID, t.Type)
	}

	if chosen.Effect != nil {
		applyEffect(prefs, *chosen.Effect)
	}

	return &model.TradeoffResolution{
		TradeoffID:   t.ID,
		TradeoffType: t.Type,
		OptionID:     optionID,
		ResolvedAt:   time.Now().UTC(),
	}, nil
}

func (d *Detector) matches(rule Rule, prefs *model.TripPreferences) bool {
	for _, c := range rule.When {
		if !matchCondition(c, prefs) {
			return false
		}
	}
	return true
}

func matchCondition(c Condition, prefs *model.TripPreferences) bool {
	switch {
	case c.Intent != "":
		for _, a := range prefs.Activities {
			if containsFold(a.Name, c.Intent) {
				return true
			}
		}
		// Must-dos phrased as activities count as intents too.
		for _, m := range prefs.MustDos {
			if containsFold(m, c.Intent) {
				return true
			}
		}
		return false
	case c.Keyword != "":
		for _, v := range prefs.Vibes {
			if containsFold(v, c.Keyword) {
				return true
			}
		}
		for _, m := range prefs.MustDos {
			if containsFold(m, c.Keyword) {
				return true
			}
		}
		return false
	case c.HardNo != "":
		for _, h := range prefs.HardNos {
			if containsFold(h, c.HardNo) {
				return true
			}
		}
		return false
	case c.Flag != "":
		switch c.Flag {
		case "has_children":
			return prefs.Party.HasChildren()
		case "adults_only_hotel":
			return prefs.HotelNeeds.AdultsOnly
		case "accessible_hotel":
			return prefs.HotelNeeds.Accessible
		case "packed_pace":
			return prefs.Pace == model.PacePacked
		case "chill_pace":
			return prefs.Pace == model.PaceChill
		}
		return false
	}
	return false
}

func applyEffect(prefs *model.TripPreferences, e Effect) {
	if e.DropIntent != "" {
		var kept []model.ActivityIntent
		for _, a := range prefs.Activities {
			if !containsFold(a.Name, e.DropIntent) {
				kept = append(kept, a)
			}
		}
		prefs.Activities = kept
		prefs.MustDos = dropMatching(prefs.MustDos, e.DropIntent)
	}
	if e.DropKeyword != "" {
		prefs.Vibes = dropMatching(prefs.Vibes, e.DropKeyword)
		prefs.MustDos = dropMatching(prefs.MustDos, e.DropKeyword)
	}
	if e.MinBases > 0 && prefs.MaxBases < e.MinBases {
		prefs.MaxBases = e.MinBases
	}
}

func dropMatching(items []string, keyword string) []string {
	var kept []string
	for _, s := range items {
		if !containsFold(s, keyword) {
			kept = append(kept, s)
		}
	}
	return kept
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
