package quality

import (
	"fmt"
	"strings"

	"github.com/wanderplan/trip-cli/internal/config"
	"github.com/wanderplan/trip-cli/internal/model"
)

// Checker runs the quality battery over a built itinerary. Results are
// derived, never hand-edited: every call recomputes the full battery from
// the current plan.
type Checker struct {
	schedule config.ScheduleConfig
	evidence config.EvidenceConfig
}

// NewChecker creates a checker with the scheduling and evidence tunables.
func NewChecker(schedule config.ScheduleConfig, evidence config.EvidenceConfig) *Checker {
	return &Checker{schedule: schedule, evidence: evidence}
}

// Input is the snapshot slice the battery reads. Entities are the session
// arenas; the itinerary references them by id.
type Input struct {
	Prefs       *model.TripPreferences
	Itinerary   *model.QuickPlanItinerary
	Areas       map[string]model.AreaCandidate
	Hotels      map[string]model.HotelCandidate
	Restaurants map[string]model.RestaurantCandidate
	Activities  map[string]model.ActivityCandidate
}

// Check runs every quality check and returns the aggregate result. The
// plan passes when no critical constraint is unmet; warnings ride along.
func (c *Checker) Check(in Input) model.QualityCheckResult {
	var constraints []model.UnmetConstraint

	constraints = append(constraints, c.checkMustDosPlaced(in)...)
	constraints = append(constraints, c.checkHardNos(in)...)
	constraints = append(constraints, c.checkEvidence(in)...)
	constraints = append(constraints, c.checkBudget(in)...)
	constraints = append(constraints, c.checkHotelNeeds(in)...)
	constraints = append(constraints, c.checkEffortBudget(in)...)

	result := model.QualityCheckResult{Constraints: constraints}
	result.Passed = len(result.Criticals()) == 0
	return result
}

// checkMustDosPlaced verifies every must-do intent appears somewhere in
// the itinerary.
func (c *Checker) checkMustDosPlaced(in Input) []model.UnmetConstraint {
	if in.Itinerary == nil {
		return nil
	}
	placed := make(map[string]bool)
	for _, day := range in.Itinerary.Days {
		for _, b := range day.Blocks {
			if b.Kind != model.BlockActivity {
				continue
			}
			if act, ok := in.Activities[b.EntityID]; ok && act.Intent != "" {
				placed[act.Intent] = true
			}
		}
	}

	var out []model.UnmetConstraint
	for _, intent := range in.Prefs.MustDoActivities() {
		if !placed[intent.Name] {
			out = append(out, model.UnmetConstraint{
				Check:    "must_do_placed",
				Severity: model.SeverityCritical,
				Detail:   "must-do missing from the plan: " + intent.Name,
			})
		}
	}
	return out
}

// checkHardNos verifies nothing the plan presents collides with a ruled
// out item: not the areas days sit in, nor placed activities and meals,
// nor the selected hotels.
func (c *Checker) checkHardNos(in Input) []model.UnmetConstraint {
	if in.Itinerary == nil || len(in.Prefs.HardNos) == 0 {
		return nil
	}
	var out []model.UnmetConstraint
	flagged := make(map[string]bool)

	flag := func(id, detail string, dayIndex int) {
		if id == "" || flagged[id] {
			return
		}
		flagged[id] = true
		out = append(out, model.UnmetConstraint{
			Check:    "hard_no_respected",
			Severity: model.SeverityCritical,
			Detail:   detail,
			EntityID: id,
			DayIndex: dayIndex,
		})
	}

	for _, day := range in.Itinerary.Days {
		if area, ok := in.Areas[day.AreaID]; ok {
			for _, no := range in.Prefs.HardNos {
				if containsFold(area.NotIdealFor, no) || containsFold(area.VibeTags, no) {
					flag(area.ID, fmt.Sprintf("area %s conflicts with hard no %q", area.Name, no), day.Index)
					break
				}
			}
		}
		for _, b := range day.Blocks {
			switch b.Kind {
			case model.BlockActivity:
				if act, ok := in.Activities[b.EntityID]; ok {
					for _, no := range in.Prefs.HardNos {
						if mentionsNo(no, act.Name, act.Intent) {
							flag(act.ID, fmt.Sprintf("activity %s conflicts with hard no %q", act.Name, no), day.Index)
							break
						}
					}
				}
			case model.BlockMeal:
				if r, ok := in.Restaurants[b.EntityID]; ok {
					for _, no := range in.Prefs.HardNos {
						if mentionsNo(no, r.Name, r.Cuisine) {
							flag(r.ID, fmt.Sprintf("restaurant %s conflicts with hard no %q", r.Name, no), day.Index)
							break
						}
					}
				}
			}
		}
	}
	for _, hotelID := range in.Prefs.SelectedHotels {
		h, ok := in.Hotels[hotelID]
		if !ok {
			continue
		}
		for _, no := range in.Prefs.HardNos {
			if mentionsNo(no, h.Name) {
				flag(h.ID, fmt.Sprintf("hotel %s conflicts with hard no %q", h.Name, no), 0)
				break
			}
		}
	}
	return out
}

// mentionsNo reports whether any field mentions the ruled-out item.
func mentionsNo(no string, fields ...string) bool {
	no = strings.ToLower(no)
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), no) {
			return true
		}
	}
	return false
}

// checkEvidence verifies every entity the plan presents satisfies the
// verification contract.
func (c *Checker) checkEvidence(in Input) []model.UnmetConstraint {
	if in.Itinerary == nil {
		return nil
	}
	var out []model.UnmetConstraint
	seen := make(map[string]bool)

	verify := func(id, name string, evidence []model.Evidence, dayIndex int) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		if !model.Verified(evidence, c.evidence.MinCitations, c.evidence.CredibilityThreshold) {
			out = append(out, model.UnmetConstraint{
				Check:    "evidence_verified",
				Severity: model.SeverityCritical,
				Detail:   "unverified entity in plan: " + name,
				EntityID: id,
				DayIndex: dayIndex,
			})
		}
	}

	for _, day := range in.Itinerary.Days {
		for _, b := range day.Blocks {
			switch b.Kind {
			case model.BlockActivity:
				if act, ok := in.Activities[b.EntityID]; ok {
					verify(act.ID, act.Name, act.Evidence, day.Index)
				}
			case model.BlockMeal:
				if r, ok := in.Restaurants[b.EntityID]; ok {
					verify(r.ID, r.Name, r.Evidence, day.Index)
				}
			}
		}
	}
	for _, hotelID := range in.Prefs.SelectedHotels {
		if h, ok := in.Hotels[hotelID]; ok {
			verify(h.ID, h.Name, h.Evidence, 0)
		}
	}
	return out
}

// checkBudget compares selected hotel prices to the stated band. Unknown
// prices warn rather than block; a missing price is never treated as zero.
func (c *Checker) checkBudget(in Input) []model.UnmetConstraint {
	if in.Prefs.Budget.IsZero() {
		return nil
	}
	var out []model.UnmetConstraint
	for _, hotelID := range in.Prefs.SelectedHotels {
		h, ok := in.Hotels[hotelID]
		if !ok {
			continue
		}
		if h.PricePerNight == nil {
			out = append(out, model.UnmetConstraint{
				Check:    "budget_respected",
				Severity: model.SeverityWarning,
				Detail:   "no confirmed price for " + h.Name,
				EntityID: h.ID,
			})
			continue
		}
		if *h.PricePerNight > in.Prefs.Budget.MaxPerNight {
			out = append(out, model.UnmetConstraint{
				Check:    "budget_respected",
				Severity: model.SeverityWarning,
				Detail: fmt.Sprintf("%s is %.0f/night, above the %.0f %s cap",
					h.Name, *h.PricePerNight, in.Prefs.Budget.MaxPerNight, in.Prefs.Budget.Currency),
				EntityID: h.ID,
			})
		}
	}
	return out
}

// checkHotelNeeds verifies hard hotel-side constraints on every selected
// hotel, including the unresolvable adults-only-with-children conflict.
func (c *Checker) checkHotelNeeds(in Input) []model.UnmetConstraint {
	var out []model.UnmetConstraint
	for _, hotelID := range in.Prefs.SelectedHotels {
		h, ok := in.Hotels[hotelID]
		if !ok {
			continue
		}
		if in.Prefs.HotelNeeds.AdultsOnly && !h.AdultsOnly {
			out = append(out, model.UnmetConstraint{
				Check:    "hotel_needs",
				Severity: model.SeverityCritical,
				Detail:   h.Name + " is not adults-only",
				EntityID: h.ID,
			})
		}
		if h.AdultsOnly && in.Prefs.Party.HasChildren() {
			out = append(out, model.UnmetConstraint{
				Check:    "hotel_needs",
				Severity: model.SeverityCritical,
				Detail:   h.Name + " is adults-only but the party includes children",
				EntityID: h.ID,
			})
		}
		if in.Prefs.HotelNeeds.Accessible && !h.Accessible {
			out = append(out, model.UnmetConstraint{
				Check:    "hotel_needs",
				Severity: model.SeverityCritical,
				Detail:   h.Name + " has no confirmed accessibility",
				EntityID: h.ID,
			})
		}
	}
	return out
}

// checkEffortBudget verifies no day exceeds the pace's effort ceiling.
func (c *Checker) checkEffortBudget(in Input) []model.UnmetConstraint {
	if in.Itinerary == nil {
		return nil
	}
	budget := c.schedule.BalancedBudget
	switch in.Prefs.Pace {
	case model.PaceChill:
		budget = c.schedule.ChillBudget
	case model.PacePacked:
		budget = c.schedule.PackedBudget
	}

	var out []model.UnmetConstraint
	for _, day := range in.Itinerary.Days {
		if spent := day.EffortTotal(); spent > budget {
			out = append(out, model.UnmetConstraint{
				Check:    "effort_budget",
				Severity: model.SeverityCritical,
				Detail:   fmt.Sprintf("day %d spends %.1f effort against a budget of %.1f", day.Index, spent, budget),
				DayIndex: day.Index,
			})
		}
	}
	return out
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
