package scheduler

import (
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/wanderplan/trip-cli/internal/config"
	"github.com/wanderplan/trip-cli/internal/model"
)

// Scheduler places activities, meals, transit, and rest into day-shaped
// blocks under a per-day effort ceiling. Build is a pure function over
// its inputs; regeneration replaces the itinerary wholesale.
type Scheduler struct {
	cfg config.ScheduleConfig
}

// New creates a scheduler with the given effort tunables.
func New(cfg config.ScheduleConfig) *Scheduler {
	return &Scheduler{cfg: cfg}
}

// Budget maps a pace to its daily effort budget.
func (s *Scheduler) Budget(p model.Pace) float64 {
	switch p {
	case model.PaceChill:
		return s.cfg.ChillBudget
	case model.PacePacked:
		return s.cfg.PackedBudget
	default:
		return s.cfg.BalancedBudget
	}
}

// dayState tracks placement progress for one day during Build.
type dayState struct {
	day       model.QuickPlanDay
	remaining float64
	slots     []model.DaySlot
}

func (d *dayState) place(slot model.DaySlot, block model.DayBlock) {
	block.Slot = slot
	d.day.Blocks = append(d.day.Blocks, block)
	d.remaining -= block.EffortCost
	d.slots = lo.Without(d.slots, slot)
}

func (d *dayState) freeSlot() (model.DaySlot, bool) {
	if len(d.slots) == 0 {
		return "", false
	}
	return d.slots[0], true
}

// Build generates the day-by-day itinerary for a chosen split. Fixed
// obligations (inter-base transit, scheduled meals) consume budget first,
// then must-do activities in priority order, then nice-to-haves by
// relevance. Must-dos that cannot fit anywhere in the trip come back as
// critical unmet constraints instead of being dropped silently.
func (s *Scheduler) Build(
	prefs *model.TripPreferences,
	split model.ItinerarySplit,
	activities []model.ActivityCandidate,
	restaurants []model.RestaurantCandidate,
) (*model.QuickPlanItinerary, []model.UnmetConstraint) {
	budget := s.Budget(prefs.Pace)
	totalDays := split.TotalNights()
	if totalDays == 0 {
		return &model.QuickPlanItinerary{SplitID: split.ID}, nil
	}

	days := make([]*dayState, totalDays)
	for i := range days {
		days[i] = &dayState{
			day: model.QuickPlanDay{
				Index:  i,
				AreaID: areaForDay(split, i),
			},
			remaining: budget,
			slots:     []model.DaySlot{model.SlotMorning, model.SlotAfternoon, model.SlotEvening},
		}
		if prefs.StartDate != nil {
			d := prefs.StartDate.AddDate(0, 0, i)
			days[i].day.Date = &d
		}
	}

	// Fixed obligations: inter-base transit pre-consumes effort at every
	// stop boundary.
	for stopIdx := 1; stopIdx < len(split.Stops); stopIdx++ {
		arrival := split.Stops[stopIdx].ArrivalDay
		if arrival >= totalDays {
			continue
		}
		ds := days[arrival]
		ds.day.TransitDay = true
		ds.day.TransitFrom = split.Stops[stopIdx-1].AreaID
		ds.day.TransitTo = split.Stops[stopIdx].AreaID
		ds.place(model.SlotMorning, model.DayBlock{
			Kind:       model.BlockTransit,
			Title:      "Transfer between bases",
			EffortCost: s.cfg.TransitCost,
		})
	}

	// Fixed obligations: dinner blocks when dining mode schedules meals.
	dining := model.DiningPlan{ByDay: make(map[int][]string)}
	if prefs.DiningMode == model.DiningReserved {
		byArea := lo.GroupBy(restaurants, func(r model.RestaurantCandidate) string { return r.AreaID })
		for _, ds := range days {
			if ds.remaining < s.cfg.DinnerCost {
				continue
			}
			block := model.DayBlock{
				Kind:       model.BlockMeal,
				Title:      "Dinner",
				EffortCost: s.cfg.DinnerCost,
			}
			if picks := byArea[ds.day.AreaID]; len(picks) > 0 {
				r := picks[ds.day.Index%len(picks)]
				block.Title = "Dinner at " + r.Name
				block.EntityID = r.ID
				dining.ByDay[ds.day.Index] = append(dining.ByDay[ds.day.Index], r.ID)
			}
			ds.place(model.SlotEvening, block)
		}
	}

	// Must-dos in priority order, then nice-to-haves by relevance.
	mustDos := sortActivities(lo.Filter(activities, func(a model.ActivityCandidate, _ int) bool { return a.MustDo }))
	niceToHaves := sortActivities(lo.Filter(activities, func(a model.ActivityCandidate, _ int) bool { return !a.MustDo }))

	var unmet []model.UnmetConstraint
	for _, act := range mustDos {
		if !placeActivity(days, act) {
			unmet = append(unmet, model.UnmetConstraint{
				Check:    "must_do_placed",
				Severity: model.SeverityCritical,
				Detail:   "must-do does not fit the trip's effort budget: " + act.Name,
				EntityID: act.ID,
			})
		}
	}
	for _, act := range niceToHaves {
		placeActivity(days, act)
	}

	// Days left with no slack after fixed obligations are rest days, as
	// are days where nothing was placed.
	out := &model.QuickPlanItinerary{
		SplitID: split.ID,
		Dining:  dining,
		Days:    make([]model.QuickPlanDay, totalDays),
	}
	for i, ds := range days {
		hasActivity := lo.SomeBy(ds.day.Blocks, func(b model.DayBlock) bool {
			return b.Kind == model.BlockActivity
		})
		if !hasActivity && !ds.day.TransitDay {
			ds.day.RestDay = true
			if slot, ok := ds.freeSlot(); ok {
				ds.place(slot, model.DayBlock{Kind: model.BlockRest, Title: "Free day", EffortCost: 0})
			}
		}
		ds.day.EffortSpent = ds.day.EffortTotal()
		out.Days[i] = ds.day
	}

	zap.L().Info("scheduler: itinerary built",
		zap.String("split", split.ID),
		zap.Int("days", totalDays),
		zap.Int("unmet_must_dos", len(unmet)),
	)

	return out, unmet
}

// placeActivity puts the activity on the first day in its area with
// enough remaining budget and a free slot. Activities without an area
// can land anywhere.
func placeActivity(days []*dayState, act model.ActivityCandidate) bool {
	for _, ds := range days {
		if act.AreaID != "" && ds.day.AreaID != act.AreaID {
			continue
		}
		if ds.remaining < act.EffortCost {
			continue
		}
		slot, ok := ds.freeSlot()
		if !ok {
			continue
		}
		ds.place(slot, model.DayBlock{
			Kind:       model.BlockActivity,
			Title:      act.Name,
			EntityID:   act.ID,
			EffortCost: act.EffortCost,
		})
		return true
	}
	return false
}

func sortActivities(acts []model.ActivityCandidate) []model.ActivityCandidate {
	sorted := append([]model.ActivityCandidate(nil), acts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Relevance > sorted[j].Relevance })
	return sorted
}

// areaForDay maps a day index to the base area it belongs to.
func areaForDay(split model.ItinerarySplit, day int) string {
	for _, stop := range split.Stops {
		if day >= stop.ArrivalDay && day < stop.DepartureDay {
			return stop.AreaID
		}
	}
	if len(split.Stops) > 0 {
		return split.Stops[len(split.Stops)-1].AreaID
	}
	return ""
}
