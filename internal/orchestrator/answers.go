package orchestrator

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/wanderplan/trip-cli/internal/model"
)

// errUnusable marks input that could not be interpreted for the asked
// field; the orchestrator re-asks with a narrowed prompt, bounded by the
// retry budget.
var errUnusable = eris.New("orchestrator: unusable answer")

// applyAnswer interprets free-text input for one field and updates the
// preference record at confirmed confidence. It returns errUnusable when
// the text cannot be interpreted.
func applyAnswer(prefs *model.TripPreferences, field model.FieldKey, text string) error {
	text = strings.TrimSpace(text)

	switch field {
	case model.FieldDestination:
		if text == "" {
			return errUnusable
		}
		prefs.Destination = text

	case model.FieldDates:
		start, nights, err := parseDates(text)
		if err != nil {
			return err
		}
		prefs.StartDate = start
		prefs.Nights = nights

	case model.FieldParty:
		party, err := parseParty(text)
		if err != nil {
			return err
		}
		prefs.Party = party

	case model.FieldBudget:
		band, err := parseBudget(text)
		if err != nil {
			return err
		}
		prefs.Budget = band

	case model.FieldVibe:
		if text == "" {
			return errUnusable
		}
		prefs.Vibes = splitList(text)

	case model.FieldHardNos:
		// "none" is a usable answer meaning no hard nos.
		if isNone(text) {
			prefs.HardNos = nil
		} else if text == "" {
			return errUnusable
		} else {
			prefs.HardNos = splitList(text)
		}

	case model.FieldActivities:
		if isNone(text) {
			prefs.Activities = nil
			break
		}
		acts := parseActivities(text)
		if len(acts) == 0 {
			return errUnusable
		}
		prefs.Activities = acts
		prefs.MustDos = nil
		for _, a := range acts {
			if a.MustDo {
				prefs.MustDos = append(prefs.MustDos, a.Name)
			}
		}

	case model.FieldIntensity:
		if err := parseIntensities(prefs, text); err != nil {
			return err
		}

	case model.FieldHotelNeeds:
		applyHotelNeeds(prefs, text)

	case model.FieldDiningMode:
		switch strings.ToLower(text) {
		case "none":
			prefs.DiningMode = model.DiningNone
		case "casual":
			prefs.DiningMode = model.DiningCasual
		case "reserved":
			prefs.DiningMode = model.DiningReserved
		default:
			return errUnusable
		}

	case model.FieldPace:
		switch strings.ToLower(text) {
		case "chill":
			prefs.Pace = model.PaceChill
		case "balanced":
			prefs.Pace = model.PaceBalanced
		case "packed":
			prefs.Pace = model.PacePacked
		default:
			return errUnusable
		}

	case model.FieldReviewedPrefs:
		if !isAffirmative(text) {
			return errUnusable
		}

	default:
		return errUnusable
	}

	prefs.Confidence[field] = model.ConfidenceConfirmed
	return nil
}

// inferDefault fills a field with a conservative default at inferred
// confidence after the retry budget is exhausted. Not every field can be
// inferred; those keep asking.
func inferDefault(prefs *model.TripPreferences, field model.FieldKey) bool {
	switch field {
	case model.FieldParty:
		prefs.Party = model.Party{Adults: 2}
	case model.FieldBudget:
		prefs.Budget = model.BudgetBand{MaxPerNight: 150, Currency: "USD"}
	case model.FieldVibe:
		prefs.Vibes = nil
	case model.FieldHardNos:
		prefs.HardNos = nil
	case model.FieldIntensity:
		for i := range prefs.Activities {
			if prefs.Activities[i].Intensity == 0 {
				prefs.Activities[i].Intensity = 0.5
			}
		}
	case model.FieldHotelNeeds:
		prefs.HotelNeeds = model.HotelNeeds{}
	case model.FieldDiningMode:
		prefs.DiningMode = model.DiningCasual
	case model.FieldPace:
		prefs.Pace = model.PaceBalanced
	default:
		return false
	}
	prefs.Confidence[field] = model.ConfidenceInferred
	return true
}

func parseDates(text string) (*time.Time, int, error) {
	var start *time.Time
	nights := 0
	for _, tok := range strings.Fields(strings.ReplaceAll(text, ",", " ")) {
		if t, err := time.Parse("2006-01-02", tok); err == nil {
			start = &t
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSuffix(tok, "n")); err == nil && n > 0 {
			nights = n
		}
	}
	if nights == 0 {
		return nil, 0, errUnusable
	}
	return start, nights, nil
}

func parseParty(text string) (model.Party, error) {
	var party model.Party
	toks := strings.Fields(strings.ToLower(strings.ReplaceAll(text, ",", " ")))
	var nums []int
	agesNext := false
	for _, tok := range toks {
		n, err := strconv.Atoi(tok)
		if err != nil {
			if strings.HasPrefix(tok, "age") {
				agesNext = true
			}
			continue
		}
		if agesNext {
			party.ChildAges = append(party.ChildAges, n)
			continue
		}
		nums = append(nums, n)
	}
	if len(nums) == 0 {
		return party, errUnusable
	}
	party.Adults = nums[0]
	if len(nums) > 1 {
		party.Children = nums[1]
	}
	if party.Adults < 1 {
		return party, errUnusable
	}
	return party, nil
}

func parseBudget(text string) (model.BudgetBand, error) {
	band := model.BudgetBand{Currency: "USD"}
	fields := strings.Fields(text)
	for _, tok := range fields {
		if len(tok) == 3 && tok[0] >= 'A' && tok[0] <= 'Z' && strings.ToUpper(tok) == tok {
			band.Currency = tok
			continue
		}
		if lo, hi, ok := strings.Cut(tok, "-"); ok {
			min, err1 := strconv.ParseFloat(lo, 64)
			max, err2 := strconv.ParseFloat(hi, 64)
			if err1 == nil && err2 == nil && max >= min {
				band.MinPerNight, band.MaxPerNight = min, max
			}
			continue
		}
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			band.MaxPerNight = v
		}
	}
	if band.MaxPerNight <= 0 {
		return band, errUnusable
	}
	return band, nil
}

func parseActivities(text string) []model.ActivityIntent {
	var out []model.ActivityIntent
	for _, item := range splitList(text) {
		mustDo := strings.HasSuffix(item, "!")
		name := strings.TrimSpace(strings.TrimSuffix(item, "!"))
		if name == "" {
			continue
		}
		out = append(out, model.ActivityIntent{Name: name, MustDo: mustDo})
	}
	return out
}

func parseIntensities(prefs *model.TripPreferences, text string) error {
	// A bare number applies to every activity.
	if v, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
		if v < 0 || v > 1 {
			return errUnusable
		}
		for i := range prefs.Activities {
			prefs.Activities[i].Intensity = v
		}
		return nil
	}

	applied := false
	for _, pair := range splitList(text) {
		name, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || v < 0 || v > 1 {
			return errUnusable
		}
		for i := range prefs.Activities {
			if strings.EqualFold(prefs.Activities[i].Name, strings.TrimSpace(name)) {
				prefs.Activities[i].Intensity = v
				applied = true
			}
		}
	}
	if !applied {
		return errUnusable
	}
	return nil
}

func applyHotelNeeds(prefs *model.TripPreferences, text string) {
	lower := strings.ToLower(text)
	prefs.HotelNeeds = model.HotelNeeds{
		AdultsOnly:    strings.Contains(lower, "adults-only") || strings.Contains(lower, "adults only"),
		Accessible:    strings.Contains(lower, "accessible"),
		PoolRequired:  strings.Contains(lower, "pool"),
		KitchenNeeded: strings.Contains(lower, "kitchen"),
	}
}

func splitList(text string) []string {
	var out []string
	for _, item := range strings.Split(text, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func isNone(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "none", "no", "nothing", "nope":
		return true
	}
	return false
}

func isAffirmative(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y", "ok", "sure", "yep", "lock it in", "looks good":
		return true
	}
	return false
}
