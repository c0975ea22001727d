package orchestrator

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/wanderplan/trip-cli/internal/config"
	"github.com/wanderplan/trip-cli/internal/enrich"
	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/internal/quality"
	"github.com/wanderplan/trip-cli/internal/scheduler"
	"github.com/wanderplan/trip-cli/internal/scorer"
	"github.com/wanderplan/trip-cli/internal/session"
	"github.com/wanderplan/trip-cli/internal/tradeoff"
)

// Enricher is the slice of the enrichment pipeline the orchestrator
// drives. *enrich.Pipeline satisfies it.
type Enricher interface {
	DiscoverAreas(ctx context.Context, prefs *model.TripPreferences, gen uint64) ([]model.AreaCandidate, error)
	EnrichStay(ctx context.Context, prefs *model.TripPreferences, areas []model.AreaCandidate, gen uint64) (*enrich.StayResult, error)
	EnrichHotels(ctx context.Context, prefs *model.TripPreferences, areas []model.AreaCandidate, gen uint64) (*enrich.StayResult, error)
	PriceHotels(ctx context.Context, hotels []model.HotelCandidate, checkIn time.Time, nights int) []model.HotelCandidate
}

// Input is one turn of user input. Free-text answers arrive in Text; the
// rendering layer translates numbered picks into entity ids before
// calling Step. Field is set only to revise an earlier answer.
type Input struct {
	Text      string
	Field     model.FieldKey
	OptionID  string
	EntityIDs []string
	Verdict   model.SatisfactionVerdict
	Issues    []model.IssueCategory
}

// Orchestrator owns the conversation state machine. It is the single
// writer of session state: every mutation flows through the session
// commit funnel, and all other components operate on snapshots.
type Orchestrator struct {
	sess     *session.Session
	enricher Enricher
	scorer   *scorer.Scorer
	sched    *scheduler.Scheduler
	detector *tradeoff.Detector
	checker  *quality.Checker

	maxRetries int
}

// New wires an orchestrator over a session.
func New(
	sess *session.Session,
	enricher Enricher,
	sc *scorer.Scorer,
	sched *scheduler.Scheduler,
	detector *tradeoff.Detector,
	checker *quality.Checker,
	questions config.QuestionsConfig,
) *Orchestrator {
	retries := questions.MaxRetries
	if retries <= 0 {
		retries = 2
	}
	return &Orchestrator{
		sess:       sess,
		enricher:   enricher,
		scorer:     sc,
		sched:      sched,
		detector:   detector,
		checker:    checker,
		maxRetries: retries,
	}
}

// Session exposes the underlying session for persistence.
func (o *Orchestrator) Session() *session.Session {
	return o.sess
}

// Start returns the opening card for a new or resumed session.
func (o *Orchestrator) Start(ctx context.Context) (*model.ReplyCard, error) {
	return o.advance(ctx)
}

// Step consumes one turn of input and returns the next card.
func (o *Orchestrator) Step(ctx context.Context, in Input) (*model.ReplyCard, error) {
	if in.Field != "" {
		return o.revise(ctx, in)
	}

	data := o.sess.Snapshot()
	switch data.State {
	case model.StateTradeoffsResolution:
		return o.handleTradeoff(ctx, in)
	case model.StateAreaSplitSelection:
		return o.handleSplitPick(ctx, in)
	case model.StateHotelsShortlist:
		if data.Prefs.ConfidenceOf(model.FieldHotelNeeds).Settled() {
			return o.handleHotelPick(ctx, in)
		}
		return o.handleAnswer(ctx, in)
	case model.StateDiningShortlist:
		return o.handleDiningPicks(ctx, in)
	case model.StateFinalReview:
		return o.handleFinalReview(ctx, in)
	case model.StateSatisfactionGate:
		return o.handleSatisfaction(ctx, in)
	case model.StateDone:
		return o.doneCard(), nil
	default:
		return o.handleAnswer(ctx, in)
	}
}

// handleAnswer applies free-text input to the pending question field,
// bounded by the retry budget: after maxRetries unusable answers a field
// with an inferable default proceeds at inferred confidence.
func (o *Orchestrator) handleAnswer(ctx context.Context, in Input) (*model.ReplyCard, error) {
	var retryCard *model.ReplyCard
	err := o.sess.Commit(func(d *session.Data) error {
		field := d.Pending
		if field == "" {
			f, ok := nextQuestion(d.State, d.Prefs)
			if !ok {
				return nil
			}
			field = f
		}

		if err := applyAnswer(d.Prefs, field, in.Text); err != nil {
			d.Attempts[field]++
			if d.Attempts[field] > o.maxRetries && inferDefault(d.Prefs, field) {
				zap.L().Info("orchestrator: falling back to inferred default",
					zap.String("field", string(field)), zap.Int("attempts", d.Attempts[field]))
				delete(d.Attempts, field)
				d.Pending = ""
				o.afterAnswer(d, field)
				return nil
			}
			d.Pending = field
			retryCard = questionCard(field, true, d.Attempts[field])
			return nil
		}

		delete(d.Attempts, field)
		d.Pending = ""
		o.afterAnswer(d, field)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if retryCard != nil {
		return retryCard, nil
	}
	return o.advance(ctx)
}

// afterAnswer re-runs tradeoff detection when a field that feeds the rule
// table changed. Detection is re-evaluated, never patched.
func (o *Orchestrator) afterAnswer(d *session.Data, field model.FieldKey) {
	switch field {
	case model.FieldVibe, model.FieldHardNos, model.FieldActivities,
		model.FieldIntensity, model.FieldParty, model.FieldHotelNeeds, model.FieldPace:
		o.refreshTradeoffs(d)
	}
}

// refreshTradeoffs replaces unresolved tradeoffs with a fresh detection
// pass. Resolved records stay for the audit trail.
func (o *Orchestrator) refreshTradeoffs(d *session.Data) {
	detected, contradictions := o.detector.Detect(d.Prefs, d.Resolutions)

	resolved := make(map[string]bool, len(d.Resolutions))
	for _, r := range d.Resolutions {
		resolved[r.TradeoffID] = true
	}
	kept := lo.Filter(d.Tradeoffs, func(t model.Tradeoff, _ int) bool {
		return resolved[t.ID]
	})
	d.Tradeoffs = append(kept, detected...)
	d.Contradictions = contradictions
}

// handleTradeoff records the chosen option for the first active tradeoff,
// applies its side effects, and re-runs detection.
func (o *Orchestrator) handleTradeoff(ctx context.Context, in Input) (*model.ReplyCard, error) {
	var retryCard *model.ReplyCard
	err := o.sess.Commit(func(d *session.Data) error {
		active := d.ActiveTradeoffs()
		if len(active) == 0 {
			return nil
		}
		current := active[0]
		if len(in.EntityIDs) > 0 {
			for _, t := range active {
				if t.ID == in.EntityIDs[0] {
					current = t
					break
				}
			}
		}

		optionID := in.OptionID
		if optionID == "" {
			optionID = strings.TrimSpace(in.Text)
		}
		res, err := o.detector.Resolve(d.Prefs, current, optionID)
		if err != nil {
			retryCard = &model.ReplyCard{
				Type:      model.CardTradeoffPrompt,
				Tradeoffs: active,
				Message:   "That option isn't one of the choices; pick by option id.",
			}
			return nil
		}
		d.Resolutions = append(d.Resolutions, *res)
		o.refreshTradeoffs(d)

		// Resolution effects change the preferences the candidate layers
		// were built from.
		if len(d.Areas) > 0 {
			d.BumpGeneration()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if retryCard != nil {
		return retryCard, nil
	}
	return o.advance(ctx)
}

// handleSplitPick locks the chosen itinerary split.
func (o *Orchestrator) handleSplitPick(ctx context.Context, in Input) (*model.ReplyCard, error) {
	var retryCard *model.ReplyCard
	err := o.sess.Commit(func(d *session.Data) error {
		splits := rankedSplits(*d)
		var chosen *model.ItinerarySplit
		if len(in.EntityIDs) > 0 {
			if s, ok := d.Splits[in.EntityIDs[0]]; ok {
				chosen = &s
			}
		} else if n, err := strconv.Atoi(strings.TrimSpace(in.Text)); err == nil && n >= 1 && n <= len(splits) {
			chosen = &splits[n-1]
		}
		if chosen == nil {
			retryCard = &model.ReplyCard{
				Type:    model.CardSplitOptions,
				Splits:  splits,
				Areas:   rankedAreas(*d),
				Message: "Pick a split by its number.",
			}
			return nil
		}
		d.Prefs.SelectedSplitID = chosen.ID
		d.Prefs.Confidence[model.FieldAreaSplit] = model.ConfidenceConfirmed
		d.Pending = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	if retryCard != nil {
		return retryCard, nil
	}
	return o.advance(ctx)
}

// handleHotelPick records one hotel per base. The pick settles once every
// stop of the selected split has a hotel.
func (o *Orchestrator) handleHotelPick(ctx context.Context, in Input) (*model.ReplyCard, error) {
	var retryCard *model.ReplyCard
	err := o.sess.Commit(func(d *session.Data) error {
		for _, id := range in.EntityIDs {
			h, ok := d.Hotels[id]
			if !ok {
				continue
			}
			d.Prefs.SelectedHotels[h.AreaID] = h.ID
		}

		var missing []string
		for _, stop := range selectedStops(*d) {
			if d.Prefs.SelectedHotels[stop.AreaID] == "" {
				if area, ok := d.Areas[stop.AreaID]; ok {
					missing = append(missing, area.Name)
				} else {
					missing = append(missing, stop.AreaID)
				}
			}
		}
		if len(missing) > 0 {
			retryCard = &model.ReplyCard{
				Type:    model.CardHotelShortlist,
				Hotels:  shortlistHotels(*d),
				Message: "Still need a hotel for: " + strings.Join(missing, ", "),
			}
			return nil
		}
		d.Prefs.Confidence[model.FieldHotelPick] = model.ConfidenceConfirmed
		d.Pending = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	if retryCard != nil {
		return retryCard, nil
	}
	return o.advance(ctx)
}

// handleDiningPicks records restaurants to book. "none" is a valid answer.
func (o *Orchestrator) handleDiningPicks(ctx context.Context, in Input) (*model.ReplyCard, error) {
	err := o.sess.Commit(func(d *session.Data) error {
		if !isNone(in.Text) {
			for _, id := range in.EntityIDs {
				r, ok := d.Restaurants[id]
				if !ok {
					continue
				}
				if !lo.Contains(d.Prefs.SelectedDining[r.AreaID], r.ID) {
					d.Prefs.SelectedDining[r.AreaID] = append(d.Prefs.SelectedDining[r.AreaID], r.ID)
				}
			}
		}
		d.Prefs.Confidence[model.FieldDiningPicks] = model.ConfidenceConfirmed
		d.Pending = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o.advance(ctx)
}

// handleFinalReview either advances to the satisfaction gate or rebuilds
// the day plan.
func (o *Orchestrator) handleFinalReview(ctx context.Context, in Input) (*model.ReplyCard, error) {
	text := strings.ToLower(strings.TrimSpace(in.Text))
	if text == "rebuild" {
		err := o.sess.Commit(func(d *session.Data) error {
			d.Itinerary = nil
			d.Quality = nil
			d.State = model.StateDailyItineraryBuild
			return nil
		})
		if err != nil {
			return nil, err
		}
		return o.advance(ctx)
	}
	if !isAffirmative(in.Text) {
		data := o.sess.Snapshot()
		return &model.ReplyCard{
			Type:      model.CardItinerary,
			Itinerary: data.Itinerary,
			Quality:   data.Quality,
			Message:   "Answer yes to continue, or 'rebuild' to regenerate the days.",
		}, nil
	}
	if err := o.transition(model.StateSatisfactionGate); err != nil {
		return nil, err
	}
	return o.advance(ctx)
}

// handleSatisfaction maps the verdict onto a regeneration outcome:
// "yes" finishes, "almost" re-invokes only the components its issue
// categories name, "no" restarts the preference conversation keeping
// destination, dates, and party.
func (o *Orchestrator) handleSatisfaction(ctx context.Context, in Input) (*model.ReplyCard, error) {
	verdict := in.Verdict
	if verdict == "" {
		verdict = parseVerdict(in.Text)
	}
	if verdict == "" {
		return &model.ReplyCard{
			Type:    model.CardSatisfactionPrompt,
			Message: promptFor(model.FieldSatisfaction, true),
		}, nil
	}
	issues := in.Issues
	if len(issues) == 0 {
		issues = parseIssues(in.Text)
	}

	outcome := quality.Resolve(verdict, issues)
	err := o.sess.Commit(func(d *session.Data) error {
		if outcome.Done {
			d.Prefs.Confidence[model.FieldSatisfaction] = model.ConfidenceComplete
			d.State = model.StateDone
			d.Pending = ""
			return nil
		}

		preserve := make(map[model.FieldKey]bool, len(outcome.Preserve))
		for _, f := range outcome.Preserve {
			preserve[f] = true
		}
		for _, f := range outcome.Demote {
			if preserve[f] {
				continue
			}
			d.Prefs.Confidence[f] = model.ConfidencePartial
			switch f {
			case model.FieldAreaSplit:
				d.Prefs.SelectedSplitID = ""
			case model.FieldHotelPick:
				d.Prefs.SelectedHotels = make(map[string]string)
			case model.FieldDiningPicks:
				d.Prefs.SelectedDining = make(map[string][]string)
			}
		}

		d.Quality = nil
		if !outcome.HotelsOnly {
			d.Itinerary = nil
		}
		if outcome.BumpGeneration {
			gen := d.BumpGeneration()
			switch {
			case stateIndex[outcome.RewindTo] <= stateIndex[model.StateAreaDiscovery]:
				// Areas regenerate too: drop every candidate layer.
				d.Areas = make(map[string]model.AreaCandidate)
				d.Splits = make(map[string]model.ItinerarySplit)
				d.Hotels = make(map[string]model.HotelCandidate)
				d.Restaurants = make(map[string]model.RestaurantCandidate)
				d.Activities = make(map[string]model.ActivityCandidate)
				d.Prefs.SelectedSplitID = ""
				d.Prefs.Confidence[model.FieldAreaSplit] = model.ConfidencePartial
			case outcome.HotelsOnly:
				// Only the hotel arena regenerates. Restaurants, activities,
				// and the day plan ride into the new generation untouched;
				// leaving hotels at the old generation marks them stale.
				for id, a := range d.Areas {
					a.Generation = gen
					d.Areas[id] = a
				}
				for id, r := range d.Restaurants {
					r.Generation = gen
					d.Restaurants[id] = r
				}
				for id, a := range d.Activities {
					a.Generation = gen
					d.Activities[id] = a
				}
				if d.Itinerary != nil {
					d.Itinerary.Generation = gen
				}
			default:
				// Areas and the locked split survive; re-stamp them so only
				// the stay layers regenerate.
				for id, a := range d.Areas {
					a.Generation = gen
					d.Areas[id] = a
				}
			}
			if !outcome.HotelsOnly {
				// Stay candidates regenerate on any broader bump, so picks
				// referencing them cannot survive.
				d.Prefs.SelectedHotels = make(map[string]string)
				d.Prefs.SelectedDining = make(map[string][]string)
				for _, f := range []model.FieldKey{model.FieldHotelPick, model.FieldDiningPicks} {
					if d.Prefs.ConfidenceOf(f).Settled() {
						d.Prefs.Confidence[f] = model.ConfidencePartial
					}
				}
			}
		}

		d.State = outcome.RewindTo
		d.Pending = ""
		zap.L().Info("orchestrator: satisfaction rewind",
			zap.String("verdict", string(verdict)),
			zap.String("rewind_to", string(outcome.RewindTo)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o.advance(ctx)
}

// revise applies a correction to an already-answered field. Revising a
// settled field that feeds the candidate layers invalidates in-flight
// enrichment and rewinds far enough to rebuild what depended on it.
func (o *Orchestrator) revise(ctx context.Context, in Input) (*model.ReplyCard, error) {
	err := o.sess.Commit(func(d *session.Data) error {
		wasSettled := d.Prefs.ConfidenceOf(in.Field).Settled()

		if err := applyAnswer(d.Prefs, in.Field, in.Text); err != nil {
			owner, ok := owningState(in.Field)
			if !ok {
				return eris.Errorf("orchestrator: unknown field %s", in.Field)
			}
			// Unusable revision: demote and rewind so the field is re-asked.
			d.Prefs.Confidence[in.Field] = model.ConfidencePartial
			if stateIndex[owner] < stateIndex[d.State] {
				d.State = owner
			}
			d.Pending = ""
			return nil
		}

		o.afterAnswer(d, in.Field)

		if wasSettled && feedsEnrichment(in.Field) && len(d.Areas) > 0 {
			d.BumpGeneration()
			d.Areas = make(map[string]model.AreaCandidate)
			d.Splits = make(map[string]model.ItinerarySplit)
			d.Hotels = make(map[string]model.HotelCandidate)
			d.Restaurants = make(map[string]model.RestaurantCandidate)
			d.Activities = make(map[string]model.ActivityCandidate)
			d.Itinerary = nil
			d.Quality = nil
			d.Prefs.SelectedSplitID = ""
			d.Prefs.SelectedHotels = make(map[string]string)
			d.Prefs.SelectedDining = make(map[string][]string)
			for _, f := range []model.FieldKey{model.FieldAreaSplit, model.FieldHotelPick, model.FieldDiningPicks} {
				if d.Prefs.ConfidenceOf(f).Settled() {
					d.Prefs.Confidence[f] = model.ConfidencePartial
				}
			}
			if stateIndex[model.StateTradeoffsResolution] < stateIndex[d.State] {
				d.State = model.StateTradeoffsResolution
			}
			zap.L().Info("orchestrator: revision invalidated candidate layers",
				zap.String("field", string(in.Field)),
				zap.Uint64("generation", d.Generation))
		}
		d.Pending = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o.advance(ctx)
}

// feedsEnrichment reports whether a field shapes discovered candidates.
func feedsEnrichment(field model.FieldKey) bool {
	switch field {
	case model.FieldDestination, model.FieldDates, model.FieldParty,
		model.FieldBudget, model.FieldVibe, model.FieldHardNos,
		model.FieldMustDos, model.FieldActivities, model.FieldIntensity:
		return true
	}
	return false
}

// advance walks the state machine forward: skipped states are passed
// over, compute states run their action and continue, and the first
// interactive state produces the outbound card.
func (o *Orchestrator) advance(ctx context.Context) (*model.ReplyCard, error) {
	for {
		data := o.sess.Snapshot()
		state := data.State

		if skipped(state, data) {
			if err := o.transition(nextState(state, data)); err != nil {
				return nil, err
			}
			continue
		}

		switch state {
		case model.StateAreaDiscovery:
			if err := o.ensureAreas(ctx); err != nil {
				return nil, err
			}
			if err := o.transition(nextState(state, o.sess.Snapshot())); err != nil {
				return nil, err
			}
			continue

		case model.StateHotelsShortlist:
			if !data.Prefs.ConfidenceOf(model.FieldHotelNeeds).Settled() {
				return o.questionCardFor(state)
			}
			if err := o.ensureStay(ctx); err != nil {
				return nil, err
			}
			if data.Prefs.ConfidenceOf(model.FieldHotelPick).Settled() {
				if err := o.transition(nextState(state, data)); err != nil {
					return nil, err
				}
				continue
			}
			return o.shortlistCard()

		case model.StateDiningShortlist:
			if data.Prefs.ConfidenceOf(model.FieldDiningPicks).Settled() {
				if err := o.transition(nextState(state, data)); err != nil {
					return nil, err
				}
				continue
			}
			if err := o.ensureStay(ctx); err != nil {
				return nil, err
			}
			return o.diningCard()

		case model.StateDailyItineraryBuild:
			if _, ok := nextQuestion(state, data.Prefs); ok {
				return o.questionCardFor(state)
			}
			if err := o.ensureStay(ctx); err != nil {
				return nil, err
			}
			// A plan already at the current generation survived a surgical
			// regeneration; keep it as is.
			if data.Itinerary == nil || data.Itinerary.Generation != data.Generation {
				if err := o.buildItinerary(); err != nil {
					return nil, err
				}
			}
			if err := o.transition(nextState(state, o.sess.Snapshot())); err != nil {
				return nil, err
			}
			continue

		case model.StateQualitySelfCheck:
			if err := o.runQuality(); err != nil {
				return nil, err
			}
			if err := o.transition(nextState(state, o.sess.Snapshot())); err != nil {
				return nil, err
			}
			continue

		case model.StateTradeoffsResolution:
			return o.tradeoffCard(), nil

		case model.StateAreaSplitSelection:
			if data.Prefs.ConfidenceOf(model.FieldAreaSplit).Settled() {
				if err := o.transition(nextState(state, data)); err != nil {
					return nil, err
				}
				continue
			}
			return o.splitCard()

		case model.StateFinalReview:
			return o.reviewCard(), nil

		case model.StateSatisfactionGate:
			return &model.ReplyCard{
				Type:    model.CardSatisfactionPrompt,
				Message: promptFor(model.FieldSatisfaction, false),
			}, nil

		case model.StateDone:
			return o.doneCard(), nil

		default:
			if _, ok := nextQuestion(state, data.Prefs); !ok {
				if err := o.transition(nextState(state, data)); err != nil {
					return nil, err
				}
				continue
			}
			return o.questionCardFor(state)
		}
	}
}

// transition moves to a state under the commit funnel.
func (o *Orchestrator) transition(next model.State) error {
	return o.sess.Commit(func(d *session.Data) error {
		d.State = next
		d.Pending = ""
		return nil
	})
}

// questionCardFor selects and records the next question for a state.
func (o *Orchestrator) questionCardFor(state model.State) (*model.ReplyCard, error) {
	var card *model.ReplyCard
	err := o.sess.Commit(func(d *session.Data) error {
		field, ok := nextQuestion(state, d.Prefs)
		if !ok {
			return eris.Errorf("orchestrator: no question for state %s", state)
		}
		d.Pending = field
		card = questionCard(field, false, d.Attempts[field])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

func questionCard(field model.FieldKey, narrow bool, attempt int) *model.ReplyCard {
	return &model.ReplyCard{
		Type: model.CardQuestion,
		Question: &model.QuestionCard{
			Field:   field,
			Prompt:  promptFor(field, narrow),
			Narrow:  narrow,
			Attempt: attempt,
		},
	}
}

func (o *Orchestrator) doneCard() *model.ReplyCard {
	data := o.sess.Snapshot()
	return &model.ReplyCard{
		Type:      model.CardDone,
		Itinerary: data.Itinerary,
		Message:   "Have a great trip.",
	}
}

func (o *Orchestrator) tradeoffCard() *model.ReplyCard {
	data := o.sess.Snapshot()
	card := &model.ReplyCard{
		Type:      model.CardTradeoffPrompt,
		Tradeoffs: data.ActiveTradeoffs(),
	}
	if len(data.Contradictions) > 0 {
		var notes []string
		for _, c := range data.Contradictions {
			notes = append(notes, c.Detail)
		}
		card.Message = "Heads up: " + strings.Join(notes, " ")
	}
	return card
}

func (o *Orchestrator) splitCard() (*model.ReplyCard, error) {
	data := o.sess.Snapshot()
	card := &model.ReplyCard{
		Type:    model.CardSplitOptions,
		Areas:   rankedAreas(data),
		Splits:  rankedSplits(data),
		Message: promptFor(model.FieldAreaSplit, false),
	}
	err := o.sess.Commit(func(d *session.Data) error {
		d.Pending = model.FieldAreaSplit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (o *Orchestrator) shortlistCard() (*model.ReplyCard, error) {
	data := o.sess.Snapshot()
	card := &model.ReplyCard{
		Type:    model.CardHotelShortlist,
		Hotels:  shortlistHotels(data),
		Message: promptFor(model.FieldHotelPick, false),
	}
	err := o.sess.Commit(func(d *session.Data) error {
		d.Pending = model.FieldHotelPick
		return nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (o *Orchestrator) diningCard() (*model.ReplyCard, error) {
	data := o.sess.Snapshot()
	restaurants := lo.Values(data.Restaurants)
	sort.Slice(restaurants, func(i, j int) bool {
		if restaurants[i].Relevance != restaurants[j].Relevance {
			return restaurants[i].Relevance > restaurants[j].Relevance
		}
		return restaurants[i].Rating > restaurants[j].Rating
	})
	card := &model.ReplyCard{
		Type:    model.CardDiningShortlist,
		Dining:  restaurants,
		Message: promptFor(model.FieldDiningPicks, false),
	}
	err := o.sess.Commit(func(d *session.Data) error {
		d.Pending = model.FieldDiningPicks
		return nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (o *Orchestrator) reviewCard() *model.ReplyCard {
	data := o.sess.Snapshot()
	return &model.ReplyCard{
		Type:      model.CardItinerary,
		Itinerary: data.Itinerary,
		Quality:   data.Quality,
		Message:   "Here's the full plan. Answer yes to continue, or 'rebuild' to regenerate the days.",
	}
}

// rankedAreas returns current-generation areas, best fit first.
func rankedAreas(d session.Data) []model.AreaCandidate {
	areas := lo.Filter(lo.Values(d.Areas), func(a model.AreaCandidate, _ int) bool {
		return a.Generation == d.Generation
	})
	sort.Slice(areas, func(i, j int) bool { return areas[i].Overall > areas[j].Overall })
	return areas
}

// rankedSplits returns splits ranked by fit minus friction, ties
// preferring fewer bases.
func rankedSplits(d session.Data) []model.ItinerarySplit {
	splits := lo.Values(d.Splits)
	sort.Slice(splits, func(i, j int) bool {
		si, sj := splits[i].Score(), splits[j].Score()
		if si != sj {
			return si > sj
		}
		return len(splits[i].Stops) < len(splits[j].Stops)
	})
	return splits
}

// selectedStops returns the stops of the locked split.
func selectedStops(d session.Data) []model.ItineraryStop {
	split, ok := d.Splits[d.Prefs.SelectedSplitID]
	if !ok {
		return nil
	}
	return split.Stops
}

// shortlistHotels lists hotels in the selected split's areas, filtered by
// hard hotel needs and ranked by relevance then rating.
func shortlistHotels(d session.Data) []model.HotelCandidate {
	inSplit := make(map[string]bool)
	for _, stop := range selectedStops(d) {
		inSplit[stop.AreaID] = true
	}
	hotels := lo.Filter(lo.Values(d.Hotels), func(h model.HotelCandidate, _ int) bool {
		if !inSplit[h.AreaID] {
			return false
		}
		if d.Prefs.HotelNeeds.AdultsOnly && !h.AdultsOnly {
			return false
		}
		if d.Prefs.Party.HasChildren() && h.AdultsOnly {
			return false
		}
		if d.Prefs.HotelNeeds.Accessible && !h.Accessible {
			return false
		}
		return true
	})
	sort.Slice(hotels, func(i, j int) bool {
		if hotels[i].AreaID != hotels[j].AreaID {
			return hotels[i].AreaID < hotels[j].AreaID
		}
		if hotels[i].Relevance != hotels[j].Relevance {
			return hotels[i].Relevance > hotels[j].Relevance
		}
		return hotels[i].Rating > hotels[j].Rating
	})
	return hotels
}

func parseVerdict(text string) model.SatisfactionVerdict {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y", "love it":
		return model.VerdictYes
	case "almost", "close":
		return model.VerdictAlmost
	case "no", "n", "start over":
		return model.VerdictNo
	}
	return ""
}

var issueKeywords = map[string]model.IssueCategory{
	"hotel":      model.IssueHotels,
	"hotels":     model.IssueHotels,
	"pace":       model.IssuePace,
	"slow":       model.IssuePace,
	"busy":       model.IssuePace,
	"dining":     model.IssueDining,
	"food":       model.IssueDining,
	"restaurant": model.IssueDining,
	"activity":   model.IssueActivities,
	"activities": model.IssueActivities,
	"area":       model.IssueAreas,
	"areas":      model.IssueAreas,
	"location":   model.IssueAreas,
}

func parseIssues(text string) []model.IssueCategory {
	var out []model.IssueCategory
	seen := make(map[model.IssueCategory]bool)
	for _, tok := range strings.Fields(strings.ToLower(strings.ReplaceAll(text, ",", " "))) {
		if cat, ok := issueKeywords[tok]; ok && !seen[cat] {
			seen[cat] = true
			out = append(out, cat)
		}
	}
	return out
}
