package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/wanderplan/trip-cli/internal/model"
)

// ErrStaleGeneration rejects enrichment results issued under a superseded
// session generation; stale results are discarded, never merged.
var ErrStaleGeneration = eris.New("session: stale generation")

// Data is the serializable session state. Cross-referencing records are
// arena-style collections keyed by stable ids; days and splits reference
// entities by id rather than embedding them.
type Data struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	State model.State            `json:"state"`
	Prefs *model.TripPreferences `json:"prefs"`

	Areas       map[string]model.AreaCandidate       `json:"areas,omitempty"`
	Splits      map[string]model.ItinerarySplit      `json:"splits,omitempty"`
	Hotels      map[string]model.HotelCandidate      `json:"hotels,omitempty"`
	Restaurants map[string]model.RestaurantCandidate `json:"restaurants,omitempty"`
	Activities  map[string]model.ActivityCandidate   `json:"activities,omitempty"`

	Itinerary *model.QuickPlanItinerary `json:"itinerary,omitempty"`

	Tradeoffs   []model.Tradeoff           `json:"tradeoffs,omitempty"`
	Resolutions []model.TradeoffResolution `json:"resolutions,omitempty"`

	// Contradictions are unresolvable preference conflicts surfaced by
	// detection; they ride into the quality report untouched.
	Contradictions []model.UnmetConstraint `json:"contradictions,omitempty"`

	Quality *model.QualityCheckResult `json:"quality,omitempty"`

	// Pending is the field the outstanding question asks about, kept so a
	// resumed session re-issues the same question.
	Pending model.FieldKey `json:"pending,omitempty"`

	// Attempts counts consecutive unusable answers per field for the
	// bounded re-prompt loop.
	Attempts map[model.FieldKey]int `json:"attempts,omitempty"`

	// Generation tags enrichment requests; results from an older
	// generation are rejected on merge.
	Generation uint64 `json:"generation"`
}

// Session wraps Data behind a single-writer commit funnel. The
// orchestrator is the only component that calls Commit; scorers and the
// scheduler operate on snapshots.
type Session struct {
	mu   sync.Mutex
	data Data
}

// New creates an empty session at the first conversation state.
func New() *Session {
	now := time.Now().UTC()
	return &Session{
		data: Data{
			ID:          uuid.NewString(),
			CreatedAt:   now,
			UpdatedAt:   now,
			State:       model.StateDestination,
			Prefs:       model.NewTripPreferences(),
			Areas:       make(map[string]model.AreaCandidate),
			Splits:      make(map[string]model.ItinerarySplit),
			Hotels:      make(map[string]model.HotelCandidate),
			Restaurants: make(map[string]model.RestaurantCandidate),
			Activities:  make(map[string]model.ActivityCandidate),
			Attempts:    make(map[model.FieldKey]int),
			Generation:  1,
		},
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ID
}

// Generation returns the current session generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Generation
}

// Commit applies a mutation under the single-writer lock. All state
// transitions, preference updates, and enrichment merges flow through
// here; no component mutates Data outside a commit.
func (s *Session) Commit(fn func(*Data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(&s.data); err != nil {
		return err
	}
	s.data.UpdatedAt = time.Now().UTC()
	return nil
}

// CommitEnrichment merges enrichment results only if they were issued
// under the current generation.
func (s *Session) CommitEnrichment(gen uint64, fn func(*Data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.data.Generation {
		return ErrStaleGeneration
	}
	if err := fn(&s.data); err != nil {
		return err
	}
	s.data.UpdatedAt = time.Now().UTC()
	return nil
}

// Snapshot returns a deep copy of the session data for pure readers
// (skip predicates, scorers, the scheduler).
func (s *Session) Snapshot() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.clone()
}

// BumpGeneration invalidates in-flight enrichment after an upstream
// confirmed field changed. Must be called inside a Commit; exposed on
// Data so the orchestrator bumps atomically with the preference change.
func (d *Data) BumpGeneration() uint64 {
	d.Generation++
	return d.Generation
}

// ActiveTradeoffs returns tradeoffs without a recorded resolution.
func (d *Data) ActiveTradeoffs() []model.Tradeoff {
	resolved := make(map[string]bool, len(d.Resolutions))
	for _, r := range d.Resolutions {
		resolved[r.TradeoffID] = true
	}
	var out []model.Tradeoff
	for _, t := range d.Tradeoffs {
		if !resolved[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

func (d Data) clone() Data {
	cp := d
	cp.Prefs = d.Prefs.Clone()
	cp.Areas = cloneMap(d.Areas)
	cp.Splits = cloneMap(d.Splits)
	cp.Hotels = cloneMap(d.Hotels)
	cp.Restaurants = cloneMap(d.Restaurants)
	cp.Activities = cloneMap(d.Activities)
	cp.Tradeoffs = append([]model.Tradeoff(nil), d.Tradeoffs...)
	cp.Resolutions = append([]model.TradeoffResolution(nil), d.Resolutions...)
	cp.Contradictions = append([]model.UnmetConstraint(nil), d.Contradictions...)
	if d.Itinerary != nil {
		it := *d.Itinerary
		it.Days = append([]model.QuickPlanDay(nil), d.Itinerary.Days...)
		cp.Itinerary = &it
	}
	if d.Quality != nil {
		q := *d.Quality
		q.Constraints = append([]model.UnmetConstraint(nil), d.Quality.Constraints...)
		cp.Quality = &q
	}
	cp.Attempts = make(map[model.FieldKey]int, len(d.Attempts))
	for k, v := range d.Attempts {
		cp.Attempts[k] = v
	}
	return cp
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Marshal serializes the session for persistence.
func (s *Session) Marshal() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := json.Marshal(s.data)
	if err != nil {
		return nil, eris.Wrap(err, "session: marshal")
	}
	return raw, nil
}

// Restore rebuilds a session from a serialized snapshot.
func Restore(raw []byte) (*Session, error) {
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, eris.Wrap(err, "session: unmarshal")
	}
	if data.Prefs == nil {
		data.Prefs = model.NewTripPreferences()
	}
	if data.Areas == nil {
		data.Areas = make(map[string]model.AreaCandidate)
	}
	if data.Splits == nil {
		data.Splits = make(map[string]model.ItinerarySplit)
	}
	if data.Hotels == nil {
		data.Hotels = make(map[string]model.HotelCandidate)
	}
	if data.Restaurants == nil {
		data.Restaurants = make(map[string]model.RestaurantCandidate)
	}
	if data.Activities == nil {
		data.Activities = make(map[string]model.ActivityCandidate)
	}
	if data.Attempts == nil {
		data.Attempts = make(map[model.FieldKey]int)
	}
	return &Session{data: data}, nil
}
