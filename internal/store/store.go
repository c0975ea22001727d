package store

import (
	"context"
	"time"

	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/internal/session"
	"github.com/wanderplan/trip-cli/pkg/places"
)

// SessionFilter specifies criteria for listing sessions.
type SessionFilter struct {
	State       model.State `json:"state,omitempty"`
	Destination string      `json:"destination,omitempty"`
	Limit       int         `json:"limit,omitempty"`
	Offset      int         `json:"offset,omitempty"`
}

// SessionSummary is the listing row: enough to pick a session to resume
// without deserializing its full snapshot.
type SessionSummary struct {
	ID          string      `json:"id"`
	Destination string      `json:"destination"`
	State       model.State `json:"state"`
	Nights      int         `json:"nights"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// SessionEvent is one point on a session's progression history, recorded
// on every save.
type SessionEvent struct {
	SessionID  string      `json:"session_id"`
	State      model.State `json:"state"`
	Generation uint64      `json:"generation"`
	RecordedAt time.Time   `json:"recorded_at"`
}

// Store defines the persistence interface for trip-planning sessions.
type Store interface {
	// Sessions
	SaveSession(ctx context.Context, sess *session.Session) error
	LoadSession(ctx context.Context, id string) (*session.Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]SessionSummary, error)
	DeleteSession(ctx context.Context, id string) error
	SessionEvents(ctx context.Context, id string) ([]SessionEvent, error)

	// Place lookup cache
	GetCachedPlaces(ctx context.Context, query string) ([]places.Place, error)
	SetCachedPlaces(ctx context.Context, query string, results []places.Place, ttl time.Duration) error
	DeleteExpiredPlaces(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
