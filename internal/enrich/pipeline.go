package enrich

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wanderplan/trip-cli/internal/config"
	"github.com/wanderplan/trip-cli/internal/geo"
	"github.com/wanderplan/trip-cli/pkg/discuss"
	"github.com/wanderplan/trip-cli/pkg/places"
	"github.com/wanderplan/trip-cli/pkg/pricing"
	"github.com/wanderplan/trip-cli/pkg/textgen"
)

// Layer names one stage of the enrichment pipeline.
type Layer string

const (
	LayerAreas       Layer = "areas"
	LayerHotels      Layer = "hotels"
	LayerRestaurants Layer = "restaurants"
	LayerActivities  Layer = "activities"
	LayerPricing     Layer = "pricing"
)

// Status is the lifecycle of a layer fetch.
type Status string

const (
	StatusPending Status = "pending"
	StatusLoading Status = "loading"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Progress reports a layer status change so the conversation surface can
// render incremental loading states.
type Progress struct {
	Layer  Layer
	Status Status
	Detail string
}

// ProgressFunc receives progress updates. May be nil.
type ProgressFunc func(Progress)

// Pipeline runs the multi-source enrichment layers. Fetches are paced and
// bounded by a worker pool; every produced candidate carries the session
// generation it was issued under so stale results can be rejected on merge.
type Pipeline struct {
	textgen textgen.Client
	places  places.Client
	discuss discuss.Client
	pricing pricing.Client

	cfg      config.EnrichConfig
	evidence config.EvidenceConfig
	schedule config.ScheduleConfig

	communities []string
	limiter     *rate.Limiter
	onProgress  ProgressFunc
}

// Option configures the pipeline.
type Option func(*Pipeline)

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) { p.onProgress = fn }
}

// WithCommunities overrides the discussion communities searched for citations.
func WithCommunities(communities []string) Option {
	return func(p *Pipeline) { p.communities = communities }
}

// New creates an enrichment pipeline over the four collaborators.
func New(
	tg textgen.Client,
	pl places.Client,
	ds discuss.Client,
	pr pricing.Client,
	cfg config.EnrichConfig,
	evidence config.EvidenceConfig,
	schedule config.ScheduleConfig,
	opts ...Option,
) *Pipeline {
	pacing := time.Duration(cfg.BatchPacingMS) * time.Millisecond
	if pacing <= 0 {
		pacing = 250 * time.Millisecond
	}
	p := &Pipeline{
		textgen:     tg,
		places:      pl,
		discuss:     ds,
		pricing:     pr,
		cfg:         cfg,
		evidence:    evidence,
		schedule:    schedule,
		communities: []string{"travel"},
		limiter:     rate.NewLimiter(rate.Every(pacing), 1),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pipeline) progress(layer Layer, status Status, detail string) {
	if p.onProgress != nil {
		p.onProgress(Progress{Layer: layer, Status: status, Detail: detail})
	}
}

// pace blocks until the next fetch is allowed.
func (p *Pipeline) pace(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

func (p *Pipeline) fetchTimeout() time.Duration {
	if p.cfg.FetchTimeoutSec > 0 {
		return time.Duration(p.cfg.FetchTimeoutSec) * time.Second
	}
	return 20 * time.Second
}

func (p *Pipeline) workers() int {
	if p.cfg.Workers > 0 {
		return p.cfg.Workers
	}
	return 8
}

// entityID derives a stable id from the entity kind and normalized name so
// a re-enrichment supersedes earlier candidates instead of duplicating them.
func entityID(kind, name string) string {
	slug := strings.ReplaceAll(geo.NormalizeName(name), " ", "-")
	return kind + ":" + slug
}
