package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/wanderplan/trip-cli/internal/enrich"
	"github.com/wanderplan/trip-cli/internal/orchestrator"
	"github.com/wanderplan/trip-cli/internal/quality"
	"github.com/wanderplan/trip-cli/internal/scheduler"
	"github.com/wanderplan/trip-cli/internal/scorer"
	"github.com/wanderplan/trip-cli/internal/session"
	"github.com/wanderplan/trip-cli/internal/store"
	"github.com/wanderplan/trip-cli/internal/tradeoff"
	"github.com/wanderplan/trip-cli/pkg/discuss"
	"github.com/wanderplan/trip-cli/pkg/places"
	"github.com/wanderplan/trip-cli/pkg/pricing"
	"github.com/wanderplan/trip-cli/pkg/textgen"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.Path
		if dsn == "" {
			dsn = "trip.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// newEnricher wires the four enrichment collaborators. Place lookups go
// through the store-backed cache so repeated sessions for the same
// destination reuse earlier results.
func newEnricher(st store.Store, opts ...enrich.Option) *enrich.Pipeline {
	tg := textgen.NewClient(cfg.Textgen.Key, cfg.Textgen.Model, cfg.Textgen.MaxTokens)
	pl := places.NewClient(cfg.Places.Key, places.WithBaseURL(cfg.Places.BaseURL))
	cached := store.NewCachedPlaces(pl, st, time.Duration(cfg.Places.CacheTTLHours)*time.Hour)
	ds := discuss.NewClient(discuss.WithBaseURL(cfg.Discuss.BaseURL))
	pr := pricing.NewClient(cfg.Pricing.Key, pricing.WithBaseURL(cfg.Pricing.BaseURL))

	if len(cfg.Discuss.Communities) > 0 {
		opts = append(opts, enrich.WithCommunities(cfg.Discuss.Communities))
	}
	return enrich.New(tg, cached, ds, pr, cfg.Enrich, cfg.Evidence, cfg.Schedule, opts...)
}

func newOrchestrator(sess *session.Session, enricher orchestrator.Enricher) *orchestrator.Orchestrator {
	return orchestrator.New(
		sess,
		enricher,
		scorer.New(cfg.Scoring),
		scheduler.New(cfg.Schedule),
		tradeoff.NewDetector(nil),
		quality.NewChecker(cfg.Schedule, cfg.Evidence),
		cfg.Questions,
	)
}
