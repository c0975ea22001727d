package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8, cfg.Enrich.Workers)
	assert.Equal(t, 3, cfg.Enrich.MinAreaResults)

	// Spec default scoring weights.
	assert.InDelta(t, 0.4, cfg.Scoring.ActivityWeight, 0.001)
	assert.InDelta(t, 0.35, cfg.Scoring.VibeWeight, 0.001)
	assert.InDelta(t, 0.25, cfg.Scoring.BudgetWeight, 0.001)

	// Pace budgets chill/balanced/packed = 3/4/5.
	assert.InDelta(t, 3.0, cfg.Schedule.ChillBudget, 0.001)
	assert.InDelta(t, 4.0, cfg.Schedule.BalancedBudget, 0.001)
	assert.InDelta(t, 5.0, cfg.Schedule.PackedBudget, 0.001)

	// Verification contract thresholds.
	assert.Equal(t, 2, cfg.Evidence.MinCitations)
	assert.InDelta(t, 0.6, cfg.Evidence.CredibilityThreshold, 0.001)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TRIP_ENRICH_WORKERS", "4")
	t.Setenv("TRIP_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Enrich.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "warn", Format: "console"})
	assert.NoError(t, err)
}
