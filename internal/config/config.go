package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Textgen   TextgenConfig   `yaml:"textgen" mapstructure:"textgen"`
	Places    PlacesConfig    `yaml:"places" mapstructure:"places"`
	Discuss   DiscussConfig   `yaml:"discuss" mapstructure:"discuss"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Schedule  ScheduleConfig  `yaml:"schedule" mapstructure:"schedule"`
	Evidence  EvidenceConfig  `yaml:"evidence" mapstructure:"evidence"`
	Questions QuestionsConfig `yaml:"questions" mapstructure:"questions"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the session store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// TextgenConfig holds text-generation collaborator settings.
type TextgenConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PlacesConfig holds place-lookup collaborator settings.
type PlacesConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// DiscussConfig holds discussion-search collaborator settings.
type DiscussConfig struct {
	BaseURL     string   `yaml:"base_url" mapstructure:"base_url"`
	Communities []string `yaml:"communities" mapstructure:"communities"`
}

// PricingConfig holds the hotel-pricing collaborator settings.
type PricingConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// EnrichConfig tunes the enrichment pipeline.
type EnrichConfig struct {
	Workers         int `yaml:"workers" mapstructure:"workers"`
	BatchPacingMS   int `yaml:"batch_pacing_ms" mapstructure:"batch_pacing_ms"`
	MinAreaResults  int `yaml:"min_area_results" mapstructure:"min_area_results"`
	MinHotelResults int `yaml:"min_hotel_results" mapstructure:"min_hotel_results"`
	FetchTimeoutSec int `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
}

// ScoringConfig holds the area/split scoring weights. The combination rule
// (weighted sum with hard-no zeroing) is fixed; the weights are tunable.
type ScoringConfig struct {
	ActivityWeight   float64 `yaml:"activity_weight" mapstructure:"activity_weight"`
	VibeWeight       float64 `yaml:"vibe_weight" mapstructure:"vibe_weight"`
	BudgetWeight     float64 `yaml:"budget_weight" mapstructure:"budget_weight"`
	TransferCost     float64 `yaml:"transfer_cost" mapstructure:"transfer_cost"`
	TransferPerKm    float64 `yaml:"transfer_per_km" mapstructure:"transfer_per_km"`
	MustDoWeight     float64 `yaml:"must_do_weight" mapstructure:"must_do_weight"`
	NiceToHaveWeight float64 `yaml:"nice_to_have_weight" mapstructure:"nice_to_have_weight"`
}

// ScheduleConfig holds the effort-budget scheduler tunables.
type ScheduleConfig struct {
	ChillBudget    float64 `yaml:"chill_budget" mapstructure:"chill_budget"`
	BalancedBudget float64 `yaml:"balanced_budget" mapstructure:"balanced_budget"`
	PackedBudget   float64 `yaml:"packed_budget" mapstructure:"packed_budget"`

	FullDayCost  float64 `yaml:"full_day_cost" mapstructure:"full_day_cost"`
	HalfDayCost  float64 `yaml:"half_day_cost" mapstructure:"half_day_cost"`
	DinnerCost   float64 `yaml:"dinner_cost" mapstructure:"dinner_cost"`
	BeachDayCost float64 `yaml:"beach_day_cost" mapstructure:"beach_day_cost"`
	TransitCost  float64 `yaml:"transit_cost" mapstructure:"transit_cost"`
}

// EvidenceConfig holds the verification contract thresholds.
type EvidenceConfig struct {
	MinCitations         int     `yaml:"min_citations" mapstructure:"min_citations"`
	CredibilityThreshold float64 `yaml:"credibility_threshold" mapstructure:"credibility_threshold"`
}

// QuestionsConfig bounds the re-prompt loop for unusable answers.
type QuestionsConfig struct {
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "trip.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("textgen.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("textgen.max_tokens", 2048)
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("places.cache_ttl_hours", 24)
	v.SetDefault("discuss.base_url", "https://api.pullpush.io")
	v.SetDefault("discuss.communities", []string{"travel", "solotravel", "TravelHacks"})
	v.SetDefault("pricing.base_url", "https://engine.hotellook.com/api/v2")
	v.SetDefault("enrich.workers", 8)
	v.SetDefault("enrich.batch_pacing_ms", 250)
	v.SetDefault("enrich.min_area_results", 3)
	v.SetDefault("enrich.min_hotel_results", 2)
	v.SetDefault("enrich.fetch_timeout_secs", 20)
	v.SetDefault("scoring.activity_weight", 0.4)
	v.SetDefault("scoring.vibe_weight", 0.35)
	v.SetDefault("scoring.budget_weight", 0.25)
	v.SetDefault("scoring.transfer_cost", 0.08)
	v.SetDefault("scoring.transfer_per_km", 0.0004)
	v.SetDefault("scoring.must_do_weight", 2.0)
	v.SetDefault("scoring.nice_to_have_weight", 1.0)
	v.SetDefault("schedule.chill_budget", 3.0)
	v.SetDefault("schedule.balanced_budget", 4.0)
	v.SetDefault("schedule.packed_budget", 5.0)
	v.SetDefault("schedule.full_day_cost", 4.0)
	v.SetDefault("schedule.half_day_cost", 2.5)
	v.SetDefault("schedule.dinner_cost", 0.5)
	v.SetDefault("schedule.beach_day_cost", 1.0)
	v.SetDefault("schedule.transit_cost", 2.0)
	v.SetDefault("evidence.min_citations", 2)
	v.SetDefault("evidence.credibility_threshold", 0.6)
	v.SetDefault("questions.max_retries", 2)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
