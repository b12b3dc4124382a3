// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`

	// Generation provider
	LLMAPIKey       string        `env:"LLM_API_KEY"`
	LLMModel        string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMMaxTokens    int           `env:"LLM_MAX_TOKENS" envDefault:"1200"`
	LLMTemperature  float32       `env:"LLM_TEMPERATURE" envDefault:"0.4"`
	RateLimitRPS    int           `env:"RATE_LIMIT_RPS" envDefault:"1"`
	LLMCircuitLimit int           `env:"LLM_CIRCUIT_THRESHOLD" envDefault:"5"`
	LLMCircuitReset time.Duration `env:"LLM_CIRCUIT_RESET" envDefault:"1m"`

	// SearxNG metasearch provider
	SearxNGBaseURL   string        `env:"SEARXNG_BASE_URL" envDefault:"http://localhost:8888"`
	SearxNGTimeout   time.Duration `env:"SEARXNG_TIMEOUT" envDefault:"30s"`
	SearxNGEngines   string        `env:"SEARXNG_ENGINES" envDefault:""` // comma-separated, e.g. "google,duckduckgo"
	SearchRPS        float64       `env:"SEARCH_RPS" envDefault:"2"`
	SearchMaxResults int           `env:"SEARCH_MAX_RESULTS" envDefault:"10"`

	// Discovery
	DiscoveryMinCandidates  int           `env:"DISCOVERY_MIN_CANDIDATES" envDefault:"5"`
	DiscoveryMaxCandidates  int           `env:"DISCOVERY_MAX_CANDIDATES" envDefault:"20"`
	DiscoveryToolPath       string        `env:"DISCOVERY_TOOL_PATH" envDefault:""`
	DiscoveryToolTimeout    time.Duration `env:"DISCOVERY_TOOL_TIMEOUT" envDefault:"45s"`
	BrowserFallbackEnabled  bool          `env:"BROWSER_FALLBACK_ENABLED" envDefault:"false"`
	BrowserTimeout          time.Duration `env:"BROWSER_TIMEOUT" envDefault:"60s"`
	ValidationMinConfidence float32       `env:"VALIDATION_MIN_CONFIDENCE" envDefault:"0.5"`

	// Community mining
	CommunityMaxPerQuery   int           `env:"COMMUNITY_MAX_PER_QUERY" envDefault:"5"`
	CommunityFetchContent  bool          `env:"COMMUNITY_FETCH_CONTENT" envDefault:"true"`
	CommunityFetchTimeout  time.Duration `env:"COMMUNITY_FETCH_TIMEOUT" envDefault:"15s"`
	CommunityMaxContentLen int           `env:"COMMUNITY_MAX_CONTENT_LEN" envDefault:"5000"`

	// Profile scraping
	ScrapeToolPath    string        `env:"SCRAPE_TOOL_PATH" envDefault:""`
	ScrapeToolTimeout time.Duration `env:"SCRAPE_TOOL_TIMEOUT" envDefault:"120s"`
	ScrapeTopN        int           `env:"SCRAPE_TOP_N" envDefault:"5"`

	// Trends
	TrendsToolPath    string        `env:"TRENDS_TOOL_PATH" envDefault:""`
	TrendsToolTimeout time.Duration `env:"TRENDS_TOOL_TIMEOUT" envDefault:"90s"`
	TrendsRegion      string        `env:"TRENDS_REGION" envDefault:""`

	// Resume checkpoint thresholds
	WebContextDoneCount int `env:"WEB_CONTEXT_DONE_COUNT" envDefault:"5"`
	DiscoveryDoneCount  int `env:"DISCOVERY_DONE_COUNT" envDefault:"3"`
	AnalysisDoneCount   int `env:"ANALYSIS_DONE_COUNT" envDefault:"10"`
	CommunityDoneCount  int `env:"COMMUNITY_DONE_COUNT" envDefault:"3"`

	// Quality scoring
	QualityReliableScore int `env:"QUALITY_RELIABLE_SCORE" envDefault:"70"`

	// Worker
	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"10s"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	return cfg, nil
}
