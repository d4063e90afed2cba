package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"purehill-revenue/models"
)

// ErrInvalidConfig is returned when an option is out of range
var ErrInvalidConfig = errors.New("invalid configuration")

// Source kinds for raw observations
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
	SourcePage     = "page"
)

// Config holds all application-level configuration
type Config struct {
	// Engine
	TrackedHotel      string // canonical key, resolved once at load
	TrackedHotelLabel string
	PriceCeiling      float64
	LeadTimeSanity    int // days a stay date may lag the collection date before the row is dropped

	// Parity
	ParityThreshold float64
	ParityTopN      int

	// Dumping
	DumpingRecentDays   int
	DumpingBaselineDays int
	DumpingRatio        float64

	// Refresh
	RefreshTTLSeconds int

	// Rank simulator
	RankDeltaRange float64
	RankDeltaStep  float64

	// Demand suggestion
	DemandBasePrice       float64
	DemandSurgeOccupancy  int
	DemandSurgeMultiplier float64

	// Sources
	Source       string
	CSVFilePath  string
	DatabaseURL  string
	SQLitePath   string
	RatePageURLs []string
	RateLimitMs  int
	MaxRetries   int

	// Outputs
	HTTPAddr string
	RedisURL string
	LogLevel string
}

// Default returns a config populated with default values and no tracked hotel
func Default() *Config {
	return &Config{
		PriceCeiling:          1500000,
		LeadTimeSanity:        1,
		ParityThreshold:       5000,
		ParityTopN:            5,
		DumpingRecentDays:     3,
		DumpingBaselineDays:   7,
		DumpingRatio:          0.85,
		RefreshTTLSeconds:     60,
		RankDeltaRange:        150000,
		RankDeltaStep:         5000,
		DemandBasePrice:       150000,
		DemandSurgeOccupancy:  80,
		DemandSurgeMultiplier: 1.2,
		Source:                SourceCSV,
		CSVFilePath:           "data/rates.csv",
		SQLitePath:            "data/rates.db",
		RateLimitMs:           2000,
		MaxRetries:            3,
		HTTPAddr:              ":8080",
		LogLevel:              "info",
	}
}

// Load reads configuration from a .env file and environment variables, falling back to defaults
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	d := Default()
	cfg := &Config{
		PriceCeiling:          getEnvFloat("PRICE_CEILING", d.PriceCeiling),
		LeadTimeSanity:        getEnvInt("LEAD_TIME_SANITY_DAYS", d.LeadTimeSanity),
		ParityThreshold:       getEnvFloat("PARITY_VIOLATION_THRESHOLD", d.ParityThreshold),
		ParityTopN:            getEnvInt("PARITY_TOP_N", d.ParityTopN),
		DumpingRecentDays:     getEnvInt("DUMPING_RECENT_WINDOW_DAYS", d.DumpingRecentDays),
		DumpingBaselineDays:   getEnvInt("DUMPING_BASELINE_WINDOW_DAYS", d.DumpingBaselineDays),
		DumpingRatio:          getEnvFloat("DUMPING_RATIO_THRESHOLD", d.DumpingRatio),
		RefreshTTLSeconds:     getEnvInt("REFRESH_TTL_SECONDS", d.RefreshTTLSeconds),
		RankDeltaRange:        getEnvFloat("RANK_DELTA_RANGE", d.RankDeltaRange),
		RankDeltaStep:         getEnvFloat("RANK_DELTA_STEP", d.RankDeltaStep),
		DemandBasePrice:       getEnvFloat("DEMAND_BASE_PRICE", d.DemandBasePrice),
		DemandSurgeOccupancy:  getEnvInt("DEMAND_SURGE_OCCUPANCY", d.DemandSurgeOccupancy),
		DemandSurgeMultiplier: getEnvFloat("DEMAND_SURGE_MULTIPLIER", d.DemandSurgeMultiplier),
		Source:                strings.ToLower(getEnv("SOURCE", d.Source)),
		CSVFilePath:           getEnv("CSV_FILE_PATH", d.CSVFilePath),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		SQLitePath:            getEnv("SQLITE_PATH", d.SQLitePath),
		RatePageURLs:          getEnvList("RATE_PAGE_URLS"),
		RateLimitMs:           getEnvInt("RATE_LIMIT_DELAY_MS", d.RateLimitMs),
		MaxRetries:            getEnvInt("MAX_RETRIES", d.MaxRetries),
		HTTPAddr:              getEnv("HTTP_ADDR", d.HTTPAddr),
		RedisURL:              getEnv("REDIS_URL", ""),
		LogLevel:              getEnv("LOG_LEVEL", d.LogLevel),
	}
	cfg.SetTrackedHotel(getEnv("TRACKED_HOTEL", ""))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetTrackedHotel resolves the tracked hotel identity once so call sites compare keys, never substrings
func (c *Config) SetTrackedHotel(name string) {
	c.TrackedHotelLabel = models.CollapseSpace(name)
	c.TrackedHotel = models.CanonicalKey(name)
}

// Validate rejects out-of-range options
func (c *Config) Validate() error {
	var problems []string
	if c.TrackedHotel == "" {
		problems = append(problems, "TRACKED_HOTEL is required")
	}
	if c.PriceCeiling <= 0 {
		problems = append(problems, "price ceiling must be positive")
	}
	if c.LeadTimeSanity < 0 {
		problems = append(problems, "lead time sanity bound must not be negative")
	}
	if c.ParityThreshold < 0 {
		problems = append(problems, "parity violation threshold must not be negative")
	}
	if c.ParityTopN < 1 {
		problems = append(problems, "parity top-n must be at least 1")
	}
	if c.DumpingRecentDays < 0 || c.DumpingBaselineDays < 0 {
		problems = append(problems, "dumping windows must not be negative")
	}
	if c.DumpingBaselineDays < c.DumpingRecentDays {
		problems = append(problems, "dumping baseline window must not be shorter than the recent window")
	}
	if c.DumpingRatio <= 0 || c.DumpingRatio > 1 {
		problems = append(problems, "dumping ratio threshold must be in (0, 1]")
	}
	if c.RefreshTTLSeconds < 5 || c.RefreshTTLSeconds > 600 {
		problems = append(problems, "refresh ttl must be between 5 and 600 seconds")
	}
	if c.RankDeltaRange < 0 {
		problems = append(problems, "rank delta range must not be negative")
	}
	if c.RankDeltaStep <= 0 || c.RankDeltaStep > c.RankDeltaRange {
		problems = append(problems, "rank delta step must be positive and within the range")
	}
	if c.DemandBasePrice < 0 || c.DemandSurgeMultiplier <= 0 {
		problems = append(problems, "demand base price and multiplier must be positive")
	}
	if c.DemandSurgeOccupancy < 0 || c.DemandSurgeOccupancy > 100 {
		problems = append(problems, "demand surge occupancy must be between 0 and 100")
	}
	switch c.Source {
	case SourceCSV, SourcePostgres, SourceSQLite, SourcePage:
	default:
		problems = append(problems, fmt.Sprintf("unknown source %q", c.Source))
	}
	if c.Source == SourcePostgres && c.DatabaseURL == "" {
		problems = append(problems, "DATABASE_URL is required for the postgres source")
	}
	if c.Source == SourcePage && len(c.RatePageURLs) == 0 {
		problems = append(problems, "RATE_PAGE_URLS is required for the page source")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
