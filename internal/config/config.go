package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type AppConfig struct {
	Port      string
	LogLevel  string
	LogFormat string

	// Upstreams.
	WindBorneBaseURL string
	OpenMeteoBaseURL string
	WindFieldLive    bool

	// HTTPTimeout bounds every outbound request; LoadTimeout bounds one full reload.
	HTTPTimeout time.Duration
	LoadTimeout time.Duration

	PlaybackInterval time.Duration

	// ReloadSchedule is a standard 5-field cron expression. Empty disables
	// periodic reload.
	ReloadSchedule string

	JetStreamBandsFile string
	SyntheticSeed      uint64

	// In-memory store retention.
	StoreMaxHistory int           // max number of load summaries (0 = unlimited)
	StoreMaxAge     time.Duration // max age of load summaries (0 = unlimited)

	GoogleGeocodingAPIKey string
	GeocodeCacheSize      int

	KafkaBrokers []string
	KafkaTopic   string

	ShutdownTimeout time.Duration

	// DotenvLoaded reports whether a .env file was found.
	DotenvLoaded bool
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	cfg.DotenvLoaded = godotenv.Load() == nil

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")

	cfg.WindBorneBaseURL = getenvDefault("WINDBORNE_BASE_URL", "https://a.windbornesystems.com/treasure")
	cfg.OpenMeteoBaseURL = getenvDefault("OPENMETEO_BASE_URL", "https://api.open-meteo.com/v1/gfs")
	cfg.WindFieldLive = getenvBool("WINDFIELD_LIVE", true)

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.LoadTimeout, err = getenvDuration("LOAD_TIMEOUT", "45s"); err != nil {
		return nil, err
	}
	if cfg.PlaybackInterval, err = getenvDuration("PLAYBACK_INTERVAL", "1s"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	// An explicitly empty RELOAD_SCHEDULE disables reload, so LookupEnv.
	cfg.ReloadSchedule = "*/15 * * * *"
	if v, ok := os.LookupEnv("RELOAD_SCHEDULE"); ok {
		cfg.ReloadSchedule = strings.TrimSpace(v)
	}
	if cfg.ReloadSchedule != "" {
		if _, err := cron.ParseStandard(cfg.ReloadSchedule); err != nil {
			return nil, fmt.Errorf("invalid RELOAD_SCHEDULE: %w", err)
		}
	}

	cfg.JetStreamBandsFile = os.Getenv("JETSTREAM_BANDS_FILE")
	if v := os.Getenv("SYNTHETIC_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SYNTHETIC_SEED: %w", err)
		}
		cfg.SyntheticSeed = seed
	}

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // a day of 15-minute reloads

	cfg.GoogleGeocodingAPIKey = os.Getenv("GOOGLE_GEOCODING_API_KEY")
	cfg.GeocodeCacheSize = getenvInt("GEOCODE_CACHE_SIZE", 1000)

	cfg.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.KafkaTopic = getenvDefault("KAFKA_TOPIC", "balloon-hour-snapshots")

	return cfg, nil
}

// GeocodingEnabled reports whether reverse geocoding is configured.
func (c *AppConfig) GeocodingEnabled() bool {
	return c.GoogleGeocodingAPIKey != ""
}

// KafkaEnabled reports whether snapshot export is configured.
func (c *AppConfig) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaTopic != ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: negative duration", key)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
