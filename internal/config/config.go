package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

const windowEndLayout = "2006-01-02"

// Config holds all service settings, populated from environment variables.
type Config struct {
	FeedPath    string
	OutputPath  string
	HistoryDays int
	// WindowEnd pins the last day of the output window. Zero means yesterday.
	WindowEnd time.Time
	// RunInterval schedules repeated runs. Zero runs the pipeline once.
	RunInterval time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Station name lookup configuration.
	NameLookupEnabled     bool
	NameLookupURL         string
	NameLookupTimeout     time.Duration
	NameLookupConcurrency int
	NameLookupRateLimit   float64
	NameCacheSize         int
	NameCachePath         string

	// Optional Kafka sink. Empty brokers disable it.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	historyDays, err := positiveInt("HISTORY_DAYS", "365")
	if err != nil {
		return nil, err
	}
	concurrency, err := positiveInt("NAME_LOOKUP_CONCURRENCY", "150")
	if err != nil {
		return nil, err
	}
	cacheSize, err := positiveInt("NAME_CACHE_SIZE", "20000")
	if err != nil {
		return nil, err
	}

	lookupTimeout, err := duration("NAME_LOOKUP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	if lookupTimeout <= 0 {
		return nil, errors.New("invalid NAME_LOOKUP_TIMEOUT")
	}
	runInterval, err := duration("RUN_INTERVAL", "0")
	if err != nil {
		return nil, err
	}
	if runInterval < 0 {
		return nil, errors.New("invalid RUN_INTERVAL")
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("NAME_LOOKUP_RATE_LIMIT", "0"), 64)
	if err != nil || rateLimit < 0 {
		return nil, errors.New("invalid NAME_LOOKUP_RATE_LIMIT")
	}

	lookupEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("NAME_LOOKUP_ENABLED", "true"))
	if err != nil {
		return nil, errors.New("invalid NAME_LOOKUP_ENABLED")
	}

	var windowEnd time.Time
	if s := sharedcfg.EnvOrDefault("WINDOW_END", ""); s != "" {
		windowEnd, err = time.Parse(windowEndLayout, s)
		if err != nil {
			return nil, fmt.Errorf("invalid WINDOW_END: %w", err)
		}
	}

	var brokers []string
	if s := strings.TrimSpace(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "")); s != "" {
		brokers = sharedcfg.ParseBrokers(s)
	}

	cfg := &Config{
		FeedPath:        sharedcfg.EnvOrDefault("FEED_PATH", "PrixCarburants_annuel_2023.xml"),
		OutputPath:      sharedcfg.EnvOrDefault("OUTPUT_PATH", "graph_data/data.json"),
		HistoryDays:     historyDays,
		WindowEnd:       windowEnd,
		RunInterval:     runInterval,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		NameLookupEnabled:     lookupEnabled,
		NameLookupURL:         sharedcfg.EnvOrDefault("NAME_LOOKUP_URL", "https://www.prix-carburants.gouv.fr/map/recuperer_infos_pdv/{id}"),
		NameLookupTimeout:     lookupTimeout,
		NameLookupConcurrency: concurrency,
		NameLookupRateLimit:   rateLimit,
		NameCacheSize:         cacheSize,
		NameCachePath:         sharedcfg.EnvOrDefault("NAME_CACHE_PATH", ""),

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "fuel-stations"),
	}

	if cfg.FeedPath == "" {
		return nil, errors.New("FEED_PATH is required")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}
	if cfg.NameLookupEnabled && !strings.Contains(cfg.NameLookupURL, "{id}") {
		return nil, errors.New("NAME_LOOKUP_URL must contain {id}")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func positiveInt(key, def string) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func duration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
