package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "sjsage522/bonoworker/pkg/errors"
)

// maxMemcacheTTL is the longest relative expiration memcache accepts; larger
// values are read as absolute unix timestamps.
const maxMemcacheTTL = 30 * 24 * time.Hour

// Config represents the application configuration
type Config struct {
	// Source document
	SourceURL          string
	SourceOrigin       string
	SourceTimeout      time.Duration
	SourceMaxSize      int64
	SourceMaxRedirects int

	// Coordinate resolution
	SearchBaseURL  string
	ResolveTimeout time.Duration
	MaxRedirects   int
	BatchSize      int
	RetryTransient bool

	// Classification
	RulesPath   string
	FoldAccents bool

	// Output
	OutputPath           string
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int
	KafkaBrokers         []string
	KafkaTopic           string

	// Memcache configuration
	MemcacheAddr string
	MemcacheTTL  time.Duration

	// Metrics
	PushgatewayURL string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	sourceTimeout, _ := strconv.Atoi(getEnv("SOURCE_TIMEOUT_SECONDS", "30"))
	sourceMaxSize, _ := strconv.ParseInt(getEnv("SOURCE_MAX_BYTES", "5242880"), 10, 64)
	sourceMaxRedirects, _ := strconv.Atoi(getEnv("SOURCE_MAX_REDIRECTS", "10"))
	resolveTimeout, _ := strconv.Atoi(getEnv("RESOLVE_TIMEOUT_SECONDS", "7"))
	maxRedirects, _ := strconv.Atoi(getEnv("RESOLVE_MAX_REDIRECTS", "3"))
	batchSize, _ := strconv.Atoi(getEnv("BATCH_SIZE", "150"))
	retryTransient, _ := strconv.ParseBool(getEnv("RETRY_TRANSIENT", "false"))
	foldAccents, _ := strconv.ParseBool(getEnv("CLASSIFIER_FOLD_ACCENTS", "false"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "10"))
	memcacheTTL, _ := strconv.Atoi(getEnv("MEMCACHE_TTL_HOURS", "24"))

	return &Config{
		SourceURL:            getEnv("SOURCE_URL", "https://bonocomerciovlc.com/comercios-adheridos"),
		SourceOrigin:         getEnv("SOURCE_ORIGIN", "https://bonocomerciovlc.com"),
		SourceTimeout:        time.Duration(sourceTimeout) * time.Second,
		SourceMaxSize:        sourceMaxSize,
		SourceMaxRedirects:   sourceMaxRedirects,
		SearchBaseURL:        getEnv("SEARCH_BASE_URL", "https://www.google.com/maps/search/"),
		ResolveTimeout:       time.Duration(resolveTimeout) * time.Second,
		MaxRedirects:         maxRedirects,
		BatchSize:            batchSize,
		RetryTransient:       retryTransient,
		RulesPath:            os.Getenv("CLASSIFIER_RULES_PATH"),
		FoldAccents:          foldAccents,
		OutputPath:           getEnv("OUTPUT_PATH", "public/bono.json"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "bono"),
		RedisStreamMaxLength: redisStreamMaxLength,
		KafkaBrokers:         splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "bono"),
		MemcacheAddr:         os.Getenv("MEMCACHE_ADDR"),
		MemcacheTTL:          time.Duration(memcacheTTL) * time.Hour,
		PushgatewayURL:       os.Getenv("PUSHGATEWAY_URL"),
		Environment:          getEnv("BONO_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration can drive a run
func (c *Config) Validate() error {
	var errs []error
	if c.SourceURL == "" {
		errs = append(errs, errors.New("SOURCE_URL is required"))
	}
	if c.SourceOrigin == "" {
		errs = append(errs, errors.New("SOURCE_ORIGIN is required"))
	}
	if c.SearchBaseURL == "" {
		errs = append(errs, errors.New("SEARCH_BASE_URL is required"))
	}
	if c.SourceTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid source timeout: %s", c.SourceTimeout))
	}
	if c.SourceMaxSize <= 0 {
		errs = append(errs, fmt.Errorf("invalid source size limit: %d", c.SourceMaxSize))
	}
	if c.SourceMaxRedirects < 0 {
		errs = append(errs, fmt.Errorf("invalid source redirect limit: %d", c.SourceMaxRedirects))
	}
	if c.ResolveTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid resolve timeout: %s", c.ResolveTimeout))
	}
	if c.MaxRedirects < 0 {
		errs = append(errs, fmt.Errorf("invalid redirect limit: %d", c.MaxRedirects))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("invalid batch size: %d", c.BatchSize))
	}
	if c.MemcacheAddr != "" && (c.MemcacheTTL <= 0 || c.MemcacheTTL > maxMemcacheTTL) {
		errs = append(errs, fmt.Errorf("invalid memcache TTL: %s (must be between 1h and %s)", c.MemcacheTTL, maxMemcacheTTL))
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if c.OutputPath == "" && c.RedisAddr == "" && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("no output configured: set OUTPUT_PATH, REDIS_ADDR or KAFKA_BROKERS"))
	}
	if len(errs) == 0 {
		return nil
	}
	return apperrors.NewConfiguration("invalid configuration", errors.Join(errs...))
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// splitList splits a comma separated value, dropping empty items
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
