package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/bonoworker/config"
	"sjsage522/bonoworker/helpers"
	"sjsage522/bonoworker/internal/classifier"
	"sjsage522/bonoworker/internal/crawler"
	"sjsage522/bonoworker/internal/pipeline"
	"sjsage522/bonoworker/internal/resolver"
	"sjsage522/bonoworker/logger"
	"sjsage522/bonoworker/pkg/metrics"
	"sjsage522/bonoworker/services/cache"
	"sjsage522/bonoworker/services/publisher"
	"sjsage522/bonoworker/services/worker"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const metricsJob = "bonoworker"

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("source", cfg.SourceURL).
		Int("batch_size", cfg.BatchSize).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := run(ctx, cfg); err != nil {
		logger.LogError("main", err, "Run failed")
		cancel()
		os.Exit(1)
	}

	logger.LogInfo("main", "Run completed")
}

// Services holds all the initialized services
type Services struct {
	Cache     *cache.LookupCache
	Publisher publisher.Publisher
	Metrics   *metrics.Metrics
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices initializes the cache, the output sinks and metrics
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{Metrics: metrics.New()}

	// Memcache is an optional second cache tier
	services.Cache = cache.NewLookupCache()
	if cfg.MemcacheAddr != "" {
		memcacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcacheService.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).
				Str("addr", cfg.MemcacheAddr).
				Msg("Memcache unavailable, using in-memory cache only")
		} else {
			services.Cache = cache.NewTieredLookupCache(memcacheService, cfg.MemcacheTTL)
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	var sinks publisher.Multi
	if cfg.OutputPath != "" {
		sinks = append(sinks, publisher.NewFilePublisher(cfg.OutputPath))
	}
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(); err != nil {
			redisPublisher.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		sinks = append(sinks, redisPublisher)

		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}
	if len(cfg.KafkaBrokers) > 0 {
		sinks = append(sinks, publisher.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic))

		logger.Info("Publishing to Kafka topic %s", cfg.KafkaTopic)
	}
	if len(sinks) == 0 {
		return nil, fmt.Errorf("no output configured")
	}
	services.Publisher = sinks

	return services, nil
}

// newClassifier loads the rule file if one is configured
func newClassifier(cfg *config.Config) (*classifier.Classifier, error) {
	if cfg.RulesPath != "" {
		return classifier.LoadRulesFile(cfg.RulesPath)
	}

	var opts []classifier.Option
	if cfg.FoldAccents {
		opts = append(opts, classifier.WithAccentFolding())
	}
	return classifier.New(classifier.DefaultRules, classifier.DefaultLabel, opts...), nil
}

// run performs one full generation: fetch, extract, classify, resolve and publish.
func run(ctx context.Context, cfg *config.Config) error {
	runID := uuid.NewString()
	log := logger.ForPipeline().WithFields(logger.Fields{
		"run_id":      runID,
		"environment": cfg.Environment,
	})

	cls, err := newClassifier(cfg)
	if err != nil {
		return fmt.Errorf("failed to load classifier rules: %w", err)
	}

	services, err := initializeServices(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer services.Cleanup()

	resolverConfig := resolver.DefaultConfig()
	resolverConfig.SearchBaseURL = cfg.SearchBaseURL
	resolverConfig.Timeout = cfg.ResolveTimeout
	resolverConfig.MaxRedirects = cfg.MaxRedirects
	resolverConfig.RetryTransient = cfg.RetryTransient
	res := resolver.New(resolverConfig, services.Cache, resolver.WithMetrics(services.Metrics))

	p := pipeline.New(
		crawler.NewExtractor(crawler.NewDirectoryConfig(cfg.SourceOrigin)),
		cls,
		worker.NewWorker(res, cfg.BatchSize, services.Metrics),
		services.Metrics,
	)

	source := &pipeline.HTTPSource{
		URL:      cfg.SourceURL,
		Client:   helpers.NewClient(cfg.SourceTimeout, cfg.SourceMaxRedirects),
		MaxBytes: cfg.SourceMaxSize,
	}

	doc, stats, err := p.Generate(ctx, source)
	if err != nil {
		return err
	}

	// A shutdown signal after Generate returned still must not publish
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted before publish: %w", err)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := services.Publisher.Publish(runID, payload); err != nil {
		return fmt.Errorf("failed to publish document: %w", err)
	}

	hits, misses := services.Cache.Stats()
	log.Info().
		Int("merchants", stats.Merchants).
		Int("resolved", stats.Resolved).
		Int("requested", stats.Requested).
		Int64("cache_hits", hits).
		Int64("cache_misses", misses).
		Dur("elapsed", stats.Elapsed).
		Msg("Document published")

	if cfg.PushgatewayURL != "" {
		if err := services.Metrics.Push(ctx, cfg.PushgatewayURL, metricsJob); err != nil {
			log.Warn().Err(err).Str("url", cfg.PushgatewayURL).Msg("Failed to push metrics")
		}
	}

	return nil
}
