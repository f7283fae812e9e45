package di

import (
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mailsentry/internal/allowlist"
	"github.com/mikey/mailsentry/internal/config"
	"github.com/mikey/mailsentry/internal/core"
	"github.com/mikey/mailsentry/internal/engine"
	"github.com/mikey/mailsentry/internal/factory"
	"github.com/mikey/mailsentry/internal/logging"
	"github.com/mikey/mailsentry/internal/ports"
	"github.com/mikey/mailsentry/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register validated engine configuration
	if err := container.Provide(func(cfg *config.Config) (config.EngineConfig, error) {
		engineCfg := cfg.GetEngine()
		if err := engineCfg.Validate(); err != nil {
			return config.EngineConfig{}, err
		}
		return engineCfg, nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(tp *utils.TextProcessor) core.TextNormalizer {
		return tp
	}); err != nil {
		return nil, err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.Classifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register classifier cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.ClassifierCache, error) {
		return f.CreateClassifierCache()
	}); err != nil {
		return nil, err
	}

	// Register history store
	if err := container.Provide(func(f *factory.HistoryFactory) (core.HistoryStore, error) {
		return f.CreateHistoryStore()
	}); err != nil {
		return nil, err
	}

	// Register allowlist checker
	if err := container.Provide(func(engineCfg config.EngineConfig, logger *zap.Logger) *allowlist.Checker {
		return allowlist.NewChecker(engineCfg.AllowlistedDomains, logger)
	}); err != nil {
		return nil, err
	}

	// Register analysis service
	if err := container.Provide(func(
		cfg *config.Config,
		engineCfg config.EngineConfig,
		classifier core.Classifier,
		normalizer core.TextNormalizer,
		history core.HistoryStore,
		cache core.ClassifierCache,
		cacheFactory *factory.CacheFactory,
		logger *zap.Logger,
	) (*engine.AnalysisService, error) {
		classifierTimeout, err := cfg.GetDuration("classifier.timeout")
		if err != nil {
			return nil, err
		}
		var cacheTTL time.Duration
		if cache != nil {
			cacheTTL, err = cacheFactory.GetCacheTTL()
			if err != nil {
				return nil, err
			}
		}
		return engine.NewAnalysisService(
			classifier,
			normalizer,
			history,
			cache,
			logger,
			engineCfg,
			classifierTimeout,
			cacheTTL,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
