package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/swytch/backend/config"
	httpDelivery "github.com/swytch/backend/internal/delivery/http"
	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/infrastructure/cache"
	"github.com/swytch/backend/internal/infrastructure/catalog"
	"github.com/swytch/backend/internal/infrastructure/climatiq"
	"github.com/swytch/backend/internal/infrastructure/llm"
	"github.com/swytch/backend/internal/infrastructure/logging"
	"github.com/swytch/backend/internal/infrastructure/logo"
	"github.com/swytch/backend/internal/infrastructure/serpapi"
	"github.com/swytch/backend/internal/infrastructure/storefront"
	"github.com/swytch/backend/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	os.Exit(exitCode(logger, func() error { return run(cfg, logger) }))
}

// exitCode runs fn and flushes the logger before the process exits
func exitCode(logger *zap.Logger, fn func() error) int {
	defer func() { _ = logger.Sync() }()

	if err := fn(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting Swytch eco backend",
		zap.String("version", httpDelivery.Version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache", cfg.Cache.Type),
		zap.Duration("cache_ttl", cfg.Cache.TTL))

	// Cache
	cacheRepo, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	// Language model
	model, err := llm.New(ctx, cfg.Vision.Backend, llm.Credentials{
		OpenAIKey:      cfg.OpenAI.APIKey,
		OpenAIModel:    cfg.OpenAI.Model,
		OpenAIBaseURL:  cfg.OpenAI.BaseURL,
		GeminiKey:      cfg.Gemini.APIKey,
		GeminiModel:    cfg.Gemini.Model,
		AnthropicKey:   cfg.Anthropic.APIKey,
		AnthropicModel: cfg.Anthropic.Model,
	})
	if err != nil {
		return fmt.Errorf("language model: %w", err)
	}
	if model == nil {
		logger.Warn("no language model configured, using filename stubs and heuristic strategies",
			zap.String("backend", cfg.Vision.Backend))
	} else {
		logger.Info("language model configured", zap.String("backend", model.Name()))
	}

	// Logo detection
	var logos domain.LogoDetector
	if cfg.Vision.LogoDetection {
		detector, err := logo.NewDetector(ctx)
		if err != nil {
			logger.Warn("logo detection disabled", zap.Error(err))
		} else {
			defer detector.Close()
			logos = detector
			logger.Info("logo detection enabled")
		}
	}

	// Climatiq
	var carbon *usecase.CarbonService
	climatiqClient := climatiq.NewClient(climatiq.Options{
		APIKey:          cfg.Climatiq.APIKey,
		BaseURL:         cfg.Climatiq.BaseURL,
		DataVersion:     cfg.Climatiq.DataVersion,
		Timeout:         cfg.Climatiq.Timeout,
		RequestsPerHour: cfg.RateLimit.Climatiq,
	}, logger)
	logger.Info("Climatiq API",
		zap.String("base_url", cfg.Climatiq.BaseURL),
		zap.String("key", logging.KeyPrefix(cfg.Climatiq.APIKey, 6)))
	if climatiqClient.Configured() {
		carbon = usecase.NewCarbonService(climatiqClient, cacheRepo, usecase.CarbonConfig{
			CacheTTL:   cfg.Cache.TTL,
			IncludeRaw: cfg.Server.ReturnDebug,
		}, logger)
	}

	// Storefronts
	router := storefront.NewRouter()
	serp := serpapi.NewClient(serpapi.Options{
		APIKey:          cfg.SerpAPI.APIKey,
		BaseURL:         cfg.SerpAPI.BaseURL,
		Timeout:         cfg.SerpAPI.Timeout,
		RequestsPerHour: cfg.RateLimit.SerpAPI,
	}, logger)
	if serp.Configured() {
		router.Register(domain.StorefrontGoogle, serp)
		router.Register(domain.StorefrontShopping, serp)
	}
	logger.Info("SerpAPI", zap.String("key", logging.KeyPrefix(cfg.SerpAPI.APIKey, 6)))

	catalogEnabled := false
	if cfg.Catalog.Enabled() {
		es, err := catalog.NewClient(catalog.Config{
			Addresses: cfg.Catalog.Addresses,
			Index:     cfg.Catalog.Index,
			Username:  cfg.Catalog.Username,
			Password:  cfg.Catalog.Password,
		})
		if err == nil {
			err = catalog.Ping(ctx, es)
		}
		if err != nil {
			logger.Warn("product catalog disabled", zap.Error(err))
		} else {
			router.Register(domain.StorefrontCatalog, catalog.NewSearcher(es, cfg.Catalog.Index, logger))
			catalogEnabled = true
			logger.Info("product catalog enabled", zap.String("index", cfg.Catalog.Index))
		}
	}

	storefronts := storefront.Build(storefront.Options{
		SerpAPI:        serp.Configured(),
		ShoppingEngine: cfg.Search.ShoppingEngine,
		ShopDomains:    cfg.Search.ShopDomains,
		Catalog:        catalogEnabled,
	})
	logger.Info("storefronts",
		zap.Int("count", len(storefronts)),
		zap.Strings("shop_domains", cfg.Search.ShopDomains))

	// Usecase layer
	preprocessor := usecase.NewQueryPreprocessor(logger)
	vision := usecase.NewVisionService(model, logos, logger)
	strategy := usecase.NewStrategyService(model, preprocessor, usecase.StrategyConfig{
		MaxQueries:  cfg.Search.MaxQueries,
		ShopDomains: cfg.Search.ShopDomains,
	}, logger)
	ranking := usecase.NewRankingService(usecase.RankingConfig{
		ShopDomains: cfg.Search.ShopDomains,
		MaxPerBrand: cfg.Search.MaxPerBrand,
		MaxResults:  cfg.Search.MaxResults,
	}, logger)
	alternatives := usecase.NewAlternativesService(strategy, ranking, router, storefronts, cacheRepo, usecase.AlternativesConfig{
		ResultsPerQuery: cfg.Search.ResultsPerQuery,
		Concurrency:     cfg.Search.Concurrency,
		TaskTimeout:     cfg.Search.TaskTimeout,
		CacheTTL:        cfg.Cache.TTL,
	}, logger)
	analyze := usecase.NewAnalyzeService(vision, carbon, alternatives, cfg.Server.ReturnDebug, logger)

	// HTTP
	handler := httpDelivery.NewHandler(analyze, cfg.Server.MaxUploadBytes, logger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           httpDelivery.SetupRouter(cfg, handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newCache builds the configured cache and its close func
func newCache(ctx context.Context, cfg *config.Config) (domain.CacheRepository, func(), error) {
	if cfg.Cache.Type == "redis" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		rc := cache.NewRedisCache(rdb, cache.DefaultNamespace)
		return rc, func() { _ = rc.Close() }, nil
	}

	mc := cache.NewMemoryCache()
	return mc, func() { _ = mc.Close() }, nil
}
