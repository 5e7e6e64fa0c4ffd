package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"spacetrack/api/internal/app"
	"spacetrack/api/internal/config"
	"spacetrack/api/internal/images"
	"spacetrack/api/internal/logger"
	"spacetrack/api/internal/metrics"
	"spacetrack/api/internal/nasa"
	"spacetrack/api/internal/search"
	"spacetrack/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, "spacetrack-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	dataStore, fallback, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("store init failed", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, log)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, fallback, log)

	var imageStore images.Store
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		minioStore, err := images.NewMinioStore(ctx, images.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			log.Fatal("object storage init failed", zap.String("endpoint", cfg.MinioEndpoint), zap.Error(err))
		}
		imageStore = minioStore
	} else {
		log.Info("object storage not configured, image uploads disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	upstream := nasa.NewClient(nasa.Config{
		APIKey:     cfg.NASAAPIKey,
		BaseURL:    cfg.NASABaseURL,
		ISSBaseURL: cfg.ISSBaseURL,
		Timeout:    cfg.NASATimeout,
		RetryCount: cfg.NASARetryCount,
	}, log)

	service := app.New(cfg, dataStore, app.Dependencies{
		Search:  searchService,
		NASA:    upstream,
		Images:  imageStore,
		Metrics: appMetrics,
		Logger:  log,
	})
	if err := service.Bootstrap(ctx); err != nil {
		log.Warn("bootstrap error (will retry on next restart)", zap.Error(err))
	}

	httpServer := app.NewHTTPServer(service, app.ServerOptions{
		CORSOrigin: cfg.CORSOrigin,
		Logger:     log,
		Metrics:    appMetrics,
		Gatherer:   registry,
	})
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("SpaceTrack API listening",
			zap.String("addr", cfg.Addr),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreDriver),
			zap.String("search", service.SearchBackend()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}

// openStore builds the store selected by cfg.StoreDriver together with the
// searcher used when Meilisearch is unavailable.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Store, search.Searcher, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		memory := store.NewMemoryStore()
		return memory, search.NewStoreSearcher(memory), func() {}, nil

	case config.DriverPostgres:
		db, err := store.Open(ctx, cfg.DatabaseURL, store.DefaultPoolConfig())
		if err != nil {
			return nil, nil, nil, err
		}
		applied, err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir)
		if err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("migrations: %w", err)
		}
		if len(applied) > 0 {
			log.Info("applied migrations", zap.Strings("versions", applied))
		}
		return store.NewPostgresStore(db), search.NewPgFTS(db), func() { _ = db.Close() }, nil

	case config.DriverRedis:
		redisStore, err := store.NewRedisStore(cfg.RedisURL, cfg.RedisKeyPrefix)
		if err != nil {
			return nil, nil, nil, err
		}
		return redisStore, search.NewStoreSearcher(redisStore), func() { _ = redisStore.Close() }, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
