package main

import (
	"context"
	"errors"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"polyglot/internal/config"
	"polyglot/internal/db"
	"polyglot/internal/handler"
	transport "polyglot/internal/http"
	"polyglot/internal/logger"
	"polyglot/internal/network"
	"polyglot/internal/repository"
	"polyglot/internal/scheduler"
	"polyglot/internal/service"
	"polyglot/internal/service/ai"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	dbConn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer dbConn.Close()

	settingsRepo := repository.NewSettingsRepository(dbConn)
	snapshotRepo := repository.NewSnapshotRepository(dbConn)
	cacheRepo := repository.NewTranslationCacheRepository(dbConn)

	rateLimiter := ai.NewRateLimiter(cfg.AI.RateLimit)
	settingsService := service.NewSettingsService(settingsRepo, cfg.AI, rateLimiter)
	clientFactory := network.NewClientFactory(settingsService)
	providers := service.NewProviderSource(settingsService, clientFactory, cfg.ProviderTimeout)

	translationService := service.NewTranslationService(cfg.Languages, cacheRepo, providers, rateLimiter)
	syncService := service.NewSyncService(snapshotRepo)
	cleanupService := service.NewCleanupService(syncService, cacheRepo, cfg.Retention)

	router := transport.NewRouter(
		handler.NewTranslateHandler(translationService),
		handler.NewSyncHandler(syncService),
		handler.NewSettingsHandler(settingsService, translationService),
		handler.NewHealthHandler(),
	)

	// Prune old snapshots and cached translations hourly
	sched := scheduler.New(cleanupService, time.Hour)
	sched.Start()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down", "module", "server", "action", "shutdown", "resource", "http", "result", "ok")
		sched.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := router.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "module", "server", "action", "shutdown", "resource", "http", "result", "failed", "error", err)
		}
	}()

	logger.Info("server starting", "module", "server", "action", "start", "resource", "http", "result", "ok", "addr", cfg.Addr, "languages", cfg.Languages)
	if err := router.Start(cfg.Addr); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("start server: %v", err)
	}
}
