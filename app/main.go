package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/a1davida1/TPilot-sub011/app/api"
	"github.com/a1davida1/TPilot-sub011/app/cfg"
	"github.com/a1davida1/TPilot-sub011/app/database"
	"github.com/a1davida1/TPilot-sub011/app/gate"
	"github.com/a1davida1/TPilot-sub011/app/ingest"
	"github.com/a1davida1/TPilot-sub011/app/lint"
	"github.com/a1davida1/TPilot-sub011/app/registry"
	"github.com/a1davida1/TPilot-sub011/app/tasks"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	if appConfig.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting compliance engine", "version", appConfig.Version)

	// Database connection
	db, err := database.NewConnection(appConfig.DBPath)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	slog.Info("Database ready", "path", appConfig.DBPath, "migration_version", version, "dirty", dirty)

	// Load community registry
	configCache := registry.NewConfigCache(appConfig.CommunitiesDir)
	if err := configCache.Run(); err != nil {
		log.Fatal("Failed to load community configurations: ", err)
	}
	slog.Info("Community registry loaded", "dir", appConfig.CommunitiesDir, "count", configCache.GetConfigCount())

	// Initialize repositories
	ruleRepo := database.NewRuleRepository(db)
	eventRepo := database.NewEventRepository(db)
	userRepo := database.NewUserRepository(db)

	// Register enabled communities in the rule store so the scheduler picks
	// them up; disabled registry entries are never scheduled
	registeredCount := 0
	for name := range configCache.GetEnabledConfigs() {
		if err := ruleRepo.RegisterCommunity(name); err != nil {
			slog.Warn("Failed to register community", "community", name, "error", err)
			continue
		}
		registeredCount++
	}
	slog.Info("Communities registered", "count", registeredCount)

	// Initialize core components
	httpClient := &http.Client{Timeout: 30 * time.Second}
	ruleSource := ingest.NewRedditSource(httpClient, appConfig.RuleSourceURL, appConfig.UserAgent)
	ingestService := ingest.NewService(ruleSource, ruleRepo, configCache,
		appConfig.SyncBatchSize, time.Duration(appConfig.SyncBatchDelay)*time.Second)
	linter := lint.NewLinter(ruleRepo, eventRepo)
	previewGate := gate.NewGate(eventRepo)

	// Initialize and start scheduler
	scheduler := tasks.NewScheduler(ruleRepo, eventRepo, ingestService,
		time.Duration(appConfig.SchedulerInterval)*time.Second, appConfig.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appConfig.WorkerCount, "interval_seconds", appConfig.SchedulerInterval)

	// Initialize HTTP server
	apiHandler := api.NewHandler(ruleRepo, eventRepo, userRepo, linter, previewGate,
		ingestService, configCache, scheduler)
	server := api.NewServer(apiHandler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	// Graceful shutdown
	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
