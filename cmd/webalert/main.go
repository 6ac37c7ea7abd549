package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lab007/webalert/internal/api"
	"github.com/lab007/webalert/internal/config"
	"github.com/lab007/webalert/internal/datastore"
	"github.com/lab007/webalert/internal/fetcher"
	"github.com/lab007/webalert/internal/logger"
	"github.com/lab007/webalert/internal/monitor"
	"github.com/lab007/webalert/internal/notifier"

	"github.com/joho/godotenv"
)

func main() {
	configFile := flag.String("config", "", "Path to the global YAML/JSON configuration file. If not set, searches default locations.")
	configFileAlias := flag.String("c", "", "Alias for --config")
	flag.Parse()

	if *configFile == "" && *configFileAlias != "" {
		*configFile = *configFileAlias
	}

	// Best effort; SMTP credentials usually come from the environment.
	_ = godotenv.Load()

	gCfg, err := config.LoadGlobalConfig(*configFile)
	if err != nil {
		log.Fatalf("[FATAL] Main: Could not load global config using path '%s': %v", *configFile, err)
	}

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		log.Fatalf("[FATAL] Main: Could not initialize logger: %v", err)
	}

	if err := config.ValidateConfig(gCfg); err != nil {
		zLogger.Fatal().Err(err).Msg("Configuration validation failed")
	}
	zLogger.Info().Msg("Configuration validated successfully")

	store, err := datastore.NewSQLiteStore(gCfg.StorageConfig.SQLiteDBPath, zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Str("path", gCfg.StorageConfig.SQLiteDBPath).Msg("Failed to open subscription store")
	}
	defer store.Close()

	var channels []notifier.ChannelNotifier
	if gCfg.NotificationConfig.Enabled() {
		sender, err := notifier.NewSMTPSender(&gCfg.NotificationConfig, zLogger)
		if err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to initialize SMTP sender")
		}
		channels = append(channels,
			notifier.NewEmailNotifier(sender, &gCfg.NotificationConfig, zLogger),
			notifier.NewSMSNotifier(sender, &gCfg.NotificationConfig, zLogger))
	} else {
		zLogger.Warn().Msg("SMTP is not configured; change detection will run without notifications")
	}
	dispatcher := notifier.NewDispatcher(store, zLogger, channels...)

	contentFetcher := fetcher.New(&gCfg.MonitorConfig, zLogger)
	registry := monitor.NewRegistry()
	service := monitor.NewService(store, contentFetcher, dispatcher, registry, &gCfg.MonitorConfig, &gCfg.NotificationConfig, zLogger)

	if err := service.ReplayActiveURLs(context.Background()); err != nil {
		zLogger.Error().Err(err).Msg("Failed to resume monitoring jobs from the store")
	}

	requestTimeout := time.Duration(gCfg.ServerConfig.RequestTimeoutSeconds) * time.Second
	apiServer := api.NewServer(service, requestTimeout, zLogger)
	httpServer := &http.Server{
		Addr:    gCfg.ServerConfig.ListenAddress,
		Handler: apiServer,
	}

	go func() {
		zLogger.Info().Str("address", gCfg.ServerConfig.ListenAddress).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zLogger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	zLogger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zLogger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	service.Shutdown()
	zLogger.Info().Msg("Shutdown complete")
}
