package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/kmadk/windborne-stratosphere/internal/api/http"
	"github.com/kmadk/windborne-stratosphere/internal/app"
	"github.com/kmadk/windborne-stratosphere/internal/config"
	"github.com/kmadk/windborne-stratosphere/internal/export/kafka"
	"github.com/kmadk/windborne-stratosphere/internal/fleet"
	"github.com/kmadk/windborne-stratosphere/internal/geocode"
	"github.com/kmadk/windborne-stratosphere/internal/observability"
	"github.com/kmadk/windborne-stratosphere/internal/playback"
	"github.com/kmadk/windborne-stratosphere/internal/providers"
	"github.com/kmadk/windborne-stratosphere/internal/scheduler"
	"github.com/kmadk/windborne-stratosphere/internal/store"
	"github.com/kmadk/windborne-stratosphere/internal/windfield"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger(observability.LogConfig{}).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := observability.NewLogger(observability.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if !cfg.DotenvLoaded {
		log.Info("no .env file found, using environment only")
	}

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	bands, err := windfield.LoadBands(cfg.JetStreamBandsFile)
	if err != nil {
		log.Error("failed to load jet stream bands", "error", err)
		os.Exit(1)
	}

	// Upstreams with resilience (backoff + circuit breaker).
	windborne := providers.NewWindBorneProvider(httpClient, cfg.WindBorneBaseURL, providers.DefaultBackoff)

	var live windfield.LiveSource
	if cfg.WindFieldLive {
		live = providers.NewOpenMeteoProvider(httpClient, cfg.OpenMeteoBaseURL, providers.DefaultBackoff)
	}

	loader := fleet.NewLoader(windborne, clock, log, metrics)
	wind := windfield.NewService(live, windfield.NewGenerator(bands, cfg.SyntheticSeed, clock), log, metrics)
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge, clock)

	opts := app.Options{
		LoadTimeout:    cfg.LoadTimeout,
		GeocodeTimeout: cfg.HTTPTimeout,
	}
	if cfg.GeocodingEnabled() {
		opts.Geocoder = geocode.NewCachedGeocoder(geocode.NewGoogleGeocoder(cfg.GoogleGeocodingAPIKey), cfg.GeocodeCacheSize)
	}
	var exporter *kafka.Writer
	if cfg.KafkaEnabled() {
		exporter = kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		opts.Exporter = exporter
	}

	state := app.New(loader, wind, memStore, func(onChange playback.ChangeFunc) *playback.Cursor {
		return playback.NewCursor(clock, cfg.PlaybackInterval, onChange, metrics)
	}, log, opts)

	// First load runs in the background so the server is reachable at once.
	go state.Reload(context.Background())

	// Scheduler that periodically reloads both datasets.
	sched := scheduler.New(cfg.ReloadSchedule, func(ctx context.Context) { state.Reload(ctx) }, log)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	server := fiber.New(fiber.Config{
		AppName:               "windborne-stratosphere",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Reload is synchronous and bounded by LoadTimeout.
		WriteTimeout: cfg.LoadTimeout + 5*time.Second,
		ErrorHandler: httpapi.ErrorHandler,
	})

	// Global middleware
	server.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	server.Use(logger.New())
	server.Use(recover.New())

	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "windborne-stratosphere",
		})
	})
	server.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(server, state, windborne)

	go func() {
		log.Info("http server listening", "port", cfg.Port)
		if err := server.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info("shutting down")

	sched.Stop()
	state.Cursor().Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	if exporter != nil {
		if err := exporter.Close(); err != nil {
			log.Error("error closing kafka writer", "error", err)
		}
	}
}
