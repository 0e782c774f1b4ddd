package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/localdeck/analytics/analytics"
	"github.com/localdeck/analytics/config"
	"github.com/localdeck/analytics/db"
	"github.com/localdeck/analytics/metrics"
	"github.com/localdeck/analytics/middleware"
	"github.com/localdeck/analytics/registry"
	"github.com/localdeck/analytics/store"
)

func main() {
	// Load .env file at the very start; absence is fine in deployed envs.
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	cfg := config.Load()

	postgresDB, err := db.CreatePostgresConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Postgres")
	}
	defer postgresDB.Close()

	redisClient, err := db.CreateRedisConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisClient.Close()

	geoipDB, err := db.CreateGeoIPConnection(cfg)
	if err != nil {
		// Geo enrichment is optional; run without it.
		log.Warn().Err(err).Msg("GeoIP database unavailable, events won't carry location")
	}
	if geoipDB != nil {
		defer geoipDB.Close()
	}

	eventStore := store.NewPostgresEventStore(postgresDB)
	counters := store.NewRedisCounterStore(redisClient)

	session := analytics.NewSessionID()

	identity, err := analytics.NewCachedIdentity(middleware.ContextIdentity{}, session, 4096)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build identity cache")
	}

	collector := analytics.NewCollector(analytics.CollectorConfig{
		Session:       session,
		Store:         eventStore,
		Counters:      counters,
		Identity:      identity,
		Environment:   analytics.EnvironmentFromContext,
		QueueSize:     cfg.QueueSize,
		AppendTimeout: cfg.AppendTimeout,
		Logger:        log.Logger,
	})

	aggregator := analytics.NewAggregator(analytics.AggregatorConfig{
		Store:            eventStore,
		Businesses:       registry.NewPostgresBusinessRegistry(postgresDB),
		Profiles:         registry.NewPostgresProfileRegistry(postgresDB),
		Reviews:          registry.NewPostgresReviewStore(postgresDB),
		SubMetricTimeout: cfg.SubMetricTimeout,
		Logger:           log.Logger,
	})

	monitor := analytics.NewMonitor(eventStore, log.Logger)

	facade := analytics.NewFacade(collector, aggregator, monitor, log.Logger)
	defer facade.Close()

	// The real-time polling cadence lives here, not in the monitor: each tick
	// is an independent, idempotent computation mirrored into the gauges.
	poller := cron.New()
	if _, err := poller.AddFunc("@every "+cfg.RealtimePollInterval.String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.SubMetricTimeout)
		defer cancel()

		snapshot := facade.GetRealTime(ctx)
		metrics.RealtimeActiveSessions.Set(float64(snapshot.ActiveSessions))
		metrics.RealtimePageViews.Set(float64(snapshot.PageViews))
		metrics.RealtimeSearches.Set(float64(snapshot.Searches))
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule real-time poll")
	}
	poller.Start()
	defer poller.Stop()

	router := SetupRouter(cfg, facade, geoipDB)

	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: handlers.CORS( // cors config
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		)(router),
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("analytics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
