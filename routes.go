package main

import (
	"github.com/gorilla/mux"
	"github.com/oschwald/geoip2-golang"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/localdeck/analytics/analytics"
	"github.com/localdeck/analytics/config"
	"github.com/localdeck/analytics/handlers"
	"github.com/localdeck/analytics/middleware"
)

func SetupRouter(cfg *config.Config, facade *analytics.Facade, geoipDB *geoip2.Reader) *mux.Router {

	router := mux.NewRouter()

	// Bearer tokens on track requests resolve the actor; absence means
	// anonymous, never a rejection.
	resolveActor := middleware.ResolveActor(cfg.JWTSecret)

	// track routes (write path)
	router.Handle("/api/track", resolveActor(handlers.TrackEvent(facade, geoipDB))).Methods("POST")
	router.Handle("/api/track/page-view", resolveActor(handlers.TrackPageView(facade, geoipDB))).Methods("POST")
	router.Handle("/api/track/business-view", resolveActor(handlers.TrackBusinessView(facade, geoipDB))).Methods("POST")
	router.Handle("/api/track/business-contact", resolveActor(handlers.TrackBusinessContact(facade, geoipDB))).Methods("POST")
	router.Handle("/api/track/search", resolveActor(handlers.TrackSearch(facade, geoipDB))).Methods("POST")
	router.Handle("/api/track/registration", resolveActor(handlers.TrackRegistration(facade, geoipDB))).Methods("POST")
	router.Handle("/api/track/review", resolveActor(handlers.TrackReview(facade, geoipDB))).Methods("POST")
	router.Handle("/api/track/favorite", resolveActor(handlers.TrackFavorite(facade, geoipDB))).Methods("POST")

	// dashboard routes (read path)
	requireAuth := middleware.RequireAuth(cfg.JWTSecret)
	router.Handle("/api/metrics", requireAuth(handlers.GetMetrics(facade))).Methods("GET")
	router.Handle("/api/realtime", requireAuth(handlers.GetRealTime(facade))).Methods("GET")

	// operational routes
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/health", handlers.HealthCheck()).Methods("GET")

	return router
}
