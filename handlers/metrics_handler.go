package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/localdeck/analytics/analytics"
	"github.com/localdeck/analytics/utils"
)

// GetMetrics serves the composite dashboard snapshot. A partially degraded
// snapshot is an expected outcome, so this only ever answers 200 with
// whatever could be computed.
func GetMetrics(facade *analytics.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window := r.URL.Query().Get("window")
		if window == "" {
			window = "7d"
		}

		snapshot, err := facade.GetMetrics(r.Context(), window)
		if err != nil {
			log.Error().Err(err).Msg("failed to compute metrics snapshot")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		utils.WriteJSONResponse(w, http.StatusOK, snapshot)
	}
}

// GetRealTime serves the trailing-hour snapshot, computed at request time.
func GetRealTime(facade *analytics.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONResponse(w, http.StatusOK, facade.GetRealTime(r.Context()))
	}
}

func HealthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
