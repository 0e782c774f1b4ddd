package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mileusna/useragent"
	"github.com/oschwald/geoip2-golang"

	"github.com/localdeck/analytics/analytics"
	"github.com/localdeck/analytics/models"
	"github.com/localdeck/analytics/utils"
)

// The track endpoints are fire-and-forget from the browser's point of view:
// anything decodable is accepted with 202 and handed to the collector.
// Validation failures further down are logged no-ops, never responses.

func TrackEvent(facade *analytics.Facade, geoipDB *geoip2.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var receiver models.TrackReceiver
		if err := json.NewDecoder(r.Body).Decode(&receiver); err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		ctx := trackContext(r, geoipDB, receiver.SessionID)
		facade.Track(ctx, receiver.EventType, receiver.Category, receiver.Context, receiver.SubjectID)

		w.WriteHeader(http.StatusAccepted)
	}
}

func TrackPageView(facade *analytics.Facade, geoipDB *geoip2.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var receiver models.TrackReceiver
		if err := json.NewDecoder(r.Body).Decode(&receiver); err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		ctx := trackContext(r, geoipDB, receiver.SessionID)
		facade.Track(ctx, models.EventPageView, models.CategoryInteraction, receiver.Context, "")

		w.WriteHeader(http.StatusAccepted)
	}
}

func TrackBusinessView(facade *analytics.Facade, geoipDB *geoip2.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var receiver models.BusinessViewReceiver
		if err := json.NewDecoder(r.Body).Decode(&receiver); err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		ctx := trackContext(r, geoipDB, receiver.SessionID)
		facade.TrackBusinessView(ctx, receiver.BusinessID, receiver.Name)

		w.WriteHeader(http.StatusAccepted)
	}
}

func TrackBusinessContact(facade *analytics.Facade, geoipDB *geoip2.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var receiver models.BusinessContactReceiver
		if err := json.NewDecoder(r.Body).Decode(&receiver); err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		ctx := trackContext(r, geoipDB, receiver.SessionID)
		facade.TrackBusinessContact(ctx, receiver.BusinessID, receiver.Channel)

		w.WriteHeader(http.StatusAccepted)
	}
}

func TrackSearch(facade *analytics.Facade, geoipDB *geoip2.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var receiver models.SearchReceiver
		if err := json.NewDecoder(r.Body).Decode(&receiver); err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		ctx := trackContext(r, geoipDB, receiver.SessionID)
		facade.TrackSearch(ctx, receiver.Query, receiver.ResultsCount, receiver.Filters)

		w.WriteHeader(http.StatusAccepted)
	}
}

func TrackRegistration(facade *analytics.Facade, geoipDB *geoip2.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var receiver models.RegistrationReceiver
		if err := json.NewDecoder(r.Body).Decode(&receiver); err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		ctx := trackContext(r, geoipDB, receiver.SessionID)
		facade.TrackUserRegistration(ctx, receiver.ActorID, receiver.Method)

		w.WriteHeader(http.StatusAccepted)
	}
}

func TrackReview(facade *analytics.Facade, geoipDB *geoip2.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var receiver models.ReviewReceiver
		if err := json.NewDecoder(r.Body).Decode(&receiver); err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		ctx := trackContext(r, geoipDB, receiver.SessionID)
		facade.TrackReviewSubmission(ctx, receiver.BusinessID, receiver.Rating)

		w.WriteHeader(http.StatusAccepted)
	}
}

func TrackFavorite(facade *analytics.Facade, geoipDB *geoip2.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var receiver models.FavoriteReceiver
		if err := json.NewDecoder(r.Body).Decode(&receiver); err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		ctx := trackContext(r, geoipDB, receiver.SessionID)
		facade.TrackFavoriteToggle(ctx, receiver.BusinessID, receiver.Action)

		w.WriteHeader(http.StatusAccepted)
	}
}

// trackContext carries the browser's session token and the request-derived
// environment fields into the collector. Caller-supplied context keys always
// win over these.
func trackContext(r *http.Request, geoipDB *geoip2.Reader, sessionID string) context.Context {
	ctx := r.Context()

	if sessionID != "" {
		ctx = analytics.WithSession(ctx, analytics.SessionID(sessionID))
	}

	env := make(map[string]interface{})

	if uaHeader := r.Header.Get("User-Agent"); uaHeader != "" {
		ua := useragent.Parse(uaHeader)
		env[models.CtxDeviceType] = utils.GetDeviceType(&ua)
		env[models.CtxOS] = ua.OS
		env[models.CtxBrowser] = ua.Name
	}

	referrer := r.Header.Get("Referer")
	if referrer != "" {
		env[models.CtxReferrer] = referrer
	}
	env[models.CtxTrafficSource] = utils.GetTrafficSource(referrer)

	location := utils.GetLocationInfo(geoipDB, utils.GetIPAddress(r))
	if location.Country != "" {
		env[models.CtxCountry] = location.Country
		env[models.CtxRegion] = location.Region
		env[models.CtxCity] = location.City
	}

	return analytics.WithEnvironment(ctx, env)
}
