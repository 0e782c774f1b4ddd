package models

import (
	"errors"
	"fmt"
	"time"
)

// Category is the coarse partition an event belongs to. It's used for
// filtering and reporting, not for routing.
type Category string

const (
	CategoryUser        Category = "user"
	CategoryBusiness    Category = "business"
	CategorySearch      Category = "search"
	CategoryInteraction Category = "interaction"
	CategorySystem      Category = "system"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryUser, CategoryBusiness, CategorySearch, CategoryInteraction, CategorySystem:
		return true
	}
	return false
}

// Well-known event types. Callers may track custom types through the generic
// Track path, but everything the aggregator keys off is listed here.
const (
	EventPageView         = "page_view"
	EventBusinessView     = "business_view"
	EventBusinessContact  = "business_contact"
	EventSearch           = "search"
	EventUserRegistration = "user_registration"
	EventReviewSubmission = "review_submission"
	EventFavoriteToggle   = "favorite_toggle"
)

// Context keys the collector and aggregator agree on.
const (
	CtxQuery         = "query"
	CtxResultsCount  = "resultsCount"
	CtxHasResults    = "hasResults"
	CtxAction        = "action"
	CtxChannel       = "channel"
	CtxRating        = "rating"
	CtxMethod        = "method"
	CtxName          = "name"
	CtxConversion    = "conversion"
	CtxTimestamp     = "timestamp"
	CtxPage          = "page"
	CtxReferrer      = "referrer"
	CtxDeviceType    = "deviceType"
	CtxOS            = "os"
	CtxBrowser       = "browser"
	CtxTrafficSource = "trafficSource"
	CtxCountry       = "country"
	CtxRegion        = "region"
	CtxCity          = "city"
)

// AnalyticsEvent is the atomic unit of observation. Events are immutable once
// stored: append-only, no update, no delete.
type AnalyticsEvent struct {
	ID         string                 `json:"id"`
	EventType  string                 `json:"eventType"`
	Category   Category               `json:"category"`
	SessionID  string                 `json:"sessionId"`
	ActorID    string                 `json:"actorId,omitempty"`
	SubjectID  string                 `json:"subjectId,omitempty"`
	Context    map[string]interface{} `json:"context"`
	OccurredAt time.Time              `json:"occurredAt"`
}

// Validate checks the invariants every stored event must hold.
func (e *AnalyticsEvent) Validate() error {
	if e.EventType == "" {
		return errors.New("eventType is required")
	}
	if !e.Category.Valid() {
		return fmt.Errorf("invalid category %q", e.Category)
	}
	if e.SessionID == "" {
		return errors.New("sessionId is required")
	}
	if e.OccurredAt.After(time.Now().Add(time.Second)) {
		return errors.New("occurredAt must not be in the future")
	}
	return nil
}

// requiredContextKeys is the minimal documented context subset per event type.
// The context map stays open; these keys just have to be present.
var requiredContextKeys = map[string][]string{
	EventSearch:           {CtxQuery, CtxResultsCount},
	EventBusinessContact:  {CtxChannel},
	EventReviewSubmission: {CtxRating},
	EventUserRegistration: {CtxMethod},
	EventFavoriteToggle:   {CtxAction},
}

// ValidateContext checks that the context carries the minimal required keys
// for the given event type. Types without a declared subset always pass.
func ValidateContext(eventType string, context map[string]interface{}) error {
	for _, key := range requiredContextKeys[eventType] {
		if _, ok := context[key]; !ok {
			return fmt.Errorf("event %q requires context key %q", eventType, key)
		}
	}
	return nil
}

// TrackReceiver is the wire shape of a generic POST /api/track request.
type TrackReceiver struct {
	EventType string                 `json:"eventType"`
	Category  Category               `json:"category"`
	SessionID string                 `json:"sessionId"`
	SubjectID string                 `json:"subjectId"`
	Context   map[string]interface{} `json:"context"`
}

// BusinessViewReceiver is the wire shape of a business-view track request.
type BusinessViewReceiver struct {
	SessionID  string `json:"sessionId"`
	BusinessID string `json:"businessId"`
	Name       string `json:"name"`
}

// BusinessContactReceiver is the wire shape of a business-contact track request.
type BusinessContactReceiver struct {
	SessionID  string `json:"sessionId"`
	BusinessID string `json:"businessId"`
	Channel    string `json:"channel"`
}

// SearchReceiver is the wire shape of a search track request.
type SearchReceiver struct {
	SessionID    string                 `json:"sessionId"`
	Query        string                 `json:"query"`
	ResultsCount int                    `json:"resultsCount"`
	Filters      map[string]interface{} `json:"filters"`
}

// RegistrationReceiver is the wire shape of a registration track request.
type RegistrationReceiver struct {
	SessionID string `json:"sessionId"`
	ActorID   string `json:"actorId"`
	Method    string `json:"method"`
}

// ReviewReceiver is the wire shape of a review-submission track request.
type ReviewReceiver struct {
	SessionID  string `json:"sessionId"`
	BusinessID string `json:"businessId"`
	Rating     int    `json:"rating"`
}

// FavoriteReceiver is the wire shape of a favorite-toggle track request.
type FavoriteReceiver struct {
	SessionID  string `json:"sessionId"`
	BusinessID string `json:"businessId"`
	Action     string `json:"action"`
}
