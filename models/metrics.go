package models

import "time"

// VisitorMetrics summarizes session activity inside a window. Growth compares
// the window's unique-session count against the immediately preceding window
// of equal length.
type VisitorMetrics struct {
	Total     int     `json:"total"`
	Unique    int     `json:"unique"`
	Returning int     `json:"returning"`
	New       int     `json:"new"`
	Today     int     `json:"today"`
	ThisWeek  int     `json:"thisWeek"`
	ThisMonth int     `json:"thisMonth"`
	Growth    float64 `json:"growth"`
}

type PageViewMetrics struct {
	Total         int     `json:"total"`
	Unique        int     `json:"unique"`
	AvgPerSession float64 `json:"avgPerSession"`
	BounceRate    float64 `json:"bounceRate"`
}

// TopBusiness is one row of the ranked top-viewed list, joined against the
// business registry for display fields.
type TopBusiness struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
	Views  int     `json:"views"`
}

type BusinessMetrics struct {
	TotalViews     int           `json:"totalViews"`
	TotalContacts  int           `json:"totalContacts"`
	TotalFavorites int           `json:"totalFavorites"`
	ConversionRate float64       `json:"conversionRate"`
	TopViewed      []TopBusiness `json:"topViewed"`
}

// TopKeyword is one row of the ranked search keywords list. Results is the
// average result count across the keyword's searches.
type TopKeyword struct {
	Keyword string  `json:"keyword"`
	Count   int     `json:"count"`
	Results float64 `json:"results"`
}

type SearchMetrics struct {
	Total          int          `json:"total"`
	UniqueKeywords int          `json:"uniqueKeywords"`
	TopKeywords    []TopKeyword `json:"topKeywords"`
	NoResults      int          `json:"noResults"`
	ConversionRate float64      `json:"conversionRate"`
}

type UserMetrics struct {
	NewRegistrations int     `json:"newRegistrations"`
	Active           int     `json:"active"`
	Verified         int     `json:"verified"`
	BusinessOwners   int     `json:"businessOwners"`
	RetentionRate    float64 `json:"retentionRate"`
}

// ReviewMetrics is sourced from the review store, not from the event stream:
// reviews are a first-class entity, not merely an event.
type ReviewMetrics struct {
	Total         int     `json:"total"`
	Approved      int     `json:"approved"`
	Pending       int     `json:"pending"`
	AverageRating float64 `json:"averageRating"`
	ResponseRate  float64 `json:"responseRate"`
}

// Share is one bucket of a categorical breakdown (geography, devices,
// traffic sources) with its percentage of the whole.
type Share struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// MetricsSnapshot is a derived, read-only aggregate over [StartDate, EndDate).
// It is never persisted; every call recomputes it from the event store.
type MetricsSnapshot struct {
	Window     string          `json:"window"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    time.Time       `json:"endDate"`
	Visitors   VisitorMetrics  `json:"visitors"`
	PageViews  PageViewMetrics `json:"pageViews"`
	Businesses BusinessMetrics `json:"businesses"`
	Searches   SearchMetrics   `json:"searches"`
	Users      UserMetrics     `json:"users"`
	Reviews    ReviewMetrics   `json:"reviews"`
	Geography  []Share         `json:"geography"`
	Devices    []Share         `json:"devices"`
	Traffic    []Share         `json:"traffic"`
	ComputedAt time.Time       `json:"computedAt"`
}

// RealTimeSnapshot is a narrow aggregate over the trailing hour, computed at
// request time and never cached beyond its own computation.
type RealTimeSnapshot struct {
	ActiveSessions int       `json:"activeSessions"`
	PageViews      int       `json:"pageViews"`
	Searches       int       `json:"searches"`
	WindowStart    time.Time `json:"windowStart"`
	ComputedAt     time.Time `json:"computedAt"`
}
