// Package registry holds the read-only boundaries toward the directory's own
// data model: businesses, user profiles, reviews. The analytics core consumes
// them when composing a metrics snapshot and never writes through them.
package registry

import (
	"context"
	"time"
)

// BusinessSummary carries the display fields the top-viewed ranking joins in.
type BusinessSummary struct {
	ID     string
	Name   string
	Rating float64
}

type BusinessRegistry interface {
	// Summaries resolves display fields for a set of business ids. Unknown
	// ids are simply absent from the result.
	Summaries(ctx context.Context, ids []string) (map[string]BusinessSummary, error)
	// CityBreakdown counts listed businesses per city.
	CityBreakdown(ctx context.Context) (map[string]int, error)
}

// ProfileStats counts profiles created since a cutoff, by attribute.
type ProfileStats struct {
	Verified       int
	BusinessOwners int
}

type ProfileRegistry interface {
	StatsSince(ctx context.Context, since time.Time) (ProfileStats, error)
}

// ReviewStats summarizes reviews by approval status over a range.
type ReviewStats struct {
	Total         int
	Approved      int
	Pending       int
	AverageRating float64
}

type ReviewStore interface {
	Stats(ctx context.Context, start, end time.Time) (ReviewStats, error)
}
