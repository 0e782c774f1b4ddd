package store

import (
	"context"
	"time"

	"github.com/localdeck/analytics/models"
)

// Filter narrows a Query. Zero fields mean "no constraint"; Start/End bound
// occurredAt as [Start, End).
type Filter struct {
	Types     []string
	Category  models.Category
	SubjectID string
	Start     time.Time
	End       time.Time
}

// EventStore is the durable append-only boundary. Append is atomic per event;
// Query returns matching events in append order, which is what every ranking
// tie-break downstream relies on.
type EventStore interface {
	Append(ctx context.Context, event models.AnalyticsEvent) error
	Query(ctx context.Context, filter Filter) ([]models.AnalyticsEvent, error)
}
