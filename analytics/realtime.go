package analytics

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/localdeck/analytics/models"
	"github.com/localdeck/analytics/store"
)

// Monitor computes the trailing-hour activity snapshot. Single-shot and
// idempotent: the polling cadence belongs to the caller, and overlapping
// invocations are independent.
type Monitor struct {
	store store.EventStore
	log   zerolog.Logger
	now   func() time.Time
}

func NewMonitor(eventStore store.EventStore, logger zerolog.Logger) *Monitor {
	return &Monitor{store: eventStore, log: logger, now: time.Now}
}

// ComputeRealTime counts active sessions, page views and searches in the
// trailing 60 minutes.
func (m *Monitor) ComputeRealTime(ctx context.Context) (*models.RealTimeSnapshot, error) {
	now := m.now().UTC()
	windowStart := now.Add(-time.Hour)

	events, err := m.store.Query(ctx, store.Filter{Start: windowStart, End: now})
	if err != nil {
		return nil, err
	}

	sessions := make(map[string]struct{})
	var pageViews, searches int
	for _, event := range events {
		sessions[event.SessionID] = struct{}{}
		switch event.EventType {
		case models.EventPageView:
			pageViews++
		case models.EventSearch:
			searches++
		}
	}

	return &models.RealTimeSnapshot{
		ActiveSessions: len(sessions),
		PageViews:      pageViews,
		Searches:       searches,
		WindowStart:    windowStart,
		ComputedAt:     now,
	}, nil
}
