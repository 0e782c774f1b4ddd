package analytics

import (
	"context"
	"math"
	"time"

	"github.com/localdeck/analytics/models"
	"github.com/localdeck/analytics/store"
	"github.com/localdeck/analytics/utils"
)

// visitorMetrics computes the visitor and page-view sections from page_view
// events. Growth and returning/new splits compare against the immediately
// preceding window of equal length.
func (a *Aggregator) visitorMetrics(ctx context.Context, start, end time.Time) (models.VisitorMetrics, models.PageViewMetrics, error) {
	events, err := a.store.Query(ctx, store.Filter{
		Types: []string{models.EventPageView},
		Start: start,
		End:   end,
	})
	if err != nil {
		return models.VisitorMetrics{}, models.PageViewMetrics{}, err
	}

	previous, err := a.store.Query(ctx, store.Filter{
		Types: []string{models.EventPageView},
		Start: start.Add(-end.Sub(start)),
		End:   start,
	})
	if err != nil {
		return models.VisitorMetrics{}, models.PageViewMetrics{}, err
	}

	// "today" is the trailing 24 hours, not the calendar date
	todayStart := end.Add(-24 * time.Hour)
	weekStart := end.AddDate(0, 0, -7)
	monthStart := end.AddDate(0, 0, -30)

	sessions := make(map[string]struct{})
	todaySessions := make(map[string]struct{})
	weekSessions := make(map[string]struct{})
	monthSessions := make(map[string]struct{})
	pageViewsPerSession := make(map[string]int)
	uniquePages := make(map[string]struct{})

	for _, event := range events {
		sessions[event.SessionID] = struct{}{}
		pageViewsPerSession[event.SessionID]++
		uniquePages[event.SessionID+"\x00"+ctxString(event.Context, models.CtxPage)] = struct{}{}

		if !event.OccurredAt.Before(todayStart) {
			todaySessions[event.SessionID] = struct{}{}
		}
		if !event.OccurredAt.Before(weekStart) {
			weekSessions[event.SessionID] = struct{}{}
		}
		if !event.OccurredAt.Before(monthStart) {
			monthSessions[event.SessionID] = struct{}{}
		}
	}

	previousSessions := make(map[string]struct{})
	for _, event := range previous {
		previousSessions[event.SessionID] = struct{}{}
	}

	unique := len(sessions)

	returning := 0
	for session := range sessions {
		if _, ok := previousSessions[session]; ok {
			returning++
		}
	}

	growth := 0.0
	if prevUnique := len(previousSessions); prevUnique > 0 {
		growth = utils.ClampPercent(float64(unique-prevUnique) / float64(prevUnique) * 100)
	}

	visitors := models.VisitorMetrics{
		Total:     len(events),
		Unique:    unique,
		Returning: returning,
		New:       unique - returning,
		Today:     len(todaySessions),
		ThisWeek:  len(weekSessions),
		ThisMonth: len(monthSessions),
		Growth:    growth,
	}

	bounced := 0
	for _, count := range pageViewsPerSession {
		if count == 1 {
			bounced++
		}
	}

	avgPerSession := 0.0
	if unique > 0 {
		avgPerSession = math.Round(float64(len(events))/float64(unique)*100) / 100
	}

	pageViews := models.PageViewMetrics{
		Total:         len(events),
		Unique:        len(uniquePages),
		AvgPerSession: avgPerSession,
		BounceRate:    utils.Percent(bounced, unique),
	}

	return visitors, pageViews, nil
}
