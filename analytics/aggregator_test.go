package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localdeck/analytics/models"
	"github.com/localdeck/analytics/registry"
	"github.com/localdeck/analytics/store"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type stubBusinessRegistry struct {
	summaries map[string]registry.BusinessSummary
	cities    map[string]int
	err       error
}

func (s *stubBusinessRegistry) Summaries(context.Context, []string) (map[string]registry.BusinessSummary, error) {
	return s.summaries, s.err
}

func (s *stubBusinessRegistry) CityBreakdown(context.Context) (map[string]int, error) {
	return s.cities, s.err
}

type stubProfileRegistry struct {
	stats registry.ProfileStats
	err   error
}

func (s *stubProfileRegistry) StatsSince(context.Context, time.Time) (registry.ProfileStats, error) {
	return s.stats, s.err
}

type stubReviewStore struct {
	stats registry.ReviewStats
	err   error
}

func (s *stubReviewStore) Stats(context.Context, time.Time, time.Time) (registry.ReviewStats, error) {
	return s.stats, s.err
}

func newTestAggregator(eventStore store.EventStore) *Aggregator {
	return NewAggregator(AggregatorConfig{
		Store:  eventStore,
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return testNow },
	})
}

func event(eventType string, category models.Category, sessionID string, at time.Time, mutate func(*models.AnalyticsEvent)) models.AnalyticsEvent {
	e := models.AnalyticsEvent{
		ID:         uuid.New().String(),
		EventType:  eventType,
		Category:   category,
		SessionID:  sessionID,
		Context:    map[string]interface{}{},
		OccurredAt: at,
	}
	if mutate != nil {
		mutate(&e)
	}
	return e
}

func appendAll(t *testing.T, s *store.MemoryEventStore, events ...models.AnalyticsEvent) {
	t.Helper()
	for _, e := range events {
		require.NoError(t, s.Append(context.Background(), e))
	}
}

func TestComputeMetricsZeroState(t *testing.T) {
	agg := newTestAggregator(store.NewMemoryEventStore())

	snap, err := agg.ComputeMetrics(context.Background(), "7d")
	require.NoError(t, err)

	assert.Equal(t, 0, snap.Visitors.Total)
	assert.Equal(t, 0, snap.Visitors.Unique)
	assert.Equal(t, 0.0, snap.Visitors.Growth)
	assert.Equal(t, 0, snap.PageViews.Total)
	assert.Equal(t, 0.0, snap.PageViews.BounceRate)
	assert.Equal(t, 0, snap.Businesses.TotalViews)
	assert.Equal(t, 0.0, snap.Businesses.ConversionRate)
	assert.Empty(t, snap.Businesses.TopViewed)
	assert.Equal(t, 0, snap.Searches.Total)
	assert.Equal(t, 0.0, snap.Searches.ConversionRate)
	assert.Equal(t, 0, snap.Users.NewRegistrations)
	assert.Equal(t, 0, snap.Reviews.Total)
	assert.Empty(t, snap.Geography)
	assert.Empty(t, snap.Devices)
	assert.Empty(t, snap.Traffic)
}

func TestComputeMetricsUniqueSessions(t *testing.T) {
	// Scenario: 3 page views, two from s1, one from s2, all today.
	mem := store.NewMemoryEventStore()
	at := testNow.Add(-1 * time.Hour)
	appendAll(t, mem,
		event(models.EventPageView, models.CategoryInteraction, "s1", at, nil),
		event(models.EventPageView, models.CategoryInteraction, "s1", at.Add(time.Minute), nil),
		event(models.EventPageView, models.CategoryInteraction, "s2", at.Add(2*time.Minute), nil),
	)

	snap, err := newTestAggregator(mem).ComputeMetrics(context.Background(), "7d")
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Visitors.Total)
	assert.Equal(t, 2, snap.Visitors.Unique)
	assert.Equal(t, 2, snap.Visitors.Today)
	assert.Equal(t, 3, snap.PageViews.Total)
	// s2 bounced (single page view), s1 didn't
	assert.Equal(t, 50.0, snap.PageViews.BounceRate)
	assert.Equal(t, 1.5, snap.PageViews.AvgPerSession)
}

func TestComputeMetricsTodayIsTrailing24Hours(t *testing.T) {
	// testNow is midday, so 23h ago falls on the previous calendar date but
	// still counts toward today.
	mem := store.NewMemoryEventStore()
	appendAll(t, mem,
		event(models.EventPageView, models.CategoryInteraction, "s1", testNow.Add(-23*time.Hour), nil),
		event(models.EventPageView, models.CategoryInteraction, "s2", testNow.Add(-2*time.Hour), nil),
		event(models.EventPageView, models.CategoryInteraction, "s3", testNow.Add(-25*time.Hour), nil),
	)

	snap, err := newTestAggregator(mem).ComputeMetrics(context.Background(), "7d")
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Visitors.Unique)
	assert.Equal(t, 2, snap.Visitors.Today)
}

func TestComputeMetricsGrowthComparablePeriod(t *testing.T) {
	mem := store.NewMemoryEventStore()
	inWindow := testNow.Add(-24 * time.Hour)
	inPrevious := testNow.AddDate(0, 0, -10) // inside [now-14d, now-7d)

	appendAll(t, mem,
		// previous window: two unique sessions, one of which returns
		event(models.EventPageView, models.CategoryInteraction, "s1", inPrevious, nil),
		event(models.EventPageView, models.CategoryInteraction, "old", inPrevious.Add(time.Minute), nil),
		// current window: three unique sessions
		event(models.EventPageView, models.CategoryInteraction, "s1", inWindow, nil),
		event(models.EventPageView, models.CategoryInteraction, "s2", inWindow.Add(time.Minute), nil),
		event(models.EventPageView, models.CategoryInteraction, "s3", inWindow.Add(2*time.Minute), nil),
	)

	snap, err := newTestAggregator(mem).ComputeMetrics(context.Background(), "7d")
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Visitors.Unique)
	assert.Equal(t, 1, snap.Visitors.Returning)
	assert.Equal(t, 2, snap.Visitors.New)
	// 2 -> 3 unique sessions is +50%
	assert.Equal(t, 50.0, snap.Visitors.Growth)
}

func TestComputeMetricsBusinessConversion(t *testing.T) {
	// Scenario: one view and one contact for the same business.
	mem := store.NewMemoryEventStore()
	at := testNow.Add(-2 * time.Hour)
	appendAll(t, mem,
		event(models.EventBusinessView, models.CategoryBusiness, "s1", at, func(e *models.AnalyticsEvent) {
			e.SubjectID = "B1"
		}),
		event(models.EventBusinessContact, models.CategoryBusiness, "s1", at.Add(time.Minute), func(e *models.AnalyticsEvent) {
			e.SubjectID = "B1"
			e.Context[models.CtxChannel] = "phone"
		}),
	)

	snap, err := newTestAggregator(mem).ComputeMetrics(context.Background(), "7d")
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Businesses.TotalViews)
	assert.Equal(t, 1, snap.Businesses.TotalContacts)
	assert.Equal(t, 100.0, snap.Businesses.ConversionRate)
}

func TestComputeMetricsFavoriteRemoveDoesNotCount(t *testing.T) {
	// Scenario: a remove with no prior add counts nothing.
	mem := store.NewMemoryEventStore()
	appendAll(t, mem,
		event(models.EventFavoriteToggle, models.CategoryInteraction, "s1", testNow.Add(-time.Hour), func(e *models.AnalyticsEvent) {
			e.SubjectID = "B1"
			e.Context[models.CtxAction] = "remove"
		}),
	)

	snap, err := newTestAggregator(mem).ComputeMetrics(context.Background(), "7d")
	require.NoError(t, err)

	assert.Equal(t, 0, snap.Businesses.TotalFavorites)
}

func TestComputeMetricsTopViewedRanking(t *testing.T) {
	mem := store.NewMemoryEventStore()
	at := testNow.Add(-3 * time.Hour)
	view := func(subject string, offset time.Duration) models.AnalyticsEvent {
		return event(models.EventBusinessView, models.CategoryBusiness, "s1", at.Add(offset), func(e *models.AnalyticsEvent) {
			e.SubjectID = subject
		})
	}
	// B1 and B2 tie on 2 views, B1 seen first; B3 trails.
	appendAll(t, mem,
		view("B1", 0),
		view("B2", time.Minute),
		view("B1", 2*time.Minute),
		view("B2", 3*time.Minute),
		view("B3", 4*time.Minute),
	)

	businesses := &stubBusinessRegistry{summaries: map[string]registry.BusinessSummary{
		"B1": {ID: "B1", Name: "Luigi's", Rating: 4.5},
	}}
	agg := NewAggregator(AggregatorConfig{
		Store:      mem,
		Businesses: businesses,
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return testNow },
	})

	first, err := agg.ComputeMetrics(context.Background(), "7d")
	require.NoError(t, err)

	require.Len(t, first.Businesses.TopViewed, 3)
	assert.Equal(t, "B1", first.Businesses.TopViewed[0].ID)
	assert.Equal(t, "Luigi's", first.Businesses.TopViewed[0].Name)
	assert.Equal(t, 2, first.Businesses.TopViewed[0].Views)
	assert.Equal(t, "B2", first.Businesses.TopViewed[1].ID)
	assert.Equal(t, "B3", first.Businesses.TopViewed[2].ID)

	// Determinism: recomputing over the same input yields the same ordering.
	second, err := agg.ComputeMetrics(context.Background(), "7d")
	require.NoError(t, err)
	assert.Equal(t, first.Businesses.TopViewed, second.Businesses.TopViewed)
}

func TestComputeMetricsSearchKeywords(t *testing.T) {
	// Scenario: 3 pizza searches with results, 2 dead-end searches.
	mem := store.NewMemoryEventStore()
	at := testNow.Add(-time.Hour)
	search := func(query string, results int, offset time.Duration) models.AnalyticsEvent {
		return event(models.EventSearch, models.CategorySearch, "s1", at.Add(offset), func(e *models.AnalyticsEvent) {
			e.Context[models.CtxQuery] = query
			e.Context[models.CtxResultsCount] = results
			e.Context[models.CtxHasResults] = results > 0
		})
	}
	appendAll(t, mem,
		search("pizza", 4, 0),
		search("Pizza", 4, time.Minute),
		search("pizza", 4, 2*time.Minute),
		search("xyz123", 0, 3*time.Minute),
		search("xyz123", 0, 4*time.Minute),
	)

	snap, err := newTestAggregator(mem).ComputeMetrics(context.Background(), "7d")
	require.NoError(t, err)

	assert.Equal(t, 5, snap.Searches.Total)
	assert.Equal(t, 2, snap.Searches.NoResults)
	assert.Equal(t, 2, snap.Searches.UniqueKeywords)
	assert.Equal(t, 60.0, snap.Searches.ConversionRate)
	require.NotEmpty(t, snap.Searches.TopKeywords)
	top := snap.Searches.TopKeywords[0]
	assert.Equal(t, "pizza", top.Keyword)
	assert.Equal(t, 3, top.Count)
	assert.Equal(t, 4.0, top.Results)
}

func TestComputeMetricsRatesStayInBounds(t *testing.T) {
	// A lopsided mix: more contacts than views must still clamp to 100.
	mem := store.NewMemoryEventStore()
	at := testNow.Add(-time.Hour)
	appendAll(t, mem,
		event(models.EventBusinessView, models.CategoryBusiness, "s1", at, func(e *models.AnalyticsEvent) {
			e.SubjectID = "B1"
		}),
		event(models.EventBusinessContact, models.CategoryBusiness, "s1", at, func(e *models.AnalyticsEvent) {
			e.SubjectID = "B1"
			e.Context[models.CtxChannel] = "phone"
		}),
		event(models.EventBusinessContact, models.CategoryBusiness, "s2", at, func(e *models.AnalyticsEvent) {
			e.SubjectID = "B1"
			e.Context[models.CtxChannel] = "email"
		}),
		event(models.EventPageView, models.CategoryInteraction, "s1", at, nil),
	)

	snap, err := newTestAggregator(mem).ComputeMetrics(context.Background(), "30d")
	require.NoError(t, err)

	rates := []float64{
		snap.Visitors.Growth,
		snap.PageViews.BounceRate,
		snap.Businesses.ConversionRate,
		snap.Searches.ConversionRate,
		snap.Users.RetentionRate,
		snap.Reviews.ResponseRate,
	}
	for _, rate := range rates {
		assert.GreaterOrEqual(t, rate, 0.0)
		assert.LessOrEqual(t, rate, 100.0)
	}
	assert.Equal(t, 100.0, snap.Businesses.ConversionRate)
}

func TestComputeMetricsReviewFailureIsolated(t *testing.T) {
	mem := store.NewMemoryEventStore()
	at := testNow.Add(-time.Hour)
	appendAll(t, mem,
		event(models.EventPageView, models.CategoryInteraction, "s1", at, nil),
		event(models.EventSearch, models.CategorySearch, "s1", at, func(e *models.AnalyticsEvent) {
			e.Context[models.CtxQuery] = "plumber"
			e.Context[models.CtxResultsCount] = 3
			e.Context[models.CtxHasResults] = true
		}),
		event(models.EventBusinessView, models.CategoryBusiness, "s1", at, func(e *models.AnalyticsEvent) {
			e.SubjectID = "B1"
		}),
		event(models.EventUserRegistration, models.CategoryUser, "s1", at, func(e *models.AnalyticsEvent) {
			e.ActorID = "u1"
			e.Context[models.CtxMethod] = "email"
		}),
	)

	agg := NewAggregator(AggregatorConfig{
		Store:   mem,
		Reviews: &stubReviewStore{err: errors.New("review store down")},
		Logger:  zerolog.Nop(),
		Now:     func() time.Time { return testNow },
	})

	snap, err := agg.ComputeMetrics(context.Background(), "7d")
	require.NoError(t, err)

	// The failing sub-metric degrades to zero values...
	assert.Equal(t, models.ReviewMetrics{}, snap.Reviews)
	// ...while every other section is still populated.
	assert.Equal(t, 1, snap.Visitors.Unique)
	assert.Equal(t, 1, snap.Searches.Total)
	assert.Equal(t, 1, snap.Businesses.TotalViews)
	assert.Equal(t, 1, snap.Users.NewRegistrations)
	assert.Equal(t, 1, snap.Users.Active)
}

func TestComputeMetricsReviewsAndRegistries(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{
		Store: store.NewMemoryEventStore(),
		Businesses: &stubBusinessRegistry{cities: map[string]int{
			"Milan": 3,
			"Rome":  1,
		}},
		Profiles: &stubProfileRegistry{stats: registry.ProfileStats{Verified: 4, BusinessOwners: 2}},
		Reviews:  &stubReviewStore{stats: registry.ReviewStats{Total: 10, Approved: 7, Pending: 3, AverageRating: 4.2}},
		Rates:    StaticRates{Retention: 35, Response: 80},
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return testNow },
	})

	snap, err := agg.ComputeMetrics(context.Background(), "90d")
	require.NoError(t, err)

	assert.Equal(t, "90d", snap.Window)
	assert.Equal(t, 10, snap.Reviews.Total)
	assert.Equal(t, 7, snap.Reviews.Approved)
	assert.Equal(t, 3, snap.Reviews.Pending)
	assert.Equal(t, 4.2, snap.Reviews.AverageRating)
	assert.Equal(t, 80.0, snap.Reviews.ResponseRate)
	assert.Equal(t, 35.0, snap.Users.RetentionRate)
	assert.Equal(t, 4, snap.Users.Verified)
	assert.Equal(t, 2, snap.Users.BusinessOwners)

	require.Len(t, snap.Geography, 2)
	assert.Equal(t, models.Share{Label: "Milan", Count: 3, Percent: 75}, snap.Geography[0])
	assert.Equal(t, models.Share{Label: "Rome", Count: 1, Percent: 25}, snap.Geography[1])
}

func TestComputeMetricsDeviceAndTrafficBreakdowns(t *testing.T) {
	mem := store.NewMemoryEventStore()
	at := testNow.Add(-time.Hour)
	pageView := func(session, device, referrer string, offset time.Duration) models.AnalyticsEvent {
		return event(models.EventPageView, models.CategoryInteraction, session, at.Add(offset), func(e *models.AnalyticsEvent) {
			if device != "" {
				e.Context[models.CtxDeviceType] = device
			}
			if referrer != "" {
				e.Context[models.CtxReferrer] = referrer
			}
		})
	}
	appendAll(t, mem,
		pageView("s1", "Mobile", "https://www.google.com/search?q=pizza", 0),
		pageView("s2", "Mobile", "", time.Minute),
		pageView("s3", "Desktop", "https://blog.example.com/post", 2*time.Minute),
		pageView("s4", "", "", 3*time.Minute),
	)

	snap, err := newTestAggregator(mem).ComputeMetrics(context.Background(), "7d")
	require.NoError(t, err)

	require.Len(t, snap.Devices, 3)
	assert.Equal(t, models.Share{Label: "Mobile", Count: 2, Percent: 50}, snap.Devices[0])
	// Desktop and Unknown tie on 1; Desktop was seen first.
	assert.Equal(t, "Desktop", snap.Devices[1].Label)
	assert.Equal(t, "Unknown", snap.Devices[2].Label)

	require.Len(t, snap.Traffic, 3)
	assert.Equal(t, models.Share{Label: "Direct", Count: 2, Percent: 50}, snap.Traffic[0])
	assert.Equal(t, "Search", snap.Traffic[1].Label)
	assert.Equal(t, "Referral", snap.Traffic[2].Label)
}

func TestComputeMetricsUnknownWindowFallsBack(t *testing.T) {
	snap, err := newTestAggregator(store.NewMemoryEventStore()).ComputeMetrics(context.Background(), "365d")
	require.NoError(t, err)
	assert.Equal(t, "7d", snap.Window)
	assert.Equal(t, 7, int(snap.EndDate.Sub(snap.StartDate).Hours()/24))
}

func TestParseWindow(t *testing.T) {
	for window, want := range map[string]int{"7d": 7, "30d": 30, "90d": 90} {
		days, ok := ParseWindow(window)
		assert.True(t, ok)
		assert.Equal(t, want, days)
	}
	_, ok := ParseWindow("1d")
	assert.False(t, ok)
}
