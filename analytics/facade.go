package analytics

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/localdeck/analytics/models"
)

// Facade is the public analytics surface: the Track* family on the write
// path, GetMetrics and GetRealTime on the read path. Writes and reads are
// independent; neither blocks the other.
type Facade struct {
	collector  *Collector
	aggregator *Aggregator
	monitor    *Monitor
	log        zerolog.Logger
}

func NewFacade(collector *Collector, aggregator *Aggregator, monitor *Monitor, logger zerolog.Logger) *Facade {
	return &Facade{
		collector:  collector,
		aggregator: aggregator,
		monitor:    monitor,
		log:        logger,
	}
}

func (f *Facade) Track(ctx context.Context, eventType string, category models.Category, eventContext map[string]interface{}, subjectID string) {
	f.collector.Track(ctx, eventType, category, eventContext, subjectID)
}

func (f *Facade) TrackBusinessView(ctx context.Context, subjectID, name string) {
	f.collector.TrackBusinessView(ctx, subjectID, name)
}

func (f *Facade) TrackBusinessContact(ctx context.Context, subjectID, channel string) {
	f.collector.TrackBusinessContact(ctx, subjectID, channel)
}

func (f *Facade) TrackSearch(ctx context.Context, query string, resultsCount int, filters map[string]interface{}) {
	f.collector.TrackSearch(ctx, query, resultsCount, filters)
}

func (f *Facade) TrackUserRegistration(ctx context.Context, actorID, method string) {
	f.collector.TrackUserRegistration(ctx, actorID, method)
}

func (f *Facade) TrackReviewSubmission(ctx context.Context, subjectID string, rating int) {
	f.collector.TrackReviewSubmission(ctx, subjectID, rating)
}

func (f *Facade) TrackFavoriteToggle(ctx context.Context, subjectID, action string) {
	f.collector.TrackFavoriteToggle(ctx, subjectID, action)
}

// GetMetrics computes a snapshot for a 7d/30d/90d window. Unknown window
// names fall back to 7d: a dashboard sending junk still gets something to
// render.
func (f *Facade) GetMetrics(ctx context.Context, window string) (*models.MetricsSnapshot, error) {
	return f.aggregator.ComputeMetrics(ctx, window)
}

// GetRealTime returns the trailing-hour snapshot. A failed computation
// degrades to a zero-valued snapshot: analytics failures are never
// user-visible.
func (f *Facade) GetRealTime(ctx context.Context) *models.RealTimeSnapshot {
	snapshot, err := f.monitor.ComputeRealTime(ctx)
	if err != nil {
		f.log.Error().Err(err).Msg("real-time computation failed, returning zero snapshot")
		return &models.RealTimeSnapshot{}
	}
	return snapshot
}

// Close drains the collector's queue. Call on shutdown.
func (f *Facade) Close() {
	f.collector.Close()
}

// CachedIdentity wraps an IdentityProvider with a per-session LRU for
// attribution stability, not lookup avoidance: the inner provider is consulted
// on every call so a mid-session login surfaces immediately, and the cache
// carries the last known actor across transient empty resolutions (an expired
// token mid-session keeps attributing to the same actor).
type CachedIdentity struct {
	inner          IdentityProvider
	defaultSession SessionID
	cache          *lru.Cache[SessionID, string]
}

func NewCachedIdentity(inner IdentityProvider, defaultSession SessionID, size int) (*CachedIdentity, error) {
	cache, err := lru.New[SessionID, string](size)
	if err != nil {
		return nil, err
	}
	return &CachedIdentity{inner: inner, defaultSession: defaultSession, cache: cache}, nil
}

func (ci *CachedIdentity) CurrentActor(ctx context.Context) string {
	key := ci.defaultSession
	if session, ok := SessionFromContext(ctx); ok {
		key = session
	}

	cached, _ := ci.cache.Get(key)

	resolved := ci.inner.CurrentActor(ctx)
	if resolved == "" {
		return cached
	}
	if resolved != cached {
		ci.cache.Add(key, resolved)
	}
	return resolved
}
