package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/localdeck/analytics/metrics"
	"github.com/localdeck/analytics/models"
	"github.com/localdeck/analytics/store"
)

// IdentityProvider resolves the current actor identifier at track time. An
// empty string means anonymous activity.
type IdentityProvider interface {
	CurrentActor(ctx context.Context) string
}

// FailureHook observes write-path failures that are otherwise swallowed.
// Tests inject one; production leaves it nil.
type FailureHook func(event models.AnalyticsEvent, err error)

// ErrQueueFull is reported to the failure hook when an event is dropped
// because the background queue is at capacity.
var ErrQueueFull = errors.New("track queue full")

// CollectorConfig wires a Collector. Store and Session are required; the rest
// defaults to sensible values or no-ops.
type CollectorConfig struct {
	Session  SessionID
	Store    store.EventStore
	Counters store.CounterStore
	Identity IdentityProvider

	// Environment supplies collector-populated context fields (page URL,
	// referrer, device info). Caller-supplied context keys always win.
	Environment func(ctx context.Context) map[string]interface{}

	QueueSize     int
	AppendTimeout time.Duration
	OnFailure     FailureHook
	Logger        zerolog.Logger
}

// Collector builds fully-populated events from raw track calls and hands them
// to a background worker that appends them to the event store. Every Track*
// method returns immediately; append outcomes are never surfaced to callers.
type Collector struct {
	session       SessionID
	store         store.EventStore
	counters      store.CounterStore
	identity      IdentityProvider
	environment   func(ctx context.Context) map[string]interface{}
	appendTimeout time.Duration
	onFailure     FailureHook
	log           zerolog.Logger

	queue     chan models.AnalyticsEvent
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewCollector(cfg CollectorConfig) *Collector {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.AppendTimeout <= 0 {
		cfg.AppendTimeout = 5 * time.Second
	}

	c := &Collector{
		session:       cfg.Session,
		store:         cfg.Store,
		counters:      cfg.Counters,
		identity:      cfg.Identity,
		environment:   cfg.Environment,
		appendTimeout: cfg.AppendTimeout,
		onFailure:     cfg.OnFailure,
		log:           cfg.Logger,
		queue:         make(chan models.AnalyticsEvent, cfg.QueueSize),
	}

	c.wg.Add(1)
	go c.worker()

	return c
}

// Close stops accepting events and drains what's already queued.
func (c *Collector) Close() {
	c.closeOnce.Do(func() {
		close(c.queue)
	})
	c.wg.Wait()
}

// Track records a generic event. Asynchronous and best-effort: a failed or
// dropped event is logged and counted, never raised.
func (c *Collector) Track(ctx context.Context, eventType string, category models.Category, eventContext map[string]interface{}, subjectID string) {
	c.track(ctx, eventType, category, eventContext, subjectID, "")
}

// TrackBusinessView records a business detail view.
func (c *Collector) TrackBusinessView(ctx context.Context, subjectID, name string) {
	if subjectID == "" {
		c.reject(models.EventBusinessView, errors.New("businessId is required"))
		return
	}
	c.track(ctx, models.EventBusinessView, models.CategoryBusiness, map[string]interface{}{
		models.CtxName: name,
	}, subjectID, "")
}

// TrackBusinessContact records a funnel-terminal contact action (call, email,
// website click).
func (c *Collector) TrackBusinessContact(ctx context.Context, subjectID, channel string) {
	if subjectID == "" || channel == "" {
		c.reject(models.EventBusinessContact, errors.New("businessId and channel are required"))
		return
	}
	c.track(ctx, models.EventBusinessContact, models.CategoryBusiness, map[string]interface{}{
		models.CtxChannel:    channel,
		models.CtxConversion: true,
	}, subjectID, "")
}

// TrackSearch records a directory search and its result count.
func (c *Collector) TrackSearch(ctx context.Context, query string, resultsCount int, filters map[string]interface{}) {
	if query == "" {
		c.reject(models.EventSearch, errors.New("query is required"))
		return
	}
	if resultsCount < 0 {
		c.reject(models.EventSearch, fmt.Errorf("resultsCount must be non-negative, got %d", resultsCount))
		return
	}
	eventContext := map[string]interface{}{
		models.CtxQuery:        query,
		models.CtxResultsCount: resultsCount,
		models.CtxHasResults:   resultsCount > 0,
	}
	if len(filters) > 0 {
		eventContext["filters"] = filters
	}
	c.track(ctx, models.EventSearch, models.CategorySearch, eventContext, "", "")
}

// TrackUserRegistration records a completed signup. The actor id comes from
// the registration itself rather than the ambient identity, which may not be
// established yet at that point.
func (c *Collector) TrackUserRegistration(ctx context.Context, actorID, method string) {
	if actorID == "" || method == "" {
		c.reject(models.EventUserRegistration, errors.New("actorId and method are required"))
		return
	}
	c.track(ctx, models.EventUserRegistration, models.CategoryUser, map[string]interface{}{
		models.CtxMethod:     method,
		models.CtxConversion: true,
	}, "", actorID)
}

// TrackReviewSubmission records a submitted review.
func (c *Collector) TrackReviewSubmission(ctx context.Context, subjectID string, rating int) {
	if subjectID == "" {
		c.reject(models.EventReviewSubmission, errors.New("businessId is required"))
		return
	}
	if rating < 1 || rating > 5 {
		c.reject(models.EventReviewSubmission, fmt.Errorf("rating must be between 1 and 5, got %d", rating))
		return
	}
	c.track(ctx, models.EventReviewSubmission, models.CategoryInteraction, map[string]interface{}{
		models.CtxRating:     rating,
		models.CtxConversion: true,
	}, subjectID, "")
}

// TrackFavoriteToggle records adding or removing a favorite. Only the add
// direction is a conversion.
func (c *Collector) TrackFavoriteToggle(ctx context.Context, subjectID, action string) {
	if subjectID == "" {
		c.reject(models.EventFavoriteToggle, errors.New("businessId is required"))
		return
	}
	if action != "add" && action != "remove" {
		c.reject(models.EventFavoriteToggle, fmt.Errorf("action must be add or remove, got %q", action))
		return
	}
	eventContext := map[string]interface{}{
		models.CtxAction: action,
	}
	if action == "add" {
		eventContext[models.CtxConversion] = true
	}
	c.track(ctx, models.EventFavoriteToggle, models.CategoryInteraction, eventContext, subjectID, "")
}

func (c *Collector) track(ctx context.Context, eventType string, category models.Category, eventContext map[string]interface{}, subjectID, actorOverride string) {
	merged := make(map[string]interface{}, len(eventContext)+4)
	for k, v := range eventContext {
		merged[k] = v
	}

	// Environment fields never overwrite caller fields...
	if c.environment != nil {
		for k, v := range c.environment(ctx) {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
	}

	now := time.Now().UTC()
	// ...except the timestamp, which is always collector-assigned.
	merged[models.CtxTimestamp] = now.Format(time.RFC3339Nano)

	sessionID := c.session
	if override, ok := SessionFromContext(ctx); ok {
		sessionID = override
	}

	actorID := actorOverride
	if actorID == "" && c.identity != nil {
		actorID = c.identity.CurrentActor(ctx)
	}

	event := models.AnalyticsEvent{
		ID:         uuid.New().String(),
		EventType:  eventType,
		Category:   category,
		SessionID:  string(sessionID),
		ActorID:    actorID,
		SubjectID:  subjectID,
		Context:    merged,
		OccurredAt: now,
	}

	if err := event.Validate(); err != nil {
		c.reject(eventType, err)
		return
	}
	if err := models.ValidateContext(eventType, merged); err != nil {
		c.reject(eventType, err)
		return
	}

	select {
	case c.queue <- event:
		metrics.EventsCollected.WithLabelValues(eventType).Inc()
	default:
		metrics.EventsDropped.Inc()
		c.log.Warn().Str("eventType", eventType).Msg("track queue full, dropping event")
		if c.onFailure != nil {
			c.onFailure(event, ErrQueueFull)
		}
	}
}

func (c *Collector) reject(eventType string, err error) {
	metrics.EventsRejected.Inc()
	c.log.Warn().Str("eventType", eventType).Err(err).Msg("invalid track call ignored")
	if c.onFailure != nil {
		c.onFailure(models.AnalyticsEvent{EventType: eventType}, err)
	}
}

func (c *Collector) worker() {
	defer c.wg.Done()

	for event := range c.queue {
		ctx, cancel := context.WithTimeout(context.Background(), c.appendTimeout)

		if err := c.store.Append(ctx, event); err != nil {
			metrics.AppendFailures.Inc()
			c.log.Error().Str("eventType", event.EventType).Err(err).Msg("failed to append event")
			if c.onFailure != nil {
				c.onFailure(event, err)
			}
			cancel()
			continue
		}

		c.project(ctx, event)
		cancel()
	}
}

// project mirrors view/contact events into the denormalized business counters.
// A convenience projection only: metrics always re-derive from raw events.
func (c *Collector) project(ctx context.Context, event models.AnalyticsEvent) {
	if c.counters == nil || event.SubjectID == "" {
		return
	}

	var err error
	switch event.EventType {
	case models.EventBusinessView:
		err = c.counters.IncrementViews(ctx, event.SubjectID, event.ID)
	case models.EventBusinessContact:
		err = c.counters.IncrementContacts(ctx, event.SubjectID, event.ID)
	default:
		return
	}

	if err != nil {
		metrics.CounterProjectionFailures.Inc()
		c.log.Error().Str("subjectId", event.SubjectID).Err(err).Msg("failed to update business counter")
	}
}
