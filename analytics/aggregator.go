package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/localdeck/analytics/metrics"
	"github.com/localdeck/analytics/models"
	"github.com/localdeck/analytics/registry"
	"github.com/localdeck/analytics/store"
	"github.com/localdeck/analytics/utils"
)

// RateSource supplies the two rates this core deliberately does not derive:
// user retention and review response. They come from wherever the product
// actually computes them; the default is a static zero.
type RateSource interface {
	RetentionRate(ctx context.Context, start, end time.Time) float64
	ResponseRate(ctx context.Context, start, end time.Time) float64
}

// StaticRates is the default RateSource.
type StaticRates struct {
	Retention float64
	Response  float64
}

func (r StaticRates) RetentionRate(context.Context, time.Time, time.Time) float64 {
	return r.Retention
}

func (r StaticRates) ResponseRate(context.Context, time.Time, time.Time) float64 {
	return r.Response
}

// windowDays maps the supported window names to their length.
var windowDays = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
}

// ParseWindow resolves a window name to its day count. Unknown names report
// ok=false; callers fall back to 7d.
func ParseWindow(window string) (int, bool) {
	days, ok := windowDays[window]
	return days, ok
}

// AggregatorConfig wires an Aggregator. Store is required; nil registries
// leave their sections zero-valued.
type AggregatorConfig struct {
	Store      store.EventStore
	Businesses registry.BusinessRegistry
	Profiles   registry.ProfileRegistry
	Reviews    registry.ReviewStore
	Rates      RateSource

	// SubMetricTimeout bounds each sub-metric computation independently.
	SubMetricTimeout time.Duration
	Logger           zerolog.Logger

	// Now is the clock; tests pin it.
	Now func() time.Time
}

// Aggregator computes a composite metrics snapshot by fanning out the
// sub-metric computations concurrently. A failing sub-metric degrades to its
// zero-value section; the snapshot itself always comes back.
type Aggregator struct {
	store      store.EventStore
	businesses registry.BusinessRegistry
	profiles   registry.ProfileRegistry
	reviews    registry.ReviewStore
	rates      RateSource
	subTimeout time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

func NewAggregator(cfg AggregatorConfig) *Aggregator {
	if cfg.Rates == nil {
		cfg.Rates = StaticRates{}
	}
	if cfg.SubMetricTimeout <= 0 {
		cfg.SubMetricTimeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Aggregator{
		store:      cfg.Store,
		businesses: cfg.Businesses,
		profiles:   cfg.Profiles,
		reviews:    cfg.Reviews,
		rates:      cfg.Rates,
		subTimeout: cfg.SubMetricTimeout,
		log:        cfg.Logger,
		now:        cfg.Now,
	}
}

// ComputeMetrics builds a snapshot over [now-N days, now). Deterministic for
// a stable event store; the six sub-metrics run concurrently and each
// goroutine writes disjoint snapshot sections, so no locking is needed.
func (a *Aggregator) ComputeMetrics(ctx context.Context, window string) (*models.MetricsSnapshot, error) {
	days, ok := ParseWindow(window)
	if !ok {
		days = 7
		window = "7d"
	}

	started := time.Now()
	defer func() {
		metrics.SnapshotDuration.Observe(time.Since(started).Seconds())
	}()

	now := a.now().UTC()
	start := now.AddDate(0, 0, -days)

	snapshot := &models.MetricsSnapshot{
		Window:     window,
		StartDate:  start,
		EndDate:    now,
		ComputedAt: now,
	}

	var g errgroup.Group

	g.Go(func() error {
		a.runSub(ctx, "visitors", func(subCtx context.Context) error {
			visitors, pageViews, err := a.visitorMetrics(subCtx, start, now)
			if err != nil {
				return err
			}
			snapshot.Visitors = visitors
			snapshot.PageViews = pageViews
			return nil
		})
		return nil
	})

	g.Go(func() error {
		a.runSub(ctx, "businesses", func(subCtx context.Context) error {
			businesses, err := a.businessMetrics(subCtx, start, now)
			if err != nil {
				return err
			}
			snapshot.Businesses = businesses
			return nil
		})
		return nil
	})

	g.Go(func() error {
		a.runSub(ctx, "searches", func(subCtx context.Context) error {
			searches, err := a.searchMetrics(subCtx, start, now)
			if err != nil {
				return err
			}
			snapshot.Searches = searches
			return nil
		})
		return nil
	})

	g.Go(func() error {
		a.runSub(ctx, "users", func(subCtx context.Context) error {
			users, err := a.userMetrics(subCtx, start, now)
			if err != nil {
				return err
			}
			snapshot.Users = users
			return nil
		})
		return nil
	})

	g.Go(func() error {
		a.runSub(ctx, "reviews", func(subCtx context.Context) error {
			reviews, err := a.reviewMetrics(subCtx, start, now)
			if err != nil {
				return err
			}
			snapshot.Reviews = reviews
			return nil
		})
		return nil
	})

	g.Go(func() error {
		a.runSub(ctx, "audience", func(subCtx context.Context) error {
			geography, devices, traffic, err := a.audienceMetrics(subCtx, start, now)
			if err != nil {
				return err
			}
			snapshot.Geography = geography
			snapshot.Devices = devices
			snapshot.Traffic = traffic
			return nil
		})
		return nil
	})

	g.Wait() // goroutines never return errors; failures degrade in runSub

	return snapshot, nil
}

// runSub executes one sub-metric computation with its own deadline. Errors
// and panics are logged and counted; the section keeps its zero value.
func (a *Aggregator) runSub(ctx context.Context, name string, fn func(context.Context) error) {
	subCtx, cancel := context.WithTimeout(ctx, a.subTimeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn(subCtx)
	}()

	if err != nil {
		metrics.SubMetricFailures.WithLabelValues(name).Inc()
		a.log.Error().Str("submetric", name).Err(err).Msg("sub-metric degraded to zero values")
	}
}

// reviewMetrics delegates entirely to the review store: reviews are a
// first-class entity, not merely an event.
func (a *Aggregator) reviewMetrics(ctx context.Context, start, end time.Time) (models.ReviewMetrics, error) {
	if a.reviews == nil {
		return models.ReviewMetrics{}, nil
	}

	stats, err := a.reviews.Stats(ctx, start, end)
	if err != nil {
		return models.ReviewMetrics{}, err
	}

	return models.ReviewMetrics{
		Total:         stats.Total,
		Approved:      stats.Approved,
		Pending:       stats.Pending,
		AverageRating: stats.AverageRating,
		ResponseRate:  utils.ClampPercent(a.rates.ResponseRate(ctx, start, end)),
	}, nil
}
