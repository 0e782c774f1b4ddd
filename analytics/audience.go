package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/localdeck/analytics/models"
	"github.com/localdeck/analytics/store"
	"github.com/localdeck/analytics/utils"
)

// audienceMetrics builds the categorical breakdowns: geography from the
// business registry's city field, devices and traffic sources from page-view
// context.
func (a *Aggregator) audienceMetrics(ctx context.Context, start, end time.Time) (geography, devices, traffic []models.Share, err error) {
	events, err := a.store.Query(ctx, store.Filter{
		Types: []string{models.EventPageView},
		Start: start,
		End:   end,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	deviceCounts := make(map[string]int)
	var deviceOrder []string
	trafficCounts := make(map[string]int)
	var trafficOrder []string

	for _, event := range events {
		device := ctxString(event.Context, models.CtxDeviceType)
		if device == "" {
			device = "Unknown"
		}
		if _, seen := deviceCounts[device]; !seen {
			deviceOrder = append(deviceOrder, device)
		}
		deviceCounts[device]++

		source := ctxString(event.Context, models.CtxTrafficSource)
		if source == "" {
			source = utils.GetTrafficSource(ctxString(event.Context, models.CtxReferrer))
		}
		if _, seen := trafficCounts[source]; !seen {
			trafficOrder = append(trafficOrder, source)
		}
		trafficCounts[source]++
	}

	devices = sharesFromOrdered(deviceOrder, deviceCounts)
	traffic = sharesFromOrdered(trafficOrder, trafficCounts)

	// Geography comes from the directory's own data, not from events. A
	// registry failure leaves it empty without touching the other breakdowns.
	if a.businesses != nil {
		cities, err := a.businesses.CityBreakdown(ctx)
		if err != nil {
			a.log.Warn().Err(err).Msg("city breakdown lookup failed, geography zeroed")
		} else {
			geography = sharesFromMap(cities)
		}
	}

	return geography, devices, traffic, nil
}

// sharesFromOrdered turns counts into percentage shares, sorted descending
// with equal counts staying in first-seen order.
func sharesFromOrdered(order []string, counts map[string]int) []models.Share {
	total := 0
	for _, count := range counts {
		total += count
	}

	labels := make([]string, len(order))
	copy(labels, order)
	sort.SliceStable(labels, func(i, j int) bool {
		return counts[labels[i]] > counts[labels[j]]
	})

	shares := make([]models.Share, 0, len(labels))
	for _, label := range labels {
		shares = append(shares, models.Share{
			Label:   label,
			Count:   counts[label],
			Percent: utils.Percent(counts[label], total),
		})
	}
	return shares
}

// sharesFromMap is sharesFromOrdered for sources without an inherent order;
// ties break alphabetically to keep the output deterministic.
func sharesFromMap(counts map[string]int) []models.Share {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})

	total := 0
	for _, count := range counts {
		total += count
	}

	shares := make([]models.Share, 0, len(labels))
	for _, label := range labels {
		shares = append(shares, models.Share{
			Label:   label,
			Count:   counts[label],
			Percent: utils.Percent(counts[label], total),
		})
	}
	return shares
}
