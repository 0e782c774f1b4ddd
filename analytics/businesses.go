package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/localdeck/analytics/models"
	"github.com/localdeck/analytics/store"
	"github.com/localdeck/analytics/utils"
)

const topBusinessLimit = 5

// businessMetrics computes view/contact/favorite totals, the contact
// conversion rate, and the top-viewed ranking joined against the business
// registry.
func (a *Aggregator) businessMetrics(ctx context.Context, start, end time.Time) (models.BusinessMetrics, error) {
	events, err := a.store.Query(ctx, store.Filter{
		Types: []string{models.EventBusinessView, models.EventBusinessContact, models.EventFavoriteToggle},
		Start: start,
		End:   end,
	})
	if err != nil {
		return models.BusinessMetrics{}, err
	}

	var views, contacts, favorites int
	viewCounts := make(map[string]int)
	var viewOrder []string // first-seen order, the ranking tie-break

	for _, event := range events {
		switch event.EventType {
		case models.EventBusinessView:
			views++
			if event.SubjectID != "" {
				if _, seen := viewCounts[event.SubjectID]; !seen {
					viewOrder = append(viewOrder, event.SubjectID)
				}
				viewCounts[event.SubjectID]++
			}
		case models.EventBusinessContact:
			contacts++
		case models.EventFavoriteToggle:
			if ctxString(event.Context, models.CtxAction) == "add" {
				favorites++
			}
		}
	}

	// Stable sort over first-seen order: equal counts keep discovery order.
	ranked := make([]string, len(viewOrder))
	copy(ranked, viewOrder)
	sort.SliceStable(ranked, func(i, j int) bool {
		return viewCounts[ranked[i]] > viewCounts[ranked[j]]
	})
	if len(ranked) > topBusinessLimit {
		ranked = ranked[:topBusinessLimit]
	}

	topViewed := make([]models.TopBusiness, 0, len(ranked))
	for _, id := range ranked {
		topViewed = append(topViewed, models.TopBusiness{ID: id, Views: viewCounts[id]})
	}

	// Join display fields from the registry. A registry failure keeps the
	// ranking itself; only names and ratings go missing.
	if a.businesses != nil && len(ranked) > 0 {
		summaries, err := a.businesses.Summaries(ctx, ranked)
		if err != nil {
			a.log.Warn().Err(err).Msg("business registry join failed, returning bare ids")
		} else {
			for i := range topViewed {
				if summary, ok := summaries[topViewed[i].ID]; ok {
					topViewed[i].Name = summary.Name
					topViewed[i].Rating = summary.Rating
				}
			}
		}
	}

	return models.BusinessMetrics{
		TotalViews:     views,
		TotalContacts:  contacts,
		TotalFavorites: favorites,
		ConversionRate: utils.Percent(contacts, views),
		TopViewed:      topViewed,
	}, nil
}
