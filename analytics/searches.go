package analytics

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/localdeck/analytics/models"
	"github.com/localdeck/analytics/store"
	"github.com/localdeck/analytics/utils"
)

const topKeywordLimit = 10

// searchMetrics groups search events by case-normalized query and ranks the
// top keywords with their average result counts.
func (a *Aggregator) searchMetrics(ctx context.Context, start, end time.Time) (models.SearchMetrics, error) {
	events, err := a.store.Query(ctx, store.Filter{
		Types: []string{models.EventSearch},
		Start: start,
		End:   end,
	})
	if err != nil {
		return models.SearchMetrics{}, err
	}

	type keywordStats struct {
		count   int
		results int
	}

	stats := make(map[string]*keywordStats)
	var order []string // first-seen order, the ranking tie-break
	noResults := 0

	for _, event := range events {
		keyword := strings.ToLower(strings.TrimSpace(ctxString(event.Context, models.CtxQuery)))
		if keyword != "" {
			entry, seen := stats[keyword]
			if !seen {
				entry = &keywordStats{}
				stats[keyword] = entry
				order = append(order, keyword)
			}
			entry.count++
			if results, ok := ctxInt(event.Context, models.CtxResultsCount); ok {
				entry.results += results
			}
		}

		if hasResults, ok := ctxBool(event.Context, models.CtxHasResults); ok {
			if !hasResults {
				noResults++
			}
		} else if results, ok := ctxInt(event.Context, models.CtxResultsCount); ok && results <= 0 {
			noResults++
		}
	}

	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return stats[ranked[i]].count > stats[ranked[j]].count
	})
	if len(ranked) > topKeywordLimit {
		ranked = ranked[:topKeywordLimit]
	}

	topKeywords := make([]models.TopKeyword, 0, len(ranked))
	for _, keyword := range ranked {
		entry := stats[keyword]
		topKeywords = append(topKeywords, models.TopKeyword{
			Keyword: keyword,
			Count:   entry.count,
			Results: float64(entry.results) / float64(entry.count),
		})
	}

	total := len(events)
	return models.SearchMetrics{
		Total:          total,
		UniqueKeywords: len(stats),
		TopKeywords:    topKeywords,
		NoResults:      noResults,
		ConversionRate: utils.Percent(total-noResults, total),
	}, nil
}
