package analytics

import (
	"context"
	"time"

	"github.com/localdeck/analytics/models"
	"github.com/localdeck/analytics/store"
	"github.com/localdeck/analytics/utils"
)

// userMetrics counts registrations and active authenticated users from the
// event stream, plus verified/business-owner counts from the profile
// registry. A registry failure only zeroes the registry-sourced fields.
func (a *Aggregator) userMetrics(ctx context.Context, start, end time.Time) (models.UserMetrics, error) {
	registrations, err := a.store.Query(ctx, store.Filter{
		Types: []string{models.EventUserRegistration},
		Start: start,
		End:   end,
	})
	if err != nil {
		return models.UserMetrics{}, err
	}

	allEvents, err := a.store.Query(ctx, store.Filter{Start: start, End: end})
	if err != nil {
		return models.UserMetrics{}, err
	}

	actors := make(map[string]struct{})
	for _, event := range allEvents {
		if event.ActorID != "" {
			actors[event.ActorID] = struct{}{}
		}
	}

	users := models.UserMetrics{
		NewRegistrations: len(registrations),
		Active:           len(actors),
		RetentionRate:    utils.ClampPercent(a.rates.RetentionRate(ctx, start, end)),
	}

	if a.profiles != nil {
		stats, err := a.profiles.StatsSince(ctx, start)
		if err != nil {
			a.log.Warn().Err(err).Msg("profile registry lookup failed, verified/owner counts zeroed")
		} else {
			users.Verified = stats.Verified
			users.BusinessOwners = stats.BusinessOwners
		}
	}

	return users, nil
}
