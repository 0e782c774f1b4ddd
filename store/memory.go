package store

import (
	"context"
	"sync"

	"github.com/localdeck/analytics/models"
)

// MemoryEventStore is an in-memory EventStore. It backs tests and lets the
// service run without Postgres in development.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events []models.AnalyticsEvent
}

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{}
}

func (s *MemoryEventStore) Append(_ context.Context, event models.AnalyticsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryEventStore) Query(_ context.Context, filter Filter) ([]models.AnalyticsEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.AnalyticsEvent
	for _, event := range s.events {
		if matches(event, filter) {
			out = append(out, event)
		}
	}
	return out, nil
}

// Len reports the number of stored events.
func (s *MemoryEventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Events returns a copy of everything stored, in append order.
func (s *MemoryEventStore) Events() []models.AnalyticsEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AnalyticsEvent, len(s.events))
	copy(out, s.events)
	return out
}

func matches(event models.AnalyticsEvent, filter Filter) bool {
	if len(filter.Types) > 0 {
		found := false
		for _, t := range filter.Types {
			if event.EventType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Category != "" && event.Category != filter.Category {
		return false
	}
	if filter.SubjectID != "" && event.SubjectID != filter.SubjectID {
		return false
	}
	if !filter.Start.IsZero() && event.OccurredAt.Before(filter.Start) {
		return false
	}
	if !filter.End.IsZero() && !event.OccurredAt.Before(filter.End) {
		return false
	}
	return true
}
