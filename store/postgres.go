package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/localdeck/analytics/models"
)

// PostgresEventStore persists events in an append-only table with the open
// context map stored as JSONB.
type PostgresEventStore struct {
	DB *sql.DB
}

func NewPostgresEventStore(db *sql.DB) *PostgresEventStore {
	return &PostgresEventStore{DB: db}
}

func (s *PostgresEventStore) Append(ctx context.Context, event models.AnalyticsEvent) error {
	contextJSON, err := json.Marshal(event.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal event context: %w", err)
	}

	insertQuery := `
		INSERT INTO analytics_events
			(id, event_type, category, session_id, actor_id, subject_id, context, occurred_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.DB.ExecContext(ctx, insertQuery,
		event.ID,
		event.EventType,
		string(event.Category),
		event.SessionID,
		event.ActorID,
		event.SubjectID,
		contextJSON,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

func (s *PostgresEventStore) Query(ctx context.Context, filter Filter) ([]models.AnalyticsEvent, error) {
	var conditions []string
	var args []interface{}

	if !filter.Start.IsZero() {
		args = append(args, filter.Start)
		conditions = append(conditions, "occurred_at >= $"+strconv.Itoa(len(args)))
	}
	if !filter.End.IsZero() {
		args = append(args, filter.End)
		conditions = append(conditions, "occurred_at < $"+strconv.Itoa(len(args)))
	}
	if len(filter.Types) > 0 {
		args = append(args, pq.Array(filter.Types))
		conditions = append(conditions, "event_type = ANY($"+strconv.Itoa(len(args))+")")
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conditions = append(conditions, "category = $"+strconv.Itoa(len(args)))
	}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		conditions = append(conditions, "subject_id = $"+strconv.Itoa(len(args)))
	}

	query := "SELECT id, event_type, category, session_id, actor_id, subject_id, context, occurred_at FROM analytics_events"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	// seq column order == append order
	query += " ORDER BY seq ASC"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.AnalyticsEvent
	for rows.Next() {
		var event models.AnalyticsEvent
		var category string
		var contextJSON []byte
		err := rows.Scan(
			&event.ID,
			&event.EventType,
			&category,
			&event.SessionID,
			&event.ActorID,
			&event.SubjectID,
			&contextJSON,
			&event.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event.Category = models.Category(category)
		if len(contextJSON) > 0 {
			if err := json.Unmarshal(contextJSON, &event.Context); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event context: %w", err)
			}
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error querying events: %w", err)
	}

	return events, nil
}
