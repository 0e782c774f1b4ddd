package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresBusinessRegistry reads the directory's businesses table.
type PostgresBusinessRegistry struct {
	DB *sql.DB
}

func NewPostgresBusinessRegistry(db *sql.DB) *PostgresBusinessRegistry {
	return &PostgresBusinessRegistry{DB: db}
}

func (r *PostgresBusinessRegistry) Summaries(ctx context.Context, ids []string) (map[string]BusinessSummary, error) {
	summaries := make(map[string]BusinessSummary)
	if len(ids) == 0 {
		return summaries, nil
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, rating FROM businesses WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query business summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s BusinessSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan business summary: %w", err)
		}
		summaries[s.ID] = s
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error querying business summaries: %w", err)
	}

	return summaries, nil
}

func (r *PostgresBusinessRegistry) CityBreakdown(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT city, COUNT(*) FROM businesses WHERE city <> '' GROUP BY city")
	if err != nil {
		return nil, fmt.Errorf("failed to query city breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := make(map[string]int)
	for rows.Next() {
		var city string
		var count int
		if err := rows.Scan(&city, &count); err != nil {
			return nil, fmt.Errorf("failed to scan city breakdown: %w", err)
		}
		breakdown[city] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error querying city breakdown: %w", err)
	}

	return breakdown, nil
}

// PostgresProfileRegistry reads the directory's users table.
type PostgresProfileRegistry struct {
	DB *sql.DB
}

func NewPostgresProfileRegistry(db *sql.DB) *PostgresProfileRegistry {
	return &PostgresProfileRegistry{DB: db}
}

func (r *PostgresProfileRegistry) StatsSince(ctx context.Context, since time.Time) (ProfileStats, error) {
	var stats ProfileStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE verified),
			COUNT(*) FILTER (WHERE is_business_owner)
		FROM users
		WHERE created_at >= $1
	`, since).Scan(&stats.Verified, &stats.BusinessOwners)
	if err != nil {
		return ProfileStats{}, fmt.Errorf("failed to query profile stats: %w", err)
	}
	return stats, nil
}

// PostgresReviewStore reads the directory's reviews table.
type PostgresReviewStore struct {
	DB *sql.DB
}

func NewPostgresReviewStore(db *sql.DB) *PostgresReviewStore {
	return &PostgresReviewStore{DB: db}
}

func (r *PostgresReviewStore) Stats(ctx context.Context, start, end time.Time) (ReviewStats, error) {
	var stats ReviewStats
	var avgRating sql.NullFloat64
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			AVG(rating)
		FROM reviews
		WHERE created_at >= $1 AND created_at < $2
	`, start, end).Scan(&stats.Total, &stats.Approved, &stats.Pending, &avgRating)
	if err != nil {
		return ReviewStats{}, fmt.Errorf("failed to query review stats: %w", err)
	}
	if avgRating.Valid {
		stats.AverageRating = avgRating.Float64
	}
	return stats, nil
}
