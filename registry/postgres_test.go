package registry

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessSummaries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, rating FROM businesses WHERE id = ANY\\(\\$1\\)").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "rating"}).
			AddRow("B1", "Luigi's", 4.5).
			AddRow("B2", "Mario's", 3.8))

	summaries, err := NewPostgresBusinessRegistry(db).Summaries(context.Background(), []string{"B1", "B2"})
	require.NoError(t, err)

	assert.Equal(t, BusinessSummary{ID: "B1", Name: "Luigi's", Rating: 4.5}, summaries["B1"])
	assert.Equal(t, BusinessSummary{ID: "B2", Name: "Mario's", Rating: 3.8}, summaries["B2"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBusinessSummariesEmptyInputSkipsQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	summaries, err := NewPostgresBusinessRegistry(db).Summaries(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCityBreakdown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT city, COUNT\\(\\*\\) FROM businesses").
		WillReturnRows(sqlmock.NewRows([]string{"city", "count"}).
			AddRow("Milan", 3).
			AddRow("Rome", 1))

	breakdown, err := NewPostgresBusinessRegistry(db).CityBreakdown(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Milan": 3, "Rome": 1}, breakdown)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileStatsSince(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	since := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT(.|\\s)+FROM users").
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"verified", "owners"}).AddRow(4, 2))

	stats, err := NewPostgresProfileRegistry(db).StatsSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, ProfileStats{Verified: 4, BusinessOwners: 2}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	start := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	mock.ExpectQuery("SELECT(.|\\s)+FROM reviews").
		WithArgs(start, end).
		WillReturnRows(sqlmock.NewRows([]string{"total", "approved", "pending", "avg"}).
			AddRow(10, 7, 3, 4.2))

	stats, err := NewPostgresReviewStore(db).Stats(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, ReviewStats{Total: 10, Approved: 7, Pending: 3, AverageRating: 4.2}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewStatsNullAverage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	start := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	mock.ExpectQuery("SELECT(.|\\s)+FROM reviews").
		WithArgs(start, end).
		WillReturnRows(sqlmock.NewRows([]string{"total", "approved", "pending", "avg"}).
			AddRow(0, 0, 0, nil))

	stats, err := NewPostgresReviewStore(db).Stats(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.AverageRating)
	assert.NoError(t, mock.ExpectationsWereMet())
}
