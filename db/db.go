package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // imported for side-effects only, not for direct use in the code.
	"github.com/oschwald/geoip2-golang"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/localdeck/analytics/config"
)

func CreatePostgresConnection(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	log.Info().Str("host", cfg.PostgresHost).Str("db", cfg.PostgresDB).Msg("connected to Postgres")

	return db, nil
}

func CreateRedisConnection(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection error: %w", err)
	}

	log.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")

	return client, nil
}

// CreateGeoIPConnection opens the GeoLite2 city database. The path is
// optional; callers treat a missing reader as "no geo enrichment".
func CreateGeoIPConnection(cfg *config.Config) (*geoip2.Reader, error) {
	if cfg.GeoIPDBPath == "" {
		return nil, nil
	}

	reader, err := geoip2.Open(cfg.GeoIPDBPath)
	if err != nil {
		return nil, fmt.Errorf("geoip connection error: %w", err)
	}

	log.Info().Str("path", cfg.GeoIPDBPath).Msg("connected to GeoIP database")
	return reader, nil
}
