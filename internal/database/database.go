// Package database owns the Postgres connection pool and schema
// migrations for the registry store.
package database

import (
	"context"
	"fmt"
	"time"

	zerologadapter "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5/multitracer"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"
)

const pingTimeout = 5 * time.Second

// NewPool opens a pgx pool against databaseURL. Queries are traced into
// the given logger at queryLogLevel (a tracelog level name, "warn" when
// empty or unknown) and into New Relic when a transaction is in flight.
func NewPool(ctx context.Context, databaseURL string, logger zerolog.Logger, queryLogLevel string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	level, err := tracelog.LogLevelFromString(queryLogLevel)
	if err != nil {
		level = tracelog.LogLevelWarn
	}
	cfg.ConnConfig.Tracer = multitracer.New(
		&tracelog.TraceLog{
			Logger:   zerologadapter.NewLogger(logger),
			LogLevel: level,
		},
		nrpgx5.NewTracer(),
	)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
