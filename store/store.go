// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

// Package store is the relational layer: narrow per-entity repositories
// over a pgx connection pool, plus the transactional rating-aggregate
// maintenance. Every mutation that touches a movie's rating runs the
// review write and the aggregate update in one transaction; neither is
// ever persisted without the other.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dateLayout is the wire-facing review date format.
const dateLayout = "02/01/2006"

// Store provides the per-entity repositories. All methods are short,
// bounded, synchronous calls safe to run from connection handlers.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger

	// now is swappable in tests that pin review dates.
	now func() time.Time
}

// Connect builds a pgx pool for the given URL and verifies connectivity.
func Connect(ctx context.Context, databaseURL, appName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	if appName != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = appName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// New creates a Store over an existing pool and initializes the schema,
// including the seeded admin account.
func New(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		pool:   pool,
		logger: logger,
		now:    time.Now,
	}

	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return s.initializeSchemaInTx(ctx, tx)
	})
	if err != nil {
		return nil, fmt.Errorf("initialize store schema: %w", err)
	}
	logger.Debug("Store schema initialized")
	return s, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}
