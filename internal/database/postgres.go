package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing for a single-instance deployment; the vote paths are short
// transactions, so a modest pool keeps Postgres happy under bursts.
const (
	poolMaxConns          = 16
	poolMinConns          = 2
	poolMaxConnLifetime   = 30 * time.Minute
	poolMaxConnIdleTime   = 10 * time.Minute
	poolHealthCheckPeriod = 30 * time.Second

	connectTimeout = 10 * time.Second
)

type PostgresDB struct {
	Pool *pgxpool.Pool
}

// Seams for tests; production code never reassigns these.
var (
	pgParseConfig = pgxpool.ParseConfig
	pgNewPool     = pgxpool.NewWithConfig
	pgPing        = func(ctx context.Context, pool *pgxpool.Pool) error {
		return pool.Ping(ctx)
	}
	pgClose = func(pool *pgxpool.Pool) {
		pool.Close()
	}
)

func NewPostgresDB(dsn string) (*PostgresDB, error) {
	cfg, err := pgParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	cfg.MaxConns = poolMaxConns
	cfg.MinConns = poolMinConns
	cfg.MaxConnLifetime = poolMaxConnLifetime
	cfg.MaxConnIdleTime = poolMaxConnIdleTime
	cfg.HealthCheckPeriod = poolHealthCheckPeriod

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgNewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pgPing(ctx, pool); err != nil {
		pgClose(pool)
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresDB{Pool: pool}, nil
}

func (db *PostgresDB) Close() {
	if db.Pool != nil {
		pgClose(db.Pool)
	}
}

func (db *PostgresDB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
