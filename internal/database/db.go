package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolOptions sizes the connection pool. Zero values keep the pgx defaults.
type PoolOptions struct {
	MaxConns int32
	MinConns int32
}

// Connect opens a pgx pool for the CRM tables and pings it before returning.
func Connect(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(dsn, opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func poolConfig(dsn string, opts PoolOptions) (*pgxpool.Config, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN must not be empty")
	}
	if opts.MaxConns < 0 || opts.MinConns < 0 {
		return nil, fmt.Errorf("pool sizes must not be negative")
	}
	if opts.MaxConns > 0 && opts.MinConns > opts.MaxConns {
		return nil, fmt.Errorf("min connections (%d) exceed max connections (%d)", opts.MinConns, opts.MaxConns)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}

	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	return cfg, nil
}
