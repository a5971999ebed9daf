// Package database provides database connection management and utilities.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

const (
	defaultConnectTimeout = 30 * time.Second
	pingAttemptTimeout    = 5 * time.Second
)

// Config holds database configuration settings.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	// ConnectTimeout bounds how long Connect keeps retrying the first ping. Zero means 30s.
	ConnectTimeout time.Duration
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// Connect opens the pool, applies the limits from cfg and waits for the server to answer,
// retrying the ping with exponential backoff until ctx is done or cfg.ConnectTimeout elapses.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = timeout

	if err := pingWithRetry(ctx, db, b); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func pingWithRetry(ctx context.Context, p pinger, b backoff.BackOff) error {
	return backoff.Retry(func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, pingAttemptTimeout)
		defer cancel()
		return p.PingContext(attemptCtx)
	}, backoff.WithContext(b, ctx))
}
