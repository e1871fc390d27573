package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/resilience"
)

type Client struct {
	DB  *sql.DB
	cfg config.PostgresConfig
}

func New(cfg config.PostgresConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{DB: db, cfg: cfg}, nil
}

// Connect calls New until it succeeds or the retry budget is spent. Unless
// retry sets its own Permanent, errors matched by IsPermanent stop at once.
func Connect(ctx context.Context, cfg config.PostgresConfig, retry resilience.RetryConfig) (*Client, error) {
	retry = connectRetry(retry)
	var client *Client
	err := resilience.Retry(ctx, "postgres-connect", retry, func() error {
		c, err := New(cfg)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// IsPermanent reports server errors that another connection attempt cannot
// fix: rejected credentials (class 28) and a missing database.
func IsPermanent(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code.Class() == "28" || pqErr.Code == "3D000"
}

func connectRetry(retry resilience.RetryConfig) resilience.RetryConfig {
	if retry.Permanent == nil {
		retry.Permanent = IsPermanent
	}
	return retry
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func (c *Client) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back transaction after error %v: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
