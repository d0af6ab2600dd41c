// Package clickhouse is the storage layer: ping history, business hours,
// timezones and the ingest ledger live in ClickHouse.
package clickhouse

import (
	"context"
	"fmt"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"store-monitor/services/config"
)

type Client struct {
	conn driver.Conn
	db   string
}

func Open(cfg config.ClickHouseConfig) (*Client, error) {
	conn, err := ch.Open(&ch.Options{
		Addr: []string{cfg.Addr},
		Auth: ch.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &Client{conn: conn, db: cfg.Database}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// EnsureSchema creates the database and tables when absent. store_status is
// the canonical ping table; staging_status takes raw CSV rows before the
// deduplicating promotion pass.
func (c *Client) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, c.db),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.store_status (
				store_id String,
				ts DateTime64(6, 'UTC'),
				status Enum8('inactive' = 0, 'active' = 1)
			) ENGINE = MergeTree ORDER BY (store_id, ts)`, c.db),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.staging_status (
				store_id String,
				ts DateTime64(6, 'UTC'),
				status Enum8('inactive' = 0, 'active' = 1),
				ingested_at DateTime64(3, 'UTC')
			) ENGINE = MergeTree ORDER BY (store_id, ts)`, c.db),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.business_hours (
				store_id String,
				day_of_week UInt8,
				open_local String,
				close_local String
			) ENGINE = MergeTree ORDER BY (store_id, day_of_week)`, c.db),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.store_timezone (
				store_id String,
				timezone String
			) ENGINE = ReplacingMergeTree ORDER BY store_id`, c.db),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.ingest_ledger (
				file String,
				sha256 String,
				row_count UInt64,
				source String,
				inserted_at DateTime64(3, 'UTC')
			) ENGINE = MergeTree ORDER BY (file, inserted_at)`, c.db),
	}
	for _, stmt := range stmts {
		if err := c.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
