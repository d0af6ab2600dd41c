package clickhouse

import (
	"context"
	"fmt"
	"time"
)

// StatusRow is a raw availability observation bound for staging.
type StatusRow struct {
	StoreID   string
	Timestamp time.Time
	Status    string
}

// HoursRow is one weekday open/close pair, times normalized to HH:MM:SS.
type HoursRow struct {
	StoreID    string
	DayOfWeek  uint8
	OpenLocal  string
	CloseLocal string
}

// TimezoneRow binds a store to an IANA zone name.
type TimezoneRow struct {
	StoreID  string
	Timezone string
}

// StageStatusBatch bulk-inserts raw observations into the staging table.
func (c *Client) StageStatusBatch(ctx context.Context, rows []StatusRow) error {
	if len(rows) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s.staging_status (store_id, ts, status, ingested_at)
		VALUES (?, ?, ?, ?)`, c.db)

	stmt, err := c.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	ingestedAt := time.Now().UTC()
	for _, r := range rows {
		if err := stmt.Append(r.StoreID, r.Timestamp.UTC(), r.Status, ingestedAt); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}
	return stmt.Send()
}

// PromoteStatus moves staged observations into the canonical table, keeping
// the latest staged row per (store_id, ts) and skipping pairs the canonical
// table already holds, then clears staging. Re-ingesting overlapping files
// therefore never duplicates canonical rows.
func (c *Client) PromoteStatus(ctx context.Context) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.store_status
		SELECT store_id, ts, status
		FROM (
			SELECT *,
				row_number() OVER (
					PARTITION BY store_id, ts
					ORDER BY ingested_at DESC
				) AS rn
			FROM %s.staging_status
		)
		WHERE rn = 1
		  AND (store_id, ts) NOT IN (SELECT store_id, ts FROM %s.store_status)`, c.db, c.db, c.db)

	if err := c.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to promote staged status rows: %w", err)
	}
	if err := c.conn.Exec(ctx, fmt.Sprintf(`TRUNCATE TABLE %s.staging_status`, c.db)); err != nil {
		return fmt.Errorf("failed to clear staging table: %w", err)
	}
	return nil
}

// ReplaceBusinessHours swaps in a full new schedule dataset.
func (c *Client) ReplaceBusinessHours(ctx context.Context, rows []HoursRow) error {
	if err := c.conn.Exec(ctx, fmt.Sprintf(`TRUNCATE TABLE %s.business_hours`, c.db)); err != nil {
		return fmt.Errorf("failed to clear business hours: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s.business_hours (store_id, day_of_week, open_local, close_local)
		VALUES (?, ?, ?, ?)`, c.db)

	stmt, err := c.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, r := range rows {
		if err := stmt.Append(r.StoreID, r.DayOfWeek, r.OpenLocal, r.CloseLocal); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}
	return stmt.Send()
}

// ReplaceTimezones swaps in a full new timezone dataset.
func (c *Client) ReplaceTimezones(ctx context.Context, rows []TimezoneRow) error {
	if err := c.conn.Exec(ctx, fmt.Sprintf(`TRUNCATE TABLE %s.store_timezone`, c.db)); err != nil {
		return fmt.Errorf("failed to clear timezones: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s.store_timezone (store_id, timezone)
		VALUES (?, ?)`, c.db)

	stmt, err := c.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, r := range rows {
		if err := stmt.Append(r.StoreID, r.Timezone); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}
	return stmt.Send()
}

// LedgerHas reports whether a file with this content hash was already
// ingested. Re-running ingestion over an unchanged file is a no-op.
func (c *Client) LedgerHas(ctx context.Context, file, sha string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT count() FROM %s.ingest_ledger
		WHERE file = ? AND sha256 = ?`, c.db)

	var n uint64
	if err := c.conn.QueryRow(ctx, query, file, sha).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check ingest ledger: %w", err)
	}
	return n > 0, nil
}

// RecordIngest writes a ledger entry for a completed file load.
func (c *Client) RecordIngest(ctx context.Context, file, sha string, rowCount uint64, source string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.ingest_ledger (file, sha256, row_count, source, inserted_at)
		VALUES (?, ?, ?, ?, ?)`, c.db)

	if err := c.conn.Exec(ctx, query, file, sha, rowCount, source, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record ingest ledger: %w", err)
	}
	return nil
}

// TableCount returns the row count of a table in the service database.
func (c *Client) TableCount(ctx context.Context, table string) (uint64, error) {
	var n uint64
	query := fmt.Sprintf(`SELECT count() FROM %s.%s`, c.db, table)
	if err := c.conn.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
