package clickhouse

import (
	"context"
	"fmt"
	"time"

	"store-monitor/services/report"
	"store-monitor/services/schedule"
	"store-monitor/services/segments"
)

// Client implements report.Store.
var _ report.Store = (*Client)(nil)

func (c *Client) StoreIDs(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT store_id FROM (
			SELECT store_id FROM %s.store_status
			UNION ALL
			SELECT store_id FROM %s.store_timezone
			UNION ALL
			SELECT store_id FROM %s.business_hours
		)
		ORDER BY store_id`, c.db, c.db, c.db)

	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query store ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan store id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (c *Client) Profile(ctx context.Context, storeID string) (report.Profile, error) {
	profile := report.Profile{StoreID: storeID}

	tzQuery := fmt.Sprintf(`SELECT timezone FROM %s.store_timezone FINAL WHERE store_id = ? LIMIT 1`, c.db)
	rows, err := c.conn.Query(ctx, tzQuery, storeID)
	if err != nil {
		return report.Profile{}, fmt.Errorf("failed to query timezone: %w", err)
	}
	for rows.Next() {
		if err := rows.Scan(&profile.Timezone); err != nil {
			rows.Close()
			return report.Profile{}, fmt.Errorf("failed to scan timezone: %w", err)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return report.Profile{}, err
	}

	hoursQuery := fmt.Sprintf(`
		SELECT day_of_week, open_local, close_local
		FROM %s.business_hours
		WHERE store_id = ?
		ORDER BY day_of_week, open_local`, c.db)
	rows, err = c.conn.Query(ctx, hoursQuery, storeID)
	if err != nil {
		return report.Profile{}, fmt.Errorf("failed to query business hours: %w", err)
	}
	defer rows.Close()

	weekly := schedule.Weekly{}
	for rows.Next() {
		var (
			day         uint8
			open, close string
		)
		if err := rows.Scan(&day, &open, &close); err != nil {
			return report.Profile{}, fmt.Errorf("failed to scan business hours: %w", err)
		}
		openClock, err := schedule.ParseClock(open)
		if err != nil {
			return report.Profile{}, fmt.Errorf("store %s day %d: %w", storeID, day, err)
		}
		closeClock, err := schedule.ParseClock(close)
		if err != nil {
			return report.Profile{}, fmt.Errorf("store %s day %d: %w", storeID, day, err)
		}
		weekly[int(day)] = append(weekly[int(day)], schedule.Span{Open: openClock, Close: closeClock})
	}
	if err := rows.Err(); err != nil {
		return report.Profile{}, err
	}
	if len(weekly) > 0 {
		profile.Hours = weekly
	}
	return profile, nil
}

func (c *Client) Pings(ctx context.Context, storeID string, start, end time.Time) ([]segments.Ping, error) {
	query := fmt.Sprintf(`
		SELECT ts, status
		FROM %s.store_status
		WHERE store_id = ? AND ts >= ? AND ts < ?
		ORDER BY ts`, c.db)

	rows, err := c.conn.Query(ctx, query, storeID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query pings: %w", err)
	}
	defer rows.Close()

	var pings []segments.Ping
	for rows.Next() {
		var (
			ts     time.Time
			status string
		)
		if err := rows.Scan(&ts, &status); err != nil {
			return nil, fmt.Errorf("failed to scan ping: %w", err)
		}
		pings = append(pings, segments.Ping{
			StoreID:   storeID,
			Timestamp: ts.UTC(),
			Status:    segments.Normalize(status),
		})
	}
	return pings, rows.Err()
}

func (c *Client) LastPingBefore(ctx context.Context, storeID string, ts time.Time) (*segments.Ping, error) {
	query := fmt.Sprintf(`
		SELECT ts, status
		FROM %s.store_status
		WHERE store_id = ? AND ts < ?
		ORDER BY ts DESC
		LIMIT 1`, c.db)

	rows, err := c.conn.Query(ctx, query, storeID, ts.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query seed ping: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var (
		pingTS time.Time
		status string
	)
	if err := rows.Scan(&pingTS, &status); err != nil {
		return nil, fmt.Errorf("failed to scan seed ping: %w", err)
	}
	return &segments.Ping{
		StoreID:   storeID,
		Timestamp: pingTS.UTC(),
		Status:    segments.Normalize(status),
	}, nil
}

func (c *Client) MaxPingTimestamp(ctx context.Context) (time.Time, error) {
	query := fmt.Sprintf(`SELECT max(ts), count() FROM %s.store_status`, c.db)

	var (
		maxTS time.Time
		total uint64
	)
	if err := c.conn.QueryRow(ctx, query).Scan(&maxTS, &total); err != nil {
		return time.Time{}, fmt.Errorf("failed to query max ping timestamp: %w", err)
	}
	if total == 0 {
		return time.Time{}, report.ErrNoPings
	}
	return maxTS.UTC(), nil
}
