// Package main runs data-quality checks over the ingested monitoring data.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"store-monitor/services/config"
)

// DataAudit performs consistency checks on pings, schedules and timezones.
type DataAudit struct {
	conn driver.Conn
	db   string
}

func NewDataAudit(cfg config.ClickHouseConfig) (*DataAudit, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &DataAudit{conn: conn, db: cfg.Database}, nil
}

func (da *DataAudit) Close() error {
	return da.conn.Close()
}

// AuditResult represents the result of a single check.
type AuditResult struct {
	CheckName string
	Status    string // "PASS", "WARN", "FAIL"
	Message   string
	CheckedAt time.Time
}

func (da *DataAudit) countCheck(ctx context.Context, query string, args ...any) (uint64, error) {
	var n uint64
	if err := da.conn.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// runDuplicatePingCheck flags (store_id, ts) pairs observed more than once.
func (da *DataAudit) runDuplicatePingCheck(ctx context.Context) (*AuditResult, error) {
	log.Println("Running duplicate ping check...")

	query := fmt.Sprintf(`
		SELECT count() FROM (
			SELECT store_id, ts, count() AS c
			FROM %s.store_status
			GROUP BY store_id, ts
			HAVING c > 1
		)`, da.db)

	n, err := da.countCheck(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate pings: %w", err)
	}

	status, message := "PASS", "No duplicate pings found"
	if n > 0 {
		status = "WARN"
		message = fmt.Sprintf("Found %d duplicated (store, timestamp) groups", n)
	}
	return &AuditResult{CheckName: "duplicate_pings", Status: status, Message: message, CheckedAt: time.Now()}, nil
}

// runDayIndexCheck flags schedule rows with day_of_week outside 0..6.
func (da *DataAudit) runDayIndexCheck(ctx context.Context) (*AuditResult, error) {
	log.Println("Running day index check...")

	query := fmt.Sprintf(`SELECT count() FROM %s.business_hours WHERE day_of_week > 6`, da.db)
	n, err := da.countCheck(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to check day indices: %w", err)
	}

	status, message := "PASS", "All day indices within 0..6"
	if n > 0 {
		status = "FAIL"
		message = fmt.Sprintf("Found %d schedule rows with invalid day_of_week", n)
	}
	return &AuditResult{CheckName: "day_indices", Status: status, Message: message, CheckedAt: time.Now()}, nil
}

// runEmptySpanCheck flags open/close pairs that cover zero time.
func (da *DataAudit) runEmptySpanCheck(ctx context.Context) (*AuditResult, error) {
	log.Println("Running empty span check...")

	query := fmt.Sprintf(`SELECT count() FROM %s.business_hours WHERE open_local = close_local`, da.db)
	n, err := da.countCheck(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to check empty spans: %w", err)
	}

	status, message := "PASS", "No zero-length business-hour spans"
	if n > 0 {
		status = "WARN"
		message = fmt.Sprintf("Found %d spans with open == close", n)
	}
	return &AuditResult{CheckName: "empty_spans", Status: status, Message: message, CheckedAt: time.Now()}, nil
}

// runMissingTimezoneCheck flags stores reporting pings without a timezone
// record. These fall back to the default zone during report computation.
func (da *DataAudit) runMissingTimezoneCheck(ctx context.Context) (*AuditResult, error) {
	log.Println("Running missing timezone check...")

	query := fmt.Sprintf(`
		SELECT count(DISTINCT store_id)
		FROM %s.store_status
		WHERE store_id NOT IN (SELECT store_id FROM %s.store_timezone)`, da.db, da.db)

	n, err := da.countCheck(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to check missing timezones: %w", err)
	}

	status, message := "PASS", "Every reporting store has a timezone record"
	if n > 0 {
		status = "WARN"
		message = fmt.Sprintf("Found %d stores with pings but no timezone record", n)
	}
	return &AuditResult{CheckName: "missing_timezones", Status: status, Message: message, CheckedAt: time.Now()}, nil
}

// runLedgerRecencyCheck warns when nothing has been ingested for a week.
func (da *DataAudit) runLedgerRecencyCheck(ctx context.Context) (*AuditResult, error) {
	log.Println("Running ledger recency check...")

	query := fmt.Sprintf(`
		SELECT count() FROM %s.ingest_ledger
		WHERE inserted_at >= now() - INTERVAL 7 DAY`, da.db)

	n, err := da.countCheck(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to check ledger recency: %w", err)
	}

	status, message := "PASS", "Ingestion ran within the last 7 days"
	if n == 0 {
		status = "WARN"
		message = "No ingest ledger entries in the last 7 days"
	}
	return &AuditResult{CheckName: "ledger_recency", Status: status, Message: message, CheckedAt: time.Now()}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	audit, err := NewDataAudit(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to create audit: %v", err)
	}
	defer audit.Close()

	ctx := context.Background()
	checks := []func(context.Context) (*AuditResult, error){
		audit.runDuplicatePingCheck,
		audit.runDayIndexCheck,
		audit.runEmptySpanCheck,
		audit.runMissingTimezoneCheck,
		audit.runLedgerRecencyCheck,
	}

	failed := false
	for _, check := range checks {
		result, err := check(ctx)
		if err != nil {
			log.Printf("Check error: %v", err)
			failed = true
			continue
		}
		fmt.Printf("[%s] %s: %s\n", result.Status, result.CheckName, result.Message)
		if result.Status == "FAIL" {
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}
