// Package main loads the three source CSVs (status pings, business hours,
// store timezones) into ClickHouse.
package main

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	ch "store-monitor/services/clickhouse"
	"store-monitor/services/config"
	"store-monitor/services/schedule"
	"store-monitor/services/segments"
)

const batchSize = 50000

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, " UTC")
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// openCSV opens a CSV file, transparently decoding UTF-16 input and
// skipping a UTF-8 BOM when present.
func openCSV(path string) (*csv.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	br := bufio.NewReader(f)
	if b, _ := br.Peek(3); len(b) >= 2 {
		switch {
		case (b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF):
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				f.Close()
				return nil, nil, err
			}
			tr := transform.NewReader(f, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
			br = bufio.NewReader(tr)
		case len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF:
			br.Discard(3)
		}
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r, f.Close, nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// headerIndex maps normalized column names (with aliases) to positions.
func headerIndex(header []string, aliases map[string][]string) (map[string]int, error) {
	pos := map[string]int{}
	for i, col := range header {
		pos[strings.ToLower(strings.TrimSpace(col))] = i
	}
	out := map[string]int{}
	for canonical, names := range aliases {
		found := -1
		for _, name := range names {
			if i, ok := pos[name]; ok {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("missing column %s (any of %v)", canonical, names)
		}
		out[canonical] = found
	}
	return out, nil
}

// covers reports whether a record is long enough for every mapped column.
func covers(rec []string, idx map[string]int) bool {
	for _, i := range idx {
		if i >= len(rec) {
			return false
		}
	}
	return true
}

type ingester struct {
	client *ch.Client
	logger *zap.Logger
	tzDef  string
}

func (ing *ingester) ingestStatus(ctx context.Context, path string) (uint64, error) {
	sha, err := sha256File(path)
	if err != nil {
		return 0, err
	}
	name := filepath.Base(path)
	done, err := ing.client.LedgerHas(ctx, name, sha)
	if err != nil {
		return 0, err
	}
	if done {
		ing.logger.Info("Status file already ingested, skipping", zap.String("file", name))
		return 0, nil
	}

	r, closeFile, err := openCSV(path)
	if err != nil {
		return 0, err
	}
	defer closeFile()

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	idx, err := headerIndex(header, map[string][]string{
		"store_id":  {"store_id"},
		"timestamp": {"timestamp_utc", "timestamp"},
		"status":    {"status"},
	})
	if err != nil {
		return 0, err
	}

	var (
		batch     []ch.StatusRow
		total     uint64
		badRows   int
		flushInto = func() error {
			if err := ing.client.StageStatusBatch(ctx, batch); err != nil {
				return err
			}
			total += uint64(len(batch))
			batch = batch[:0]
			return nil
		}
	)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil || !covers(rec, idx) {
			badRows++
			continue
		}
		ts, err := parseTimestamp(rec[idx["timestamp"]])
		if err != nil {
			badRows++
			continue
		}
		batch = append(batch, ch.StatusRow{
			StoreID:   strings.TrimSpace(rec[idx["store_id"]]),
			Timestamp: ts,
			Status:    segments.Normalize(rec[idx["status"]]).String(),
		})
		if len(batch) >= batchSize {
			if err := flushInto(); err != nil {
				return total, err
			}
			ing.logger.Info("Staged status rows", zap.Uint64("total", total))
		}
	}
	if err := flushInto(); err != nil {
		return total, err
	}
	if badRows > 0 {
		ing.logger.Warn("Skipped malformed status rows", zap.Int("rows", badRows))
	}

	if err := ing.client.PromoteStatus(ctx); err != nil {
		return total, err
	}
	if err := ing.client.RecordIngest(ctx, name, sha, total, "status_csv"); err != nil {
		return total, err
	}
	return total, nil
}

func (ing *ingester) ingestHours(ctx context.Context, path string) (uint64, error) {
	r, closeFile, err := openCSV(path)
	if err != nil {
		return 0, err
	}
	defer closeFile()

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	idx, err := headerIndex(header, map[string][]string{
		"store_id": {"store_id"},
		"day":      {"dayofweek", "day_of_week", "day", "dow"},
		"open":     {"start_time_local", "open_time_local", "open"},
		"close":    {"end_time_local", "close_time_local", "close"},
	})
	if err != nil {
		return 0, err
	}

	var rows []ch.HoursRow
	badRows := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil || !covers(rec, idx) {
			badRows++
			continue
		}
		day, err := strconv.Atoi(strings.TrimSpace(rec[idx["day"]]))
		if err != nil || day < 0 || day > 6 {
			badRows++
			continue
		}
		open, err := schedule.ParseClock(strings.TrimSpace(rec[idx["open"]]))
		if err != nil {
			badRows++
			continue
		}
		closeAt, err := schedule.ParseClock(strings.TrimSpace(rec[idx["close"]]))
		if err != nil {
			badRows++
			continue
		}
		rows = append(rows, ch.HoursRow{
			StoreID:    strings.TrimSpace(rec[idx["store_id"]]),
			DayOfWeek:  uint8(day),
			OpenLocal:  open.String(),
			CloseLocal: closeAt.String(),
		})
	}
	if badRows > 0 {
		ing.logger.Warn("Skipped malformed business-hours rows", zap.Int("rows", badRows))
	}
	if err := ing.client.ReplaceBusinessHours(ctx, rows); err != nil {
		return 0, err
	}
	return uint64(len(rows)), nil
}

func (ing *ingester) ingestTimezones(ctx context.Context, path string) (uint64, error) {
	r, closeFile, err := openCSV(path)
	if err != nil {
		return 0, err
	}
	defer closeFile()

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	idx, err := headerIndex(header, map[string][]string{
		"store_id": {"store_id"},
		"timezone": {"timezone_str", "timezone"},
	})
	if err != nil {
		return 0, err
	}

	var rows []ch.TimezoneRow
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil || !covers(rec, idx) {
			continue
		}
		tz := strings.TrimSpace(rec[idx["timezone"]])
		if tz == "" {
			tz = ing.tzDef
		}
		rows = append(rows, ch.TimezoneRow{
			StoreID:  strings.TrimSpace(rec[idx["store_id"]]),
			Timezone: tz,
		})
	}
	if err := ing.client.ReplaceTimezones(ctx, rows); err != nil {
		return 0, err
	}
	return uint64(len(rows)), nil
}

func main() {
	statusCSV := flag.String("status", "", "store status CSV (store_id,timestamp_utc,status)")
	hoursCSV := flag.String("hours", "", "business hours CSV (store_id,dayOfWeek,start_time_local,end_time_local)")
	tzCSV := flag.String("tz", "", "timezone CSV (store_id,timezone_str)")
	flag.Parse()

	if *statusCSV == "" || *hoursCSV == "" || *tzCSV == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	client, err := ch.Open(cfg.ClickHouse)
	if err != nil {
		logger.Fatal("Failed to connect to ClickHouse", zap.Error(err))
	}
	defer client.Close()

	ctx := context.Background()
	if err := client.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure schema", zap.Error(err))
	}

	ing := &ingester{client: client, logger: logger, tzDef: cfg.Compute.DefaultTimezone}

	nStatus, err := ing.ingestStatus(ctx, *statusCSV)
	if err != nil {
		logger.Fatal("Status ingestion failed", zap.Error(err))
	}
	nHours, err := ing.ingestHours(ctx, *hoursCSV)
	if err != nil {
		logger.Fatal("Business-hours ingestion failed", zap.Error(err))
	}
	nTZ, err := ing.ingestTimezones(ctx, *tzCSV)
	if err != nil {
		logger.Fatal("Timezone ingestion failed", zap.Error(err))
	}

	now, err := client.MaxPingTimestamp(ctx)
	if err != nil {
		logger.Warn("No reference instant available", zap.Error(err))
	}
	totalPings, err := client.TableCount(ctx, "store_status")
	if err != nil {
		logger.Warn("Failed to count ping rows", zap.Error(err))
	}
	logger.Info("Ingestion complete",
		zap.Uint64("status_rows", nStatus),
		zap.Uint64("hours_rows", nHours),
		zap.Uint64("timezone_rows", nTZ),
		zap.Uint64("ping_rows_total", totalPings),
		zap.Time("now", now),
	)
}
