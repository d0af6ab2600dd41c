//! Data Generator - Creates sample monitoring CSVs for local testing
//!
//! Emits the three source files (status pings, business hours, timezones)
//! with a deterministic seed so ingest runs are reproducible.

package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

var timezones = []string{
	"America/Chicago",
	"America/New_York",
	"America/Denver",
	"America/Los_Angeles",
	"Asia/Kolkata",
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go <output_dir> [stores]")
		fmt.Println("Example: go run main.go ./data 50")
		os.Exit(1)
	}

	outDir := os.Args[1]
	stores := 50
	if len(os.Args) > 2 {
		fmt.Sscanf(os.Args[2], "%d", &stores)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output dir: %v", err)
	}

	rng := rand.New(rand.NewSource(42)) // Fixed seed for reproducibility

	fmt.Printf("Generating data for %d stores into %s\n", stores, outDir)
	end := time.Now().UTC().Truncate(time.Minute)
	start := end.Add(-7 * 24 * time.Hour)

	writeStatus(outDir, rng, stores, start, end)
	writeHours(outDir, rng, stores)
	writeTimezones(outDir, rng, stores)

	fmt.Println("Done")
}

func storeID(i int) string {
	return fmt.Sprintf("store-%04d", i)
}

func writeStatus(outDir string, rng *rand.Rand, stores int, start, end time.Time) {
	w, file := newWriter(filepath.Join(outDir, "store_status.csv"))
	defer file.Close()
	defer w.Flush()

	mustWrite(w, []string{"store_id", "timestamp_utc", "status"})

	rows := 0
	for i := 0; i < stores; i++ {
		// irregular ping spacing between 30 and 90 minutes
		ts := start.Add(time.Duration(rng.Intn(30)) * time.Minute)
		active := rng.Float64() < 0.8
		for ts.Before(end) {
			status := "inactive"
			if active {
				status = "active"
			}
			mustWrite(w, []string{
				storeID(i),
				ts.Format("2006-01-02 15:04:05") + " UTC",
				status,
			})
			rows++
			ts = ts.Add(time.Duration(30+rng.Intn(60)) * time.Minute)
			// occasional state flip
			if rng.Float64() < 0.15 {
				active = !active
			}
		}
	}
	fmt.Printf("Wrote %d status rows\n", rows)
}

func writeHours(outDir string, rng *rand.Rand, stores int) {
	w, file := newWriter(filepath.Join(outDir, "business_hours.csv"))
	defer file.Close()
	defer w.Flush()

	mustWrite(w, []string{"store_id", "dayOfWeek", "start_time_local", "end_time_local"})

	rows := 0
	for i := 0; i < stores; i++ {
		switch rng.Intn(3) {
		case 0:
			// no rows at all: open around the clock
		case 1:
			// weekdays 09:00-18:00, closed weekends
			for day := 0; day < 5; day++ {
				mustWrite(w, []string{storeID(i), fmt.Sprintf("%d", day), "09:00:00", "18:00:00"})
				rows++
			}
		case 2:
			// overnight bar hours every day except Sunday
			for day := 0; day < 6; day++ {
				mustWrite(w, []string{storeID(i), fmt.Sprintf("%d", day), "23:00:00", "02:00:00"})
				rows++
			}
		}
	}
	fmt.Printf("Wrote %d business-hours rows\n", rows)
}

func writeTimezones(outDir string, rng *rand.Rand, stores int) {
	w, file := newWriter(filepath.Join(outDir, "store_timezones.csv"))
	defer file.Close()
	defer w.Flush()

	mustWrite(w, []string{"store_id", "timezone_str"})

	rows := 0
	for i := 0; i < stores; i++ {
		// a few stores have no timezone record to exercise the default
		if rng.Float64() < 0.1 {
			continue
		}
		mustWrite(w, []string{storeID(i), timezones[rng.Intn(len(timezones))]})
		rows++
	}
	fmt.Printf("Wrote %d timezone rows\n", rows)
}

func newWriter(path string) (*csv.Writer, *os.File) {
	file, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create file: %v", err)
	}
	return csv.NewWriter(file), file
}

func mustWrite(w *csv.Writer, record []string) {
	if err := w.Write(record); err != nil {
		log.Fatalf("Failed to write record: %v", err)
	}
}
