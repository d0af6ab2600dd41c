package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// Header is the exact column order of the report artifact.
var Header = []string{
	"store_id",
	"uptime_last_hour_minutes",
	"uptime_last_day_hours",
	"uptime_last_week_hours",
	"downtime_last_hour_minutes",
	"downtime_last_day_hours",
	"downtime_last_week_hours",
}

// WriteCSV writes rows as the report artifact. Cells go through decimal
// rounding to two places so repeated runs over identical data produce
// byte-identical output.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.StoreID,
			cell(r.UptimeLastHourMin),
			cell(r.UptimeLastDayHrs),
			cell(r.UptimeLastWeekHrs),
			cell(r.DowntimeLastHourMin),
			cell(r.DowntimeLastDayHrs),
			cell(r.DowntimeLastWeekHrs),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row for store %s: %w", r.StoreID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
