package arrowexport

import (
	"testing"

	"store-monitor/services/report"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rows := []report.Row{
		{
			StoreID:             "store-0001",
			UptimeLastHourMin:   30.5,
			UptimeLastDayHrs:    23.5,
			UptimeLastWeekHrs:   167.5,
			DowntimeLastHourMin: 29.5,
			DowntimeLastDayHrs:  0.5,
			DowntimeLastWeekHrs: 0.5,
		},
		{StoreID: "store-0002", DowntimeLastHourMin: 60, DowntimeLastDayHrs: 24, DowntimeLastWeekHrs: 168},
	}

	data, err := Encode(rows)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("empty stream")
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(got))
	}
	for i := range rows {
		if got[i] != rows[i] {
			t.Fatalf("row %d: expected %+v, got %+v", i, rows[i], got[i])
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	data, err := Encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %v", got)
	}
}

func TestSchemaMatchesCSVColumns(t *testing.T) {
	fields := Schema.Fields()
	if len(fields) != len(report.Header) {
		t.Fatalf("schema has %d fields, header has %d", len(fields), len(report.Header))
	}
	for i, f := range fields {
		if f.Name != report.Header[i] {
			t.Fatalf("field %d: schema %q vs header %q", i, f.Name, report.Header[i])
		}
	}
}
