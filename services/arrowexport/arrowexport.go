// Package arrowexport serializes report rows as an Arrow IPC stream, the
// columnar counterpart to the CSV artifact.
package arrowexport

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"store-monitor/services/report"
)

// Schema mirrors the CSV column order.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "store_id", Type: arrow.BinaryTypes.String},
	{Name: "uptime_last_hour_minutes", Type: arrow.PrimitiveTypes.Float64},
	{Name: "uptime_last_day_hours", Type: arrow.PrimitiveTypes.Float64},
	{Name: "uptime_last_week_hours", Type: arrow.PrimitiveTypes.Float64},
	{Name: "downtime_last_hour_minutes", Type: arrow.PrimitiveTypes.Float64},
	{Name: "downtime_last_day_hours", Type: arrow.PrimitiveTypes.Float64},
	{Name: "downtime_last_week_hours", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// Encode writes rows as a single Arrow record batch in IPC stream format.
func Encode(rows []report.Row) ([]byte, error) {
	pool := memory.NewGoAllocator()

	storeIDs := make([]string, len(rows))
	cols := [6][]float64{}
	for i := range cols {
		cols[i] = make([]float64, len(rows))
	}
	for i, r := range rows {
		storeIDs[i] = r.StoreID
		cols[0][i] = r.UptimeLastHourMin
		cols[1][i] = r.UptimeLastDayHrs
		cols[2][i] = r.UptimeLastWeekHrs
		cols[3][i] = r.DowntimeLastHourMin
		cols[4][i] = r.DowntimeLastDayHrs
		cols[5][i] = r.DowntimeLastWeekHrs
	}

	storeBuilder := array.NewStringBuilder(pool)
	defer storeBuilder.Release()
	storeBuilder.AppendValues(storeIDs, nil)
	arrays := make([]arrow.Array, 0, 7)
	storeArray := storeBuilder.NewStringArray()
	defer storeArray.Release()
	arrays = append(arrays, storeArray)

	for _, col := range cols {
		b := array.NewFloat64Builder(pool)
		b.AppendValues(col, nil)
		a := b.NewFloat64Array()
		defer a.Release()
		b.Release()
		arrays = append(arrays, a)
	}

	record := array.NewRecord(Schema, arrays, int64(len(rows)))
	defer record.Release()

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(Schema))
	if err := writer.Write(record); err != nil {
		writer.Close()
		return nil, fmt.Errorf("write arrow record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close arrow writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads an Encode-produced stream back into rows.
func Decode(data []byte) ([]report.Row, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open arrow stream: %w", err)
	}
	defer reader.Release()

	var rows []report.Row
	for reader.Next() {
		rec := reader.Record()
		ids := rec.Column(0).(*array.String)
		cols := make([]*array.Float64, 6)
		for i := range cols {
			cols[i] = rec.Column(i + 1).(*array.Float64)
		}
		for i := 0; i < int(rec.NumRows()); i++ {
			rows = append(rows, report.Row{
				StoreID:             ids.Value(i),
				UptimeLastHourMin:   cols[0].Value(i),
				UptimeLastDayHrs:    cols[1].Value(i),
				UptimeLastWeekHrs:   cols[2].Value(i),
				DowntimeLastHourMin: cols[3].Value(i),
				DowntimeLastDayHrs:  cols[4].Value(i),
				DowntimeLastWeekHrs: cols[5].Value(i),
			})
		}
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read arrow stream: %w", err)
	}
	return rows, nil
}
