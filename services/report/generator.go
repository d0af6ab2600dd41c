package report

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"store-monitor/services/schedule"
	"store-monitor/services/segments"
)

// Generator assembles a full report: three lookback windows per store, one
// row per store, ordered by store id.
type Generator struct {
	store     Store
	defaultTZ string
	workers   int
	logger    *zap.Logger
}

// NewGenerator creates a generator. workers <= 0 means one worker per CPU.
func NewGenerator(store Store, defaultTZ string, workers int, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{store: store, defaultTZ: defaultTZ, workers: workers, logger: logger}
}

// Run computes the report relative to the dataset's latest ping timestamp.
func (g *Generator) Run(ctx context.Context) ([]Row, error) {
	now, err := g.store.MaxPingTimestamp(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve report reference instant: %w", err)
	}
	return g.RunAt(ctx, now)
}

// RunAt computes the report against a fixed reference instant. The instant
// is resolved once per run so every store sees the same "now".
func (g *Generator) RunAt(ctx context.Context, now time.Time) ([]Row, error) {
	now = now.UTC()

	ids, err := g.store.StoreIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate stores: %w", err)
	}

	workers := g.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(ids) && len(ids) > 0 {
		workers = len(ids)
	}

	g.logger.Info("starting report computation",
		zap.Time("now", now),
		zap.Int("stores", len(ids)),
		zap.Int("workers", workers),
	)

	idChan := make(chan string, len(ids))
	rowChan := make(chan Row, len(ids))
	errChan := make(chan error, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go g.worker(ctx, now, idChan, rowChan, errChan, &wg)
	}

	for _, id := range ids {
		idChan <- id
	}
	close(idChan)

	go func() {
		wg.Wait()
		close(rowChan)
		close(errChan)
	}()

	var rows []Row
	var errs []error

	for {
		select {
		case row, ok := <-rowChan:
			if !ok {
				goto done
			}
			rows = append(rows, row)

		case err, ok := <-errChan:
			if !ok {
				goto done
			}
			errs = append(errs, err)
		}
	}

done:
	for row := range rowChan {
		rows = append(rows, row)
	}
	for err := range errChan {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("report computation failed: %v", errs)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].StoreID < rows[j].StoreID })
	return rows, nil
}

func (g *Generator) worker(
	ctx context.Context,
	now time.Time,
	idChan <-chan string,
	rowChan chan<- Row,
	errChan chan<- error,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for id := range idChan {
		if err := ctx.Err(); err != nil {
			errChan <- err
			return
		}
		row, err := g.computeStore(ctx, id, now)
		if err != nil {
			errChan <- fmt.Errorf("store %s: %w", id, err)
			continue
		}
		rowChan <- row
	}
}

// lookback is one of the three fixed report windows.
type lookback struct {
	span    time.Duration
	inHours bool
}

var lookbacks = [3]lookback{
	{span: time.Hour},
	{span: 24 * time.Hour, inHours: true},
	{span: 7 * 24 * time.Hour, inHours: true},
}

func (g *Generator) computeStore(ctx context.Context, storeID string, now time.Time) (Row, error) {
	profile, err := g.store.Profile(ctx, storeID)
	if err != nil {
		return Row{}, fmt.Errorf("load profile: %w", err)
	}

	tzName := profile.Timezone
	if tzName == "" {
		tzName = g.defaultTZ
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Row{}, fmt.Errorf("load timezone %q: %w", tzName, err)
	}

	row := Row{StoreID: storeID}
	for i, lb := range lookbacks {
		start := now.Add(-lb.span)

		seed, err := g.store.LastPingBefore(ctx, storeID, start)
		if err != nil {
			return Row{}, fmt.Errorf("seed ping: %w", err)
		}
		pings, err := g.store.Pings(ctx, storeID, start, now)
		if err != nil {
			return Row{}, fmt.Errorf("load pings: %w", err)
		}

		windows := schedule.BusinessWindows(loc, profile.Hours, start, now)
		segs := segments.Build(seed, pings, start, now)
		active, inactive := Accumulate(segs, windows)

		if lb.inHours {
			active /= 60
			inactive /= 60
		}
		switch i {
		case 0:
			row.UptimeLastHourMin, row.DowntimeLastHourMin = active, inactive
		case 1:
			row.UptimeLastDayHrs, row.DowntimeLastDayHrs = active, inactive
		case 2:
			row.UptimeLastWeekHrs, row.DowntimeLastWeekHrs = active, inactive
		}
	}
	return row, nil
}
