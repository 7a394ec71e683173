package aggregate

import (
	"context"
	"fmt"
	"math"

	"github.com/aguasdev/aguas-api/services/api/clock"
	"github.com/aguasdev/aguas-api/services/api/db"
)

// WindowKind selects which accumulation window the engine computes.
type WindowKind int

const (
	// WindowToday is the rolling 07:00-to-07:00 day containing now.
	WindowToday WindowKind = iota
	// WindowYesterday is the closed day from yesterday 07:00 to today 07:00.
	WindowYesterday
	// WindowLastHour is the full hour immediately preceding now.
	WindowLastHour
)

// RecordSource reads stored records for accumulation. *db.Store satisfies it.
type RecordSource interface {
	LatestRecord(ctx context.Context, imei string) (*db.Record, error)
	RecordsForDates(ctx context.Context, imei string, dates []string) ([]db.Record, error)
	RecordsInHour(ctx context.Context, imei, date, hourStart, hourEnd string) ([]db.Record, error)
}

// Engine sums a named value across a station's records in a time window.
type Engine struct {
	records RecordSource
	clock   clock.Clock
}

// NewEngine constructs an accumulation engine.
func NewEngine(records RecordSource, clk clock.Clock) *Engine {
	return &Engine{records: records, clock: clk}
}

// Accumulate sums valueKey over the station's records in the given window.
// A sum of exactly zero returns nil: the dashboard shows "no rainfall" and
// "no data" identically. Errors are returned for the caller to log and
// collapse; they never reach the query response.
func (e *Engine) Accumulate(ctx context.Context, imei, valueKey string, kind WindowKind) (*float64, error) {
	records, err := e.selectRecords(ctx, imei, kind)
	if err != nil {
		return nil, err
	}

	sum := 0.0
	for _, rec := range records {
		sum += ParseBlob(rec.Vals).Amount(valueKey)
	}

	if sum == 0 {
		return nil, nil
	}
	rounded := math.Round(sum*100) / 100
	return &rounded, nil
}

func (e *Engine) selectRecords(ctx context.Context, imei string, kind WindowKind) ([]db.Record, error) {
	now := e.clock.Now()

	switch kind {
	case WindowToday:
		return e.records.RecordsForDates(ctx, imei, rollingToday(now).dates())
	case WindowYesterday:
		return e.records.RecordsForDates(ctx, imei, yesterdayToToday(now).dates())
	case WindowLastHour:
		win := lastClosedHour(now)
		return e.records.RecordsInHour(ctx, imei,
			win.Start.Format(recordDateLayout),
			win.Start.Format("15:04"),
			win.End.Format("15:04"),
		)
	default:
		return nil, fmt.Errorf("unknown window kind %d", kind)
	}
}
