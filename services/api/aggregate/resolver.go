package aggregate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aguasdev/aguas-api/services/api/clock"
	"github.com/aguasdev/aguas-api/services/api/db"
	"github.com/aguasdev/aguas-api/services/api/metrics"
)

// Channel codes with computed values. Any other code is a direct lookup into
// the latest record's value blob.
const (
	channelLastHour  = "02"
	channelToday     = "03"
	channelYesterday = "05"
)

// Resolver decides, per channel, between a direct blob lookup and a windowed
// accumulation. It never returns an error: engine failures are logged,
// counted and collapsed to a nil value so one broken channel cannot take the
// dashboard down.
type Resolver struct {
	engine *Engine
	clock  clock.Clock
	log    *slog.Logger
}

// NewResolver constructs a channel value resolver.
func NewResolver(engine *Engine, clk clock.Clock, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{engine: engine, clock: clk, log: log}
}

// Resolve produces a channel's current value and its time label. Both are
// nil when the station has never reported.
func (r *Resolver) Resolve(ctx context.Context, imei string, latest *db.Record, ch db.Channel) (*float64, *string) {
	if latest == nil {
		return nil, nil
	}

	switch ch.Name {
	case channelToday:
		value := r.accumulate(ctx, imei, ch, WindowToday)
		label := dailyLabel(rollingToday(r.clock.Now()), false)
		return value, &label
	case channelYesterday:
		value := r.accumulate(ctx, imei, ch, WindowYesterday)
		label := dailyLabel(yesterdayToToday(r.clock.Now()), true)
		return value, &label
	case channelLastHour:
		value := r.accumulate(ctx, imei, ch, WindowLastHour)
		label := hourLabel(lastClosedHour(r.clock.Now()))
		return value, &label
	default:
		return ParseBlob(latest.Vals).Lookup(ch.ColRel), directTimeInfo(latest)
	}
}

func (r *Resolver) accumulate(ctx context.Context, imei string, ch db.Channel, kind WindowKind) *float64 {
	value, err := r.engine.Accumulate(ctx, imei, ch.ColRel, kind)
	if err != nil {
		r.log.Warn("aggregate: accumulation fault collapsed to null",
			"imei", imei, "channel", ch.Name, "window", int(kind), "err", err)
		metrics.IncAggregationFault(fmt.Sprintf("window_%d", kind))
		return nil
	}
	return value
}

// directTimeInfo labels a direct channel with the latest record's window, or
// its raw time string when the decomposed parts are incomplete.
func directTimeInfo(latest *db.Record) *string {
	if latest.StartTime != "" && latest.EndTime != "" && latest.RecordDate != "" {
		s := fmt.Sprintf("%s-%s %s", latest.StartTime, latest.EndTime, latest.RecordDate)
		return &s
	}
	if latest.Time != "" {
		s := latest.Time
		return &s
	}
	return nil
}
