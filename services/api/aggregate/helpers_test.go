package aggregate

import (
	"context"
	"time"

	"github.com/aguasdev/aguas-api/services/api/db"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// fakeStore is an in-memory aggregate.Store with the same selection rules as
// the SQL queries.
type fakeStore struct {
	stations []db.Station
	channels map[string][]db.Channel
	records  map[string][]db.Record

	err error

	datesQueried []string
	hourQueried  []string
}

func (f *fakeStore) ListStations(context.Context) ([]db.Station, error) {
	return f.stations, f.err
}

func (f *fakeStore) GetStation(_ context.Context, id string) (*db.Station, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.stations {
		if f.stations[i].ID == id {
			return &f.stations[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ChannelsByStation(context.Context) (map[string][]db.Channel, error) {
	return f.channels, f.err
}

func (f *fakeStore) ChannelsForStation(_ context.Context, stationID string) ([]db.Channel, error) {
	return f.channels[stationID], f.err
}

func (f *fakeStore) LatestRecord(_ context.Context, imei string) (*db.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	records := f.records[imei]
	if len(records) == 0 {
		return nil, nil
	}
	latest := records[0]
	for _, rec := range records[1:] {
		if rec.RecordDate > latest.RecordDate ||
			(rec.RecordDate == latest.RecordDate && rec.StartTime > latest.StartTime) {
			latest = rec
		}
	}
	return &latest, nil
}

func (f *fakeStore) RecordsForDates(_ context.Context, imei string, dates []string) ([]db.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.datesQueried = dates

	wanted := make(map[string]bool, len(dates))
	for _, d := range dates {
		wanted[d] = true
	}

	out := make([]db.Record, 0)
	for _, rec := range f.records[imei] {
		if rec.Vals != "" && wanted[rec.RecordDate] {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) RecordsInHour(_ context.Context, imei, date, hourStart, hourEnd string) ([]db.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.hourQueried = []string{date, hourStart, hourEnd}

	inHour := func(hm string) bool { return hm >= hourStart && hm <= hourEnd }

	out := make([]db.Record, 0)
	for _, rec := range f.records[imei] {
		if rec.Vals == "" || rec.RecordDate != date {
			continue
		}
		if inHour(rec.StartTime) || inHour(rec.EndTime) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func record(imei, date, start, end, vals string) db.Record {
	return db.Record{
		Cmd:        "RESULT",
		Phone:      "+5351234567",
		Imei:       imei,
		Time:       start + "-" + end + " " + date,
		StartTime:  start,
		EndTime:    end,
		RecordDate: date,
		Vals:       vals,
	}
}
