package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps database access helpers.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Record is one normalized reading pushed by a station. Rows are append-only:
// nothing in the service updates or deletes them.
type Record struct {
	ID         int64     `json:"id"`
	IP         string    `json:"ip"`
	Cmd        string    `json:"cmd"`
	Phone      string    `json:"phone"`
	Imei       string    `json:"imei"`
	Time       string    `json:"time"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	RecordDate string    `json:"record_date"`
	Vals       string    `json:"vals"`
	Batt       string    `json:"batt"`
	Powr       string    `json:"powr"`
	Sigs       string    `json:"sigs"`
	Nwtype     string    `json:"nwtype"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const insertRecordSQL = `
    INSERT INTO records (ip, cmd, phone, imei, time, start_time, end_time, record_date, vals, batt, powr, sigs, nwtype, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW(),NOW())
    RETURNING id, created_at, updated_at
`

// InsertRecord appends one record and returns it with its assigned id.
func (s *Store) InsertRecord(ctx context.Context, rec Record) (Record, error) {
	row := s.pool.QueryRow(ctx, insertRecordSQL,
		rec.IP,
		rec.Cmd,
		rec.Phone,
		rec.Imei,
		rec.Time,
		rec.StartTime,
		rec.EndTime,
		rec.RecordDate,
		rec.Vals,
		rec.Batt,
		rec.Powr,
		rec.Sigs,
		rec.Nwtype,
	)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

const recordColumns = `id, ip, cmd, phone, imei, time, start_time, end_time, record_date, vals, batt, powr, sigs, nwtype, created_at, updated_at`

const latestRecordSQL = `
    SELECT ` + recordColumns + `
    FROM records
    WHERE imei = $1
    ORDER BY record_date DESC, start_time DESC, id DESC
    LIMIT 1
`

// LatestRecord returns the most recent record for a station, or nil when the
// station has never reported.
func (s *Store) LatestRecord(ctx context.Context, imei string) (*Record, error) {
	row := s.pool.QueryRow(ctx, latestRecordSQL, imei)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

const recordsForDatesSQL = `
    SELECT ` + recordColumns + `
    FROM records
    WHERE imei = $1 AND record_date = ANY($2) AND vals <> ''
    ORDER BY id
`

// RecordsForDates returns the station's records whose record_date matches one
// of the given DD-MM-YYYY values and whose value blob is non-empty.
func (s *Store) RecordsForDates(ctx context.Context, imei string, dates []string) ([]Record, error) {
	rows, err := s.pool.Query(ctx, recordsForDatesSQL, imei, dates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

const recordsInHourSQL = `
    SELECT ` + recordColumns + `
    FROM records
    WHERE imei = $1 AND record_date = $2 AND vals <> ''
      AND ((start_time >= $3 AND start_time <= $4) OR (end_time >= $3 AND end_time <= $4))
    ORDER BY id
`

// RecordsInHour returns the station's records on the given date whose window
// start or end falls inside [hourStart, hourEnd]. Times are HH:MM strings, so
// lexicographic comparison matches chronological order.
func (s *Store) RecordsInHour(ctx context.Context, imei, date, hourStart, hourEnd string) ([]Record, error) {
	rows, err := s.pool.Query(ctx, recordsInHourSQL, imei, date, hourStart, hourEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.IP,
		&rec.Cmd,
		&rec.Phone,
		&rec.Imei,
		&rec.Time,
		&rec.StartTime,
		&rec.EndTime,
		&rec.RecordDate,
		&rec.Vals,
		&rec.Batt,
		&rec.Powr,
		&rec.Sigs,
		&rec.Nwtype,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	return rec, err
}
