package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Station is a monitoring station joined with its locality hierarchy. It is
// reference data: the aggregation path only ever reads it.
type Station struct {
	ID               string   `json:"id"`
	Location         *string  `json:"location"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Imei             string   `json:"imei"`
	Phone            string   `json:"phone"`
	Basin            *string  `json:"basin"`
	LocalityID       *int64   `json:"locality_id"`
	LocalityName     *string  `json:"locality_name"`
	MunicipalityID   *int64   `json:"municipality_id"`
	MunicipalityName *string  `json:"municipality_name"`
	ProvinceID       *int64   `json:"province_id"`
	ProvinceName     *string  `json:"province_name"`
}

// Channel is a measurement channel definition. The name is a short device
// code; col_rel names the key to read inside a record's value blob.
type Channel struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	ColRel       string  `json:"col_rel"`
	Variable     string  `json:"variable"`
	UnidadMedida *string `json:"unidad_medida"`
	EsAcuifero   bool    `json:"es_acuifero"`
}

const stationColumns = `
    e.id, e.location, e.latitude, e.longitude, e.imei, e.phone, e.basin, e.locality_id,
    l.name, m.id, m.name, p.id, p.name
`

const stationJoins = `
    FROM equipment e
    LEFT JOIN localities l ON l.id = e.locality_id
    LEFT JOIN municipalities m ON m.id = l.municipality_id
    LEFT JOIN provinces p ON p.id = m.province_id
`

const listStationsSQL = `SELECT ` + stationColumns + stationJoins + ` ORDER BY e.id ASC`

// ListStations returns all stations with their locality hierarchy resolved.
func (s *Store) ListStations(ctx context.Context) ([]Station, error) {
	rows, err := s.pool.Query(ctx, listStationsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := make([]Station, 0)
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

const getStationSQL = `SELECT ` + stationColumns + stationJoins + ` WHERE e.id = $1`

// GetStation returns one station by id, or nil when it does not exist.
func (s *Store) GetStation(ctx context.Context, id string) (*Station, error) {
	row := s.pool.QueryRow(ctx, getStationSQL, id)
	st, err := scanStation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func scanStation(row pgx.Row) (Station, error) {
	var st Station
	err := row.Scan(
		&st.ID,
		&st.Location,
		&st.Latitude,
		&st.Longitude,
		&st.Imei,
		&st.Phone,
		&st.Basin,
		&st.LocalityID,
		&st.LocalityName,
		&st.MunicipalityID,
		&st.MunicipalityName,
		&st.ProvinceID,
		&st.ProvinceName,
	)
	return st, err
}

const channelsByStationSQL = `
    SELECT ec.equipment_id, c.id, c.name, c.col_rel, c.variable, c.unidad_medida, c.es_acuifero
    FROM equipment_channels ec
    JOIN channels c ON c.id = ec.channel_id
    ORDER BY ec.equipment_id, c.id
`

// ChannelsByStation returns every station's attached channels keyed by
// station id, in one query.
func (s *Store) ChannelsByStation(ctx context.Context) (map[string][]Channel, error) {
	rows, err := s.pool.Query(ctx, channelsByStationSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]Channel)
	for rows.Next() {
		var stationID string
		var ch Channel
		if err := rows.Scan(
			&stationID,
			&ch.ID,
			&ch.Name,
			&ch.ColRel,
			&ch.Variable,
			&ch.UnidadMedida,
			&ch.EsAcuifero,
		); err != nil {
			return nil, err
		}
		out[stationID] = append(out[stationID], ch)
	}
	return out, rows.Err()
}

const channelsForStationSQL = `
    SELECT c.id, c.name, c.col_rel, c.variable, c.unidad_medida, c.es_acuifero
    FROM equipment_channels ec
    JOIN channels c ON c.id = ec.channel_id
    WHERE ec.equipment_id = $1
    ORDER BY c.id
`

// ChannelsForStation returns the channels attached to one station.
func (s *Store) ChannelsForStation(ctx context.Context, stationID string) ([]Channel, error) {
	rows, err := s.pool.Query(ctx, channelsForStationSQL, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	channels := make([]Channel, 0)
	for rows.Next() {
		var ch Channel
		if err := rows.Scan(
			&ch.ID,
			&ch.Name,
			&ch.ColRel,
			&ch.Variable,
			&ch.UnidadMedida,
			&ch.EsAcuifero,
		); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}
