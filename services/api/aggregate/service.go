package aggregate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aguasdev/aguas-api/services/api/db"
)

// ReferenceSource reads station and channel reference data. *db.Store
// satisfies it.
type ReferenceSource interface {
	ListStations(ctx context.Context) ([]db.Station, error)
	GetStation(ctx context.Context, id string) (*db.Station, error)
	ChannelsByStation(ctx context.Context) (map[string][]db.Channel, error)
	ChannelsForStation(ctx context.Context, stationID string) ([]db.Channel, error)
}

// Store is the full read surface the query service needs.
type Store interface {
	ReferenceSource
	RecordSource
}

// ChannelValue is one resolved channel in a station response.
type ChannelValue struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	ColRel       string   `json:"col_rel"`
	Variable     string   `json:"variable"`
	UnidadMedida *string  `json:"unidad_medida"`
	EsAcuifero   bool     `json:"es_acuifero"`
	LatestValue  *float64 `json:"latest_value"`
	TimeInfo     *string  `json:"time_info"`
}

// ProvinceRef, MunicipalityRef and LocalityRef nest the location hierarchy.
type ProvinceRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type MunicipalityRef struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Province *ProvinceRef `json:"province"`
}

type LocalityRef struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	Municipality *MunicipalityRef `json:"municipality"`
}

// StationRainfall is the per-station dashboard payload.
type StationRainfall struct {
	ID               string         `json:"id"`
	Location         *string        `json:"location"`
	Latitude         *string        `json:"latitude"`
	Longitude        *string        `json:"longitude"`
	Imei             string         `json:"imei"`
	Phone            string         `json:"phone"`
	Basin            *string        `json:"basin"`
	LocalityID       *int64         `json:"locality_id"`
	Channels         []ChannelValue `json:"channels"`
	ChannelIDs       []int64        `json:"channel_ids"`
	LastRecordDate   *string        `json:"last_record_date"`
	Battery          *string        `json:"battery"`
	Signal           *string        `json:"signal"`
	Power            *string        `json:"power"`
	NetworkType      *string        `json:"network_type"`
	Locality         *LocalityRef   `json:"locality"`
	LocalityName     *string        `json:"locality_name"`
	MunicipalityName *string        `json:"municipality_name"`
	ProvinceName     *string        `json:"province_name"`
}

// Service assembles the dashboard view: every station with its resolved
// channel values and latest-record metadata.
type Service struct {
	store    Store
	resolver *Resolver
}

// NewService constructs the aggregation query service.
func NewService(store Store, resolver *Resolver) *Service {
	return &Service{store: store, resolver: resolver}
}

// AllStations resolves every station. Stations that have never reported are
// still present, with null metadata and null channel values.
func (s *Service) AllStations(ctx context.Context) ([]StationRainfall, error) {
	stations, err := s.store.ListStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}

	channelsByStation, err := s.store.ChannelsByStation(ctx)
	if err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}

	out := make([]StationRainfall, 0, len(stations))
	for _, station := range stations {
		resolved, err := s.assemble(ctx, station, channelsByStation[station.ID])
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

// Station resolves one station by id, or nil when it does not exist.
func (s *Service) Station(ctx context.Context, id string) (*StationRainfall, error) {
	station, err := s.store.GetStation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get station: %w", err)
	}
	if station == nil {
		return nil, nil
	}

	channels, err := s.store.ChannelsForStation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}

	resolved, err := s.assemble(ctx, *station, channels)
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

func (s *Service) assemble(ctx context.Context, station db.Station, channels []db.Channel) (StationRainfall, error) {
	latest, err := s.store.LatestRecord(ctx, station.Imei)
	if err != nil {
		return StationRainfall{}, fmt.Errorf("latest record for %s: %w", station.Imei, err)
	}

	values := make([]ChannelValue, 0, len(channels))
	channelIDs := make([]int64, 0, len(channels))
	for _, ch := range channels {
		value, timeInfo := s.resolver.Resolve(ctx, station.Imei, latest, ch)
		values = append(values, ChannelValue{
			ID:           ch.ID,
			Name:         ch.Name,
			ColRel:       ch.ColRel,
			Variable:     ch.Variable,
			UnidadMedida: ch.UnidadMedida,
			EsAcuifero:   ch.EsAcuifero,
			LatestValue:  value,
			TimeInfo:     timeInfo,
		})
		channelIDs = append(channelIDs, ch.ID)
	}

	out := StationRainfall{
		ID:               station.ID,
		Location:         station.Location,
		Latitude:         formatCoordinate(station.Latitude),
		Longitude:        formatCoordinate(station.Longitude),
		Imei:             station.Imei,
		Phone:            station.Phone,
		Basin:            station.Basin,
		LocalityID:       station.LocalityID,
		Channels:         values,
		ChannelIDs:       channelIDs,
		Locality:         localityRef(station),
		LocalityName:     station.LocalityName,
		MunicipalityName: station.MunicipalityName,
		ProvinceName:     station.ProvinceName,
	}

	if latest != nil {
		if latest.StartTime != "" && latest.EndTime != "" && latest.RecordDate != "" {
			s := fmt.Sprintf("%s-%s %s", latest.StartTime, latest.EndTime, latest.RecordDate)
			out.LastRecordDate = &s
		}
		out.Battery = &latest.Batt
		out.Signal = &latest.Sigs
		out.Power = &latest.Powr
		out.NetworkType = &latest.Nwtype
	}

	return out, nil
}

func localityRef(station db.Station) *LocalityRef {
	if station.LocalityID == nil || station.LocalityName == nil {
		return nil
	}
	ref := &LocalityRef{ID: *station.LocalityID, Name: *station.LocalityName}
	if station.MunicipalityID != nil && station.MunicipalityName != nil {
		ref.Municipality = &MunicipalityRef{ID: *station.MunicipalityID, Name: *station.MunicipalityName}
		if station.ProvinceID != nil && station.ProvinceName != nil {
			ref.Municipality.Province = &ProvinceRef{ID: *station.ProvinceID, Name: *station.ProvinceName}
		}
	}
	return ref
}

func formatCoordinate(v *float64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatFloat(*v, 'f', 8, 64)
	return &s
}
