package aggregate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aguasdev/aguas-api/services/api/db"
)

func strPtr(s string) *string    { return &s }
func intPtr(i int64) *int64      { return &i }
func floatPtr(f float64) *float64 { return &f }

func testStation() db.Station {
	return db.Station{
		ID:               "EST-001",
		Location:         strPtr("Presa El Punto"),
		Latitude:         floatPtr(20.12345678),
		Longitude:        floatPtr(-75.87654321),
		Imei:             imei,
		Phone:            "+5351234567",
		Basin:            strPtr("Guaso"),
		LocalityID:       intPtr(4),
		LocalityName:     strPtr("El Salvador"),
		MunicipalityID:   intPtr(3),
		MunicipalityName: strPtr("Guantánamo"),
		ProvinceID:       intPtr(2),
		ProvinceName:     strPtr("Guantánamo"),
	}
}

func newService(store *fakeStore, clk fixedClock) *Service {
	return NewService(store, NewResolver(NewEngine(store, clk), clk, nil))
}

func TestAllStations_RollingTodayAccumulation(t *testing.T) {
	// Two RESULT records today, 5 at 08:00 and 3 at 09:00; channel 03 queried
	// at 10:00 sums to 8.
	store := &fakeStore{
		stations: []db.Station{testStation()},
		channels: map[string][]db.Channel{
			"EST-001": {{ID: 2, Name: "03", ColRel: "vals", Variable: "Acum. Lluvia Hoy", UnidadMedida: strPtr("mm"), EsAcuifero: true}},
		},
		records: map[string][]db.Record{
			imei: {
				record(imei, "30-08-2026", "08:00", "08:05", `{"vals": 5}`),
				record(imei, "30-08-2026", "09:00", "09:05", `{"vals": 3}`),
			},
		},
	}
	svc := newService(store, fixedClock{now: at(10, 0)})

	stations, err := svc.AllStations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 1)

	st := stations[0]
	require.Len(t, st.Channels, 1)
	require.NotNil(t, st.Channels[0].LatestValue)
	assert.Equal(t, 8.0, *st.Channels[0].LatestValue)
	assert.Equal(t, []int64{2}, st.ChannelIDs)

	require.NotNil(t, st.LastRecordDate)
	assert.Equal(t, "09:00-09:05 30-08-2026", *st.LastRecordDate)
}

func TestAllStations_StationWithoutRecords(t *testing.T) {
	store := &fakeStore{
		stations: []db.Station{testStation()},
		channels: map[string][]db.Channel{
			"EST-001": {
				{ID: 1, Name: "01", ColRel: "vals"},
				{ID: 2, Name: "03", ColRel: "vals"},
			},
		},
		records: map[string][]db.Record{},
	}
	svc := newService(store, fixedClock{now: at(10, 0)})

	stations, err := svc.AllStations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 1)

	st := stations[0]
	assert.Nil(t, st.LastRecordDate)
	assert.Nil(t, st.Battery)
	assert.Nil(t, st.Signal)
	assert.Nil(t, st.Power)
	assert.Nil(t, st.NetworkType)
	require.Len(t, st.Channels, 2)
	for _, ch := range st.Channels {
		assert.Nil(t, ch.LatestValue, "channel %s", ch.Name)
		assert.Nil(t, ch.TimeInfo, "channel %s", ch.Name)
	}
}

func TestAllStations_MetadataFromLatestRecord(t *testing.T) {
	rec := record(imei, "30-08-2026", "09:00", "09:05", `{"vals": 1}`)
	rec.Batt = "92"
	rec.Sigs = "21"
	rec.Powr = "1"
	rec.Nwtype = "LTE"

	store := &fakeStore{
		stations: []db.Station{testStation()},
		channels: map[string][]db.Channel{},
		records:  map[string][]db.Record{imei: {rec}},
	}
	svc := newService(store, fixedClock{now: at(10, 0)})

	stations, err := svc.AllStations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 1)

	st := stations[0]
	require.NotNil(t, st.Battery)
	assert.Equal(t, "92", *st.Battery)
	require.NotNil(t, st.Signal)
	assert.Equal(t, "21", *st.Signal)
	require.NotNil(t, st.Power)
	assert.Equal(t, "1", *st.Power)
	require.NotNil(t, st.NetworkType)
	assert.Equal(t, "LTE", *st.NetworkType)

	require.NotNil(t, st.Latitude)
	assert.Equal(t, "20.12345678", *st.Latitude)
	require.NotNil(t, st.Locality)
	assert.Equal(t, "El Salvador", st.Locality.Name)
	require.NotNil(t, st.Locality.Municipality)
	require.NotNil(t, st.Locality.Municipality.Province)
	assert.Equal(t, "Guantánamo", st.Locality.Municipality.Province.Name)
}

func TestStation_Single(t *testing.T) {
	store := &fakeStore{
		stations: []db.Station{testStation()},
		channels: map[string][]db.Channel{
			"EST-001": {{ID: 1, Name: "01", ColRel: "vals"}},
		},
		records: map[string][]db.Record{
			imei: {record(imei, "30-08-2026", "09:00", "09:05", `{"vals": 2.5}`)},
		},
	}
	svc := newService(store, fixedClock{now: at(10, 0)})

	st, err := svc.Station(context.Background(), "EST-001")
	require.NoError(t, err)
	require.NotNil(t, st)
	require.Len(t, st.Channels, 1)
	require.NotNil(t, st.Channels[0].LatestValue)
	assert.Equal(t, 2.5, *st.Channels[0].LatestValue)
}

func TestStation_Unknown(t *testing.T) {
	svc := newService(&fakeStore{}, fixedClock{now: at(10, 0)})

	st, err := svc.Station(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, st)
}
