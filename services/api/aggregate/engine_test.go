package aggregate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aguasdev/aguas-api/services/api/db"
)

const imei = "868739051234567"

func TestAccumulate_SumsKeyedAndIgnoresJunk(t *testing.T) {
	store := &fakeStore{records: map[string][]db.Record{
		imei: {
			record(imei, "30-08-2026", "08:00", "08:05", `{"vals": 1.0}`),
			record(imei, "30-08-2026", "08:05", "08:10", `{"vals": 2.25}`),
			record(imei, "30-08-2026", "08:10", "08:15", `not json`),
		},
	}}
	engine := NewEngine(store, fixedClock{now: at(10, 0)})

	value, err := engine.Accumulate(context.Background(), imei, "vals", WindowToday)
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, 3.25, *value, "the unparseable record contributes 0")
}

func TestAccumulate_ScalarBlobsCount(t *testing.T) {
	store := &fakeStore{records: map[string][]db.Record{
		imei: {
			record(imei, "30-08-2026", "08:00", "08:05", `5`),
			record(imei, "30-08-2026", "09:00", "09:05", `{"vals": 3}`),
		},
	}}
	engine := NewEngine(store, fixedClock{now: at(10, 0)})

	value, err := engine.Accumulate(context.Background(), imei, "vals", WindowToday)
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, 8.0, *value)
}

func TestAccumulate_ZeroAndMissingCollapse(t *testing.T) {
	// A window that sums to exactly zero and a window with no records are
	// indistinguishable: both are nil.
	zeroSum := &fakeStore{records: map[string][]db.Record{
		imei: {record(imei, "30-08-2026", "08:00", "08:05", `{"vals": 0}`)},
	}}
	empty := &fakeStore{records: map[string][]db.Record{}}

	for name, store := range map[string]*fakeStore{"zero sum": zeroSum, "no records": empty} {
		engine := NewEngine(store, fixedClock{now: at(10, 0)})
		value, err := engine.Accumulate(context.Background(), imei, "vals", WindowToday)
		require.NoError(t, err, name)
		assert.Nil(t, value, name)
	}
}

func TestAccumulate_RoundsToTwoDecimals(t *testing.T) {
	store := &fakeStore{records: map[string][]db.Record{
		imei: {
			record(imei, "30-08-2026", "08:00", "08:05", `{"vals": 1.111}`),
			record(imei, "30-08-2026", "08:05", "08:10", `{"vals": 2.222}`),
		},
	}}
	engine := NewEngine(store, fixedClock{now: at(10, 0)})

	value, err := engine.Accumulate(context.Background(), imei, "vals", WindowToday)
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, 3.33, *value)
}

func TestAccumulate_TodayWindowDates(t *testing.T) {
	store := &fakeStore{records: map[string][]db.Record{}}
	engine := NewEngine(store, fixedClock{now: at(6, 59)})

	_, err := engine.Accumulate(context.Background(), imei, "vals", WindowToday)
	require.NoError(t, err)
	assert.Equal(t, []string{"29-08-2026", "30-08-2026"}, store.datesQueried)

	engine = NewEngine(store, fixedClock{now: at(7, 1)})
	_, err = engine.Accumulate(context.Background(), imei, "vals", WindowToday)
	require.NoError(t, err)
	assert.Equal(t, []string{"30-08-2026", "31-08-2026"}, store.datesQueried)
}

func TestAccumulate_YesterdayWindowDates(t *testing.T) {
	store := &fakeStore{records: map[string][]db.Record{}}
	engine := NewEngine(store, fixedClock{now: at(23, 30)})

	_, err := engine.Accumulate(context.Background(), imei, "vals", WindowYesterday)
	require.NoError(t, err)
	assert.Equal(t, []string{"29-08-2026", "30-08-2026"}, store.datesQueried)
}

func TestAccumulate_LastHourSelection(t *testing.T) {
	store := &fakeStore{records: map[string][]db.Record{
		imei: {
			record(imei, "30-08-2026", "13:05", "13:10", `{"vals": 1}`),  // inside
			record(imei, "30-08-2026", "12:55", "13:00", `{"vals": 2}`),  // end touches window
			record(imei, "30-08-2026", "12:30", "12:35", `{"vals": 10}`), // before
			record(imei, "30-08-2026", "14:05", "14:10", `{"vals": 10}`), // after
			record(imei, "29-08-2026", "13:05", "13:10", `{"vals": 10}`), // wrong date
		},
	}}
	engine := NewEngine(store, fixedClock{now: at(14, 23)})

	value, err := engine.Accumulate(context.Background(), imei, "vals", WindowLastHour)
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, 3.0, *value)
	assert.Equal(t, []string{"30-08-2026", "13:00", "14:00"}, store.hourQueried)
}

func TestAccumulate_StorageErrorPropagates(t *testing.T) {
	store := &fakeStore{err: errors.New("storage down")}
	engine := NewEngine(store, fixedClock{now: at(10, 0)})

	_, err := engine.Accumulate(context.Background(), imei, "vals", WindowToday)
	assert.Error(t, err, "the engine reports internally; the resolver collapses to nil")
}

func TestAccumulate_EmptyBlobsExcluded(t *testing.T) {
	store := &fakeStore{records: map[string][]db.Record{
		imei: {
			record(imei, "30-08-2026", "08:00", "08:05", ""),
			record(imei, "30-08-2026", "08:05", "08:10", `{"vals": 1.5}`),
		},
	}}
	engine := NewEngine(store, fixedClock{now: at(10, 0)})

	value, err := engine.Accumulate(context.Background(), imei, "vals", WindowToday)
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, 1.5, *value)
}
