package store

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmadk/windborne-stratosphere/internal/fleet"
	"github.com/kmadk/windborne-stratosphere/internal/windfield"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func dataset(id string, at time.Time) *fleet.FleetDataset {
	return &fleet.FleetDataset{LoadID: id, LoadedAt: at, Quality: 50, Status: fleet.StatusDegraded}
}

func TestMemoryStore_Empty(t *testing.T) {
	s := NewMemoryStore(0, 0, nil)

	_, _, err := s.Fleet()
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.WindField()
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetLatest()
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Track("balloon-0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SaveFleet(t *testing.T) {
	s := NewMemoryStore(0, 0, nil)
	rec := fleet.BalloonRecord{ID: "balloon-0", Lat: 1, Lon: 2, AltitudeKm: 3}
	tracks := fleet.Tracks{"balloon-0": fleet.Track{0: &rec}}

	s.SaveFleet(dataset("a", base), tracks)

	ds, got, err := s.Fleet()
	require.NoError(t, err)
	assert.Equal(t, "a", ds.LoadID)
	assert.Equal(t, tracks, got)

	tr, err := s.Track("balloon-0")
	require.NoError(t, err)
	assert.Equal(t, 1.0, tr[0].Lat)

	latest, err := s.GetLatest()
	require.NoError(t, err)
	assert.Equal(t, "a", latest.LoadID)
	assert.Equal(t, 50, latest.Quality)
}

func TestMemoryStore_RetentionByCount(t *testing.T) {
	s := NewMemoryStore(2, 0, nil)
	for i, id := range []string{"a", "b", "c"} {
		s.SaveFleet(dataset(id, base.Add(time.Duration(i)*time.Minute)), nil)
	}

	all, err := s.GetRange(base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].LoadID)
	assert.Equal(t, "c", all[1].LoadID)
}

func TestMemoryStore_RetentionByAge(t *testing.T) {
	clock := clockwork.NewFakeClockAt(base)
	s := NewMemoryStore(0, time.Hour, clock)

	s.SaveFleet(dataset("old", base.Add(-2*time.Hour)), nil)
	s.SaveFleet(dataset("new", base), nil)

	all, err := s.GetRange(base.Add(-24*time.Hour), base)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "new", all[0].LoadID)
}

func TestMemoryStore_RetentionByAgeKeepsNewest(t *testing.T) {
	clock := clockwork.NewFakeClockAt(base)
	s := NewMemoryStore(0, time.Hour, clock)

	s.SaveFleet(dataset("stale", base.Add(-3*time.Hour)), nil)

	latest, err := s.GetLatest()
	require.NoError(t, err)
	assert.Equal(t, "stale", latest.LoadID)
}

func TestMemoryStore_GetRangeEmpty(t *testing.T) {
	s := NewMemoryStore(0, 0, nil)
	s.SaveFleet(dataset("a", base), nil)

	_, err := s.GetRange(base.Add(time.Hour), base.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_WindField(t *testing.T) {
	s := NewMemoryStore(0, 0, nil)
	ds := windfield.JetStreamDataset{JetStreams: []windfield.WindPoint{{Lat: 45}}}
	s.SaveWindField(ds)

	got, err := s.WindField()
	require.NoError(t, err)
	assert.Equal(t, ds, got)
}
