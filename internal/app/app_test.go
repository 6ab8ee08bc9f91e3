package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmadk/windborne-stratosphere/internal/fleet"
	"github.com/kmadk/windborne-stratosphere/internal/geocode"
	"github.com/kmadk/windborne-stratosphere/internal/observability"
	"github.com/kmadk/windborne-stratosphere/internal/playback"
	"github.com/kmadk/windborne-stratosphere/internal/store"
	"github.com/kmadk/windborne-stratosphere/internal/windfield"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// hourSource serves n balloons per hour; balloon i sits at lat 40+i, at
// 10 km, drifting one degree east per hour. Hours in missing fail.
type hourSource struct {
	n       int
	missing map[int]bool
}

func (s *hourSource) Name() string { return "test" }

func (s *hourSource) FetchHour(_ context.Context, hour int) ([]json.RawMessage, error) {
	if s.missing[hour] {
		return nil, errors.New("unavailable")
	}
	out := make([]json.RawMessage, 0, s.n)
	for i := 0; i < s.n; i++ {
		out = append(out, json.RawMessage(fmt.Sprintf("[%d, %d, 10]", 40+i, hour)))
	}
	return out, nil
}

type fakeGeocoder struct {
	calls atomic.Int32
}

func (g *fakeGeocoder) ReverseGeocode(_ context.Context, lat, lon float64) (geocode.Result, error) {
	g.calls.Add(1)
	return geocode.Result{Lat: lat, Lon: lon, FormattedAddress: "Somewhere"}, nil
}

type fakeExporter struct {
	mu    sync.Mutex
	loads []string
}

func (e *fakeExporter) Export(_ context.Context, ds *fleet.FleetDataset) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loads = append(e.loads, ds.LoadID)
	return nil
}

func newTestApp(t *testing.T, src fleet.HourSource, opts Options) *App {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testNow)
	metrics := observability.NewMetricsForTesting()
	logger := observability.NopLogger()

	loader := fleet.NewLoader(src, clock, logger, metrics)
	wind := windfield.NewService(nil, windfield.NewGenerator(nil, 1, clock), logger, metrics)
	st := store.NewMemoryStore(10, 0, clock)

	a := New(loader, wind, st, func(fn playback.ChangeFunc) *playback.Cursor {
		return playback.NewCursor(clock, time.Second, fn, metrics)
	}, logger, opts)
	t.Cleanup(a.Cursor().Stop)
	return a
}

func TestView_BeforeLoad(t *testing.T) {
	a := newTestApp(t, &hourSource{n: 1}, Options{})

	v := a.View()
	assert.Equal(t, fleet.StatusEmpty, v.Status)
	assert.Zero(t, v.Aggregate.Count)
	assert.Len(t, v.Aggregate.Histogram, 5)
	assert.Nil(t, v.Selection)
}

func TestReload(t *testing.T) {
	exp := &fakeExporter{}
	a := newTestApp(t, &hourSource{n: 3, missing: map[int]bool{5: true}}, Options{Exporter: exp})

	ds := a.Reload(context.Background())
	assert.Equal(t, fleet.StatusDegraded, ds.Status)
	assert.Equal(t, 96, ds.Quality) // 69 / 72

	v := a.View()
	assert.Equal(t, ds.LoadID, v.LoadID)
	assert.Equal(t, 3, v.Aggregate.Count)
	assert.Equal(t, 100, v.Aggregate.Quality)
	// lat 40, 41, 42 at 10 km are all within 10 degrees of 45.
	assert.Equal(t, 3, v.Interactions.Count)

	wind, err := a.Store().WindField()
	require.NoError(t, err)
	assert.Equal(t, windfield.SourceSimulated, wind.Metadata.Source)

	assert.Equal(t, []string{ds.LoadID}, exp.loads)
}

func TestSetHourRecomputesView(t *testing.T) {
	a := newTestApp(t, &hourSource{n: 2, missing: map[int]bool{5: true}}, Options{})
	a.Reload(context.Background())

	require.NoError(t, a.Cursor().SetHour(5))
	v := a.View()
	assert.Equal(t, 5, v.Cursor.Hour)
	assert.Equal(t, 5, v.Aggregate.Hour)
	assert.Zero(t, v.Aggregate.Count)
	assert.Zero(t, v.Aggregate.Quality)

	require.NoError(t, a.Cursor().SetHour(6))
	assert.Equal(t, 2, a.View().Aggregate.Count)
}

func TestSelect(t *testing.T) {
	geo := &fakeGeocoder{}
	a := newTestApp(t, &hourSource{n: 2, missing: map[int]bool{3: true}}, Options{Geocoder: geo})
	a.Reload(context.Background())
	require.NoError(t, a.Cursor().SetHour(2))

	sel, err := a.Select(context.Background(), "balloon-1")
	require.NoError(t, err)
	require.NotNil(t, sel.Record)
	assert.Equal(t, 41.0, sel.Record.Lat)
	assert.Equal(t, 2.0, sel.Record.Lon)
	assert.Len(t, sel.Polyline, 23) // hour 3 is a gap
	require.NotNil(t, sel.Place)
	assert.Equal(t, "Somewhere", sel.Place.FormattedAddress)

	v := a.View()
	require.NotNil(t, v.Selection)
	assert.Equal(t, "balloon-1", v.Selection.ID)
	require.NotNil(t, v.Selection.Place)

	// Changing hour clears the selection.
	require.NoError(t, a.Cursor().SetHour(4))
	assert.Nil(t, a.View().Selection)
}

func TestSelect_Errors(t *testing.T) {
	a := newTestApp(t, &hourSource{n: 1, missing: map[int]bool{0: true}}, Options{})
	a.Reload(context.Background())

	_, err := a.Select(context.Background(), "balloon-9")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = a.Select(context.Background(), "balloon-0")
	assert.ErrorIs(t, err, ErrNotInHour)
}

func TestReloadKeepsHour(t *testing.T) {
	a := newTestApp(t, &hourSource{n: 1}, Options{})
	a.Reload(context.Background())
	require.NoError(t, a.Cursor().SetHour(7))

	first := a.View().LoadID
	a.Reload(context.Background())

	v := a.View()
	assert.Equal(t, 7, v.Cursor.Hour)
	assert.NotEqual(t, first, v.LoadID)
}

func TestSelect_ReturnsValue(t *testing.T) {
	a := newTestApp(t, &hourSource{n: 2}, Options{})
	a.Reload(context.Background())

	sel, err := a.Select(context.Background(), "balloon-0")
	require.NoError(t, err)
	assert.Equal(t, "balloon-0", sel.ID)
	assert.Nil(t, sel.Place)
	assert.Len(t, sel.Polyline, 24)
}

// Run with -race: View copies are marshalled while Select publishes places.
func TestSelect_ConcurrentWithViewReads(t *testing.T) {
	geo := &fakeGeocoder{}
	a := newTestApp(t, &hourSource{n: 2}, Options{Geocoder: geo})
	a.Reload(context.Background())

	const iterations = 500
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			_, err := json.Marshal(a.View())
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			_, err := a.Select(context.Background(), fmt.Sprintf("balloon-%d", i%2))
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	assert.Equal(t, int32(iterations), geo.calls.Load())
	v := a.View()
	require.NotNil(t, v.Selection)
	require.NotNil(t, v.Selection.Place)
	assert.Equal(t, "balloon-1", v.Selection.ID)
}
