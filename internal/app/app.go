// Package app holds the process-wide pipeline state: the loaded datasets, the
// playback cursor and the view derived from them.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kmadk/windborne-stratosphere/internal/fleet"
	"github.com/kmadk/windborne-stratosphere/internal/geocode"
	"github.com/kmadk/windborne-stratosphere/internal/playback"
	"github.com/kmadk/windborne-stratosphere/internal/store"
	"github.com/kmadk/windborne-stratosphere/internal/windfield"
)

// ErrNotInHour is returned when selecting a balloon with no record at the
// current hour.
var ErrNotInHour = errors.New("balloon has no record at the current hour")

// Exporter publishes a completed fleet load somewhere downstream.
type Exporter interface {
	Export(ctx context.Context, ds *fleet.FleetDataset) error
}

// Selection is the balloon currently selected on the map.
type Selection struct {
	ID       string               `json:"id"`
	Record   *fleet.BalloonRecord `json:"record,omitempty"`
	Polyline [][2]float64         `json:"polyline,omitempty"` // only with two or more points
	Place    *geocode.Result      `json:"place,omitempty"`
}

// View is everything the presentation layer needs for the current hour.
type View struct {
	Cursor       playback.State               `json:"cursor"`
	LoadID       string                       `json:"loadId,omitempty"`
	Status       fleet.LoadStatus             `json:"status"`
	Quality      int                          `json:"quality"`
	Aggregate    fleet.HourAggregate          `json:"aggregate"`
	Interactions windfield.InteractionSummary `json:"interactions"`
	Selection    *Selection                   `json:"selection,omitempty"`
}

// Options carries the optional collaborators of an App.
type Options struct {
	Geocoder       geocode.Geocoder
	Exporter       Exporter
	LoadTimeout    time.Duration
	GeocodeTimeout time.Duration
}

// App is the explicit application state. All mutation of the current hour
// goes through its cursor; every change recomputes the view before the
// mutating call returns.
type App struct {
	loader *fleet.Loader
	wind   *windfield.Service
	store  *store.MemoryStore
	cursor *playback.Cursor
	logger *slog.Logger
	opts   Options

	reloadMu sync.Mutex

	viewMu sync.RWMutex
	view   View
}

// New wires an App. The cursor is created here so that its change callback
// is the view recompute.
func New(loader *fleet.Loader, wind *windfield.Service, st *store.MemoryStore, newCursor func(playback.ChangeFunc) *playback.Cursor, logger *slog.Logger, opts Options) *App {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 45 * time.Second
	}
	if opts.GeocodeTimeout <= 0 {
		opts.GeocodeTimeout = 5 * time.Second
	}
	a := &App{
		loader: loader,
		wind:   wind,
		store:  st,
		logger: logger,
		opts:   opts,
	}
	a.cursor = newCursor(a.recompute)
	a.cursor.Refresh()
	return a
}

// Cursor exposes the playback cursor.
func (a *App) Cursor() *playback.Cursor {
	return a.cursor
}

// Store exposes the dataset store.
func (a *App) Store() *store.MemoryStore {
	return a.store
}

// View returns the current derived view.
func (a *App) View() View {
	a.viewMu.RLock()
	defer a.viewMu.RUnlock()
	return a.view
}

// WindField returns the stored wind field, loading one first if no reload
// has completed yet. It never fails.
func (a *App) WindField(ctx context.Context) windfield.JetStreamDataset {
	if ds, err := a.store.WindField(); err == nil {
		return ds
	}
	ds := a.wind.Load(ctx)
	a.store.SaveWindField(ds)
	return ds
}

// Reload fetches the fleet and the wind field concurrently, swaps both into
// the store and recomputes the view at the cursor's current hour. Concurrent
// reloads are serialized. It never fails; degraded data shows up in the
// returned dataset's quality and status.
func (a *App) Reload(ctx context.Context) *fleet.FleetDataset {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, a.opts.LoadTimeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		ds   *fleet.FleetDataset
		wind windfield.JetStreamDataset
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		ds = a.loader.LoadAll(ctx)
	}()
	go func() {
		defer wg.Done()
		wind = a.wind.Load(ctx)
	}()
	wg.Wait()

	a.store.SaveFleet(ds, fleet.BuildTracks(ds))
	a.store.SaveWindField(wind)
	a.cursor.Refresh()

	if a.opts.Exporter != nil {
		if err := a.opts.Exporter.Export(ctx, ds); err != nil {
			a.logger.Warn("fleet export failed", "load_id", ds.LoadID, "error", err)
		}
	}
	return ds
}

// Select marks a balloon of the current hour as selected and returns its
// record and trajectory, reverse-geocoded when a geocoder is configured. If
// the hour moves while selecting, the call fails with ErrNotInHour rather
// than carrying the selection into the new hour.
func (a *App) Select(ctx context.Context, id string) (Selection, error) {
	track, err := a.store.Track(id)
	if err != nil {
		return Selection{}, err
	}
	hour := a.cursor.State().Hour
	if track[hour] == nil {
		return Selection{}, ErrNotInHour
	}
	if !a.cursor.SelectAt(hour, id) {
		return Selection{}, ErrNotInHour
	}
	sel := *newSelection(id, track, hour)

	if a.opts.Geocoder != nil {
		gctx, cancel := context.WithTimeout(ctx, a.opts.GeocodeTimeout)
		defer cancel()

		place, err := a.opts.Geocoder.ReverseGeocode(gctx, sel.Record.Lat, sel.Record.Lon)
		if err != nil {
			a.logger.Debug("reverse geocode failed", "id", id, "error", err)
		} else {
			sel.Place = &place
			a.attachPlace(id, hour, place)
		}
	}
	return sel, nil
}

// recompute is the cursor's change callback. It runs with the cursor locked
// and must not call back into it.
func (a *App) recompute(st playback.State) {
	ds, tracks, err := a.store.Fleet()
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		a.logger.Error("read fleet", "error", err)
	}

	v := View{
		Cursor:       st,
		Status:       fleet.StatusEmpty,
		Aggregate:    ds.AggregateHour(st.Hour),
		Interactions: windfield.Interactions(st.Hour, ds.Snapshot(st.Hour)),
	}
	if ds != nil {
		v.LoadID = ds.LoadID
		v.Status = ds.Status
		v.Quality = ds.Quality
	}
	if st.SelectedID != "" {
		if t, ok := tracks[st.SelectedID]; ok {
			v.Selection = newSelection(st.SelectedID, t, st.Hour)
		}
	}

	a.viewMu.Lock()
	defer a.viewMu.Unlock()

	// Keep an already resolved place while the same balloon stays selected
	// at the same hour.
	if old := a.view.Selection; old != nil && v.Selection != nil &&
		old.ID == v.Selection.ID && a.view.Cursor.Hour == st.Hour {
		v.Selection.Place = old.Place
	}
	a.view = v
}

// attachPlace publishes a new Selection rather than writing through the old
// pointer, which View callers may still be reading.
func (a *App) attachPlace(id string, hour int, place geocode.Result) {
	a.viewMu.Lock()
	defer a.viewMu.Unlock()

	if sel := a.view.Selection; sel != nil && sel.ID == id && a.view.Cursor.Hour == hour {
		cp := *sel
		cp.Place = &place
		a.view.Selection = &cp
	}
}

func newSelection(id string, t fleet.Track, hour int) *Selection {
	sel := &Selection{ID: id, Record: t[hour]}
	if line := t.Polyline(); len(line) >= 2 {
		sel.Polyline = line
	}
	return sel
}
