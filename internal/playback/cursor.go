// Package playback holds the current-hour cursor and its animation timer.
package playback

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kmadk/windborne-stratosphere/internal/fleet"
	"github.com/kmadk/windborne-stratosphere/internal/observability"
)

// DefaultInterval is the pause between animation steps.
const DefaultInterval = time.Second

// ErrHourOutOfRange is returned by SetHour for hours outside [0, 23].
var ErrHourOutOfRange = fleet.ErrHourOutOfRange

// State is a point-in-time copy of the cursor.
type State struct {
	Hour       int    `json:"hour"`
	Playing    bool   `json:"playing"`
	SelectedID string `json:"selectedId,omitempty"`
}

// ChangeFunc is invoked synchronously, with the cursor locked, after every
// mutation. It must not call back into the Cursor.
type ChangeFunc func(State)

// Cursor is the process-wide playback state machine (Idle <-> Playing).
//
// Every manual mutation bumps a generation counter and stops the pending
// tick, so a tick that was already in flight sees a stale generation and
// does nothing.
type Cursor struct {
	clock    clockwork.Clock
	interval time.Duration
	onChange ChangeFunc
	metrics  *observability.Metrics

	mu       sync.Mutex
	hour     int
	playing  bool
	selected string
	gen      uint64
	timer    clockwork.Timer
}

// NewCursor creates an idle cursor at hour 0.
func NewCursor(clock clockwork.Clock, interval time.Duration, onChange ChangeFunc, metrics *observability.Metrics) *Cursor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if onChange == nil {
		onChange = func(State) {}
	}
	return &Cursor{
		clock:    clock,
		interval: interval,
		onChange: onChange,
		metrics:  metrics,
	}
}

// State returns a copy of the current state.
func (c *Cursor) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// SetHour moves the cursor. Out-of-range hours are rejected with
// ErrHourOutOfRange and leave the state untouched. While playing, the
// next tick is rescheduled a full interval after this call.
func (c *Cursor) SetHour(h int) error {
	if h < 0 || h >= fleet.HoursPerDay {
		return ErrHourOutOfRange
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	c.moveLocked(h)
	if c.playing {
		c.scheduleLocked()
	}
	return nil
}

// TogglePlay flips between Idle and Playing and returns the new playing flag.
func (c *Cursor) TogglePlay() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	c.playing = !c.playing
	if c.playing {
		c.scheduleLocked()
	}
	c.onChange(c.stateLocked())
	return c.playing
}

// Select marks a balloon as selected until the next hour change. An empty
// id clears the selection.
func (c *Cursor) Select(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selected = id
	c.onChange(c.stateLocked())
}

// SelectAt selects id only if the cursor is still at hour. It reports
// whether the selection was made.
func (c *Cursor) SelectAt(hour int, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hour != hour {
		return false
	}
	c.selected = id
	c.onChange(c.stateLocked())
	return true
}

// Refresh re-emits the current state, e.g. after the data behind it was
// replaced. It is serialized with ticks and user input.
func (c *Cursor) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange(c.stateLocked())
}

// Stop halts playback without emitting a change.
func (c *Cursor) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	c.playing = false
}

func (c *Cursor) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.playing || gen != c.gen {
		return
	}
	c.metrics.PlaybackTicks.Inc()
	c.moveLocked((c.hour + 1) % fleet.HoursPerDay)
	c.scheduleLocked()
}

func (c *Cursor) moveLocked(h int) {
	c.hour = h
	c.selected = ""
	c.metrics.CurrentHour.Set(float64(h))
	c.onChange(c.stateLocked())
}

func (c *Cursor) scheduleLocked() {
	c.gen++
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.interval, func() { c.tick(gen) })
}

func (c *Cursor) cancelLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Cursor) stateLocked() State {
	return State{Hour: c.hour, Playing: c.playing, SelectedID: c.selected}
}
