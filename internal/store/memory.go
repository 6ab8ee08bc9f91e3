package store

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kmadk/windborne-stratosphere/internal/fleet"
	"github.com/kmadk/windborne-stratosphere/internal/windfield"
)

var (
	// ErrNotFound is returned when nothing has been loaded yet or an id is unknown.
	ErrNotFound = errors.New("not found")
)

// LoadSummary is the retained record of one fleet load.
type LoadSummary struct {
	LoadID      string                              `json:"loadId"`
	LoadedAt    time.Time                           `json:"loadedAt"`
	TotalPoints int                                 `json:"totalPoints"`
	Quality     int                                 `json:"quality"`
	Status      fleet.LoadStatus                    `json:"status"`
	Reports     [fleet.HoursPerDay]fleet.HourReport `json:"reports"`
}

// MemoryStore is a concurrency-safe in-memory holder of the current fleet
// dataset, its tracks and the wind field, plus a bounded history of load
// summaries. Datasets are swapped whole; readers never see a partial load.
type MemoryStore struct {
	mu sync.RWMutex

	fleet  *fleet.FleetDataset
	tracks fleet.Tracks
	wind   *windfield.JetStreamDataset

	history []LoadSummary

	// retention configuration
	maxHistory int           // max number of load summaries kept
	maxAge     time.Duration // optional max age for summaries
	clock      clockwork.Clock
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
		clock:      clock,
	}
}

// SaveFleet replaces the current dataset and tracks and records the load.
func (s *MemoryStore) SaveFleet(ds *fleet.FleetDataset, tracks fleet.Tracks) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fleet = ds
	s.tracks = tracks

	s.history = append(s.history, LoadSummary{
		LoadID:      ds.LoadID,
		LoadedAt:    ds.LoadedAt,
		TotalPoints: ds.TotalPoints,
		Quality:     ds.Quality,
		Status:      ds.Status,
		Reports:     ds.Reports,
	})

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.history) > s.maxHistory {
		over := len(s.history) - s.maxHistory
		s.history = s.history[over:]
	}

	// Enforce retention by age. The newest summary is always kept.
	if s.maxAge > 0 {
		cutoff := s.clock.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.history)-1; i++ {
			if !s.history[i].LoadedAt.Before(cutoff) {
				break
			}
		}
		s.history = s.history[i:]
	}
}

// Fleet returns the current dataset and its tracks.
func (s *MemoryStore) Fleet() (*fleet.FleetDataset, fleet.Tracks, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.fleet == nil {
		return nil, nil, ErrNotFound
	}
	return s.fleet, s.tracks, nil
}

// Track returns the track of one balloon id.
func (s *MemoryStore) Track(id string) (fleet.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tracks[id]
	if !ok {
		return fleet.Track{}, ErrNotFound
	}
	return t, nil
}

// SaveWindField replaces the current wind field.
func (s *MemoryStore) SaveWindField(ds windfield.JetStreamDataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wind = &ds
}

// WindField returns the current wind field.
func (s *MemoryStore) WindField() (windfield.JetStreamDataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.wind == nil {
		return windfield.JetStreamDataset{}, ErrNotFound
	}
	return *s.wind, nil
}

// GetLatest returns the most recent load summary.
func (s *MemoryStore) GetLatest() (LoadSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return LoadSummary{}, ErrNotFound
	}
	return s.history[len(s.history)-1], nil
}

// GetRange returns all load summaries between from and to (inclusive).
func (s *MemoryStore) GetRange(from, to time.Time) ([]LoadSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []LoadSummary
	for _, sum := range s.history {
		if !sum.LoadedAt.Before(from) && !sum.LoadedAt.After(to) {
			result = append(result, sum)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
