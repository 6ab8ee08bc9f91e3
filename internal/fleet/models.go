package fleet

import (
	"time"
)

// HoursPerDay is the number of hour slots in a FleetDataset.
const HoursPerDay = 24

// RawPoint is an upstream [lat, lon, altitudeKm] triple. Its position in the
// upstream array carries no identity guarantee across hours.
type RawPoint []float64

// BalloonRecord is a validated position of one balloon in one hour slot.
type BalloonRecord struct {
	ID         string  `json:"id"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	AltitudeKm float64 `json:"altitudeKm"`
	Hour       int     `json:"hour"`
}

// HourSnapshot is the ordered set of records fetched for one hour.
type HourSnapshot []BalloonRecord

// LoadStatus summarizes how much of a load succeeded.
type LoadStatus string

const (
	// StatusEmpty means no hour produced a single valid record.
	StatusEmpty LoadStatus = "empty"
	// StatusDegraded means at least one hour is empty.
	StatusDegraded LoadStatus = "degraded"
	// StatusComplete means every hour has at least one record.
	StatusComplete LoadStatus = "complete"
)

// HourReport carries per-hour fetch diagnostics.
type HourReport struct {
	Hour     int    `json:"hour"`
	Received int    `json:"received"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
	Error    string `json:"error,omitempty"`
}

// FleetDataset is the full 24-hour view produced by one load. It is replaced
// wholesale on reload and never mutated after LoadAll returns.
type FleetDataset struct {
	LoadID      string                    `json:"loadId"`
	LoadedAt    time.Time                 `json:"loadedAt"` // always UTC
	Hours       [HoursPerDay]HourSnapshot `json:"hours"`
	Reports     [HoursPerDay]HourReport   `json:"reports"`
	TotalPoints int                       `json:"totalPoints"`
	Quality     int                       `json:"quality"`
	Status      LoadStatus                `json:"status"`
}

// Snapshot returns the records of the given hour, or nil when out of range.
func (d *FleetDataset) Snapshot(hour int) HourSnapshot {
	if d == nil || hour < 0 || hour >= HoursPerDay {
		return nil
	}
	return d.Hours[hour]
}

// Track is the sparse hour-indexed history of one balloon id. A nil entry is
// a gap: the id had no valid record in that hour.
type Track [HoursPerDay]*BalloonRecord

// Points returns the present positions in hour order, skipping gaps.
func (t Track) Points() []BalloonRecord {
	var out []BalloonRecord
	for _, r := range t {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// Polyline returns [lat, lon] pairs in hour order. Gaps are skipped, never
// interpolated.
func (t Track) Polyline() [][2]float64 {
	var out [][2]float64
	for _, r := range t {
		if r != nil {
			out = append(out, [2]float64{r.Lat, r.Lon})
		}
	}
	return out
}

// Tracks maps balloon id to its track.
type Tracks map[string]Track
