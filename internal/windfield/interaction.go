package windfield

import (
	"math"

	"github.com/kmadk/windborne-stratosphere/internal/fleet"
)

// Interaction thresholds. The classifier is a coarse threshold test against
// fixed band centres, not a distance to the sampled lines.
const (
	JetMinAltitudeKm = 8.0
	JetMaxAltitudeKm = 15.0
	JetBandTolerance = 10.0
)

var jetBandCenters = [...]float64{45, 30}

// InJetStream reports whether a balloon sits at jet altitude within
// JetBandTolerance degrees of |45| or |30| latitude.
func InJetStream(rec fleet.BalloonRecord) bool {
	if rec.AltitudeKm < JetMinAltitudeKm || rec.AltitudeKm > JetMaxAltitudeKm {
		return false
	}
	absLat := math.Abs(rec.Lat)
	for _, c := range jetBandCenters {
		if math.Abs(absLat-c) < JetBandTolerance {
			return true
		}
	}
	return false
}

// InteractionSummary lists the balloons of one hour classified as in a jet stream.
type InteractionSummary struct {
	Hour  int      `json:"hour"`
	Total int      `json:"total"`
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

// Interactions runs InJetStream over a snapshot.
func Interactions(hour int, snapshot fleet.HourSnapshot) InteractionSummary {
	s := InteractionSummary{Hour: hour, Total: len(snapshot), IDs: []string{}}
	for _, rec := range snapshot {
		if InJetStream(rec) {
			s.IDs = append(s.IDs, rec.ID)
		}
	}
	s.Count = len(s.IDs)
	return s
}
