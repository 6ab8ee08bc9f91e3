package windfield

import (
	"time"
)

// KmhToKnots converts km/h, as reported by live providers, to knots. Wind
// speed is held in knots everywhere past the provider boundary.
const KmhToKnots = 0.539957

// JetType identifies which jet-stream band a point belongs to.
type JetType string

const (
	PolarJetNorth       JetType = "polar_jet_north"
	PolarJetSouth       JetType = "polar_jet_south"
	SubtropicalJetNorth JetType = "subtropical_jet_north"
	SubtropicalJetSouth JetType = "subtropical_jet_south"
)

// Valid reports whether t is one of the four known bands.
func (t JetType) Valid() bool {
	switch t {
	case PolarJetNorth, PolarJetSouth, SubtropicalJetNorth, SubtropicalJetSouth:
		return true
	}
	return false
}

// IsPolar reports whether t is a polar jet (drawn in a different colour).
func (t JetType) IsPolar() bool {
	return t == PolarJetNorth || t == PolarJetSouth
}

// Source tags the provenance of a wind sample.
type Source string

const (
	SourceLive      Source = "live"
	SourceModeled   Source = "modeled"
	SourceSimulated Source = "simulated"
)

// WindPoint is one jet-stream sample.
type WindPoint struct {
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	WindSpeedKnots   float64 `json:"windSpeed"`
	WindDirectionDeg float64 `json:"windDirection"` // [0, 360)
	AltitudeM        float64 `json:"altitude"`
	Type             JetType `json:"type"`
	Source           Source  `json:"source"`
}

// Units documents the units of WindPoint fields on the wire.
type Units struct {
	WindSpeed     string `json:"windSpeed"`
	WindDirection string `json:"windDirection"`
	Altitude      string `json:"altitude"`
}

// DefaultUnits are the units used by every dataset produced here.
var DefaultUnits = Units{
	WindSpeed:     "knots",
	WindDirection: "degrees",
	Altitude:      "meters",
}

// Metadata describes a JetStreamDataset.
type Metadata struct {
	Generated  time.Time `json:"generated"`
	DataSource string    `json:"dataSource"`
	Source     Source    `json:"source"`
	Units      Units     `json:"units"`
}

// JetStreamDataset is an immutable set of wind samples, replaced wholesale
// on every load.
type JetStreamDataset struct {
	JetStreams []WindPoint `json:"jetStreams"`
	Metadata   Metadata    `json:"metadata"`
}

// Lines groups the samples by band, preserving order, for polyline drawing.
func (d JetStreamDataset) Lines() map[JetType][]WindPoint {
	lines := make(map[JetType][]WindPoint)
	for _, p := range d.JetStreams {
		lines[p.Type] = append(lines[p.Type], p)
	}
	return lines
}
