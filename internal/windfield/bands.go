package windfield

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Band parameterizes one jet-stream band of the synthetic generator. The
// meander constants are shape parameters, not physically derived.
type Band struct {
	Type          JetType `yaml:"type"`
	Lat           float64 `yaml:"lat"`
	AltitudeM     float64 `yaml:"altitude_m"`
	SpeedMinKnots float64 `yaml:"speed_min_knots"`
	SpeedMaxKnots float64 `yaml:"speed_max_knots"`

	// direction = 270 + DirAmplitude * sin(lon * pi / DirPeriod)
	DirAmplitudeDeg float64 `yaml:"direction_amplitude_deg"`
	DirPeriodDeg    float64 `yaml:"direction_period_deg"`

	// lat = Lat + LatAmplitude * sin(lon * pi / LatPeriod); zero amplitude keeps the band flat.
	LatAmplitudeDeg float64 `yaml:"lat_amplitude_deg"`
	LatPeriodDeg    float64 `yaml:"lat_period_deg"`
}

// DefaultBands are the four canonical bands: 45N, 30N, 30S, 50S.
func DefaultBands() []Band {
	return []Band{
		{
			Type: PolarJetNorth, Lat: 45, AltitudeM: 10000,
			SpeedMinKnots: 80, SpeedMaxKnots: 120,
			DirAmplitudeDeg: 30, DirPeriodDeg: 90,
			LatAmplitudeDeg: 10, LatPeriodDeg: 60,
		},
		{
			Type: SubtropicalJetNorth, Lat: 30, AltitudeM: 12000,
			SpeedMinKnots: 60, SpeedMaxKnots: 90,
			DirAmplitudeDeg: 20, DirPeriodDeg: 120,
			LatAmplitudeDeg: 5, LatPeriodDeg: 80,
		},
		{
			Type: SubtropicalJetSouth, Lat: -30, AltitudeM: 12000,
			SpeedMinKnots: 50, SpeedMaxKnots: 80,
			DirAmplitudeDeg: 20, DirPeriodDeg: 110,
			LatAmplitudeDeg: 4, LatPeriodDeg: 90,
		},
		{
			Type: PolarJetSouth, Lat: -50, AltitudeM: 10000,
			SpeedMinKnots: 90, SpeedMaxKnots: 140,
			DirAmplitudeDeg: 25, DirPeriodDeg: 100,
			LatAmplitudeDeg: 8, LatPeriodDeg: 70,
		},
	}
}

type bandFile struct {
	Bands []Band `yaml:"bands"`
}

// LoadBands reads a YAML band list from path. An empty path yields DefaultBands.
func LoadBands(path string) ([]Band, error) {
	if path == "" {
		return DefaultBands(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read band file %s: %w", path, err)
	}

	var f bandFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse band file %s: %w", path, err)
	}
	if len(f.Bands) == 0 {
		return nil, errors.New("band file defines no bands")
	}
	for i, b := range f.Bands {
		if err := b.validate(); err != nil {
			return nil, fmt.Errorf("band %d: %w", i, err)
		}
	}
	return f.Bands, nil
}

func (b Band) validate() error {
	switch {
	case !b.Type.Valid():
		return fmt.Errorf("unknown jet type %q", b.Type)
	case b.Lat < -90 || b.Lat > 90:
		return fmt.Errorf("latitude %v out of range", b.Lat)
	case b.SpeedMinKnots < 0 || b.SpeedMaxKnots < b.SpeedMinKnots:
		return fmt.Errorf("invalid speed range [%v, %v]", b.SpeedMinKnots, b.SpeedMaxKnots)
	case b.DirPeriodDeg <= 0:
		return errors.New("direction_period_deg must be positive")
	case b.LatAmplitudeDeg != 0 && b.LatPeriodDeg <= 0:
		return errors.New("lat_period_deg must be positive when lat_amplitude_deg is set")
	case b.AltitudeM <= 0:
		return errors.New("altitude_m must be positive")
	}
	return nil
}
