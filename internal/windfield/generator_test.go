package windfield

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestGenerate_Structure(t *testing.T) {
	g := NewGenerator(DefaultBands(), 42, clockwork.NewFakeClockAt(testNow))
	ds := g.Generate()

	// 4 bands x 73 longitudes (-180..180 step 5).
	require.Len(t, ds.JetStreams, 4*73)
	assert.Equal(t, testNow, ds.Metadata.Generated)
	assert.Equal(t, SourceSimulated, ds.Metadata.Source)
	assert.Equal(t, DefaultUnits, ds.Metadata.Units)

	bands := make(map[JetType]Band)
	for _, b := range DefaultBands() {
		bands[b.Type] = b
	}

	for _, p := range ds.JetStreams {
		require.NoError(t, ValidatePoint(p))
		assert.Equal(t, SourceSimulated, p.Source)

		b := bands[p.Type]
		assert.GreaterOrEqual(t, p.WindSpeedKnots, b.SpeedMinKnots)
		assert.LessOrEqual(t, p.WindSpeedKnots, b.SpeedMaxKnots)
		assert.Equal(t, b.AltitudeM, p.AltitudeM)
		assert.LessOrEqual(t, math.Abs(p.Lat-b.Lat), b.LatAmplitudeDeg+1e-9)
	}

	lines := ds.Lines()
	assert.Len(t, lines, 4)
	assert.Equal(t, -180.0, lines[PolarJetNorth][0].Lon)
	assert.Equal(t, 180.0, lines[PolarJetNorth][72].Lon)
}

func TestGenerate_Direction(t *testing.T) {
	g := NewGenerator(DefaultBands(), 1, clockwork.NewFakeClockAt(testNow))
	ds := g.Generate()

	for _, p := range ds.Lines()[PolarJetNorth] {
		want := 270 + 30*math.Sin(p.Lon*math.Pi/90)
		assert.InDelta(t, want, p.WindDirectionDeg, 1e-9, "lon=%v", p.Lon)
	}
}

func TestGenerate_SeedIsReproducible(t *testing.T) {
	a := NewGenerator(nil, 7, clockwork.NewFakeClockAt(testNow)).Generate()
	b := NewGenerator(nil, 7, clockwork.NewFakeClockAt(testNow)).Generate()
	assert.Equal(t, a, b)
}

func TestNormalizeDirection(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeDirection(360))
	assert.Equal(t, 350.0, NormalizeDirection(-10))
	assert.Equal(t, 10.0, NormalizeDirection(730))
	assert.Equal(t, 270.0, NormalizeDirection(270))
}
