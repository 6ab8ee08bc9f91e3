package windfield

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/jonboulle/clockwork"
)

// Longitude sampling of the synthetic generator, inclusive on both ends.
const (
	SyntheticLonStep = 5.0
	syntheticLonMin  = -180.0
	syntheticLonMax  = 180.0
)

const syntheticDataSource = "Simulated (live source unavailable)"

// Generator synthesizes a plausible jet-stream field from band parameters.
// It is safe for concurrent use.
type Generator struct {
	bands []Band
	clock clockwork.Clock

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator creates a Generator. A zero seed draws a random one, so only
// non-zero seeds give reproducible output.
func NewGenerator(bands []Band, seed uint64, clock clockwork.Clock) *Generator {
	if len(bands) == 0 {
		bands = DefaultBands()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{
		bands: bands,
		clock: clock,
		rnd:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Bands returns the band parameters the generator was built with.
func (g *Generator) Bands() []Band {
	return g.bands
}

// Generate builds a full synthetic dataset. Every point is tagged simulated.
func (g *Generator) Generate() JetStreamDataset {
	g.mu.Lock()
	defer g.mu.Unlock()

	points := make([]WindPoint, 0, len(g.bands)*int((syntheticLonMax-syntheticLonMin)/SyntheticLonStep+1))
	for _, b := range g.bands {
		for lon := syntheticLonMin; lon <= syntheticLonMax; lon += SyntheticLonStep {
			points = append(points, WindPoint{
				Lat:              b.latAt(lon),
				Lon:              lon,
				WindSpeedKnots:   b.SpeedMinKnots + g.rnd.Float64()*(b.SpeedMaxKnots-b.SpeedMinKnots),
				WindDirectionDeg: b.directionAt(lon),
				AltitudeM:        b.AltitudeM,
				Type:             b.Type,
				Source:           SourceSimulated,
			})
		}
	}

	return JetStreamDataset{
		JetStreams: points,
		Metadata: Metadata{
			Generated:  g.clock.Now().UTC(),
			DataSource: syntheticDataSource,
			Source:     SourceSimulated,
			Units:      DefaultUnits,
		},
	}
}

func (b Band) latAt(lon float64) float64 {
	if b.LatAmplitudeDeg == 0 {
		return b.Lat
	}
	return b.Lat + b.LatAmplitudeDeg*math.Sin(lon*math.Pi/b.LatPeriodDeg)
}

func (b Band) directionAt(lon float64) float64 {
	return NormalizeDirection(270 + b.DirAmplitudeDeg*math.Sin(lon*math.Pi/b.DirPeriodDeg))
}

// NormalizeDirection folds a bearing into [0, 360).
func NormalizeDirection(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}
