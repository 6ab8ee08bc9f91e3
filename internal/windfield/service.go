package windfield

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/kmadk/windborne-stratosphere/internal/observability"
)

// LiveSource fetches real wind samples along the configured bands. Returned
// speeds must already be in knots.
type LiveSource interface {
	Name() string
	FetchBands(ctx context.Context, bands []Band) ([]WindPoint, error)
}

var errEmptyLive = errors.New("live source returned no points")

// Service loads the wind field, preferring the live source and falling back
// to the synthetic generator.
type Service struct {
	live    LiveSource
	gen     *Generator
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService creates a Service. A nil live source always yields synthetic data.
func NewService(live LiveSource, gen *Generator, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		live:    live,
		gen:     gen,
		logger:  logger,
		metrics: metrics,
	}
}

// Load returns a structurally valid dataset. It never fails: any live error,
// or any malformed live point, replaces the whole result with synthetic data.
func (s *Service) Load(ctx context.Context) JetStreamDataset {
	if s.live != nil {
		ds, err := s.loadLive(ctx)
		if err == nil {
			s.metrics.WindFieldLoads.WithLabelValues(string(SourceLive)).Inc()
			s.logger.Info("wind field loaded", "source", s.live.Name(), "points", len(ds.JetStreams))
			return ds
		}
		s.logger.Warn("live wind field unavailable, using synthetic data", "source", s.live.Name(), "error", err)
	}

	ds := s.gen.Generate()
	s.metrics.WindFieldLoads.WithLabelValues(string(SourceSimulated)).Inc()
	return ds
}

func (s *Service) loadLive(ctx context.Context) (JetStreamDataset, error) {
	points, err := s.live.FetchBands(ctx, s.gen.Bands())
	if err != nil {
		return JetStreamDataset{}, err
	}
	if len(points) == 0 {
		return JetStreamDataset{}, errEmptyLive
	}
	for i := range points {
		if err := ValidatePoint(points[i]); err != nil {
			return JetStreamDataset{}, fmt.Errorf("point %d: %w", i, err)
		}
		points[i].Source = SourceLive
	}

	return JetStreamDataset{
		JetStreams: points,
		Metadata: Metadata{
			Generated:  s.gen.clock.Now().UTC(),
			DataSource: s.live.Name(),
			Source:     SourceLive,
			Units:      DefaultUnits,
		},
	}, nil
}

// ValidatePoint checks the structural invariants of a WindPoint.
func ValidatePoint(p WindPoint) error {
	for _, v := range []float64{p.Lat, p.Lon, p.WindSpeedKnots, p.WindDirectionDeg, p.AltitudeM} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("non-finite value")
		}
	}
	switch {
	case math.Abs(p.Lat) > 90:
		return fmt.Errorf("latitude %v out of range", p.Lat)
	case math.Abs(p.Lon) > 180:
		return fmt.Errorf("longitude %v out of range", p.Lon)
	case p.WindSpeedKnots < 0:
		return fmt.Errorf("negative wind speed %v", p.WindSpeedKnots)
	case p.WindDirectionDeg < 0 || p.WindDirectionDeg >= 360:
		return fmt.Errorf("wind direction %v out of [0, 360)", p.WindDirectionDeg)
	case p.AltitudeM <= 0:
		return fmt.Errorf("altitude %v not positive", p.AltitudeM)
	case !p.Type.Valid():
		return fmt.Errorf("unknown jet type %q", p.Type)
	}
	return nil
}
