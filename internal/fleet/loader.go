package fleet

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/kmadk/windborne-stratosphere/internal/observability"
)

// ErrHourOutOfRange is returned for hour slots outside [0, 23].
var ErrHourOutOfRange = errors.New("hour out of range [0, 23]")

// Loader fetches and normalizes the 24 hourly snapshots.
type Loader struct {
	source  HourSource
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader. A nil clock means the real clock.
func NewLoader(source HourSource, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loader{
		source:  source,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// FetchHour fetches one hour and returns its validated records. Transport and
// payload failures degrade to an empty snapshot; they are only visible in the
// returned report.
func (l *Loader) FetchHour(ctx context.Context, hour int) (HourSnapshot, HourReport) {
	report := HourReport{Hour: hour}

	if hour < 0 || hour >= HoursPerDay {
		report.Error = ErrHourOutOfRange.Error()
		return HourSnapshot{}, report
	}

	raw, err := l.source.FetchHour(ctx, hour)
	if err != nil {
		l.logger.Warn("hour fetch failed", "source", l.source.Name(), "hour", hour, "error", err)
		l.metrics.HourFetches.WithLabelValues("failed").Inc()
		report.Error = err.Error()
		return HourSnapshot{}, report
	}
	l.metrics.HourFetches.WithLabelValues("success").Inc()

	snapshot, rejected := Normalize(hour, raw)

	report.Received = len(raw)
	report.Accepted = len(snapshot)
	report.Rejected = rejected
	l.metrics.PointsAccepted.Add(float64(len(snapshot)))
	l.metrics.PointsRejected.Add(float64(rejected))

	if rejected > 0 {
		l.logger.Debug("filtered invalid points", "hour", hour, "rejected", rejected, "accepted", len(snapshot))
	}
	return snapshot, report
}

// LoadAll fetches all hour slots concurrently and waits for every one of
// them to settle before returning. It never fails: an hour that cannot be
// fetched is an empty snapshot.
func (l *Loader) LoadAll(ctx context.Context) *FleetDataset {
	start := l.clock.Now()

	var (
		wg      sync.WaitGroup
		hours   [HoursPerDay]HourSnapshot
		reports [HoursPerDay]HourReport
	)

	for hour := 0; hour < HoursPerDay; hour++ {
		wg.Add(1)
		go func(hour int) {
			defer wg.Done()
			// Each goroutine owns its own slot; no lock needed.
			hours[hour], reports[hour] = l.FetchHour(ctx, hour)
		}(hour)
	}

	wg.Wait()

	ds := &FleetDataset{
		LoadID:   uuid.NewString(),
		LoadedAt: l.clock.Now().UTC(),
		Hours:    hours,
		Reports:  reports,
	}
	for _, h := range hours {
		ds.TotalPoints += len(h)
	}
	ds.Quality = Quality(hours)
	ds.Status = statusOf(hours)

	l.metrics.FleetLoadSeconds.Observe(l.clock.Since(start).Seconds())
	l.metrics.FleetQuality.Set(float64(ds.Quality))

	l.logger.Info("fleet loaded",
		"load_id", ds.LoadID,
		"total_points", ds.TotalPoints,
		"quality", ds.Quality,
		"status", ds.Status,
	)
	return ds
}

// Quality is round(100 * total / (24 * len(hours[0]))). An empty hour 0 gives 0.
func Quality(hours [HoursPerDay]HourSnapshot) int {
	expected := len(hours[0])
	if expected == 0 {
		return 0
	}
	total := 0
	for _, h := range hours {
		total += len(h)
	}
	return int(math.Round(100 * float64(total) / float64(HoursPerDay*expected)))
}

func statusOf(hours [HoursPerDay]HourSnapshot) LoadStatus {
	filled := 0
	for _, h := range hours {
		if len(h) > 0 {
			filled++
		}
	}
	switch filled {
	case 0:
		return StatusEmpty
	case HoursPerDay:
		return StatusComplete
	default:
		return StatusDegraded
	}
}
