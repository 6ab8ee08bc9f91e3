package fleet

import "math"

// DefaultExpectedPerHour is the per-hour baseline used when hour 0 is empty.
const DefaultExpectedPerHour = 1000

// Bucket is one altitude histogram bin, [MinKm, MaxKm). MaxKm is +Inf for the
// top bin.
type Bucket struct {
	Label string  `json:"label"`
	MinKm float64 `json:"minKm"`
	MaxKm float64 `json:"-"`
	Color string  `json:"color"`
	Count int     `json:"count"`
}

// AltitudeBuckets returns a fresh, zeroed copy of the fixed histogram layout.
func AltitudeBuckets() []Bucket {
	return []Bucket{
		{Label: "0-5km", MinKm: 0, MaxKm: 5, Color: "#0066ff"},
		{Label: "5-10km", MinKm: 5, MaxKm: 10, Color: "#00ccff"},
		{Label: "10-15km", MinKm: 10, MaxKm: 15, Color: "#00ff66"},
		{Label: "15-20km", MinKm: 15, MaxKm: 20, Color: "#ffff00"},
		{Label: "20km+", MinKm: 20, MaxKm: math.Inf(1), Color: "#ff3333"},
	}
}

// BucketIndex returns the first bucket, scanning low to high, whose upper
// bound exceeds altitudeKm. A value on a boundary lands in the upper bucket.
func BucketIndex(buckets []Bucket, altitudeKm float64) int {
	for i, b := range buckets {
		if altitudeKm < b.MaxKm {
			return i
		}
	}
	return len(buckets) - 1
}

// AltitudeColor is the map colour for a balloon at the given altitude.
func AltitudeColor(altitudeKm float64) string {
	b := AltitudeBuckets()
	return b[BucketIndex(b, altitudeKm)].Color
}

// HourAggregate is the derived summary of one hour snapshot.
type HourAggregate struct {
	Hour           int      `json:"hour"`
	Count          int      `json:"count"`
	MeanAltitudeKm float64  `json:"meanAltitudeKm"` // 0 when Count is 0
	Histogram      []Bucket `json:"histogram"`
	Quality        int      `json:"quality"`
}

// Aggregate builds the histogram, count and mean altitude of one snapshot.
// Quality is left to the caller, who knows the expected baseline.
func Aggregate(snapshot HourSnapshot) HourAggregate {
	agg := HourAggregate{
		Count:     len(snapshot),
		Histogram: AltitudeBuckets(),
	}
	if len(snapshot) > 0 {
		agg.Hour = snapshot[0].Hour
	}

	var sum float64
	for _, rec := range snapshot {
		sum += rec.AltitudeKm
		agg.Histogram[BucketIndex(agg.Histogram, rec.AltitudeKm)].Count++
	}
	if agg.Count > 0 {
		agg.MeanAltitudeKm = sum / float64(agg.Count)
	}
	return agg
}

// ExpectedPerHour is the per-hour baseline: the size of hour 0, or
// DefaultExpectedPerHour when hour 0 is empty.
func (d *FleetDataset) ExpectedPerHour() int {
	if d == nil || len(d.Hours[0]) == 0 {
		return DefaultExpectedPerHour
	}
	return len(d.Hours[0])
}

// AggregateHour aggregates one hour of the dataset, including its quality
// relative to ExpectedPerHour.
func (d *FleetDataset) AggregateHour(hour int) HourAggregate {
	agg := Aggregate(d.Snapshot(hour))
	agg.Hour = hour
	agg.Quality = HourQuality(agg.Count, d.ExpectedPerHour())
	return agg
}

// HourQuality is round(100 * count / expected), 0 for a non-positive baseline.
func HourQuality(count, expected int) int {
	if expected <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(count) / float64(expected)))
}
