package fleet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Physical bounds a telemetry point must satisfy.
const (
	MaxAbsLatitude  = 90.0
	MaxAbsLongitude = 180.0
	MinAltitudeKm   = 0.0
	MaxAltitudeKm   = 30.0
)

var (
	// ErrInvalidPoint is the parent of every rejection reason below.
	ErrInvalidPoint = errors.New("invalid point")

	errArity     = fmt.Errorf("%w: expected 3 numeric components", ErrInvalidPoint)
	errNaN       = fmt.Errorf("%w: NaN component", ErrInvalidPoint)
	errLatitude  = fmt.Errorf("%w: latitude out of range", ErrInvalidPoint)
	errLongitude = fmt.Errorf("%w: longitude out of range", ErrInvalidPoint)
	errAltitude  = fmt.Errorf("%w: altitude out of range", ErrInvalidPoint)
)

// ParseRawPoint decodes one upstream array element. Anything that is not a
// JSON array of exactly three numbers is rejected; null and strings count as
// non-numeric.
func ParseRawPoint(msg json.RawMessage) (RawPoint, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()

	var comps []any
	if err := dec.Decode(&comps); err != nil {
		return nil, errArity
	}
	if len(comps) != 3 {
		return nil, errArity
	}

	pt := make(RawPoint, 0, 3)
	for _, c := range comps {
		n, ok := c.(json.Number)
		if !ok {
			return nil, errArity
		}
		f, err := n.Float64()
		if err != nil {
			return nil, errArity
		}
		pt = append(pt, f)
	}
	return pt, nil
}

// Validate classifies a raw triple. The returned record carries position and
// altitude only; the caller assigns ID and Hour.
func Validate(raw RawPoint) (BalloonRecord, error) {
	if len(raw) != 3 {
		return BalloonRecord{}, errArity
	}
	lat, lon, alt := raw[0], raw[1], raw[2]

	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsNaN(alt) {
		return BalloonRecord{}, errNaN
	}
	if math.Abs(lat) > MaxAbsLatitude {
		return BalloonRecord{}, errLatitude
	}
	if math.Abs(lon) > MaxAbsLongitude {
		return BalloonRecord{}, errLongitude
	}
	if alt < MinAltitudeKm || alt > MaxAltitudeKm {
		return BalloonRecord{}, errAltitude
	}

	return BalloonRecord{Lat: lat, Lon: lon, AltitudeKm: alt}, nil
}

// BalloonID derives the positional id used to join records across hours.
func BalloonID(index int) string {
	return fmt.Sprintf("balloon-%d", index)
}

// Normalize validates every raw element of one hour and tags survivors with
// id and hour. Ids come from the post-validation index, so the n-th accepted
// point of every hour is "balloon-n".
func Normalize(hour int, raw []json.RawMessage) (HourSnapshot, int) {
	out := make(HourSnapshot, 0, len(raw))
	rejected := 0

	for _, msg := range raw {
		pt, err := ParseRawPoint(msg)
		if err != nil {
			rejected++
			continue
		}
		rec, err := Validate(pt)
		if err != nil {
			rejected++
			continue
		}
		rec.ID = BalloonID(len(out))
		rec.Hour = hour
		out = append(out, rec)
	}

	return out, rejected
}
