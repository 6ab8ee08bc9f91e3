// Package geocode resolves balloon positions to place names.
package geocode

import (
	"context"
	"sync"

	"github.com/kelvins/geocoder"
)

// Result is a reverse-geocoded place. An empty FormattedAddress means the
// position resolved to nothing (open ocean, poles).
type Result struct {
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	FormattedAddress string  `json:"formattedAddress,omitempty"`
	City             string  `json:"city,omitempty"`
	Country          string  `json:"country,omitempty"`
}

// Geocoder converts coordinates to place details.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (Result, error)
}

// apiKeyMu guards the geocoder package's global API key.
var apiKeyMu sync.Mutex

type reverseFunc func(geocoder.Location) ([]geocoder.Address, error)

// GoogleGeocoder reverse-geocodes through the Google Geocoding API.
type GoogleGeocoder struct {
	reverse reverseFunc
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		reverse: func(loc geocoder.Location) ([]geocoder.Address, error) {
			apiKeyMu.Lock()
			defer apiKeyMu.Unlock()
			geocoder.ApiKey = apiKey
			return geocoder.GeocodingReverse(loc)
		},
	}
}

type lookup struct {
	res Result
	err error
}

// ReverseGeocode returns the first match for the position. The underlying
// client has no context support, so cancellation abandons the call rather
// than aborting it.
func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	done := make(chan lookup, 1)
	go func() {
		addrs, err := g.reverse(geocoder.Location{Latitude: lat, Longitude: lon})
		if err != nil {
			done <- lookup{err: err}
			return
		}
		done <- lookup{res: toResult(lat, lon, addrs)}
	}()

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case l := <-done:
		return l.res, l.err
	}
}

func toResult(lat, lon float64, addrs []geocoder.Address) Result {
	res := Result{Lat: lat, Lon: lon}
	if len(addrs) == 0 {
		return res
	}
	addr := addrs[0]
	res.FormattedAddress = addr.FormatAddress()
	res.City = addr.City
	res.Country = addr.Country
	return res
}
