package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleGeocoder_MapsFirstAddress(t *testing.T) {
	var got geocoder.Location
	g := &GoogleGeocoder{reverse: func(loc geocoder.Location) ([]geocoder.Address, error) {
		got = loc
		return []geocoder.Address{
			{City: "Reno", State: "Nevada", Country: "United States"},
			{City: "Sparks", Country: "United States"},
		}, nil
	}}

	res, err := g.ReverseGeocode(context.Background(), 39.5, -119.8)
	require.NoError(t, err)

	assert.Equal(t, geocoder.Location{Latitude: 39.5, Longitude: -119.8}, got)
	assert.Equal(t, 39.5, res.Lat)
	assert.Equal(t, -119.8, res.Lon)
	assert.Equal(t, "Reno", res.City)
	assert.Equal(t, "United States", res.Country)
	assert.Contains(t, res.FormattedAddress, "Reno")
}

func TestGoogleGeocoder_NoResults(t *testing.T) {
	g := &GoogleGeocoder{reverse: func(geocoder.Location) ([]geocoder.Address, error) {
		return nil, nil
	}}

	res, err := g.ReverseGeocode(context.Background(), 0, -140)
	require.NoError(t, err)
	assert.Equal(t, Result{Lat: 0, Lon: -140}, res)
}

func TestGoogleGeocoder_Error(t *testing.T) {
	g := &GoogleGeocoder{reverse: func(geocoder.Location) ([]geocoder.Address, error) {
		return nil, errors.New("OVER_QUERY_LIMIT")
	}}

	_, err := g.ReverseGeocode(context.Background(), 1, 1)
	assert.EqualError(t, err, "OVER_QUERY_LIMIT")
}

func TestGoogleGeocoder_ContextAbandonsLookup(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	g := &GoogleGeocoder{reverse: func(geocoder.Location) ([]geocoder.Address, error) {
		<-release
		return nil, nil
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.ReverseGeocode(ctx, 1, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGoogleGeocoder_CancelledBeforeCall(t *testing.T) {
	called := false
	g := &GoogleGeocoder{reverse: func(geocoder.Location) ([]geocoder.Address, error) {
		called = true
		return nil, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.ReverseGeocode(ctx, 1, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
