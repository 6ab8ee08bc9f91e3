package geocode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGeocoder struct {
	calls  int
	result Result
	err    error
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, lat, lon float64) (Result, error) {
	m.calls++
	r := m.result
	r.Lat, r.Lon = lat, lon
	return r, m.err
}

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{result: Result{FormattedAddress: "Reno, NV, USA"}}
	cached := NewCachedGeocoder(inner, 10)

	r1, err := cached.ReverseGeocode(context.Background(), 39.5296, -119.8138)
	require.NoError(t, err)
	r2, err := cached.ReverseGeocode(context.Background(), 39.5296, -119.8138)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedGeocoder_EmptyNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10)

	_, _ = cached.ReverseGeocode(context.Background(), 0, -140)
	_, _ = cached.ReverseGeocode(context.Background(), 0, -140)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("quota exceeded")}
	cached := NewCachedGeocoder(inner, 10)

	_, err := cached.ReverseGeocode(context.Background(), 1, 1)
	assert.Error(t, err)
	_, _ = cached.ReverseGeocode(context.Background(), 1, 1)
	assert.Equal(t, 2, inner.calls)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", Result{City: "A"})
	c.put("b", Result{City: "B"})

	// Touch a so b becomes least recently used.
	_, ok := c.get("a")
	require.True(t, ok)

	c.put("c", Result{City: "C"})
	assert.Equal(t, 2, c.size())

	_, ok = c.get("b")
	assert.False(t, ok)
	r, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", r.City)
	_, ok = c.get("c")
	assert.True(t, ok)
}

func TestLRUCache_Update(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", Result{City: "old"})
	c.put("a", Result{City: "new"})

	r, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, "new", r.City)
	assert.Equal(t, 1, c.size())
}
