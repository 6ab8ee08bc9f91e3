package fleet

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() *FleetDataset {
	ds := &FleetDataset{}
	ds.Hours[0] = HourSnapshot{
		{ID: "balloon-0", Lat: 10, Lon: 20, AltitudeKm: 12, Hour: 0},
		{ID: "balloon-1", Lat: -5, Lon: 100, AltitudeKm: 3, Hour: 0},
	}
	ds.Hours[1] = HourSnapshot{
		{ID: "balloon-0", Lat: 11, Lon: 21, AltitudeKm: 12.5, Hour: 1},
	}
	ds.Hours[3] = HourSnapshot{
		{ID: "balloon-0", Lat: 13, Lon: 23, AltitudeKm: 13, Hour: 3},
		{ID: "balloon-1", Lat: -6, Lon: 101, AltitudeKm: 4, Hour: 3},
	}
	return ds
}

func TestBuildTracks_Gaps(t *testing.T) {
	tracks := BuildTracks(sampleDataset())

	require.Len(t, tracks, 2)

	b0 := tracks["balloon-0"]
	require.NotNil(t, b0[0])
	require.NotNil(t, b0[1])
	assert.Nil(t, b0[2], "missing hour must stay a gap")
	require.NotNil(t, b0[3])
	assert.Equal(t, 13.0, b0[3].Lat)

	b1 := tracks["balloon-1"]
	assert.Nil(t, b1[1])
	assert.Len(t, b1.Points(), 2)
}

func TestBuildTracks_Idempotent(t *testing.T) {
	ds := sampleDataset()

	first := BuildTracks(ds)
	second := BuildTracks(ds)

	assert.Empty(t, cmp.Diff(first, second))
}

func TestBuildTracks_DoesNotAliasDataset(t *testing.T) {
	ds := sampleDataset()
	tracks := BuildTracks(ds)

	b0 := tracks["balloon-0"]
	b0[0].Lat = 99

	assert.Equal(t, 10.0, ds.Hours[0][0].Lat)
}

func TestTrack_PolylineSkipsGaps(t *testing.T) {
	tracks := BuildTracks(sampleDataset())

	assert.Equal(t, [][2]float64{{10, 20}, {11, 21}, {13, 23}}, tracks["balloon-0"].Polyline())
}

func TestBuildTracks_NilDataset(t *testing.T) {
	assert.Empty(t, BuildTracks(nil))
}
