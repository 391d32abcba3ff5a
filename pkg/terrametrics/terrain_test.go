package terrametrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// planeDEM rises by dx per column eastward and dy per row southward.
func planeDEM(t *testing.T, width, height int, dx, dy float64) *Image {
	t.Helper()
	data := make([]float64, width*height)
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			data[r*width+c] = dx*float64(c) + dy*float64(r)
		}
	}
	return testImage(t, testGrid(width, height), "elevation", data...)
}

func TestSlopeOfPlane(t *testing.T) {
	dem := planeDEM(t, 5, 5, 3, 0) // 0.1 m/m eastward

	slope, err := Slope(dem)
	require.NoError(t, err)
	assert.Equal(t, []string{"slope"}, slope.BandNames())
	want := math.Atan(0.1) * 180 / math.Pi
	assert.InDelta(t, want, slope.At(0, 2, 2), 1e-9)

	flat, err := Slope(planeDEM(t, 3, 3, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 0.0, flat.At(0, 1, 1))
}

func TestAspectDirections(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy float64
		want   float64
	}{
		{"rising east faces west", 3, 0, 270},
		{"rising west faces east", -3, 0, 90},
		{"rising south faces north", 0, 3, 0},
		{"rising north faces south", 0, -3, 180},
		{"rising north-east faces south-west", 3, -3, 225},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aspect, err := Aspect(planeDEM(t, 5, 5, tt.dx, tt.dy))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, aspect.At(0, 2, 2), 1e-9)
		})
	}
}

func TestTerrainMasksMissingElevation(t *testing.T) {
	dem := testImage(t, testGrid(3, 1), "elevation", 1, nan, 3)
	slope, err := Slope(dem)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(slope.At(0, 1, 0)))
	assert.False(t, math.IsNaN(slope.At(0, 0, 0)))

	two, err := NewImage(testGrid(1, 1), Band{Name: "a", Data: []float64{1}}, Band{Name: "b", Data: []float64{1}})
	require.NoError(t, err)
	_, err = Slope(two)
	assert.ErrorIs(t, err, ErrBandMismatch)
}

func TestPixelLonLat(t *testing.T) {
	grid := NewGrid(2, 2, -120, 40, 0.5, true)
	ll, err := PixelLonLat(grid)
	require.NoError(t, err)
	assert.Equal(t, []float64{-119.75, -119.25, -119.75, -119.25}, bandOf(t, ll, "longitude"))
	assert.Equal(t, []float64{39.75, 39.75, 39.25, 39.25}, bandOf(t, ll, "latitude"))

	_, err = PixelLonLat(testGrid(2, 2))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGeographicPixelSize(t *testing.T) {
	grid := NewGrid(1, 1, 0, 60.5, 1, true)
	dx, dy := grid.RowPixelSizeMeters(0)
	assert.InDelta(t, metersPerDegree, dy, 1e-6)
	assert.InDelta(t, metersPerDegree*math.Cos(60*math.Pi/180), dx, 1e-6)
}
