package terrametrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

// testGrid is a north-up projected grid of 30 m pixels with its origin at
// (0, height*30).
func testGrid(width, height int) Grid {
	return NewGrid(width, height, 0, float64(height)*30, 30, false)
}

func testImage(t *testing.T, grid Grid, name string, values ...float64) *Image {
	t.Helper()
	img, err := NewImageFromPixels(grid, name, values)
	require.NoError(t, err)
	return img
}

func bandOf(t *testing.T, img *Image, name string) []float64 {
	t.Helper()
	data, err := img.Band(name)
	require.NoError(t, err)
	return data
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
